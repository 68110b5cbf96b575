package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// ========== Tenant Methods ==========

// CreateTenant creates a new tenant
func (s *PostgresStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}

	now := time.Now()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	query := `
		INSERT INTO tenants (
			id, created_at, updated_at, name, description, owner,
			plmn_id, bssid_type, prefix, vbses, vaps, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.db.ExecContext(ctx, query,
		tenant.ID, tenant.CreatedAt, tenant.UpdatedAt, tenant.Name,
		tenant.Description, tenant.Owner, int64(tenant.PLMNID), string(tenant.BSSIDType),
		tenant.Prefix.String(), pq.Array(addrStrings(tenant.VBSes)),
		pq.Array(addrStrings(tenant.VAPs)), tenant.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetTenant gets a tenant by ID
func (s *PostgresStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `
		SELECT id, created_at, updated_at, name, description, owner,
		       plmn_id, bssid_type, prefix, vbses, vaps, is_active
		FROM tenants
		WHERE id = $1`

	tenant, err := scanTenant(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// UpdateTenant updates a tenant
func (s *PostgresStore) UpdateTenant(ctx context.Context, tenant *models.Tenant) error {
	tenant.UpdatedAt = time.Now()

	query := `
		UPDATE tenants SET
			updated_at = $2, name = $3, description = $4, owner = $5,
			plmn_id = $6, bssid_type = $7, prefix = $8, vbses = $9,
			vaps = $10, is_active = $11
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		tenant.ID, tenant.UpdatedAt, tenant.Name, tenant.Description, tenant.Owner,
		int64(tenant.PLMNID), string(tenant.BSSIDType), tenant.Prefix.String(),
		pq.Array(addrStrings(tenant.VBSes)), pq.Array(addrStrings(tenant.VAPs)),
		tenant.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return err
	}

	return expectOneRow(result)
}

// DeleteTenant deletes a tenant
func (s *PostgresStore) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tenants WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// ListTenants lists tenants ordered by creation time
func (s *PostgresStore) ListTenants(ctx context.Context, limit, offset int) ([]*models.Tenant, int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tenants").Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, created_at, updated_at, name, description, owner,
		       plmn_id, bssid_type, prefix, vbses, vaps, is_active
		FROM tenants
		ORDER BY created_at
		LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, sqlLimit(limit), offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, 0, err
		}
		tenants = append(tenants, tenant)
	}

	return tenants, count, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTenant(row rowScanner) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	var (
		plmnID    int64
		bssidType string
		prefix    string
		vbses     []string
		vaps      []string
	)

	err := row.Scan(
		&tenant.ID, &tenant.CreatedAt, &tenant.UpdatedAt, &tenant.Name,
		&tenant.Description, &tenant.Owner, &plmnID, &bssidType, &prefix,
		pq.Array(&vbses), pq.Array(&vaps), &tenant.IsActive,
	)
	if err != nil {
		return nil, err
	}

	tenant.PLMNID = uint32(plmnID)
	tenant.BSSIDType = models.BSSIDType(bssidType)

	if prefix != "" {
		if tenant.Prefix, err = emage.ParseEtherAddress(prefix); err != nil {
			return nil, fmt.Errorf("tenant %s prefix: %w", tenant.ID, ErrInvalidData)
		}
	}
	if tenant.VBSes, err = parseAddrs(vbses); err != nil {
		return nil, fmt.Errorf("tenant %s vbses: %w", tenant.ID, err)
	}
	if tenant.VAPs, err = parseAddrs(vaps); err != nil {
		return nil, fmt.Errorf("tenant %s vaps: %w", tenant.ID, err)
	}

	return tenant, nil
}

func addrStrings(addrs []emage.EtherAddress) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}

func parseAddrs(in []string) ([]emage.EtherAddress, error) {
	out := make([]emage.EtherAddress, 0, len(in))
	for _, s := range in {
		a, err := emage.ParseEtherAddress(s)
		if err != nil {
			return nil, ErrInvalidData
		}
		out = append(out, a)
	}
	return out, nil
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
