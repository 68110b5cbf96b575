package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// ========== VBS Methods ==========

// CreateVBS provisions a station
func (s *PostgresStore) CreateVBS(ctx context.Context, vbs *models.VBS) error {
	supports, err := json.Marshal(vbs.Supports)
	if err != nil {
		return fmt.Errorf("marshal supports: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO vbses (addr, created_at, updated_at, label, supports)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = s.db.ExecContext(ctx, query, vbs.Addr.String(), now, now, vbs.Label, supports)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetVBS gets a station by address
func (s *PostgresStore) GetVBS(ctx context.Context, addr emage.EtherAddress) (*models.VBS, error) {
	query := `SELECT addr, label, supports FROM vbses WHERE addr = $1`

	vbs, err := scanVBS(s.db.QueryRowContext(ctx, query, addr.String()))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return vbs, nil
}

// UpdateVBS updates label and supported blocks
func (s *PostgresStore) UpdateVBS(ctx context.Context, vbs *models.VBS) error {
	supports, err := json.Marshal(vbs.Supports)
	if err != nil {
		return fmt.Errorf("marshal supports: %w", err)
	}

	query := `UPDATE vbses SET updated_at = $2, label = $3, supports = $4 WHERE addr = $1`

	result, err := s.db.ExecContext(ctx, query, vbs.Addr.String(), time.Now(), vbs.Label, supports)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// DeleteVBS deletes a station
func (s *PostgresStore) DeleteVBS(ctx context.Context, addr emage.EtherAddress) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM vbses WHERE addr = $1", addr.String())
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// ListVBSes lists stations ordered by creation time
func (s *PostgresStore) ListVBSes(ctx context.Context, limit, offset int) ([]*models.VBS, int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vbses").Scan(&count); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT addr, label, supports FROM vbses ORDER BY created_at LIMIT $1 OFFSET $2",
		sqlLimit(limit), offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var vbses []*models.VBS
	for rows.Next() {
		vbs, err := scanVBS(rows)
		if err != nil {
			return nil, 0, err
		}
		vbses = append(vbses, vbs)
	}

	return vbses, count, rows.Err()
}

func scanVBS(row rowScanner) (*models.VBS, error) {
	var (
		addr     string
		label    string
		supports []byte
	)
	if err := row.Scan(&addr, &label, &supports); err != nil {
		return nil, err
	}

	a, err := emage.ParseEtherAddress(addr)
	if err != nil {
		return nil, fmt.Errorf("vbs %q: %w", addr, ErrInvalidData)
	}

	vbs := models.NewVBS(a, label)
	if len(supports) > 0 {
		if err := json.Unmarshal(supports, &vbs.Supports); err != nil {
			return nil, fmt.Errorf("vbs %s supports: %w", a, ErrInvalidData)
		}
	}
	for i := range vbs.Supports {
		vbs.Supports[i].Station = a
	}

	return vbs, nil
}
