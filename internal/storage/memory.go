package storage

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// MemoryStore implements Store in process memory, used when no database is configured
type MemoryStore struct {
	mu      sync.RWMutex
	tenants []*models.Tenant
	vbses   []*models.VBS
	events  []*models.EventLog
	// max events retained, 0 means unbounded
	maxEvents int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(maxEvents int) *MemoryStore {
	return &MemoryStore{maxEvents: maxEvents}
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}

// CreateTenant creates a new tenant
func (m *MemoryStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	for _, t := range m.tenants {
		if t.ID == tenant.ID || t.Name == tenant.Name ||
			(tenant.PLMNID != 0 && t.PLMNID == tenant.PLMNID) {
			return ErrDuplicateKey
		}
	}

	now := time.Now()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	m.tenants = append(m.tenants, cloneTenant(tenant))
	return nil
}

// GetTenant gets a tenant by ID
func (m *MemoryStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.tenantIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return cloneTenant(m.tenants[i]), nil
}

// UpdateTenant updates a tenant
func (m *MemoryStore) UpdateTenant(ctx context.Context, tenant *models.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.tenantIndex(tenant.ID)
	if i < 0 {
		return ErrNotFound
	}
	for j, t := range m.tenants {
		if j == i {
			continue
		}
		if t.Name == tenant.Name || (tenant.PLMNID != 0 && t.PLMNID == tenant.PLMNID) {
			return ErrDuplicateKey
		}
	}

	tenant.CreatedAt = m.tenants[i].CreatedAt
	tenant.UpdatedAt = time.Now()
	m.tenants[i] = cloneTenant(tenant)
	return nil
}

// DeleteTenant deletes a tenant
func (m *MemoryStore) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.tenantIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	m.tenants = slices.Delete(m.tenants, i, i+1)
	return nil
}

// ListTenants lists tenants in creation order
func (m *MemoryStore) ListTenants(ctx context.Context, limit, offset int) ([]*models.Tenant, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	page := paginate(m.tenants, limit, offset)
	out := make([]*models.Tenant, len(page))
	for i, t := range page {
		out[i] = cloneTenant(t)
	}
	return out, int64(len(m.tenants)), nil
}

func (m *MemoryStore) tenantIndex(id uuid.UUID) int {
	return slices.IndexFunc(m.tenants, func(t *models.Tenant) bool { return t.ID == id })
}

// CreateVBS provisions a station
func (m *MemoryStore) CreateVBS(ctx context.Context, vbs *models.VBS) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.vbsIndex(vbs.Addr) >= 0 {
		return ErrDuplicateKey
	}
	m.vbses = append(m.vbses, cloneVBS(vbs))
	return nil
}

// GetVBS gets a station by address
func (m *MemoryStore) GetVBS(ctx context.Context, addr emage.EtherAddress) (*models.VBS, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.vbsIndex(addr)
	if i < 0 {
		return nil, ErrNotFound
	}
	return cloneVBS(m.vbses[i]), nil
}

// UpdateVBS updates label and supported blocks
func (m *MemoryStore) UpdateVBS(ctx context.Context, vbs *models.VBS) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.vbsIndex(vbs.Addr)
	if i < 0 {
		return ErrNotFound
	}
	m.vbses[i] = cloneVBS(vbs)
	return nil
}

// DeleteVBS deletes a station
func (m *MemoryStore) DeleteVBS(ctx context.Context, addr emage.EtherAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.vbsIndex(addr)
	if i < 0 {
		return ErrNotFound
	}
	m.vbses = slices.Delete(m.vbses, i, i+1)
	return nil
}

// ListVBSes lists stations in creation order
func (m *MemoryStore) ListVBSes(ctx context.Context, limit, offset int) ([]*models.VBS, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	page := paginate(m.vbses, limit, offset)
	out := make([]*models.VBS, len(page))
	for i, v := range page {
		out[i] = cloneVBS(v)
	}
	return out, int64(len(m.vbses)), nil
}

func (m *MemoryStore) vbsIndex(addr emage.EtherAddress) int {
	return slices.IndexFunc(m.vbses, func(v *models.VBS) bool { return v.Addr == addr })
}

// CreateEventLog appends an event, evicting the oldest when full
func (m *MemoryStore) CreateEventLog(ctx context.Context, event *models.EventLog) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ev := *event
	m.events = append(m.events, &ev)
	if m.maxEvents > 0 && len(m.events) > m.maxEvents {
		m.events = slices.Delete(m.events, 0, len(m.events)-m.maxEvents)
	}
	return nil
}

// ListEventLogs lists event logs newest first
func (m *MemoryStore) ListEventLogs(ctx context.Context, filters EventLogFilters, limit, offset int) ([]*models.EventLog, int64, error) {
	m.mu.RLock()
	var matched []*models.EventLog
	for _, ev := range m.events {
		if filters.Match(ev) {
			matched = append(matched, ev)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := paginate(matched, limit, offset)
	out := make([]*models.EventLog, len(page))
	for i, ev := range page {
		c := *ev
		out[i] = &c
	}
	return out, int64(len(matched)), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneTenant(t *models.Tenant) *models.Tenant {
	c := *t
	c.VBSes = slices.Clone(t.VBSes)
	c.VAPs = slices.Clone(t.VAPs)
	c.UEs = nil
	return &c
}

func cloneVBS(v *models.VBS) *models.VBS {
	c := models.NewVBS(v.Addr, v.Label)
	c.Supports = slices.Clone(v.Supports)
	return c
}
