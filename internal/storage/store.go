package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidData  = errors.New("invalid data")
)

// Store defines the storage interface
type Store interface {
	// Tenant methods
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	UpdateTenant(ctx context.Context, tenant *models.Tenant) error
	DeleteTenant(ctx context.Context, id uuid.UUID) error
	ListTenants(ctx context.Context, limit, offset int) ([]*models.Tenant, int64, error)

	// VBS methods, only the provisioned fields are persisted
	CreateVBS(ctx context.Context, vbs *models.VBS) error
	GetVBS(ctx context.Context, addr emage.EtherAddress) (*models.VBS, error)
	UpdateVBS(ctx context.Context, vbs *models.VBS) error
	DeleteVBS(ctx context.Context, addr emage.EtherAddress) error
	ListVBSes(ctx context.Context, limit, offset int) ([]*models.VBS, int64, error)

	// Event log methods
	CreateEventLog(ctx context.Context, event *models.EventLog) error
	ListEventLogs(ctx context.Context, filters EventLogFilters, limit, offset int) ([]*models.EventLog, int64, error)

	// Close the store
	Close() error
}

// EventLogFilters represents filters for event logs
type EventLogFilters struct {
	TenantID  *uuid.UUID
	VBS       *emage.EtherAddress
	UE        string
	Type      *models.EventType
	Level     *models.EventLevel
	StartTime *time.Time
	EndTime   *time.Time
}

// Match reports whether the event passes all set filters
func (f EventLogFilters) Match(ev *models.EventLog) bool {
	if f.TenantID != nil && (ev.TenantID == nil || *ev.TenantID != *f.TenantID) {
		return false
	}
	if f.VBS != nil && ev.VBS != f.VBS.String() {
		return false
	}
	if f.UE != "" && ev.UE != f.UE {
		return false
	}
	if f.Type != nil && ev.Type != *f.Type {
		return false
	}
	if f.Level != nil && ev.Level != *f.Level {
		return false
	}
	if f.StartTime != nil && ev.CreatedAt.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && ev.CreatedAt.After(*f.EndTime) {
		return false
	}
	return true
}
