package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

func TestMemoryTenantCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(0)

	tenant := &models.Tenant{
		Name:      "acme",
		PLMNID:    0x222f93,
		BSSIDType: models.BSSIDUnique,
		VBSes:     []emage.EtherAddress{emage.MustParseEtherAddress("00:00:00:00:00:01")},
	}
	require.NoError(t, m.CreateTenant(ctx, tenant))
	assert.NotEqual(t, uuid.Nil, tenant.ID)

	assert.ErrorIs(t, m.CreateTenant(ctx, &models.Tenant{Name: "other", PLMNID: 0x222f93}), ErrDuplicateKey)
	assert.ErrorIs(t, m.CreateTenant(ctx, &models.Tenant{Name: "acme"}), ErrDuplicateKey)

	got, err := m.GetTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Name)
	assert.Equal(t, tenant.VBSes, got.VBSes)

	// returned values are copies
	got.VBSes[0] = emage.EtherAddress{}
	again, err := m.GetTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.False(t, again.VBSes[0].IsZero())

	got.Description = "updated"
	require.NoError(t, m.UpdateTenant(ctx, got))
	again, err = m.GetTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated", again.Description)

	list, total, err := m.ListTenants(ctx, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	require.NoError(t, m.DeleteTenant(ctx, tenant.ID))
	_, err = m.GetTenant(ctx, tenant.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.DeleteTenant(ctx, tenant.ID), ErrNotFound)
}

func TestMemoryVBSCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(0)

	addr := emage.MustParseEtherAddress("00:00:00:00:00:01")
	v := models.NewVBS(addr, "rooftop")
	v.Supports = []models.ResourceBlock{{Station: addr, HWAddr: emage.MustParseEtherAddress("04:f0:21:09:f9:93"), Channel: 36, Band: 1}}

	require.NoError(t, m.CreateVBS(ctx, v))
	assert.ErrorIs(t, m.CreateVBS(ctx, v), ErrDuplicateKey)

	got, err := m.GetVBS(ctx, addr)
	require.NoError(t, err)
	if diff := cmp.Diff(v.Supports, got.Supports); diff != "" {
		t.Errorf("supports mismatch (-want +got):\n%s", diff)
	}

	got.Label = "basement"
	require.NoError(t, m.UpdateVBS(ctx, got))
	list, total, err := m.ListVBSes(ctx, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "basement", list[0].Label)

	require.NoError(t, m.DeleteVBS(ctx, addr))
	_, err = m.GetVBS(ctx, addr)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryEventLogs(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(3)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tenantID := uuid.New()
	for i := 0; i < 4; i++ {
		ev := &models.EventLog{
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			VBS:       "00:00:00:00:00:01",
			Type:      models.EventTypeVBSUp,
			Level:     models.EventLevelInfo,
		}
		if i%2 == 1 {
			ev.Type = models.EventTypeUEJoin
			ev.TenantID = &tenantID
		}
		require.NoError(t, m.CreateEventLog(ctx, ev))
	}

	all, total, err := m.ListEventLogs(ctx, EventLogFilters{}, 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	// newest first, the oldest entry was evicted
	assert.Equal(t, base.Add(3*time.Minute), all[0].CreatedAt)
	assert.Equal(t, base.Add(time.Minute), all[2].CreatedAt)

	join := models.EventTypeUEJoin
	joins, total, err := m.ListEventLogs(ctx, EventLogFilters{Type: &join}, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, ev := range joins {
		assert.Equal(t, tenantID, *ev.TenantID)
	}

	start := base.Add(2 * time.Minute)
	recent, _, err := m.ListEventLogs(ctx, EventLogFilters{StartTime: &start}, 1, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, base.Add(3*time.Minute), recent[0].CreatedAt)
}

func TestEventLogFiltersMatch(t *testing.T) {
	tenantID := uuid.New()
	addr := emage.MustParseEtherAddress("00:00:00:00:00:02")
	ev := &models.EventLog{
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TenantID:  &tenantID,
		VBS:       addr.String(),
		UE:        "00:00:00:00:00:02/71",
		Type:      models.EventTypeUELeave,
		Level:     models.EventLevelInfo,
	}

	other := uuid.New()
	otherAddr := emage.MustParseEtherAddress("00:00:00:00:00:03")
	warn := models.EventLevelWarning

	tests := []struct {
		name    string
		filters EventLogFilters
		want    bool
	}{
		{"empty", EventLogFilters{}, true},
		{"tenant", EventLogFilters{TenantID: &tenantID}, true},
		{"other tenant", EventLogFilters{TenantID: &other}, false},
		{"vbs", EventLogFilters{VBS: &addr}, true},
		{"other vbs", EventLogFilters{VBS: &otherAddr}, false},
		{"ue", EventLogFilters{UE: "00:00:00:00:00:02/71"}, true},
		{"level", EventLogFilters{Level: &warn}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filters.Match(ev))
		})
	}
}
