package storage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ran-controller/ran-controller-pro/internal/models"
	"github.com/ran-controller/ran-controller-pro/pkg/emage"
)

func TestEventLogFiltersWhere(t *testing.T) {
	where, args := EventLogFilters{}.where()
	assert.Empty(t, where)
	assert.Empty(t, args)

	tenant := uuid.New()
	vbs := emage.MustParseEtherAddress("00:00:00:00:00:01")
	typ := models.EventTypeHandover
	start := time.Unix(1700000000, 0)

	where, args = EventLogFilters{
		TenantID:  &tenant,
		VBS:       &vbs,
		Type:      &typ,
		StartTime: &start,
	}.where()

	assert.Equal(t, " WHERE tenant_id = $1 AND vbs = $2 AND type = $3 AND created_at >= $4", where)
	assert.Equal(t, []interface{}{tenant, "00:00:00:00:00:01", "HANDOVER", start}, args)
}

func TestSQLLimit(t *testing.T) {
	assert.Nil(t, sqlLimit(0))
	assert.Nil(t, sqlLimit(-1))
	assert.Equal(t, 20, sqlLimit(20))
}
