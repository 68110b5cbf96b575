package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ran-controller/ran-controller-pro/internal/models"
)

const eventColumns = "id, created_at, tenant_id, vbs, ue, type, level, code, description, details"

// CreateEventLog persists an event, filling in the id and timestamp when unset
func (s *PostgresStore) CreateEventLog(ctx context.Context, event *models.EventLog) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO event_logs ("+eventColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		event.ID, event.CreatedAt, event.TenantID, event.VBS, event.UE,
		event.Type, event.Level, event.Code, event.Description, event.Details,
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", event.ID, err)
	}
	return nil
}

// ListEventLogs lists matching events, newest first, with the total match count
func (s *PostgresStore) ListEventLogs(ctx context.Context, filters EventLogFilters, limit, offset int) ([]*models.EventLog, int64, error) {
	where, args := filters.where()

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM event_logs"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf("SELECT %s FROM event_logs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		eventColumns, where, n+1, n+2)
	args = append(args, sqlLimit(limit), offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*models.EventLog
	for rows.Next() {
		ev := &models.EventLog{}
		if err := rows.Scan(
			&ev.ID, &ev.CreatedAt, &ev.TenantID, &ev.VBS, &ev.UE,
			&ev.Type, &ev.Level, &ev.Code, &ev.Description, &ev.Details,
		); err != nil {
			return nil, 0, err
		}
		events = append(events, ev)
	}

	return events, total, rows.Err()
}

// where renders the set filters as a WHERE clause with positional args
func (f EventLogFilters) where() (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.TenantID != nil {
		add("tenant_id = $%d", *f.TenantID)
	}
	if f.VBS != nil {
		add("vbs = $%d", f.VBS.String())
	}
	if f.UE != "" {
		add("ue = $%d", f.UE)
	}
	if f.Type != nil {
		add("type = $%d", string(*f.Type))
	}
	if f.Level != nil {
		add("level = $%d", string(*f.Level))
	}
	if f.StartTime != nil {
		add("created_at >= $%d", *f.StartTime)
	}
	if f.EndTime != nil {
		add("created_at <= $%d", *f.EndTime)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
