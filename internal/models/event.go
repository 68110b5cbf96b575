package models

import (
	"time"

	"github.com/google/uuid"
)

// EventLog represents an event log entry
type EventLog struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	TenantID *uuid.UUID `json:"tenantId,omitempty" db:"tenant_id"`
	VBS      string     `json:"vbs,omitempty" db:"vbs"`
	UE       string     `json:"ue,omitempty" db:"ue"`

	Type        EventType  `json:"type" db:"type"`
	Level       EventLevel `json:"level" db:"level"`
	Code        string     `json:"code" db:"code"`
	Description string     `json:"description" db:"description"`

	Details Details `json:"details,omitempty" db:"details"`
}

// EventType represents event types
type EventType string

const (
	// Station events
	EventTypeVBSUp   EventType = "VBS_UP"
	EventTypeVBSDown EventType = "VBS_DOWN"

	// Terminal events
	EventTypeUEJoin   EventType = "UE_JOIN"
	EventTypeUELeave  EventType = "UE_LEAVE"
	EventTypeHandover EventType = "HANDOVER"

	// Session events
	EventTypeSessionUp   EventType = "SESSION_UP"
	EventTypeSessionDown EventType = "SESSION_DOWN"
)

// EventLevel represents event severity levels
type EventLevel string

const (
	EventLevelDebug   EventLevel = "DEBUG"
	EventLevelInfo    EventLevel = "INFO"
	EventLevelWarning EventLevel = "WARNING"
	EventLevelError   EventLevel = "ERROR"
)
