package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Details is the free-form JSON payload attached to an event log entry
type Details map[string]interface{}

// Value stores Details as JSONB
func (d Details) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return json.Marshal(d)
}

// Scan reads a JSONB column; NULL scans to an empty map
func (d *Details) Scan(value interface{}) error {
	*d = make(Details)

	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported details type %T", value)
	}
	return json.Unmarshal(data, d)
}
