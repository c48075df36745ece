package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONStringMap is a flat string->string map stored as a jsonb column.
// Notification.Metadata and the template variable set both use this shape
// so the render path never has to deal with nested values.
type JSONStringMap map[string]string

// Value implements driver.Valuer for GORM/database-sql.
func (m JSONStringMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for GORM/database-sql.
func (m *JSONStringMap) Scan(value any) error {
	if value == nil {
		*m = JSONStringMap{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("JSONStringMap: unsupported scan type")
		}
		bytes = []byte(s)
	}
	if len(bytes) == 0 {
		*m = JSONStringMap{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}
