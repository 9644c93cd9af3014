package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// IntList is a list of integers stored as a jsonb array.
type IntList []int

// Value implements the driver.Valuer interface
func (l IntList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (l *IntList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := asBytes(value)
	if !ok {
		return fmt.Errorf("cannot scan %T into IntList", value)
	}
	return json.Unmarshal(bytes, (*[]int)(l))
}

func asBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
