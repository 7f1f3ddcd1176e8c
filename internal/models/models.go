package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// JSONStrings stores a list of attachment keys as a jsonb column.
type JSONStrings []string

// Value implements driver.Valuer.
func (s JSONStrings) Value() (driver.Value, error) {
	if len(s) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *JSONStrings) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported scan type %T for JSONStrings", src)
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(raw, s)
}

// FileLink pairs a stored attachment key with a time-limited download URL.
// Keys are persisted; URLs are minted at read time and never stored.
type FileLink struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
