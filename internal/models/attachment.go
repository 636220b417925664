package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// AttachmentList is an ordered set of stored file paths. It is persisted as a
// JSON array in a TEXT column; older rows stored a single bare path, which
// Scan normalizes into a one-element list.
type AttachmentList []string

// Value implements driver.Valuer.
func (a AttachmentList) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attachments: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (a *AttachmentList) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*a = AttachmentList{}
		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("cannot scan %T into AttachmentList", src)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		*a = AttachmentList{}
		return nil
	}
	// Legacy encoding: a single bare file path.
	if !strings.HasPrefix(s, "[") {
		*a = AttachmentList{s}
		return nil
	}
	if err := json.Unmarshal([]byte(s), a); err != nil {
		return fmt.Errorf("failed to decode attachments: %w", err)
	}
	if *a == nil {
		*a = AttachmentList{}
	}
	return nil
}
