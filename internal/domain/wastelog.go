package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// UnassignedBin tags records that arrive without a bin identifier.
const UnassignedBin = "unassigned"

// UnknownWasteName is the display name used when a reference lookup misses or fails.
const UnknownWasteName = "unknown"

// LogRecord is a single waste-disposal entry from the log collection.
type LogRecord struct {
	ID               string    `json:"id"`
	WasteTypeKey     string    `json:"waste_type_key"`
	Timestamp        time.Time `json:"timestamp"`
	TimestampMissing bool      `json:"-"`
	UserID           string    `json:"user_id"`
	SortedCorrectly  bool      `json:"sorted_correctly"`
	BinID            string    `json:"bin_id"`
	Status           string    `json:"status,omitempty"`
}

// ReferenceTypeEntry is the reference metadata for one waste type key.
type ReferenceTypeEntry struct {
	Key         string `json:"key"`
	DisplayCode string `json:"display_code"`
	DisplayName string `json:"display_name"`
}

// EnrichedLogRow is a LogRecord joined with its reference entry.
type EnrichedLogRow struct {
	LogRecord
	WasteTypeCode        string `json:"waste_type_code"`
	WasteTypeLabel       string `json:"waste_type_label"`
	WasteTypeDisplayName string `json:"waste_type_display_name"`
}

// Cursor marks the last record of a page. A page fetched after it starts
// strictly after that record in (timestamp desc, id desc) order.
type Cursor struct {
	Timestamp time.Time
	ID        string
	// Untimed is set when the record had no usable stored timestamp.
	Untimed bool
}

// CursorAfter builds the cursor positioned at rec.
func CursorAfter(rec LogRecord) *Cursor {
	c := &Cursor{ID: rec.ID, Untimed: rec.TimestampMissing}
	if !rec.TimestampMissing {
		c.Timestamp = rec.Timestamp
	}
	return c
}

// Encode returns the opaque string form of the cursor.
func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}
	ts := "-"
	if !c.Untimed {
		ts = c.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return base64.RawURLEncoding.EncodeToString([]byte(ts + "," + c.ID))
}

// DecodeCursor parses a cursor produced by Encode. An empty string yields nil.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	parts := strings.SplitN(string(raw), ",", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, ErrInvalidCursor
	}
	c := &Cursor{ID: parts[1]}
	if parts[0] == "-" {
		c.Untimed = true
		return c, nil
	}
	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	c.Timestamp = t
	return c, nil
}
