package syncer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// cursorSettingKey is where the sync cursor is persisted in the settings
// table.
const cursorSettingKey = "sync.cursor"

// Cursor is the bookkeeping marker for incremental sync: when the last
// successful sync finished and how many items the remote reported. A missing
// or stale cursor forces a full sync.
type Cursor struct {
	LastSync    time.Time
	RemoteCount int
}

// Stale reports whether the cursor is too old to trust for an incremental
// delta.
func (c *Cursor) Stale(now time.Time, threshold time.Duration) bool {
	return now.Sub(c.LastSync) > threshold
}

// encode serializes the cursor for the settings table.
func (c *Cursor) encode() string {
	return c.LastSync.UTC().Format(time.RFC3339) + "|" + strconv.Itoa(c.RemoteCount)
}

// LastSyncTime reads the persisted cursor and reports when the last
// successful sync finished. ok is false when no valid cursor exists.
func LastSyncTime(store Store) (t time.Time, ok bool) {
	value, found, err := store.GetSetting(cursorSettingKey)
	if err != nil || !found {
		return time.Time{}, false
	}
	c, err := decodeCursor(value)
	if err != nil {
		return time.Time{}, false
	}
	return c.LastSync, true
}

// decodeCursor parses a settings value back into a cursor.
func decodeCursor(value string) (*Cursor, error) {
	ts, countStr, ok := strings.Cut(value, "|")
	if !ok {
		return nil, fmt.Errorf("malformed sync cursor %q", value)
	}
	last, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return nil, fmt.Errorf("malformed sync cursor timestamp: %w", err)
	}
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return nil, fmt.Errorf("malformed sync cursor count: %w", err)
	}
	return &Cursor{LastSync: last, RemoteCount: count}, nil
}
