package store

import "time"

// Millis converts t to the unix-millisecond form stored in every table.
// The zero time is stored as 0.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis is the inverse of Millis. 0 becomes the zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Bool converts a stored INTEGER flag.
func Bool(v int64) bool { return v != 0 }

// Flag converts a bool to its stored INTEGER form.
func Flag(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
