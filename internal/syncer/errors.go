package syncer

import (
	"errors"
	"fmt"
)

// SyncErrorCode categorizes sync failures.
type SyncErrorCode string

const (
	// ErrCodeRead indicates the unsynced events could not be read locally.
	ErrCodeRead SyncErrorCode = "READ_FAILED"

	// ErrCodeSubmit indicates the remote did not confirm a batch.
	ErrCodeSubmit SyncErrorCode = "SUBMIT_FAILED"

	// ErrCodeMark indicates a confirmed batch could not be marked synced.
	// The events stay unsynced and are resubmitted on the next attempt.
	ErrCodeMark SyncErrorCode = "MARK_FAILED"
)

// SyncError reports a sync that stopped early. Events confirmed before the
// failure stay marked synced.
type SyncError struct {
	Code SyncErrorCode

	MatchID string

	// Confirmed is how many events were marked synced before the failure.
	Confirmed int

	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: sync match %s (confirmed=%d): %v", e.Code, e.MatchID, e.Confirmed, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// IsSyncError returns true if err is or wraps a *SyncError.
func IsSyncError(err error) bool {
	var se *SyncError
	return errors.As(err, &se)
}
