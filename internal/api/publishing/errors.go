package publishing

import (
	"errors"
	"fmt"
)

// ErrPublishInProgress means the record already has a live publish operation.
// A second submission is rejected rather than silently duplicated.
var ErrPublishInProgress = errors.New("a publish operation is already in progress for this record")

// ErrPollTimeout means the bounded number of status checks was exhausted
// without resolution. The record stays in publishing; the asset may still
// resolve, so this must never be confused with a backend-reported failure.
var ErrPollTimeout = errors.New("status polling timed out before the ledger resolved the asset")

// ErrAlreadyFinalized means the record is in a terminal publish status and
// cannot be submitted again.
var ErrAlreadyFinalized = errors.New("record publish status is already terminal")

// ErrLocatorConflict means a finalization attempted to overwrite a completed
// record with a different locator. This is a bug, not a recoverable state.
var ErrLocatorConflict = errors.New("record is already completed with a different locator")

// SubmissionError means the submission attempt itself failed: the Ledger
// rejected the document or was unreachable. The record is untouched and the
// caller may retry freely.
type SubmissionError struct {
	Cause error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("ledger submission failed: %v", e.Cause)
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

// TerminalFailureError means the Ledger explicitly reported the asset as
// failed. The record moves to failed and is not retried automatically.
type TerminalFailureError struct {
	Message string
}

func (e *TerminalFailureError) Error() string {
	return fmt.Sprintf("ledger reported terminal failure: %s", e.Message)
}
