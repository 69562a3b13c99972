package publishing

import (
	"context"
	"encoding/json"
)

// Document is the exact payload submitted to the Ledger: the record's
// linked-data content plus submission metadata and options.
type Document struct {
	Content  json.RawMessage
	Metadata Metadata
	Options  SubmitOptions
}

type Metadata struct {
	Source     string
	RecordKind RecordKind
	RecordID   string
}

type SubmitOptions struct {
	Privacy  string
	Epochs   int
	Priority int
}

// Handle is an opaque transport-specific token identifying a submission whose
// resolution is pending. Exactly one field is set: AssetID when the backend
// returned an asset identifier, Envelope when the conversational backend
// replied without a locator.
type Handle struct {
	AssetID  string `json:"assetId,omitempty"`
	Envelope string `json:"envelope,omitempty"`
}

func (h Handle) IsZero() bool {
	return h.AssetID == "" && h.Envelope == ""
}

// SubmitResult is the outcome of a single submission attempt. Either Locator
// is non-nil (the Ledger resolved synchronously) or Handle is non-zero (poll
// for resolution).
type SubmitResult struct {
	Locator     *Locator
	DatasetRoot string
	Handle      Handle
}

type AssetState string

const PendingAssetState AssetState = "pending"
const CompletedAssetState AssetState = "completed"
const FailedAssetState AssetState = "failed"

// StatusResult is one status check's view of an in-flight submission.
type StatusResult struct {
	State       AssetState
	Locator     *Locator
	DatasetRoot string
	Message     string
}

// Ledger is the capability contract all transports satisfy. Submit makes a
// single submission attempt; it never retries internally. CheckStatus is an
// idempotent lookup of a previously returned handle.
type Ledger interface {
	Submit(ctx context.Context, document Document) (SubmitResult, error)
	CheckStatus(ctx context.Context, handle Handle) (StatusResult, error)
}

// StatusChecker is the part of the Ledger contract the poller and sweeper need.
type StatusChecker interface {
	CheckStatus(ctx context.Context, handle Handle) (StatusResult, error)
}
