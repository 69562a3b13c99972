package records

import (
	"encoding/json"
	"time"

	"github.com/talentledger/anchor-service/internal/api/publishing"
)

// Record is one row of anchoring.records. Rows are created in draft by the
// content layer; this store only moves them through the publish lifecycle.
//
// Invariant: Locator and DatasetRoot are non-nil iff PublishStatus is
// completed. OperationID is non-nil iff PublishStatus is publishing;
// LastOperationID survives finalization so clients can keep polling a
// finished operation by id.
type Record struct {
	ID                string
	Kind              publishing.RecordKind
	Content           json.RawMessage
	PublishStatus     publishing.Status
	Locator           *string
	DatasetRoot       *string
	OperationID       *string
	LastOperationID   *string
	PendingHandle     publishing.Handle
	PublishedDocument json.RawMessage
	PublishedScore    *float64
	PublishError      *string
	PublishStartedAt  *time.Time
	PublishFinishedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
