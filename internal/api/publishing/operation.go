package publishing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Operation tracks one in-flight publish attempt from submission to terminal
// resolution. It lives only in the registry: it is created at submission time
// and destroyed the moment the terminal transition is durably written.
type Operation struct {
	ID        string
	RecordID  string
	Kind      RecordKind
	StartedAt time.Time
	Handle    Handle

	// Document is the exact payload submitted to the Ledger, retained so
	// derived fields (e.g. a project score) can be attached to the terminal
	// write without re-deriving the submission.
	Document Document
}

// NewOperationID generates a globally unique operation identifier. The
// subject and timestamp are embedded for debuggability of logs and client
// poll traffic.
func NewOperationID(subject string, now time.Time) string {
	entropy := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("op-%s-%d-%s", subject, now.UTC().UnixMilli(), entropy)
}
