package publishing

import (
	"sync"
)

// Registry is the in-process table of live publish operations. It lets the
// status-check path answer without re-touching the Ledger and lets the
// background completion path find the right record to finalize. It is
// deliberately process-lifetime only; the reconciliation sweeper covers
// operations orphaned by a restart.
type Registry struct {
	mu       sync.Mutex
	byID     map[string]Operation
	byRecord map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[string]Operation),
		byRecord: make(map[string]string),
	}
}

// Register adds a live operation. It returns ErrPublishInProgress if the
// record already has one: at most one live operation may exist per record.
func (r *Registry) Register(op Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byRecord[op.RecordID]; exists {
		return ErrPublishInProgress
	}
	if _, exists := r.byID[op.ID]; exists {
		return ErrPublishInProgress
	}
	r.byID[op.ID] = op
	r.byRecord[op.RecordID] = op.ID
	return nil
}

func (r *Registry) Get(operationID string) (Operation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, found := r.byID[operationID]
	return op, found
}

func (r *Registry) GetByRecord(recordID string) (Operation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	operationID, found := r.byRecord[recordID]
	if !found {
		return Operation{}, false
	}
	op, found := r.byID[operationID]
	return op, found
}

// Deregister removes an operation. Removing an unknown id is a no-op.
func (r *Registry) Deregister(operationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, found := r.byID[operationID]
	if !found {
		return
	}
	delete(r.byID, operationID)
	delete(r.byRecord, op.RecordID)
}

// Len returns the number of live operations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
