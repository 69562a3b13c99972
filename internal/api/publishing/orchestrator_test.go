package publishing

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentledger/anchor-service/internal/shared/logging"
)

type fakeLedger struct {
	submitFunc func(ctx context.Context, document Document) (SubmitResult, error)
	checker    *scriptedChecker
}

func (l *fakeLedger) Submit(ctx context.Context, document Document) (SubmitResult, error) {
	return l.submitFunc(ctx, document)
}

func (l *fakeLedger) CheckStatus(ctx context.Context, handle Handle) (StatusResult, error) {
	return l.checker.CheckStatus(ctx, handle)
}

type startCall struct {
	recordID    string
	operationID string
	handle      Handle
}

type finishCall struct {
	recordID string
	outcome  FinishOutcome
}

type fakeStore struct {
	mu           sync.Mutex
	startErr     error
	finishErrs   []error
	startCalls   []startCall
	finishCalls  []finishCall
	finishCalled int
}

func (s *fakeStore) StartPublish(_ context.Context, recordID, operationID string, handle Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startCalls = append(s.startCalls, startCall{recordID: recordID, operationID: operationID, handle: handle})
	return s.startErr
}

func (s *fakeStore) FinishPublish(_ context.Context, recordID string, outcome FinishOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishCalls = append(s.finishCalls, finishCall{recordID: recordID, outcome: outcome})
	if s.finishCalled < len(s.finishErrs) {
		err := s.finishErrs[s.finishCalled]
		s.finishCalled++
		return err
	}
	s.finishCalled++
	return nil
}

func (s *fakeStore) finished() []finishCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]finishCall(nil), s.finishCalls...)
}

func (s *fakeStore) started() []startCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]startCall(nil), s.startCalls...)
}

func newTestOrchestrator(ledger Ledger, store Store, registry *Registry, pollAttempts int) *Orchestrator {
	poller := NewPoller(ledger, pollAttempts, time.Millisecond, logging.Default)
	return NewOrchestrator(ledger, store, registry, poller, nil,
		OrchestratorConfig{FinalizeAttempts: 3, FinalizeBackoff: time.Millisecond},
		logging.Default)
}

func testDocument(content string) Document {
	return Document{
		Content:  json.RawMessage(content),
		Metadata: Metadata{Source: "test", RecordKind: ProfileKind, RecordID: "rec-1"},
	}
}

// Immediate locator: the whole lifecycle resolves synchronously with no
// registry entry.
func TestOrchestrator_Publish_ImmediateLocator(t *testing.T) {
	locator := Locator{Scheme: "did", Namespace: "dkg", ChainID: "otp:2043", AssetID: 1}
	ledger := &fakeLedger{
		submitFunc: func(_ context.Context, _ Document) (SubmitResult, error) {
			return SubmitResult{Locator: &locator, DatasetRoot: "0xroot"}, nil
		},
	}
	store := &fakeStore{}
	registry := NewRegistry()
	orchestrator := newTestOrchestrator(ledger, store, registry, 3)

	outcome, err := orchestrator.Publish(context.Background(), PublishRequest{
		RecordID: "rec-1",
		Kind:     ProfileKind,
		Document: testDocument(`{"name":"x"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, CompletedStatus, outcome.Status)
	require.NotNil(t, outcome.Locator)
	assert.Equal(t, locator, *outcome.Locator)
	assert.Equal(t, "0xroot", outcome.DatasetRoot)
	assert.Empty(t, outcome.OperationID)
	assert.Zero(t, registry.Len())

	finishes := store.finished()
	require.Len(t, finishes, 1)
	assert.Equal(t, CompletedStatus, finishes[0].outcome.Status)
	assert.Equal(t, &locator, finishes[0].outcome.Locator)
	assert.Empty(t, store.started(), "no publishing transition for a synchronous resolution")
}

// Pending handle: caller gets publishing + operation id immediately, the
// background task polls to completion and finalizes.
func TestOrchestrator_Publish_PendingHandleCompletes(t *testing.T) {
	locator := Locator{Scheme: "did", Namespace: "dkg", ChainID: "otp:2043", AssetID: 2}
	ledger := &fakeLedger{
		submitFunc: func(_ context.Context, _ Document) (SubmitResult, error) {
			return SubmitResult{Handle: Handle{AssetID: "asset-h1"}}, nil
		},
		checker: &scriptedChecker{results: []checkResult{
			{status: StatusResult{State: PendingAssetState}},
			{status: StatusResult{State: PendingAssetState}},
			{status: StatusResult{State: CompletedAssetState, Locator: &locator, DatasetRoot: "0xroot"}},
		}},
	}
	store := &fakeStore{}
	registry := NewRegistry()
	orchestrator := newTestOrchestrator(ledger, store, registry, 5)

	outcome, err := orchestrator.Publish(context.Background(), PublishRequest{
		RecordID: "rec-1",
		Kind:     ProfileKind,
		Document: testDocument(`{"name":"y"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, PublishingStatus, outcome.Status)
	assert.NotEmpty(t, outcome.OperationID)
	assert.Nil(t, outcome.Locator)

	starts := store.started()
	require.Len(t, starts, 1)
	assert.Equal(t, "rec-1", starts[0].recordID)
	assert.Equal(t, outcome.OperationID, starts[0].operationID)
	assert.Equal(t, Handle{AssetID: "asset-h1"}, starts[0].handle)

	orchestrator.Wait()

	finishes := store.finished()
	require.Len(t, finishes, 1)
	assert.Equal(t, CompletedStatus, finishes[0].outcome.Status)
	require.NotNil(t, finishes[0].outcome.Locator)
	assert.Equal(t, locator, *finishes[0].outcome.Locator)
	assert.Equal(t, "0xroot", finishes[0].outcome.DatasetRoot)
	assert.Zero(t, registry.Len(), "operation deregistered after finalization")
}

// Submission error: synchronous SubmissionError, no writes, nothing registered.
func TestOrchestrator_Publish_SubmissionError(t *testing.T) {
	cause := errors.New("ledger unreachable")
	ledger := &fakeLedger{
		submitFunc: func(_ context.Context, _ Document) (SubmitResult, error) {
			return SubmitResult{}, cause
		},
	}
	store := &fakeStore{}
	registry := NewRegistry()
	orchestrator := newTestOrchestrator(ledger, store, registry, 3)

	_, err := orchestrator.Publish(context.Background(), PublishRequest{
		RecordID: "rec-1",
		Document: testDocument(`{"name":"z"}`),
	})

	var submissionErr *SubmissionError
	require.ErrorAs(t, err, &submissionErr)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, store.started())
	assert.Empty(t, store.finished())
	assert.Zero(t, registry.Len())
}

func TestOrchestrator_Publish_RejectsLiveOperation(t *testing.T) {
	ledger := &fakeLedger{
		submitFunc: func(_ context.Context, _ Document) (SubmitResult, error) {
			t.Fatal("submit must not be called while an operation is live")
			return SubmitResult{}, nil
		},
	}
	registry := NewRegistry()
	require.NoError(t, registry.Register(Operation{ID: "op-live", RecordID: "rec-1"}))
	orchestrator := newTestOrchestrator(ledger, &fakeStore{}, registry, 3)

	_, err := orchestrator.Publish(context.Background(), PublishRequest{
		RecordID: "rec-1",
		Document: testDocument(`{}`),
	})

	assert.ErrorIs(t, err, ErrPublishInProgress)
}

// Poll timeout: no terminal write, and the registry entry is released so the
// sweeper and the status-check path can re-poll the persisted handle.
func TestOrchestrator_Publish_PollTimeoutLeavesPublishing(t *testing.T) {
	ledger := &fakeLedger{
		submitFunc: func(_ context.Context, _ Document) (SubmitResult, error) {
			return SubmitResult{Handle: Handle{AssetID: "asset-h1"}}, nil
		},
		checker: &scriptedChecker{results: []checkResult{
			{status: StatusResult{State: PendingAssetState}},
			{status: StatusResult{State: PendingAssetState}},
		}},
	}
	store := &fakeStore{}
	registry := NewRegistry()
	orchestrator := newTestOrchestrator(ledger, store, registry, 2)

	outcome, err := orchestrator.Publish(context.Background(), PublishRequest{
		RecordID: "rec-1",
		Document: testDocument(`{}`),
	})
	require.NoError(t, err)

	orchestrator.Wait()

	assert.Empty(t, store.finished(), "timeout must not write a terminal status")
	_, ok := registry.Get(outcome.OperationID)
	assert.False(t, ok, "a timed-out operation must not stay registered")
	assert.Zero(t, registry.Len())
}

// After a poll timeout the record can still be reconciled: the handle was
// persisted by StartPublish, so a sweep re-polls it and finalizes.
func TestOrchestrator_Publish_PollTimeoutThenSweepFinalizes(t *testing.T) {
	locator := Locator{Scheme: "did", Namespace: "dkg", ChainID: "otp:2043", AssetID: 9}
	ledger := &fakeLedger{
		submitFunc: func(_ context.Context, _ Document) (SubmitResult, error) {
			return SubmitResult{Handle: Handle{AssetID: "asset-h1"}}, nil
		},
		checker: &scriptedChecker{results: []checkResult{
			{status: StatusResult{State: PendingAssetState}},
		}},
	}
	store := &fakeStore{}
	registry := NewRegistry()
	orchestrator := newTestOrchestrator(ledger, store, registry, 1)

	outcome, err := orchestrator.Publish(context.Background(), PublishRequest{
		RecordID: "rec-1",
		Document: testDocument(`{}`),
	})
	require.NoError(t, err)

	orchestrator.Wait()
	assert.Empty(t, store.finished())

	starts := store.started()
	require.Len(t, starts, 1)
	sweepStore := &fakeSweepStore{stale: []StaleOperation{{
		RecordID:    "rec-1",
		OperationID: outcome.OperationID,
		Handle:      starts[0].handle,
		StartedAt:   time.Now().Add(-time.Hour),
	}}}
	checker := &scriptedChecker{results: []checkResult{
		{status: StatusResult{State: CompletedAssetState, Locator: &locator}},
	}}
	sweeper := newTestSweeper(sweepStore, checker, registry)

	require.NoError(t, sweeper.Sweep(context.Background()))

	finishes := sweepStore.finished()
	require.Len(t, finishes, 1)
	assert.Equal(t, CompletedStatus, finishes[0].outcome.Status)
	require.NotNil(t, finishes[0].outcome.Locator)
	assert.Equal(t, locator, *finishes[0].outcome.Locator)
}

// Exhausted finalize retries must not strand the record: the registry entry
// is released, so a later sweep retries the terminal write with the same
// handle instead of standing aside forever.
func TestOrchestrator_FinalizeExhaustionReleasesOperation(t *testing.T) {
	locator := Locator{Scheme: "did", Namespace: "dkg", ChainID: "otp:2043", AssetID: 10}
	ledger := &fakeLedger{
		submitFunc: func(_ context.Context, _ Document) (SubmitResult, error) {
			return SubmitResult{Handle: Handle{AssetID: "asset-h1"}}, nil
		},
		checker: &scriptedChecker{results: []checkResult{
			{status: StatusResult{State: CompletedAssetState, Locator: &locator}},
		}},
	}
	writeErr := errors.New("connection refused")
	store := &fakeStore{finishErrs: []error{writeErr, writeErr, writeErr}}
	registry := NewRegistry()
	orchestrator := newTestOrchestrator(ledger, store, registry, 3)

	outcome, err := orchestrator.Publish(context.Background(), PublishRequest{
		RecordID: "rec-1",
		Document: testDocument(`{}`),
	})
	require.NoError(t, err)

	orchestrator.Wait()

	assert.Len(t, store.finished(), 3, "every finalize attempt was used")
	assert.Zero(t, registry.Len(), "an unfinalized operation must not stay registered")

	starts := store.started()
	require.Len(t, starts, 1)
	sweepStore := &fakeSweepStore{stale: []StaleOperation{{
		RecordID:    "rec-1",
		OperationID: outcome.OperationID,
		Handle:      starts[0].handle,
		StartedAt:   time.Now().Add(-time.Hour),
	}}}
	checker := &scriptedChecker{results: []checkResult{
		{status: StatusResult{State: CompletedAssetState, Locator: &locator}},
	}}
	sweeper := newTestSweeper(sweepStore, checker, registry)

	require.NoError(t, sweeper.Sweep(context.Background()))

	finishes := sweepStore.finished()
	require.Len(t, finishes, 1, "the sweep retries the terminal write")
	assert.Equal(t, CompletedStatus, finishes[0].outcome.Status)
}

func TestOrchestrator_Publish_TerminalFailure(t *testing.T) {
	ledger := &fakeLedger{
		submitFunc: func(_ context.Context, _ Document) (SubmitResult, error) {
			return SubmitResult{Handle: Handle{AssetID: "asset-h1"}}, nil
		},
		checker: &scriptedChecker{results: []checkResult{
			{status: StatusResult{State: FailedAssetState, Message: "validation failed on network"}},
		}},
	}
	store := &fakeStore{}
	registry := NewRegistry()
	orchestrator := newTestOrchestrator(ledger, store, registry, 3)

	_, err := orchestrator.Publish(context.Background(), PublishRequest{
		RecordID: "rec-1",
		Document: testDocument(`{}`),
	})
	require.NoError(t, err)

	orchestrator.Wait()

	finishes := store.finished()
	require.Len(t, finishes, 1)
	assert.Equal(t, FailedStatus, finishes[0].outcome.Status)
	assert.Equal(t, "validation failed on network", finishes[0].outcome.ErrorMessage)
	assert.Nil(t, finishes[0].outcome.Locator)
	assert.Zero(t, registry.Len())
}

func TestOrchestrator_Publish_StartPublishFailureDeregisters(t *testing.T) {
	ledger := &fakeLedger{
		submitFunc: func(_ context.Context, _ Document) (SubmitResult, error) {
			return SubmitResult{Handle: Handle{AssetID: "asset-h1"}}, nil
		},
	}
	storeErr := errors.New("connection reset")
	store := &fakeStore{startErr: storeErr}
	registry := NewRegistry()
	orchestrator := newTestOrchestrator(ledger, store, registry, 3)

	_, err := orchestrator.Publish(context.Background(), PublishRequest{
		RecordID: "rec-1",
		Document: testDocument(`{}`),
	})

	assert.ErrorIs(t, err, storeErr)
	assert.Zero(t, registry.Len())
}

// A failed terminal write is retried with backoff.
func TestOrchestrator_FinalizeRetriesWriteErrors(t *testing.T) {
	locator := Locator{Scheme: "did", Namespace: "dkg", ChainID: "mainnet", AssetID: 5}
	ledger := &fakeLedger{
		submitFunc: func(_ context.Context, _ Document) (SubmitResult, error) {
			return SubmitResult{Locator: &locator}, nil
		},
	}
	store := &fakeStore{finishErrs: []error{errors.New("deadlock detected"), nil}}
	orchestrator := newTestOrchestrator(ledger, store, NewRegistry(), 3)

	outcome, err := orchestrator.Publish(context.Background(), PublishRequest{
		RecordID: "rec-1",
		Document: testDocument(`{}`),
	})

	require.NoError(t, err)
	assert.Equal(t, CompletedStatus, outcome.Status)
	assert.Len(t, store.finished(), 2)
}

func TestOrchestrator_FinalizeDoesNotRetryLocatorConflict(t *testing.T) {
	locator := Locator{Scheme: "did", Namespace: "dkg", ChainID: "mainnet", AssetID: 6}
	ledger := &fakeLedger{
		submitFunc: func(_ context.Context, _ Document) (SubmitResult, error) {
			return SubmitResult{Locator: &locator}, nil
		},
	}
	store := &fakeStore{finishErrs: []error{ErrLocatorConflict, nil}}
	orchestrator := newTestOrchestrator(ledger, store, NewRegistry(), 3)

	_, err := orchestrator.Publish(context.Background(), PublishRequest{
		RecordID: "rec-1",
		Document: testDocument(`{}`),
	})

	assert.ErrorIs(t, err, ErrLocatorConflict)
	assert.Len(t, store.finished(), 1)
}

// Projects get a score computed from the submitted snapshot, attached to the
// same terminal write as the completed transition.
func TestOrchestrator_Publish_ProjectScoreAttachedToCompletion(t *testing.T) {
	locator := Locator{Scheme: "did", Namespace: "dkg", ChainID: "otp:2043", AssetID: 7}
	ledger := &fakeLedger{
		submitFunc: func(_ context.Context, _ Document) (SubmitResult, error) {
			return SubmitResult{Handle: Handle{AssetID: "asset-h1"}}, nil
		},
		checker: &scriptedChecker{results: []checkResult{
			{status: StatusResult{State: CompletedAssetState, Locator: &locator}},
		}},
	}
	store := &fakeStore{}
	orchestrator := newTestOrchestrator(ledger, store, NewRegistry(), 3)

	content := `{"skills": ["go", "sql"], "links": ["https://example.com"]}`
	_, err := orchestrator.Publish(context.Background(), PublishRequest{
		RecordID: "rec-1",
		Kind:     ProjectKind,
		Document: Document{
			Content:  json.RawMessage(content),
			Metadata: Metadata{RecordKind: ProjectKind, RecordID: "rec-1"},
		},
	})
	require.NoError(t, err)

	orchestrator.Wait()

	finishes := store.finished()
	require.Len(t, finishes, 1)
	require.NotNil(t, finishes[0].outcome.Score)
	assert.Equal(t, *ProjectScore(json.RawMessage(content)), *finishes[0].outcome.Score)
	assert.JSONEq(t, content, string(finishes[0].outcome.Document))
}
