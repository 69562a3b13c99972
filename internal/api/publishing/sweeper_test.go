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

type fakeSweepStore struct {
	mu          sync.Mutex
	stale       []StaleOperation
	listErr     error
	finishErr   error
	finishCalls []finishCall
}

func (s *fakeSweepStore) ListStalePublishing(_ context.Context, _ time.Time) ([]StaleOperation, error) {
	return s.stale, s.listErr
}

func (s *fakeSweepStore) FinishPublish(_ context.Context, recordID string, outcome FinishOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishCalls = append(s.finishCalls, finishCall{recordID: recordID, outcome: outcome})
	return s.finishErr
}

func (s *fakeSweepStore) finished() []finishCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]finishCall(nil), s.finishCalls...)
}

func newTestSweeper(store SweepStore, checker StatusChecker, registry *Registry) *Sweeper {
	return NewSweeper(store, checker, registry, time.Minute, time.Minute, logging.Default)
}

func TestSweeper_FinalizesResolvedStaleRecord(t *testing.T) {
	locator := Locator{Scheme: "did", Namespace: "dkg", ChainID: "otp:2043", AssetID: 11}
	store := &fakeSweepStore{stale: []StaleOperation{{
		RecordID:    "rec-1",
		OperationID: "op-orphaned",
		Kind:        ProjectKind,
		Handle:      Handle{AssetID: "asset-h1"},
		Content:     json.RawMessage(`{"skills": ["go"]}`),
		StartedAt:   time.Now().Add(-time.Hour),
	}}}
	checker := &scriptedChecker{results: []checkResult{
		{status: StatusResult{State: CompletedAssetState, Locator: &locator, DatasetRoot: "0xroot"}},
	}}
	sweeper := newTestSweeper(store, checker, NewRegistry())

	require.NoError(t, sweeper.Sweep(context.Background()))

	finishes := store.finished()
	require.Len(t, finishes, 1)
	assert.Equal(t, "rec-1", finishes[0].recordID)
	assert.Equal(t, CompletedStatus, finishes[0].outcome.Status)
	require.NotNil(t, finishes[0].outcome.Locator)
	assert.Equal(t, locator, *finishes[0].outcome.Locator)
	assert.NotNil(t, finishes[0].outcome.Score, "swept projects still get their score")
}

func TestSweeper_FinalizesFailedStaleRecord(t *testing.T) {
	store := &fakeSweepStore{stale: []StaleOperation{{
		RecordID:    "rec-1",
		OperationID: "op-orphaned",
		Handle:      Handle{AssetID: "asset-h1"},
		StartedAt:   time.Now().Add(-time.Hour),
	}}}
	checker := &scriptedChecker{results: []checkResult{
		{status: StatusResult{State: FailedAssetState, Message: "asset expired"}},
	}}
	sweeper := newTestSweeper(store, checker, NewRegistry())

	require.NoError(t, sweeper.Sweep(context.Background()))

	finishes := store.finished()
	require.Len(t, finishes, 1)
	assert.Equal(t, FailedStatus, finishes[0].outcome.Status)
	assert.Equal(t, "asset expired", finishes[0].outcome.ErrorMessage)
}

// Records with a live registry entry belong to their background completion
// task; the sweeper must not touch them.
func TestSweeper_SkipsLiveOperations(t *testing.T) {
	store := &fakeSweepStore{stale: []StaleOperation{{
		RecordID:    "rec-1",
		OperationID: "op-live",
		Handle:      Handle{AssetID: "asset-h1"},
	}}}
	checker := &scriptedChecker{}
	registry := NewRegistry()
	require.NoError(t, registry.Register(Operation{ID: "op-live", RecordID: "rec-1"}))
	sweeper := newTestSweeper(store, checker, registry)

	require.NoError(t, sweeper.Sweep(context.Background()))

	assert.Empty(t, store.finished())
	assert.Zero(t, checker.calls)
}

func TestSweeper_SkipsRecordsWithoutHandle(t *testing.T) {
	store := &fakeSweepStore{stale: []StaleOperation{{
		RecordID:    "rec-1",
		OperationID: "op-orphaned",
	}}}
	checker := &scriptedChecker{}
	sweeper := newTestSweeper(store, checker, NewRegistry())

	require.NoError(t, sweeper.Sweep(context.Background()))

	assert.Empty(t, store.finished())
	assert.Zero(t, checker.calls)
}

// Pending on the ledger or an errored status check leave the record publishing.
func TestSweeper_LeavesUnresolvedRecordsAlone(t *testing.T) {
	store := &fakeSweepStore{stale: []StaleOperation{
		{RecordID: "rec-1", OperationID: "op-1", Handle: Handle{AssetID: "asset-h1"}},
		{RecordID: "rec-2", OperationID: "op-2", Handle: Handle{AssetID: "asset-h2"}},
	}}
	checker := &scriptedChecker{results: []checkResult{
		{status: StatusResult{State: PendingAssetState}},
		{err: errors.New("status endpoint unavailable")},
	}}
	sweeper := newTestSweeper(store, checker, NewRegistry())

	require.NoError(t, sweeper.Sweep(context.Background()))

	assert.Empty(t, store.finished())
	assert.Equal(t, 2, checker.calls)
}

func TestSweeper_ListErrorSurfaces(t *testing.T) {
	listErr := errors.New("relation does not exist")
	store := &fakeSweepStore{listErr: listErr}
	sweeper := newTestSweeper(store, &scriptedChecker{}, NewRegistry())

	assert.ErrorIs(t, sweeper.Sweep(context.Background()), listErr)
}

func TestSweeper_AlreadyFinalizedIsNotAnError(t *testing.T) {
	locator := Locator{Scheme: "did", Namespace: "dkg", ChainID: "mainnet", AssetID: 3}
	store := &fakeSweepStore{
		stale: []StaleOperation{{
			RecordID:    "rec-1",
			OperationID: "op-1",
			Handle:      Handle{AssetID: "asset-h1"},
		}},
		finishErr: ErrAlreadyFinalized,
	}
	checker := &scriptedChecker{results: []checkResult{
		{status: StatusResult{State: CompletedAssetState, Locator: &locator}},
	}}
	sweeper := newTestSweeper(store, checker, NewRegistry())

	assert.NoError(t, sweeper.Sweep(context.Background()))
}
