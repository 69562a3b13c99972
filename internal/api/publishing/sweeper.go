package publishing

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// StaleOperation is a record stuck in publishing with no live registry entry,
// as reloaded from the Record Store.
type StaleOperation struct {
	RecordID    string
	OperationID string
	Kind        RecordKind
	Handle      Handle
	Content     json.RawMessage
	StartedAt   time.Time
}

// SweepStore is the slice of the Record Store the sweeper needs.
type SweepStore interface {
	ListStalePublishing(ctx context.Context, olderThan time.Time) ([]StaleOperation, error)
	FinishPublish(ctx context.Context, recordID string, outcome FinishOutcome) error
}

// Sweeper reconciles records orphaned in the publishing state, typically by a
// process restart that dropped their registry entries mid-poll. It re-checks
// each persisted handle once per sweep and finalizes any that the Ledger has
// since resolved.
type Sweeper struct {
	store     SweepStore
	checker   StatusChecker
	registry  *Registry
	threshold time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

func NewSweeper(
	store SweepStore,
	checker StatusChecker,
	registry *Registry,
	threshold time.Duration,
	interval time.Duration,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		store:     store,
		checker:   checker,
		registry:  registry,
		threshold: threshold,
		interval:  interval,
		logger:    logger.With(slog.String("type", "publishing.Sweeper")),
	}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep failed", slog.Any("error", err))
			}
		}
	}
}

// Sweep runs one reconciliation pass. Records with a live registry entry are
// skipped: their background completion task owns them. Records whose handle
// was never persisted cannot be re-checked and are left for operators.
func (s *Sweeper) Sweep(ctx context.Context) error {
	stale, err := s.store.ListStalePublishing(ctx, time.Now().Add(-s.threshold))
	if err != nil {
		return err
	}
	for _, operation := range stale {
		if _, live := s.registry.GetByRecord(operation.RecordID); live {
			continue
		}
		s.reconcile(ctx, operation)
	}
	return nil
}

func (s *Sweeper) reconcile(ctx context.Context, operation StaleOperation) {
	logger := s.logger.With(
		slog.String("recordId", operation.RecordID),
		slog.String("operationId", operation.OperationID))

	if operation.Handle.IsZero() {
		logger.Warn("stale publishing record has no persisted handle; cannot reconcile")
		return
	}

	status, err := s.checker.CheckStatus(ctx, operation.Handle)
	if err != nil {
		// unknown is not failed; try again next sweep
		logger.Warn("status check failed during sweep", slog.Any("error", err))
		return
	}

	switch status.State {
	case CompletedAssetState:
		if status.Locator == nil {
			logger.Warn("asset reported completed without a locator during sweep")
			return
		}
		outcome := FinishOutcome{
			Status:      CompletedStatus,
			Locator:     status.Locator,
			DatasetRoot: status.DatasetRoot,
			Document:    operation.Content,
			Score:       scoreForContent(operation.Kind, operation.Content),
		}
		if err := s.store.FinishPublish(ctx, operation.RecordID, outcome); err != nil {
			if errors.Is(err, ErrAlreadyFinalized) {
				return
			}
			logger.Error("error finalizing swept record", slog.Any("error", err))
			return
		}
		logger.Info("swept record finalized as completed", slog.String("locator", status.Locator.String()))
	case FailedAssetState:
		outcome := FinishOutcome{
			Status:       FailedStatus,
			ErrorMessage: status.Message,
		}
		if err := s.store.FinishPublish(ctx, operation.RecordID, outcome); err != nil {
			if errors.Is(err, ErrAlreadyFinalized) {
				return
			}
			logger.Error("error finalizing swept record", slog.Any("error", err))
			return
		}
		logger.Info("swept record finalized as failed", slog.String("reason", status.Message))
	default:
		// still pending on the ledger; leave it publishing
	}
}

func scoreForContent(kind RecordKind, content json.RawMessage) *float64 {
	if kind != ProjectKind {
		return nil
	}
	return ProjectScore(content)
}
