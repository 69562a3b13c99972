package publishing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Store is the durable side of a publish operation. Both writes must be
// single atomic updates: StartPublish registers the transition to publishing
// together with the operation bookkeeping, and FinishPublish writes the
// terminal status together with every field derived from it.
type Store interface {
	StartPublish(ctx context.Context, recordID, operationID string, handle Handle) error
	FinishPublish(ctx context.Context, recordID string, outcome FinishOutcome) error
}

// FinishOutcome is everything a terminal transition writes in one statement.
type FinishOutcome struct {
	Status      Status
	Locator     *Locator
	DatasetRoot string
	// Document is the submitted snapshot persisted with a completion so the
	// published document and any derived fields stay consistent.
	Document     json.RawMessage
	Score        *float64
	ErrorMessage string
}

// DocumentArchive stores the exact submitted document outside the hot path so
// a completed publication can always be reconstructed.
type DocumentArchive interface {
	SaveDocument(ctx context.Context, operationID string, document Document) error
}

type OrchestratorConfig struct {
	// FinalizeAttempts bounds retries of the terminal Record Store write. A
	// lost terminal write strands a successfully anchored asset behind a stale
	// local status, so it is retried and logged loudly, never swallowed.
	FinalizeAttempts int
	FinalizeBackoff  time.Duration
}

// Orchestrator drives a record through submit, register, background poll, and
// terminal write. The HTTP caller gets an answer as soon as the Ledger
// accepts the submission; resolution continues on a background task that
// outlives the request.
type Orchestrator struct {
	ledger     Ledger
	store      Store
	registry   *Registry
	poller     *Poller
	archive    DocumentArchive
	config     OrchestratorConfig
	logger     *slog.Logger
	background sync.WaitGroup
}

func NewOrchestrator(
	ledger Ledger,
	store Store,
	registry *Registry,
	poller *Poller,
	archive DocumentArchive,
	config OrchestratorConfig,
	logger *slog.Logger,
) *Orchestrator {
	if config.FinalizeAttempts <= 0 {
		config.FinalizeAttempts = 3
	}
	if config.FinalizeBackoff <= 0 {
		config.FinalizeBackoff = time.Second
	}
	return &Orchestrator{
		ledger:   ledger,
		store:    store,
		registry: registry,
		poller:   poller,
		archive:  archive,
		config:   config,
		logger:   logger.With(slog.String("type", "publishing.Orchestrator")),
	}
}

type PublishRequest struct {
	RecordID string
	Kind     RecordKind
	Document Document
}

// PublishOutcome is the synchronous answer to a submission. Status is
// CompletedStatus when the Ledger resolved immediately (Locator set), or
// PublishingStatus when resolution moved to the background (OperationID set).
type PublishOutcome struct {
	RecordID    string
	Status      Status
	OperationID string
	Locator     *Locator
	DatasetRoot string
}

// Publish runs the submission state machine for one record.
//
// A submission error leaves the record untouched and surfaces synchronously.
// A pending handle transitions the record to publishing, registers the
// operation, and schedules the background completion task before returning.
func (o *Orchestrator) Publish(ctx context.Context, request PublishRequest) (PublishOutcome, error) {
	if _, live := o.registry.GetByRecord(request.RecordID); live {
		return PublishOutcome{}, ErrPublishInProgress
	}

	submitResult, err := o.ledger.Submit(ctx, request.Document)
	if err != nil {
		// the Ledger never saw the document (or rejected it); the record stays draft
		return PublishOutcome{}, &SubmissionError{Cause: err}
	}

	if submitResult.Locator != nil {
		outcome := FinishOutcome{
			Status:      CompletedStatus,
			Locator:     submitResult.Locator,
			DatasetRoot: submitResult.DatasetRoot,
			Document:    request.Document.Content,
			Score:       scoreFor(request.Kind, request.Document),
		}
		if err := o.finalize(ctx, request.RecordID, outcome); err != nil {
			return PublishOutcome{}, fmt.Errorf("error finalizing synchronously resolved publish of record %s: %w",
				request.RecordID, err)
		}
		return PublishOutcome{
			RecordID:    request.RecordID,
			Status:      CompletedStatus,
			Locator:     submitResult.Locator,
			DatasetRoot: submitResult.DatasetRoot,
		}, nil
	}

	operation := Operation{
		ID:        NewOperationID(string(request.Kind), time.Now()),
		RecordID:  request.RecordID,
		Kind:      request.Kind,
		StartedAt: time.Now().UTC(),
		Handle:    submitResult.Handle,
		Document:  request.Document,
	}
	if err := o.registry.Register(operation); err != nil {
		// lost a race with a concurrent submission for the same record; the
		// Ledger may now hold a duplicate, which status checks tolerate
		return PublishOutcome{}, err
	}
	if err := o.store.StartPublish(ctx, request.RecordID, operation.ID, operation.Handle); err != nil {
		o.registry.Deregister(operation.ID)
		return PublishOutcome{}, err
	}

	if o.archive != nil {
		// archive failures must not fail the publish; the snapshot also lives
		// in the registry until finalization
		if err := o.archive.SaveDocument(ctx, operation.ID, operation.Document); err != nil {
			o.logger.Warn("error archiving submitted document",
				slog.String("operationId", operation.ID),
				slog.Any("error", err))
		}
	}

	o.background.Add(1)
	go o.complete(operation)

	return PublishOutcome{
		RecordID:    request.RecordID,
		Status:      PublishingStatus,
		OperationID: operation.ID,
	}, nil
}

// complete is the background half of Publish. It runs detached from the
// originating request: the poller's budget is its only timeout.
func (o *Orchestrator) complete(operation Operation) {
	defer o.background.Done()
	// once this task exits nothing in-process owns the record. The handle
	// persisted by StartPublish is what later re-polls need, so the registry
	// entry must not outlive the task: a live entry makes the sweeper and the
	// status-check path stand aside.
	defer o.registry.Deregister(operation.ID)

	ctx := context.Background()
	logger := o.logger.With(
		slog.String("operationId", operation.ID),
		slog.String("recordId", operation.RecordID))

	pollResult, err := o.poller.Poll(ctx, operation.Handle)

	var terminalFailure *TerminalFailureError
	switch {
	case err == nil:
		outcome := FinishOutcome{
			Status:      CompletedStatus,
			Locator:     &pollResult.Locator,
			DatasetRoot: pollResult.DatasetRoot,
			Document:    operation.Document.Content,
			Score:       scoreFor(operation.Kind, operation.Document),
		}
		if err := o.finalize(ctx, operation.RecordID, outcome); err != nil {
			// the record stays publishing; the sweeper or a status check
			// retries finalization by re-checking the persisted handle
			return
		}
		logger.Info("publish completed", slog.String("locator", pollResult.Locator.String()))

	case errors.As(err, &terminalFailure):
		outcome := FinishOutcome{
			Status:       FailedStatus,
			ErrorMessage: terminalFailure.Message,
		}
		if err := o.finalize(ctx, operation.RecordID, outcome); err != nil {
			return
		}
		logger.Info("publish failed on ledger", slog.String("reason", terminalFailure.Message))

	case errors.Is(err, ErrPollTimeout):
		// unknown outcome: write nothing; the record stays publishing and a
		// later status check or sweep re-polls the persisted handle
		logger.Info("publish unresolved within polling budget; record stays publishing")

	default:
		logger.Error("unexpected polling error; record stays publishing", slog.Any("error", err))
	}
}

// finalize writes the terminal transition, retrying with backoff. Losing this
// write silently would strand an anchored asset behind a stale local status,
// so exhaustion is logged at error level with full context.
func (o *Orchestrator) finalize(ctx context.Context, recordID string, outcome FinishOutcome) error {
	backoff := o.config.FinalizeBackoff
	var lastErr error
	for attempt := 1; attempt <= o.config.FinalizeAttempts; attempt++ {
		lastErr = o.store.FinishPublish(ctx, recordID, outcome)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrLocatorConflict) {
			// never overwrite a completed record with a different locator
			o.logger.Error("locator conflict on finalization",
				slog.String("recordId", recordID),
				slog.Any("error", lastErr))
			return lastErr
		}
		if attempt < o.config.FinalizeAttempts {
			o.logger.Warn("error writing terminal publish status; retrying",
				slog.String("recordId", recordID),
				slog.Int("attempt", attempt),
				slog.Any("error", lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	locator := ""
	if outcome.Locator != nil {
		locator = outcome.Locator.String()
	}
	o.logger.Error("failed to write terminal publish status; local record is stale",
		slog.Group("finalization",
			slog.String("recordId", recordID),
			slog.String("status", string(outcome.Status)),
			slog.String("locator", locator),
		),
		slog.Any("error", lastErr))
	return fmt.Errorf("error writing terminal publish status for record %s after %d attempts: %w",
		recordID, o.config.FinalizeAttempts, lastErr)
}

// Wait blocks until all background completion tasks have finished. Called on
// shutdown so in-flight finalizations can drain.
func (o *Orchestrator) Wait() {
	o.background.Wait()
}

func scoreFor(kind RecordKind, document Document) *float64 {
	if kind != ProjectKind {
		return nil
	}
	return ProjectScore(document.Content)
}
