package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/talentledger/anchor-service/internal/api/publishing"
	"github.com/talentledger/anchor-service/internal/shared/clients/postgres"
)

type Store interface {
	// GetRecord returns the given record if it exists.
	GetRecord(ctx context.Context, recordID string) (Record, error)
	// GetRecordByOperation returns the record whose current or most recent
	// publish operation has the given id.
	GetRecordByOperation(ctx context.Context, operationID string) (Record, error)
	StartPublish(ctx context.Context, recordID, operationID string, handle publishing.Handle) error
	FinishPublish(ctx context.Context, recordID string, outcome publishing.FinishOutcome) error
	ListStalePublishing(ctx context.Context, olderThan time.Time) ([]publishing.StaleOperation, error)
}

type PostgresStore struct {
	db           postgres.DB
	databaseName string
	logger       *slog.Logger
}

func NewPostgresStore(db postgres.DB, anchorDatabaseName string, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		db:           db,
		databaseName: anchorDatabaseName,
		logger:       logger.With(slog.String("type", "records.PostgresStore")),
	}
}

const recordColumns = `id, kind, content, publish_status, locator, dataset_root,
       operation_id, last_operation_id, pending_handle, published_document,
       published_score, publish_error, publish_started_at, publish_finished_at,
       created_at, updated_at`

func (s *PostgresStore) GetRecord(ctx context.Context, recordID string) (Record, error) {
	conn, err := s.db.Connect(ctx, s.databaseName)
	if err != nil {
		return Record{}, fmt.Errorf("GetRecord error connecting to database %s: %w", s.databaseName, err)
	}
	defer s.closeConn(ctx, conn)

	query := fmt.Sprintf(`SELECT %s FROM anchoring.records WHERE id = @record_id`, recordColumns)
	record, err := scanRecord(conn.QueryRow(ctx, query, pgx.NamedArgs{"record_id": recordID}))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, fmt.Errorf("record %s: %w", recordID, ErrRecordNotFound)
		}
		return Record{}, fmt.Errorf("error getting record %s: %w", recordID, err)
	}
	return record, nil
}

func (s *PostgresStore) GetRecordByOperation(ctx context.Context, operationID string) (Record, error) {
	conn, err := s.db.Connect(ctx, s.databaseName)
	if err != nil {
		return Record{}, fmt.Errorf("GetRecordByOperation error connecting to database %s: %w", s.databaseName, err)
	}
	defer s.closeConn(ctx, conn)

	query := fmt.Sprintf(`SELECT %s FROM anchoring.records
		WHERE operation_id = @operation_id OR last_operation_id = @operation_id`, recordColumns)
	record, err := scanRecord(conn.QueryRow(ctx, query, pgx.NamedArgs{"operation_id": operationID}))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, fmt.Errorf("operation %s: %w", operationID, ErrRecordNotFound)
		}
		return Record{}, fmt.Errorf("error getting record for operation %s: %w", operationID, err)
	}
	return record, nil
}

// StartPublish transitions a draft record to publishing in a single guarded
// update, persisting the operation id and the transport handle so the
// operation survives a process restart.
func (s *PostgresStore) StartPublish(ctx context.Context, recordID, operationID string, handle publishing.Handle) error {
	conn, err := s.db.Connect(ctx, s.databaseName)
	if err != nil {
		return fmt.Errorf("StartPublish error connecting to database %s: %w", s.databaseName, err)
	}
	defer s.closeConn(ctx, conn)

	handleJSON, err := marshalHandle(handle)
	if err != nil {
		return fmt.Errorf("error marshalling handle for record %s: %w", recordID, err)
	}

	query := `UPDATE anchoring.records
		SET publish_status = @publishing,
		    operation_id = @operation_id,
		    last_operation_id = @operation_id,
		    pending_handle = @pending_handle,
		    publish_started_at = @started_at,
		    publish_error = NULL,
		    updated_at = now()
		WHERE id = @record_id AND publish_status = @draft`

	args := pgx.NamedArgs{
		"record_id":      recordID,
		"publishing":     publishing.PublishingStatus,
		"draft":          publishing.DraftStatus,
		"operation_id":   operationID,
		"pending_handle": handleJSON,
		"started_at":     time.Now().UTC(),
	}

	tag, err := conn.Exec(ctx, query, args)
	if err != nil {
		return fmt.Errorf("error starting publish of record %s: %w", recordID, err)
	}
	if tag.RowsAffected() == int64(0) {
		return s.explainStartConflict(ctx, conn, recordID)
	}
	return nil
}

// explainStartConflict maps a guarded-update miss to the right sentinel.
func (s *PostgresStore) explainStartConflict(ctx context.Context, conn *pgx.Conn, recordID string) error {
	var status publishing.Status
	err := conn.QueryRow(ctx,
		`SELECT publish_status FROM anchoring.records WHERE id = @record_id`,
		pgx.NamedArgs{"record_id": recordID}).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("record %s: %w", recordID, ErrRecordNotFound)
	}
	if err != nil {
		return fmt.Errorf("error checking publish status of record %s: %w", recordID, err)
	}
	if status == publishing.PublishingStatus {
		return publishing.ErrPublishInProgress
	}
	return fmt.Errorf("record %s has publish status %s: %w", recordID, status, publishing.ErrAlreadyFinalized)
}

// FinishPublish writes the terminal transition and every field derived from
// it in one statement, so a crash can never leave a completed record without
// its locator, document, or score.
//
// Re-finalizing an already terminal record with the same outcome is a no-op.
// Attempting to change the locator of a completed record returns
// publishing.ErrLocatorConflict.
func (s *PostgresStore) FinishPublish(ctx context.Context, recordID string, outcome publishing.FinishOutcome) error {
	conn, err := s.db.Connect(ctx, s.databaseName)
	if err != nil {
		return fmt.Errorf("FinishPublish error connecting to database %s: %w", s.databaseName, err)
	}
	defer s.closeConn(ctx, conn)

	if !outcome.Status.Terminal() {
		return fmt.Errorf("cannot finish publish of record %s with non-terminal status %s", recordID, outcome.Status)
	}
	if outcome.Status == publishing.CompletedStatus && outcome.Locator == nil {
		return fmt.Errorf("cannot complete publish of record %s without a locator", recordID)
	}

	args := pgx.NamedArgs{
		"record_id":   recordID,
		"status":      outcome.Status,
		"draft":       publishing.DraftStatus,
		"publishing":  publishing.PublishingStatus,
		"finished_at": time.Now().UTC(),
	}
	var query string
	if outcome.Status == publishing.CompletedStatus {
		query = `UPDATE anchoring.records
			SET publish_status = @status,
			    locator = @locator,
			    dataset_root = @dataset_root,
			    operation_id = NULL,
			    pending_handle = NULL,
			    published_document = @published_document,
			    published_score = @published_score,
			    publish_error = NULL,
			    publish_finished_at = @finished_at,
			    updated_at = now()
			WHERE id = @record_id AND publish_status IN (@draft, @publishing)`
		args["locator"] = outcome.Locator.String()
		args["dataset_root"] = nullableString(outcome.DatasetRoot)
		args["published_document"] = []byte(outcome.Document)
		args["published_score"] = outcome.Score
	} else {
		query = `UPDATE anchoring.records
			SET publish_status = @status,
			    operation_id = NULL,
			    pending_handle = NULL,
			    publish_error = @publish_error,
			    publish_finished_at = @finished_at,
			    updated_at = now()
			WHERE id = @record_id AND publish_status IN (@draft, @publishing)`
		args["publish_error"] = nullableString(outcome.ErrorMessage)
	}

	tag, err := conn.Exec(ctx, query, args)
	if err != nil {
		return fmt.Errorf("error finishing publish of record %s: %w", recordID, err)
	}
	if tag.RowsAffected() == int64(0) {
		return s.explainFinishConflict(ctx, conn, recordID, outcome)
	}
	return nil
}

func (s *PostgresStore) explainFinishConflict(ctx context.Context, conn *pgx.Conn, recordID string, outcome publishing.FinishOutcome) error {
	var status publishing.Status
	var locator *string
	err := conn.QueryRow(ctx,
		`SELECT publish_status, locator FROM anchoring.records WHERE id = @record_id`,
		pgx.NamedArgs{"record_id": recordID}).Scan(&status, &locator)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("record %s: %w", recordID, ErrRecordNotFound)
	}
	if err != nil {
		return fmt.Errorf("error checking publish status of record %s: %w", recordID, err)
	}
	if status == outcome.Status {
		if status == publishing.CompletedStatus && (locator == nil || *locator != outcome.Locator.String()) {
			return fmt.Errorf("record %s: %w", recordID, publishing.ErrLocatorConflict)
		}
		// terminal states are idempotent; re-finalizing with the same outcome is a no-op
		return nil
	}
	return fmt.Errorf("record %s has publish status %s: %w", recordID, status, publishing.ErrAlreadyFinalized)
}

// ListStalePublishing returns records stuck in publishing since before
// olderThan, with the bookkeeping the sweeper needs to re-check them.
func (s *PostgresStore) ListStalePublishing(ctx context.Context, olderThan time.Time) ([]publishing.StaleOperation, error) {
	conn, err := s.db.Connect(ctx, s.databaseName)
	if err != nil {
		return nil, fmt.Errorf("ListStalePublishing error connecting to database %s: %w", s.databaseName, err)
	}
	defer s.closeConn(ctx, conn)

	query := `SELECT id, kind, content, operation_id, pending_handle, publish_started_at
		FROM anchoring.records
		WHERE publish_status = @publishing AND publish_started_at < @older_than
		ORDER BY publish_started_at asc`

	rows, err := conn.Query(ctx, query, pgx.NamedArgs{
		"publishing": publishing.PublishingStatus,
		"older_than": olderThan.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("error listing stale publishing records: %w", err)
	}
	// any error here will be returned from pgx.CollectRows which also closes rows for us
	stale, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (publishing.StaleOperation, error) {
		var operation publishing.StaleOperation
		var operationID *string
		var handleJSON []byte
		var startedAt *time.Time
		if err := row.Scan(&operation.RecordID, &operation.Kind, &operation.Content,
			&operationID, &handleJSON, &startedAt); err != nil {
			return publishing.StaleOperation{}, err
		}
		if operationID != nil {
			operation.OperationID = *operationID
		}
		if startedAt != nil {
			operation.StartedAt = *startedAt
		}
		if len(handleJSON) > 0 {
			if err := json.Unmarshal(handleJSON, &operation.Handle); err != nil {
				return publishing.StaleOperation{}, fmt.Errorf("error unmarshalling handle of record %s: %w", operation.RecordID, err)
			}
		}
		return operation, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error collecting stale publishing records: %w", err)
	}
	return stale, nil
}

func (s *PostgresStore) closeConn(ctx context.Context, conn *pgx.Conn) {
	if err := conn.Close(ctx); err != nil {
		s.logger.Warn("error closing records.PostgresStore DB connection", slog.Any("error", err))
	}
}

func scanRecord(row pgx.Row) (Record, error) {
	var record Record
	var handleJSON []byte
	if err := row.Scan(
		&record.ID,
		&record.Kind,
		&record.Content,
		&record.PublishStatus,
		&record.Locator,
		&record.DatasetRoot,
		&record.OperationID,
		&record.LastOperationID,
		&handleJSON,
		&record.PublishedDocument,
		&record.PublishedScore,
		&record.PublishError,
		&record.PublishStartedAt,
		&record.PublishFinishedAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return Record{}, err
	}
	if len(handleJSON) > 0 {
		if err := json.Unmarshal(handleJSON, &record.PendingHandle); err != nil {
			return Record{}, fmt.Errorf("error unmarshalling handle of record %s: %w", record.ID, err)
		}
	}
	return record, nil
}

func marshalHandle(handle publishing.Handle) ([]byte, error) {
	if handle.IsZero() {
		return nil, nil
	}
	return json.Marshal(handle)
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
