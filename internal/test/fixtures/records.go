package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/talentledger/anchor-service/internal/api/publishing"
	"github.com/talentledger/anchor-service/internal/test"
)

// ExpectationDB seeds and cleans the records table for store tests.
type ExpectationDB struct {
	db           *test.PostgresDB
	databaseName string
}

func NewExpectationDB(db *test.PostgresDB, databaseName string) *ExpectationDB {
	return &ExpectationDB{db: db, databaseName: databaseName}
}

func (e *ExpectationDB) connect(ctx context.Context, t *testing.T) *pgx.Conn {
	t.Helper()
	conn, err := e.db.Connect(ctx, e.databaseName)
	require.NoError(t, err)
	return conn
}

// NewDraftRecordID inserts a draft record with the given content and returns
// its generated id.
func (e *ExpectationDB) NewDraftRecordID(ctx context.Context, t *testing.T, kind publishing.RecordKind, content json.RawMessage) string {
	t.Helper()
	conn := e.connect(ctx, t)
	defer closeConn(ctx, t, conn)

	recordID := fmt.Sprintf("rec-%s", uuid.NewString())
	_, err := conn.Exec(ctx,
		`INSERT INTO anchoring.records (id, kind, content) VALUES (@id, @kind, @content)`,
		pgx.NamedArgs{"id": recordID, "kind": kind, "content": content})
	require.NoError(t, err)
	return recordID
}

func (e *ExpectationDB) CleanUp(ctx context.Context, t *testing.T) {
	t.Helper()
	conn := e.connect(ctx, t)
	defer closeConn(ctx, t, conn)

	_, err := conn.Exec(ctx, `TRUNCATE TABLE anchoring.records`)
	require.NoError(t, err)
}

func closeConn(ctx context.Context, t *testing.T, conn *pgx.Conn) {
	t.Helper()
	require.NoError(t, conn.Close(ctx))
}
