package apitest

import (
	"log/slog"

	"github.com/stretchr/testify/require"
	"github.com/talentledger/anchor-service/internal/api/publishing"
	"github.com/talentledger/anchor-service/internal/api/store/records"
	"github.com/talentledger/anchor-service/internal/shared/clients/postgres"
	"github.com/talentledger/anchor-service/internal/shared/logging"
	"github.com/talentledger/anchor-service/internal/test"
)

// TestContainer implements container.DependencyContainer for route tests.
// Getters fail the test when the corresponding dependency was not set.
type TestContainer struct {
	t                   require.TestingT
	TestPostgresDB      postgres.DB
	TestRecordsStore    records.Store
	TestLedger          publishing.Ledger
	TestDocumentArchive publishing.DocumentArchive
	TestOrchestrator    *publishing.Orchestrator
	registry            *publishing.Registry
	explorerURL         string
	logger              *slog.Logger
}

func NewTestContainer(t require.TestingT) *TestContainer {
	test.Helper(t)
	return &TestContainer{t: t, registry: publishing.NewRegistry()}
}

func (c *TestContainer) WithPostgresDB(db postgres.DB) *TestContainer {
	c.TestPostgresDB = db
	return c
}

func (c *TestContainer) WithRecordsStore(store records.Store) *TestContainer {
	c.TestRecordsStore = store
	return c
}

func (c *TestContainer) WithLedger(ledger publishing.Ledger) *TestContainer {
	c.TestLedger = ledger
	return c
}

func (c *TestContainer) WithDocumentArchive(archive publishing.DocumentArchive) *TestContainer {
	c.TestDocumentArchive = archive
	return c
}

func (c *TestContainer) WithOrchestrator(orchestrator *publishing.Orchestrator) *TestContainer {
	c.TestOrchestrator = orchestrator
	return c
}

func (c *TestContainer) WithExplorerURL(explorerURL string) *TestContainer {
	c.explorerURL = explorerURL
	return c
}

func (c *TestContainer) PostgresDB() postgres.DB {
	require.NotNil(c.t, c.TestPostgresDB, "no postgres.DB set for this TestContainer")
	return c.TestPostgresDB
}

func (c *TestContainer) RecordsStore() records.Store {
	require.NotNil(c.t, c.TestRecordsStore, "no records.Store set for this TestContainer")
	return c.TestRecordsStore
}

func (c *TestContainer) Ledger() (publishing.Ledger, error) {
	require.NotNil(c.t, c.TestLedger, "no publishing.Ledger set for this TestContainer")
	return c.TestLedger, nil
}

// DocumentArchive may be nil; archiving is optional in production too.
func (c *TestContainer) DocumentArchive() publishing.DocumentArchive {
	return c.TestDocumentArchive
}

func (c *TestContainer) Registry() *publishing.Registry {
	return c.registry
}

func (c *TestContainer) Orchestrator() (*publishing.Orchestrator, error) {
	require.NotNil(c.t, c.TestOrchestrator, "no publishing.Orchestrator set for this TestContainer")
	return c.TestOrchestrator, nil
}

func (c *TestContainer) ExplorerURL() string {
	return c.explorerURL
}

func (c *TestContainer) Logger() *slog.Logger {
	if c.logger == nil {
		c.logger = logging.Default
	}
	return c.logger
}

func (c *TestContainer) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

func (c *TestContainer) AddLoggingContext(args ...any) {
	c.logger = c.Logger().With(args...)
}
