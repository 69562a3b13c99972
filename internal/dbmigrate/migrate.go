package dbmigrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	sharedconfig "github.com/talentledger/anchor-service/internal/shared/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type AnchorMigrator struct {
	wrapped *migrate.Migrate
}

func NewRDSProxyAnchorMigrator(ctx context.Context, migrateConfig Config, awsConfig aws.Config) (*AnchorMigrator, error) {
	authenticationToken, err := auth.BuildAuthToken(
		ctx,
		fmt.Sprintf("%s:%d", migrateConfig.PostgresDB.Host, migrateConfig.PostgresDB.Port),
		awsConfig.Region,
		migrateConfig.PostgresDB.User,
		awsConfig.Credentials,
	)
	if err != nil {
		return nil, fmt.Errorf("error building auth token for AnchorMigrator: %w", err)
	}
	return newAnchorMigrator(
		ctx,
		migrateConfig.PostgresDB.User,
		authenticationToken,
		migrateConfig.PostgresDB.Host,
		migrateConfig.PostgresDB.Port,
		migrateConfig.PostgresDB.AnchorDatabase,
		migrateConfig.VerboseLogging)
}

func NewLocalAnchorMigrator(ctx context.Context, migrateConfig Config) (*AnchorMigrator, error) {
	if migrateConfig.PostgresDB.Password == nil {
		return nil, fmt.Errorf("password cannot be nil for local AnchorMigrator")
	}
	return newAnchorMigrator(
		ctx,
		migrateConfig.PostgresDB.User,
		*migrateConfig.PostgresDB.Password,
		migrateConfig.PostgresDB.Host,
		migrateConfig.PostgresDB.Port,
		migrateConfig.PostgresDB.AnchorDatabase,
		migrateConfig.VerboseLogging)
}

// Up will run any un-applied migrations
func (m *AnchorMigrator) Up() error {
	if err := m.wrapped.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.wrapped.Log.Printf("no changes")
			return nil
		}
		return err
	}
	return nil
}

// Down reverts all migrations. Only used by tests to check that the 'down'
// files at least run.
func (m *AnchorMigrator) Down() error {
	if err := m.wrapped.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.wrapped.Log.Printf("no changes")
			return nil
		}
		return err
	}
	return nil
}

func (m *AnchorMigrator) Drop() error {
	return m.wrapped.Drop()
}

func (m *AnchorMigrator) Close() (source error, database error) {
	return m.wrapped.Close()
}

func (m *AnchorMigrator) CloseAndLogError() {
	sourceErr, databaseErr := m.Close()
	if sourceErr != nil {
		m.wrapped.Log.Printf("warning: source error closing AnchorMigrator: %v", sourceErr)
	}
	if databaseErr != nil {
		m.wrapped.Log.Printf("warning: database error closing AnchorMigrator: %v", databaseErr)
	}
}

func newAnchorMigrator(ctx context.Context, username, password, host string,
	port int,
	databaseName string,
	verboseLogging bool) (*AnchorMigrator, error) {

	// Migrate needs two things, a database.Driver to access Postgres, and a source.Driver to read the
	// migration files.

	// Create database.Driver and create schema (which Migrate won't do on its own)
	db, err := sql.Open("pgx",
		datasourceName(username,
			password,
			host,
			port,
			databaseName),
	)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// WithInstance will try to ensure that golang-migrate's migration table exists, so we need
	// to create the schema before it is called.
	createSchemaQuery := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", sharedconfig.AnchorSchemaName)
	if _, err := db.ExecContext(ctx, createSchemaQuery); err != nil {
		return nil, closeOnError(fmt.Errorf("error creating schema %q: %w", sharedconfig.AnchorSchemaName, err), db)
	}
	driver, err := pgx.WithInstance(db, &pgx.Config{SchemaName: sharedconfig.AnchorSchemaName})
	if err != nil {
		return nil, closeOnError(fmt.Errorf("error creating migration database.Driver: %w", err), db)
	}

	// Create source.Driver which will read the .sql files from the migrations subdir.
	migrationsSource, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, closeOnError(fmt.Errorf("error creating migration iofs source.Driver: %w", err), db)
	}

	// Now we can create the Migrate instance
	m, err := migrate.NewWithInstance(
		"anchor iofs",
		migrationsSource,
		"anchor postgres",
		driver)
	if err != nil {
		return nil, closeOnError(fmt.Errorf("error creating Migrate instance: %w", err), driver, migrationsSource)
	}
	// we use this logger too in a couple of places, so need it non-nil
	m.Log = NewLogger(verboseLogging)
	return &AnchorMigrator{wrapped: m}, nil
}

func datasourceName(username, password, host string, port int, databaseName string) string {
	datasource := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(username, password),
		Host:     net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		Path:     databaseName,
		RawQuery: fmt.Sprintf("search_path=%s", sharedconfig.AnchorSchemaName),
	}
	return datasource.String()
}

func closeOnError(originalErr error, closers ...io.Closer) error {
	var closeErrs []string
	for _, closer := range closers {
		if closeErr := closer.Close(); closeErr != nil {
			closeErrs = append(closeErrs,
				fmt.Sprintf("in addition an error occured when closing %T: %v",
					closer,
					closeErr))
		}
	}
	if len(closeErrs) == 0 {
		return originalErr
	}
	return fmt.Errorf("%w; %s", originalErr, strings.Join(closeErrs, "; "))
}
