package test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/talentledger/anchor-service/internal/shared/config"
)

type PostgresDB struct {
	host     string
	port     int
	user     string
	password string
}

func NewPostgresDB(host string, port int, user string, password string) *PostgresDB {
	return &PostgresDB{
		host,
		port,
		user,
		password,
	}
}

func (db *PostgresDB) Connect(ctx context.Context, databaseName string) (*pgx.Conn, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		db.host, db.port, db.user, db.password, databaseName,
	)

	return pgx.Connect(ctx, dsn)
}

// PostgresDBConfig loads the test database config from the environment,
// skipping the test if no test database is configured.
func PostgresDBConfig(t *testing.T) config.PostgresDBConfig {
	t.Helper()
	if os.Getenv(config.PostgresHostKey) == "" {
		t.Skipf("skipping: %s is not set; no test database available", config.PostgresHostKey)
	}
	dbConfig, err := config.PostgresDBConfig{}.Load()
	if err != nil {
		t.Fatalf("error loading test database config: %v", err)
	}
	return dbConfig
}

func NewPostgresDBFromConfig(t *testing.T, dbConfig config.PostgresDBConfig) *PostgresDB {
	t.Helper()
	var password string
	if dbConfig.Password != nil {
		password = *dbConfig.Password
	}
	return NewPostgresDB(dbConfig.Host, dbConfig.Port, dbConfig.User, password)
}
