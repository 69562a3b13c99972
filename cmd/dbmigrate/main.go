package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/talentledger/anchor-service/internal/dbmigrate"
)

var logger = slog.Default()

func main() {
	ctx := context.Background()
	migrateConfig, err := dbmigrate.LoadConfig()
	if err != nil {
		logger.Error("error loading config", slog.Any("error", err))
		os.Exit(1)
	}
	logger.
		With(slog.Bool("verboseLogging", migrateConfig.VerboseLogging),
			slog.Group("postgres",
				slog.String("host", migrateConfig.PostgresDB.Host),
				slog.Int("port", migrateConfig.PostgresDB.Port),
				slog.String("username", migrateConfig.PostgresDB.User),
				slog.Bool("useRDSProxy", migrateConfig.PostgresDB.Password == nil),
				slog.String("database", migrateConfig.PostgresDB.AnchorDatabase),
			)).
		Info("anchor DB schema migration started")
	m, err := newAnchorMigrator(ctx, migrateConfig)
	if err != nil {
		logger.Error("error creating AnchorMigrator", slog.Any("error", err))
		os.Exit(1)
	}
	defer m.CloseAndLogError()

	if err := m.Up(); err != nil {
		logger.Error("error running 'up' migrations", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("anchor DB schema migration complete")
}

func newAnchorMigrator(ctx context.Context, migrateConfig dbmigrate.Config) (*dbmigrate.AnchorMigrator, error) {
	if migrateConfig.PostgresDB.Password == nil {
		awsConfig, err := awsCfg.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("error loading AWS config: %w", err)
		}
		return dbmigrate.NewRDSProxyAnchorMigrator(ctx, migrateConfig, awsConfig)
	}
	return dbmigrate.NewLocalAnchorMigrator(ctx, migrateConfig)
}
