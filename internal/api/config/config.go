package config

import (
	"fmt"

	sharedconfig "github.com/talentledger/anchor-service/internal/shared/config"
)

type Config struct {
	PostgresDB sharedconfig.PostgresDBConfig
	Ledger     LedgerConfig
	Publishing PublishingConfig
}

func LoadConfig() (Config, error) {
	postgresConfig, err := sharedconfig.NewPostgresDBConfig().Load()
	if err != nil {
		return Config{}, fmt.Errorf("error loading PostgresDB config: %w", err)
	}
	ledgerConfig, err := NewLedgerConfig().Load()
	if err != nil {
		return Config{}, fmt.Errorf("error loading Ledger config: %w", err)
	}
	publishingConfig, err := NewPublishingConfig().Load()
	if err != nil {
		return Config{}, fmt.Errorf("error loading publishing config: %w", err)
	}
	return Config{
		PostgresDB: postgresConfig,
		Ledger:     ledgerConfig,
		Publishing: publishingConfig,
	}, nil
}
