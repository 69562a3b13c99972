package configtest

import (
	"time"

	"github.com/talentledger/anchor-service/internal/api/config"
	sharedconfig "github.com/talentledger/anchor-service/internal/shared/config"
	"github.com/talentledger/anchor-service/internal/shared/util"
)

func PostgresDBConfig() sharedconfig.PostgresDBConfig {
	postgresConfig := sharedconfig.NewPostgresDBConfig()
	postgresConfig.User = "postgres"
	postgresConfig.Password = util.Ptr("password")
	postgresConfig.AnchorDatabase = "anchor_postgres"
	return postgresConfig
}

// Config returns a config suitable for route tests: direct transport against
// a placeholder node URL and short publishing intervals.
func Config() config.Config {
	return config.Config{
		PostgresDB: PostgresDBConfig(),
		Ledger: config.NewLedgerConfig(
			config.WithTransport(config.DirectTransport),
			config.WithNodeURL("http://example.com/ledger"),
			config.WithExplorerURL("https://dkg.example.com"),
		),
		Publishing: config.PublishingConfig{
			PollMaxAttempts:  3,
			PollInterval:     time.Millisecond,
			FinalizeAttempts: 2,
			FinalizeBackoff:  time.Millisecond,
			SweepInterval:    time.Minute,
			SweepThreshold:   time.Minute,
		},
	}
}
