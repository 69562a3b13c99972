package dbmigrate

import (
	"fmt"
	"strconv"

	sharedconfig "github.com/talentledger/anchor-service/internal/shared/config"
)

const VerboseLoggingKey = "VERBOSE_LOGGING"

type Config struct {
	PostgresDB     sharedconfig.PostgresDBConfig
	VerboseLogging bool
}

func LoadConfig() (Config, error) {
	verboseStr := sharedconfig.GetEnvOrDefault(VerboseLoggingKey, "false")
	isVerbose, err := strconv.ParseBool(verboseStr)
	if err != nil {
		return Config{}, fmt.Errorf("error converting %q value %s to bool: %w",
			VerboseLoggingKey, verboseStr, err)
	}
	postgresConfig, err := sharedconfig.NewPostgresDBConfig().Load()
	if err != nil {
		return Config{}, fmt.Errorf("error loading PostgresDB config: %w", err)
	}
	return Config{
		PostgresDB:     postgresConfig,
		VerboseLogging: isVerbose,
	}, nil
}
