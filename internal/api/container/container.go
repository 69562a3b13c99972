package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/talentledger/anchor-service/internal/api/config"
	"github.com/talentledger/anchor-service/internal/api/publishing"
	"github.com/talentledger/anchor-service/internal/api/service"
	"github.com/talentledger/anchor-service/internal/api/store/documents"
	"github.com/talentledger/anchor-service/internal/api/store/records"
	"github.com/talentledger/anchor-service/internal/shared/clients/postgres"
	"github.com/talentledger/anchor-service/internal/shared/clients/ssm"
	"github.com/talentledger/anchor-service/internal/shared/logging"
	"github.com/talentledger/anchor-service/internal/shared/util"
)

type DependencyContainer interface {
	PostgresDB() postgres.DB
	RecordsStore() records.Store
	Ledger() (publishing.Ledger, error)
	DocumentArchive() publishing.DocumentArchive
	Registry() *publishing.Registry
	Orchestrator() (*publishing.Orchestrator, error)
	ExplorerURL() string
	Logger() *slog.Logger
	SetLogger(logger *slog.Logger)
	AddLoggingContext(args ...any)
}

type Container struct {
	AwsConfig       aws.Config
	Config          config.Config
	postgresdb      postgres.DB
	parameterStore  ssm.ParameterStore
	recordsStore    *records.PostgresStore
	ledger          publishing.Ledger
	documentArchive publishing.DocumentArchive
	registry        *publishing.Registry
	orchestrator    *publishing.Orchestrator
	logger          *slog.Logger
}

func NewContainer() (*Container, error) {
	containerConfig, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, err
	}

	return NewContainerFromConfig(containerConfig, awsCfg), nil
}

func NewContainerFromConfig(config config.Config, awsConfig aws.Config) *Container {
	return &Container{
		Config:    config,
		AwsConfig: awsConfig,
	}
}

func (c *Container) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

func (c *Container) Logger() *slog.Logger {
	if c.logger == nil {
		c.logger = logging.Default
	}
	return c.logger
}

func (c *Container) AddLoggingContext(args ...any) {
	c.logger = c.Logger().With(args...)
}

func (c *Container) PostgresDB() postgres.DB {
	if c.postgresdb == nil {
		pgCfg := c.Config.PostgresDB
		if pgCfg.Password != nil {
			c.postgresdb = postgres.NewLocal(pgCfg.Host, pgCfg.Port, pgCfg.User, *pgCfg.Password)
		} else {
			c.postgresdb = postgres.NewRDSProxy(
				c.AwsConfig,
				pgCfg.Host,
				pgCfg.Port,
				pgCfg.User,
			)
		}
	}
	return c.postgresdb
}

func (c *Container) ParameterStore() ssm.ParameterStore {
	if c.parameterStore == nil {
		c.parameterStore = ssm.NewAWSParameterStoreFromConfig(c.AwsConfig)
	}
	return c.parameterStore
}

func (c *Container) RecordsStore() records.Store {
	if c.recordsStore == nil {
		c.recordsStore = records.NewPostgresStore(c.PostgresDB(),
			c.Config.PostgresDB.AnchorDatabase,
			c.Logger())
	}
	return c.recordsStore
}

func (c *Container) Ledger() (publishing.Ledger, error) {
	if c.ledger == nil {
		ledgerCfg := c.Config.Ledger
		switch ledgerCfg.Transport {
		case config.DirectTransport:
			if len(ledgerCfg.NodeURL) == 0 {
				return nil, fmt.Errorf("direct ledger transport requires %s", config.LedgerNodeURLKey)
			}
			c.ledger = service.NewHTTPLedger(ledgerCfg.NodeURL, c.Logger())
		case config.ConversationalTransport:
			if len(ledgerCfg.AgentResponsesURL) == 0 {
				return nil, fmt.Errorf("conversational ledger transport requires %s", config.LedgerAgentResponsesURLKey)
			}
			apiKey := util.SafeDeref(ledgerCfg.AgentAPIKey)
			if len(apiKey) == 0 {
				loaded, err := ledgerCfg.AgentAPIKeySSM.Load(context.Background(), c.ParameterStore().GetParameter)
				if err != nil {
					return nil, fmt.Errorf("error loading agent API key: %w", err)
				}
				apiKey = loaded
			}
			c.ledger = service.NewAgentLedger(ledgerCfg.AgentResponsesURL, ledgerCfg.AgentModel, apiKey, c.Logger())
		case config.RPCTransport:
			if len(ledgerCfg.RPCEndpoint) == 0 {
				return nil, fmt.Errorf("rpc ledger transport requires %s", config.LedgerRPCEndpointKey)
			}
			c.ledger = service.NewMCPLedger(ledgerCfg.RPCEndpoint, c.Logger())
		default:
			return nil, fmt.Errorf("unknown ledger transport %q", ledgerCfg.Transport)
		}
	}
	return c.ledger, nil
}

// DocumentArchive returns nil when no archive bucket is configured;
// archiving the submitted snapshot is best effort and optional.
func (c *Container) DocumentArchive() publishing.DocumentArchive {
	if c.documentArchive == nil {
		archiveBucket := c.Config.Publishing.ArchiveBucket
		if archiveBucket == nil {
			return nil
		}
		c.documentArchive = documents.NewS3DocumentArchive(s3.NewFromConfig(c.AwsConfig), *archiveBucket)
	}
	return c.documentArchive
}

func (c *Container) Registry() *publishing.Registry {
	if c.registry == nil {
		c.registry = publishing.NewRegistry()
	}
	return c.registry
}

func (c *Container) Orchestrator() (*publishing.Orchestrator, error) {
	if c.orchestrator == nil {
		ledger, err := c.Ledger()
		if err != nil {
			return nil, err
		}
		publishingCfg := c.Config.Publishing
		poller := publishing.NewPoller(ledger, publishingCfg.PollMaxAttempts, publishingCfg.PollInterval, c.Logger())
		c.orchestrator = publishing.NewOrchestrator(
			ledger,
			c.RecordsStore(),
			c.Registry(),
			poller,
			c.DocumentArchive(),
			publishing.OrchestratorConfig{
				FinalizeAttempts: publishingCfg.FinalizeAttempts,
				FinalizeBackoff:  publishingCfg.FinalizeBackoff,
			},
			c.Logger(),
		)
	}
	return c.orchestrator, nil
}

func (c *Container) ExplorerURL() string {
	return c.Config.Ledger.ExplorerURL
}

// Sweeper builds the reconciliation sweeper for records orphaned in
// publishing. Not part of DependencyContainer: only the server entrypoint
// runs it.
func (c *Container) Sweeper() (*publishing.Sweeper, error) {
	ledger, err := c.Ledger()
	if err != nil {
		return nil, err
	}
	store, ok := c.RecordsStore().(publishing.SweepStore)
	if !ok {
		return nil, fmt.Errorf("records store %T cannot list stale publishing records", c.RecordsStore())
	}
	publishingCfg := c.Config.Publishing
	return publishing.NewSweeper(
		store,
		ledger,
		c.Registry(),
		publishingCfg.SweepThreshold,
		publishingCfg.SweepInterval,
		c.Logger(),
	), nil
}
