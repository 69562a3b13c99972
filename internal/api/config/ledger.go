package config

import (
	"fmt"

	sharedconfig "github.com/talentledger/anchor-service/internal/shared/config"
	"github.com/talentledger/anchor-service/internal/shared/util"
)

// LedgerTransport selects which transport adapter talks to the Ledger.
type LedgerTransport string

const DirectTransport LedgerTransport = "direct"
const ConversationalTransport LedgerTransport = "conversational"
const RPCTransport LedgerTransport = "rpc"

type LedgerConfig struct {
	Transport LedgerTransport
	// NodeURL is the Ledger node REST endpoint used by the direct transport.
	NodeURL string
	// RPCEndpoint is the streamable MCP endpoint used by the rpc transport.
	RPCEndpoint string
	// AgentResponsesURL, AgentModel and AgentAPIKey configure the
	// conversational transport. The API key falls back to SSM when the env
	// var is absent.
	AgentResponsesURL string
	AgentModel        string
	AgentAPIKey       *string
	AgentAPIKeySSM    *sharedconfig.SSMSetting
	// ExplorerURL is the base for human-followable locator links.
	ExplorerURL string
}

type LedgerOption func(ledgerConfig *LedgerConfig)

func NewLedgerConfig(options ...LedgerOption) LedgerConfig {
	ledgerConfig := LedgerConfig{}
	for _, option := range options {
		option(&ledgerConfig)
	}
	return ledgerConfig
}

func WithTransport(transport LedgerTransport) LedgerOption {
	return func(ledgerConfig *LedgerConfig) {
		ledgerConfig.Transport = transport
	}
}

func WithNodeURL(url string) LedgerOption {
	return func(ledgerConfig *LedgerConfig) {
		ledgerConfig.NodeURL = url
	}
}

func WithExplorerURL(url string) LedgerOption {
	return func(ledgerConfig *LedgerConfig) {
		ledgerConfig.ExplorerURL = url
	}
}

// LoadWithEnvSettings returns a copy of this LedgerConfig where any missing
// fields are populated by the given LedgerEnvironmentSettings.
func (c LedgerConfig) LoadWithEnvSettings(environmentSettings LedgerEnvironmentSettings) (LedgerConfig, error) {
	if len(c.Transport) == 0 {
		transport, err := environmentSettings.Transport.Get()
		if err != nil {
			return LedgerConfig{}, err
		}
		switch LedgerTransport(transport) {
		case DirectTransport, ConversationalTransport, RPCTransport:
			c.Transport = LedgerTransport(transport)
		default:
			return LedgerConfig{}, fmt.Errorf("unknown ledger transport %q", transport)
		}
	}
	if len(c.NodeURL) == 0 {
		c.NodeURL = util.SafeDeref(environmentSettings.NodeURL.GetNillable())
	}
	if len(c.RPCEndpoint) == 0 {
		c.RPCEndpoint = util.SafeDeref(environmentSettings.RPCEndpoint.GetNillable())
	}
	if len(c.AgentResponsesURL) == 0 {
		c.AgentResponsesURL = util.SafeDeref(environmentSettings.AgentResponsesURL.GetNillable())
	}
	if len(c.AgentModel) == 0 {
		c.AgentModel = util.SafeDeref(environmentSettings.AgentModel.GetNillable())
	}
	if c.AgentAPIKey == nil {
		c.AgentAPIKey = environmentSettings.AgentAPIKey.GetNillable()
	}
	if c.AgentAPIKeySSM == nil {
		c.AgentAPIKeySSM = sharedconfig.NewSSMSetting("anchor-service", "agent-api-key").
			WithEnvironment(sharedconfig.GetEnvOrDefault("ENV", "dev"))
	}
	if len(c.ExplorerURL) == 0 {
		explorerURL, err := environmentSettings.ExplorerURL.Get()
		if err != nil {
			return LedgerConfig{}, err
		}
		c.ExplorerURL = explorerURL
	}
	return c, nil
}

func (c LedgerConfig) Load() (LedgerConfig, error) {
	return c.LoadWithEnvSettings(DeployedLedgerEnvironmentSettings)
}
