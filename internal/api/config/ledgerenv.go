package config

import sharedconfig "github.com/talentledger/anchor-service/internal/shared/config"

const LedgerTransportKey = "LEDGER_TRANSPORT"
const LedgerNodeURLKey = "LEDGER_NODE_URL"
const LedgerRPCEndpointKey = "LEDGER_RPC_ENDPOINT"
const LedgerAgentResponsesURLKey = "LEDGER_AGENT_RESPONSES_URL"
const LedgerAgentModelKey = "LEDGER_AGENT_MODEL"
const LedgerAgentAPIKeyKey = "LEDGER_AGENT_API_KEY"
const LedgerExplorerURLKey = "LEDGER_EXPLORER_URL"

type LedgerEnvironmentSettings struct {
	Transport         sharedconfig.EnvironmentSetting
	NodeURL           sharedconfig.EnvironmentSetting
	RPCEndpoint       sharedconfig.EnvironmentSetting
	AgentResponsesURL sharedconfig.EnvironmentSetting
	AgentModel        sharedconfig.EnvironmentSetting
	AgentAPIKey       sharedconfig.EnvironmentSetting
	ExplorerURL       sharedconfig.EnvironmentSetting
}

var DeployedLedgerEnvironmentSettings = LedgerEnvironmentSettings{
	Transport:         sharedconfig.NewEnvironmentSettingWithDefault(LedgerTransportKey, string(DirectTransport)),
	NodeURL:           sharedconfig.NewEnvironmentSetting(LedgerNodeURLKey),
	RPCEndpoint:       sharedconfig.NewEnvironmentSetting(LedgerRPCEndpointKey),
	AgentResponsesURL: sharedconfig.NewEnvironmentSetting(LedgerAgentResponsesURLKey),
	AgentModel:        sharedconfig.NewEnvironmentSetting(LedgerAgentModelKey),
	AgentAPIKey:       sharedconfig.NewEnvironmentSetting(LedgerAgentAPIKeyKey),
	ExplorerURL:       sharedconfig.NewEnvironmentSettingWithDefault(LedgerExplorerURLKey, "https://dkg.origintrail.io"),
}
