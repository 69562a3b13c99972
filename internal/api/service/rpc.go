package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/talentledger/anchor-service/internal/api/publishing"
)

const publishAssetTool = "publish_asset"
const assetStatusTool = "asset_status"

// MCPLedger is the structured RPC transport: it invokes the Ledger node's
// publish and status tools over an MCP session. The session is established
// lazily on first use and re-established transparently after a transport
// error.
type MCPLedger struct {
	client    *mcp.Client
	transport mcp.Transport
	logger    *slog.Logger

	mu      sync.Mutex
	session *mcp.ClientSession
}

func NewMCPLedger(endpoint string, logger *slog.Logger) *MCPLedger {
	return NewMCPLedgerWithTransport(&mcp.StreamableClientTransport{Endpoint: endpoint}, logger)
}

// NewMCPLedgerWithTransport injects the transport directly; used with
// in-memory transports in tests.
func NewMCPLedgerWithTransport(transport mcp.Transport, logger *slog.Logger) *MCPLedger {
	return &MCPLedger{
		client:    mcp.NewClient(&mcp.Implementation{Name: "anchor-service", Version: "v1.0.0"}, nil),
		transport: transport,
		logger:    logger,
	}
}

func (l *MCPLedger) Submit(ctx context.Context, document publishing.Document) (publishing.SubmitResult, error) {
	var responseDTO assetResponse
	if err := l.callTool(ctx, publishAssetTool, newSubmitAssetRequest(document), &responseDTO); err != nil {
		return publishing.SubmitResult{}, err
	}
	return responseDTO.toSubmitResult()
}

func (l *MCPLedger) CheckStatus(ctx context.Context, handle publishing.Handle) (publishing.StatusResult, error) {
	if handle.AssetID == "" {
		return publishing.StatusResult{}, fmt.Errorf("handle has no asset id to check")
	}
	var responseDTO assetResponse
	args := map[string]any{"assetId": handle.AssetID}
	if err := l.callTool(ctx, assetStatusTool, args, &responseDTO); err != nil {
		return publishing.StatusResult{}, err
	}
	return responseDTO.toStatusResult()
}

func (l *MCPLedger) callTool(ctx context.Context, name string, arguments any, target any) error {
	session, err := l.ensureSession(ctx)
	if err != nil {
		return fmt.Errorf("error establishing ledger session: %w", err)
	}
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: arguments,
	})
	if err != nil {
		// the session may be dead; drop it so the next call reconnects
		l.dropSession(session)
		return fmt.Errorf("error calling %s: %w", name, err)
	}
	if result.IsError {
		return fmt.Errorf("%s returned an error: %s", name, resultText(result))
	}
	return decodeToolResult(result, target)
}

func (l *MCPLedger) ensureSession(ctx context.Context) (*mcp.ClientSession, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session != nil {
		return l.session, nil
	}
	session, err := l.client.Connect(ctx, l.transport, nil)
	if err != nil {
		return nil, err
	}
	l.session = session
	return session, nil
}

func (l *MCPLedger) dropSession(session *mcp.ClientSession) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session != session {
		return
	}
	if err := l.session.Close(); err != nil {
		l.logger.Warn("error closing ledger session", slog.Any("error", err))
	}
	l.session = nil
}

// Close shuts down the current session, if any.
func (l *MCPLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session == nil {
		return nil
	}
	err := l.session.Close()
	l.session = nil
	return err
}

// decodeToolResult prefers the tool's structured content and falls back to
// parsing its first text block as JSON.
func decodeToolResult(result *mcp.CallToolResult, target any) error {
	if result.StructuredContent != nil {
		data, err := json.Marshal(result.StructuredContent)
		if err != nil {
			return fmt.Errorf("error marshalling structured tool content: %w", err)
		}
		return json.Unmarshal(data, target)
	}
	if text := resultText(result); text != "" {
		return json.Unmarshal([]byte(text), target)
	}
	return fmt.Errorf("tool result has no content")
}

func resultText(result *mcp.CallToolResult) string {
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok && text.Text != "" {
			return text.Text
		}
	}
	return ""
}
