package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/talentledger/anchor-service/internal/api/publishing"
)

// AgentLedger is the conversational transport: it wraps the submission in a
// natural-language envelope sent to an agent backend and extracts the locator
// from the reply text. The agent has no status endpoint, so a pending handle
// carries the reply itself and status checks re-read it.
type AgentLedger struct {
	responsesURL string
	model        string
	apiKey       string
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewAgentLedger(responsesURL, model, apiKey string, logger *slog.Logger) *AgentLedger {
	return &AgentLedger{
		responsesURL: responsesURL,
		model:        model,
		apiKey:       apiKey,
		httpClient:   http.DefaultClient,
		logger:       logger,
	}
}

func (l *AgentLedger) Submit(ctx context.Context, document publishing.Document) (publishing.SubmitResult, error) {
	outputText, err := l.invokeAgent(ctx, buildPublishPrompt(document))
	if err != nil {
		return publishing.SubmitResult{}, err
	}
	if locator, found := publishing.ExtractLocator(outputText); found {
		return publishing.SubmitResult{Locator: &locator}, nil
	}
	// no locator yet; the reply is the handle a later status check re-reads
	return publishing.SubmitResult{Handle: publishing.Handle{Envelope: outputText}}, nil
}

// CheckStatus re-extracts from the envelope captured at submission time. It
// never reaches the network: the agent backend cannot be queried about a past
// reply, so an envelope without a locator stays pending until the poller's
// budget runs out.
func (l *AgentLedger) CheckStatus(_ context.Context, handle publishing.Handle) (publishing.StatusResult, error) {
	if handle.Envelope == "" {
		return publishing.StatusResult{}, fmt.Errorf("handle has no envelope to check")
	}
	if locator, found := publishing.ExtractLocator(handle.Envelope); found {
		return publishing.StatusResult{State: publishing.CompletedAssetState, Locator: &locator}, nil
	}
	return publishing.StatusResult{State: publishing.PendingAssetState}, nil
}

func (l *AgentLedger) invokeAgent(ctx context.Context, prompt string) (string, error) {
	requestBody, err := json.Marshal(map[string]any{
		"model": l.model,
		"input": prompt,
	})
	if err != nil {
		return "", fmt.Errorf("error marshalling agent request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.responsesURL, bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("error creating agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// credential material goes only in the Authorization header, never in
	// errors or logs
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	res, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error invoking agent: %w", err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			l.logger.Warn("error closing agent response body", slog.Any("error", err))
		}
	}()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, readErr := io.ReadAll(io.LimitReader(res.Body, 4096))
		if readErr != nil {
			return "", fmt.Errorf("agent request status %d; error reading body: %w", res.StatusCode, readErr)
		}
		return "", fmt.Errorf("agent request status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("error decoding agent response: %w", err)
	}
	outputText := strings.TrimSpace(payload.OutputText)
	if outputText == "" {
		for _, item := range payload.Output {
			for _, content := range item.Content {
				if strings.TrimSpace(content.Text) != "" {
					outputText = strings.TrimSpace(content.Text)
					break
				}
			}
			if outputText != "" {
				break
			}
		}
	}
	if outputText == "" {
		return "", fmt.Errorf("agent response missing output text")
	}
	return outputText, nil
}

func buildPublishPrompt(document publishing.Document) string {
	var prompt strings.Builder
	prompt.WriteString("Publish the following ")
	prompt.WriteString(string(document.Metadata.RecordKind))
	prompt.WriteString(" document as a knowledge asset and reply with its UAL once anchored.\n\n")
	prompt.Write(document.Content)
	if document.Options.Privacy != "" {
		fmt.Fprintf(&prompt, "\n\nVisibility: %s.", document.Options.Privacy)
	}
	if document.Options.Epochs > 0 {
		fmt.Fprintf(&prompt, " Keep the asset for %d epochs.", document.Options.Epochs)
	}
	return prompt.String()
}
