package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/talentledger/anchor-service/internal/api/publishing"
	"github.com/talentledger/anchor-service/internal/shared/util"
)

// HTTPLedger is the direct transport: it talks to a Ledger node's REST API.
type HTTPLedger struct {
	url    string
	logger *slog.Logger
}

func NewHTTPLedger(ledgerURL string, logger *slog.Logger) *HTTPLedger {
	return &HTTPLedger{url: ledgerURL, logger: logger}
}

func (l *HTTPLedger) Submit(ctx context.Context, document publishing.Document) (publishing.SubmitResult, error) {
	requestParams := requestParameters{
		method: http.MethodPost,
		url:    fmt.Sprintf("%s/assets", l.url),
		body:   newSubmitAssetRequest(document),
	}
	response, err := l.invokeLedger(ctx, requestParams)
	if err != nil {
		return publishing.SubmitResult{}, err
	}
	defer util.CloseAndWarn(response, l.logger)

	var responseDTO assetResponse
	if err := util.UnmarshallResponse(response, &responseDTO); err != nil {
		return publishing.SubmitResult{}, fmt.Errorf(
			"error unmarshalling response to %s: %w",
			requestParams,
			err)
	}
	return responseDTO.toSubmitResult()
}

func (l *HTTPLedger) CheckStatus(ctx context.Context, handle publishing.Handle) (publishing.StatusResult, error) {
	if handle.AssetID == "" {
		return publishing.StatusResult{}, fmt.Errorf("handle has no asset id to check")
	}
	requestParams := requestParameters{
		method: http.MethodGet,
		url:    fmt.Sprintf("%s/assets/%s/status", l.url, url.PathEscape(handle.AssetID)),
	}
	response, err := l.invokeLedger(ctx, requestParams)
	if err != nil {
		return publishing.StatusResult{}, err
	}
	defer util.CloseAndWarn(response, l.logger)

	var responseDTO assetResponse
	if err := util.UnmarshallResponse(response, &responseDTO); err != nil {
		return publishing.StatusResult{}, fmt.Errorf(
			"error unmarshalling response to %s: %w",
			requestParams,
			err)
	}
	return responseDTO.toStatusResult()
}

func (l *HTTPLedger) invokeLedger(ctx context.Context, requestParams requestParameters) (*http.Response, error) {
	req, err := newLedgerRequest(ctx, requestParams)
	if err != nil {
		return nil, fmt.Errorf("error creating %s request: %w", requestParams, err)
	}
	return util.Invoke(req, l.logger)
}

type requestParameters struct {
	method string
	url    string
	body   any
}

func (p requestParameters) String() string {
	return fmt.Sprintf("%s %s", p.method, p.url)
}

func newLedgerRequest(ctx context.Context, requestParams requestParameters) (*http.Request, error) {
	body, err := makeJSONBody(requestParams.body)
	if err != nil {
		return nil, fmt.Errorf("error for %s request: %w",
			requestParams, err)
	}
	request, err := http.NewRequestWithContext(ctx, requestParams.method, requestParams.url, body)
	if err != nil {
		return nil, fmt.Errorf("error creating %s request: %w", requestParams, err)
	}
	request.Header.Add("accept", util.ApplicationJSON)
	request.Header.Add("Content-Type", util.ApplicationJSON)
	return request, nil
}

func makeJSONBody(structBody any) (io.Reader, error) {
	if structBody == nil {
		return nil, nil
	}
	var buffer bytes.Buffer
	if err := json.NewEncoder(&buffer).Encode(structBody); err != nil {
		return nil, fmt.Errorf("error encoding body: %w", err)
	}
	return &buffer, nil
}
