package util

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const ApplicationJSON = "application/json"

// Invoke executes the request and converts any non-2xx response into an error
// carrying the (truncated) response body.
func Invoke(request *http.Request, logger *slog.Logger) (*http.Response, error) {
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("error invoking %s %s: %w", request.Method, request.URL, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		body, readErr := io.ReadAll(io.LimitReader(response.Body, 4096))
		CloseAndWarn(response, logger)
		if readErr != nil {
			return nil, fmt.Errorf("%s %s returned status %d (error reading body: %v)",
				request.Method, request.URL, response.StatusCode, readErr)
		}
		return nil, fmt.Errorf("%s %s returned status %d: %s",
			request.Method, request.URL, response.StatusCode, string(body))
	}
	return response, nil
}

// UnmarshallResponse decodes the JSON response body into value.
func UnmarshallResponse(response *http.Response, value any) error {
	if err := json.NewDecoder(response.Body).Decode(value); err != nil {
		return fmt.Errorf("error decoding response body into %T: %w", value, err)
	}
	return nil
}

// CloseAndWarn closes the response body, logging a warning on failure rather
// than returning an error the caller would have nothing useful to do with.
func CloseAndWarn(response *http.Response, logger *slog.Logger) {
	if err := response.Body.Close(); err != nil {
		logger.Warn("error closing response body",
			slog.String("url", response.Request.URL.String()),
			slog.Any("error", err))
	}
}
