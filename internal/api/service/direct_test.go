package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentledger/anchor-service/internal/api/publishing"
	"github.com/talentledger/anchor-service/internal/shared/logging"
)

func testDocument() publishing.Document {
	return publishing.Document{
		Content: json.RawMessage(`{"name": "x"}`),
		Metadata: publishing.Metadata{
			Source:     "anchor-service",
			RecordKind: publishing.ProfileKind,
			RecordID:   "rec-1",
		},
		Options: publishing.SubmitOptions{Privacy: "public", Epochs: 2},
	}
}

func TestHTTPLedger_Submit_PendingHandle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/assets", r.URL.Path)

		var request submitAssetRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.JSONEq(t, `{"name": "x"}`, string(request.Content))
		assert.Equal(t, "profile", request.Metadata.RecordKind)
		assert.Equal(t, "rec-1", request.Metadata.RecordID)
		assert.Equal(t, "public", request.Options.Privacy)

		require.NoError(t, json.NewEncoder(w).Encode(assetResponse{
			ID:     "asset-42",
			Status: assetStatusPending,
		}))
	}))
	defer server.Close()

	ledger := NewHTTPLedger(server.URL, logging.Default)
	result, err := ledger.Submit(context.Background(), testDocument())

	require.NoError(t, err)
	assert.Nil(t, result.Locator)
	assert.Equal(t, publishing.Handle{AssetID: "asset-42"}, result.Handle)
}

func TestHTTPLedger_Submit_ImmediateLocator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(assetResponse{
			ID:          "asset-42",
			Status:      assetStatusCompleted,
			UAL:         "did:dkg/otp:2043/42",
			DatasetRoot: "0xroot",
		}))
	}))
	defer server.Close()

	ledger := NewHTTPLedger(server.URL, logging.Default)
	result, err := ledger.Submit(context.Background(), testDocument())

	require.NoError(t, err)
	require.NotNil(t, result.Locator)
	assert.Equal(t, "did:dkg/otp:2043/42", result.Locator.String())
	assert.Equal(t, "0xroot", result.DatasetRoot)
}

func TestHTTPLedger_Submit_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "node out of funds", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ledger := NewHTTPLedger(server.URL, logging.Default)
	_, err := ledger.Submit(context.Background(), testDocument())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "node out of funds")
}

func TestHTTPLedger_CheckStatus(t *testing.T) {
	tests := []struct {
		name     string
		response assetResponse
		expected publishing.StatusResult
	}{
		{
			name:     "pending",
			response: assetResponse{ID: "asset-42", Status: assetStatusPending},
			expected: publishing.StatusResult{State: publishing.PendingAssetState},
		},
		{
			name: "completed",
			response: assetResponse{
				ID:          "asset-42",
				Status:      assetStatusCompleted,
				UAL:         "did:dkg/otp:2043/42",
				DatasetRoot: "0xroot",
			},
			expected: publishing.StatusResult{
				State:       publishing.CompletedAssetState,
				Locator:     &publishing.Locator{Scheme: "did", Namespace: "dkg", ChainID: "otp:2043", AssetID: 42},
				DatasetRoot: "0xroot",
			},
		},
		{
			name:     "failed",
			response: assetResponse{ID: "asset-42", Status: assetStatusFailed, Error: "asset rejected"},
			expected: publishing.StatusResult{State: publishing.FailedAssetState, Message: "asset rejected"},
		},
		{
			name:     "unknown status treated as pending",
			response: assetResponse{ID: "asset-42", Status: "finalizing"},
			expected: publishing.StatusResult{State: publishing.PendingAssetState},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodGet, r.Method)
				require.Equal(t, "/assets/asset-42/status", r.URL.Path)
				require.NoError(t, json.NewEncoder(w).Encode(tt.response))
			}))
			defer server.Close()

			ledger := NewHTTPLedger(server.URL, logging.Default)
			status, err := ledger.CheckStatus(context.Background(), publishing.Handle{AssetID: "asset-42"})

			require.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestHTTPLedger_CheckStatus_RequiresAssetID(t *testing.T) {
	ledger := NewHTTPLedger("http://ledger.example.com", logging.Default)
	_, err := ledger.CheckStatus(context.Background(), publishing.Handle{})
	assert.Error(t, err)
}
