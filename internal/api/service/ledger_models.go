package service

import (
	"encoding/json"
	"fmt"

	"github.com/talentledger/anchor-service/internal/api/publishing"
)

// Wire shapes shared by the direct HTTP transport and the structured RPC
// transport; both backends speak the same asset vocabulary.

type submitAssetRequest struct {
	Content  json.RawMessage `json:"content"`
	Metadata assetMetadata   `json:"metadata"`
	Options  assetOptions    `json:"options"`
}

type assetMetadata struct {
	Source     string `json:"source"`
	RecordKind string `json:"recordKind"`
	RecordID   string `json:"recordId"`
}

type assetOptions struct {
	Privacy  string `json:"privacy,omitempty"`
	Epochs   int    `json:"epochs,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

func newSubmitAssetRequest(document publishing.Document) submitAssetRequest {
	return submitAssetRequest{
		Content: document.Content,
		Metadata: assetMetadata{
			Source:     document.Metadata.Source,
			RecordKind: string(document.Metadata.RecordKind),
			RecordID:   document.Metadata.RecordID,
		},
		Options: assetOptions{
			Privacy:  document.Options.Privacy,
			Epochs:   document.Options.Epochs,
			Priority: document.Options.Priority,
		},
	}
}

type assetResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	UAL         string `json:"ual,omitempty"`
	DatasetRoot string `json:"datasetRoot,omitempty"`
	Error       string `json:"error,omitempty"`
}

const assetStatusPending = "pending"
const assetStatusCompleted = "completed"
const assetStatusFailed = "failed"

func (r assetResponse) toSubmitResult() (publishing.SubmitResult, error) {
	if r.UAL != "" {
		locator, err := publishing.ParseLocator(r.UAL)
		if err != nil {
			return publishing.SubmitResult{}, fmt.Errorf("error parsing locator in submit response: %w", err)
		}
		return publishing.SubmitResult{Locator: &locator, DatasetRoot: r.DatasetRoot}, nil
	}
	if r.ID == "" {
		return publishing.SubmitResult{}, fmt.Errorf("submit response contains neither a locator nor an asset id")
	}
	return publishing.SubmitResult{Handle: publishing.Handle{AssetID: r.ID}}, nil
}

func (r assetResponse) toStatusResult() (publishing.StatusResult, error) {
	switch r.Status {
	case assetStatusCompleted:
		result := publishing.StatusResult{State: publishing.CompletedAssetState, DatasetRoot: r.DatasetRoot}
		if r.UAL != "" {
			locator, err := publishing.ParseLocator(r.UAL)
			if err != nil {
				return publishing.StatusResult{}, fmt.Errorf("error parsing locator in status response: %w", err)
			}
			result.Locator = &locator
		}
		return result, nil
	case assetStatusFailed:
		return publishing.StatusResult{State: publishing.FailedAssetState, Message: r.Error}, nil
	default:
		// anything the backend calls neither completed nor failed is pending
		return publishing.StatusResult{State: publishing.PendingAssetState}, nil
	}
}
