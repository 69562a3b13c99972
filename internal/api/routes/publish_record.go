package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/talentledger/anchor-service/internal/api/apierrors"
	"github.com/talentledger/anchor-service/internal/api/dto"
	"github.com/talentledger/anchor-service/internal/api/publishing"
	"github.com/talentledger/anchor-service/internal/api/store/records"
	"github.com/talentledger/anchor-service/internal/api/validate"
)

var PublishRecordRouteKey = fmt.Sprintf("POST /records/{%s}/publish", RecordIDPathParamKey)

const documentSource = "anchor-service"

// PublishRecord submits a record's document to the Ledger. The response
// either carries an operation id to poll or, when the Ledger resolved
// synchronously, the locator itself.
func PublishRecord(ctx context.Context, params Params) (dto.PublishRecordResponse, *apierrors.Error) {
	recordID := params.Request.PathValue(RecordIDPathParamKey)
	if len(recordID) == 0 {
		return dto.PublishRecordResponse{}, apierrors.NewBadRequestError(fmt.Sprintf("missing %q path parameter", RecordIDPathParamKey))
	}
	params.Container.AddLoggingContext(slog.String(RecordIDPathParamKey, recordID))

	// the body is optional; it only carries submission options
	var publishRequest dto.PublishRecordRequest
	body, readErr := io.ReadAll(params.Request.Body)
	if readErr != nil {
		return dto.PublishRecordResponse{}, apierrors.NewInternalServerError("error reading request body", readErr)
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &publishRequest); err != nil {
			return dto.PublishRecordResponse{}, apierrors.NewRequestUnmarshallError(publishRequest, err)
		}
	}
	if err := validate.PublishOptions(publishRequest); err != nil {
		return dto.PublishRecordResponse{}, err
	}

	record, err := params.Container.RecordsStore().GetRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, records.ErrRecordNotFound) {
			return dto.PublishRecordResponse{}, apierrors.NewRecordNotFoundError(recordID)
		}
		return dto.PublishRecordResponse{}, apierrors.NewInternalServerError("error querying store for record to publish", err)
	}

	// checked again transactionally by the store; this avoids a pointless
	// Ledger submission for a record that can never transition
	switch record.PublishStatus {
	case publishing.PublishingStatus:
		return dto.PublishRecordResponse{}, apierrors.NewConflictError(fmt.Sprintf("a publish operation is already in progress for record %s", recordID))
	case publishing.CompletedStatus, publishing.FailedStatus:
		return dto.PublishRecordResponse{}, apierrors.NewConflictError(fmt.Sprintf("record %s already has terminal publish status %s", recordID, record.PublishStatus))
	}

	orchestrator, orchErr := params.Container.Orchestrator()
	if orchErr != nil {
		return dto.PublishRecordResponse{}, apierrors.NewInternalServerError("error building publish orchestrator", orchErr)
	}

	outcome, err := orchestrator.Publish(ctx, publishing.PublishRequest{
		RecordID: recordID,
		Kind:     record.Kind,
		Document: publishing.Document{
			Content: record.Content,
			Metadata: publishing.Metadata{
				Source:     documentSource,
				RecordKind: record.Kind,
				RecordID:   recordID,
			},
			Options: publishing.SubmitOptions{
				Privacy:  publishRequest.Privacy,
				Epochs:   publishRequest.Epochs,
				Priority: publishRequest.Priority,
			},
		},
	})
	if err != nil {
		var submissionErr *publishing.SubmissionError
		switch {
		case errors.Is(err, publishing.ErrPublishInProgress):
			return dto.PublishRecordResponse{}, apierrors.NewConflictError(err.Error())
		case errors.Is(err, publishing.ErrAlreadyFinalized):
			return dto.PublishRecordResponse{}, apierrors.NewConflictError(err.Error())
		case errors.As(err, &submissionErr):
			return dto.PublishRecordResponse{}, apierrors.NewBadGatewayError(
				fmt.Sprintf("ledger did not accept the submission of record %s", recordID), err)
		default:
			return dto.PublishRecordResponse{}, apierrors.NewInternalServerError(
				fmt.Sprintf("error publishing record %s", recordID), err)
		}
	}

	response := dto.PublishRecordResponse{
		Success:     true,
		RecordID:    outcome.RecordID,
		Status:      string(outcome.Status),
		OperationID: outcome.OperationID,
		DatasetRoot: outcome.DatasetRoot,
	}
	if outcome.Locator != nil {
		response.Locator = outcome.Locator.String()
		response.ExplorerURL = publishing.ResolveExplorerURL(params.Container.ExplorerURL(), outcome.Locator)
	}
	return response, nil
}

func NewPublishRecordRouteHandler() Handler[dto.PublishRecordResponse] {
	return Handler[dto.PublishRecordResponse]{
		HandleFunc:        PublishRecord,
		SuccessStatusCode: http.StatusAccepted,
		Headers:           DefaultResponseHeaders(),
	}
}
