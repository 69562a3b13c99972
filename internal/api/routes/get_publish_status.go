package routes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/talentledger/anchor-service/internal/api/apierrors"
	"github.com/talentledger/anchor-service/internal/api/dto"
	"github.com/talentledger/anchor-service/internal/api/publishing"
	"github.com/talentledger/anchor-service/internal/api/store/records"
)

var GetPublishStatusRouteKey = fmt.Sprintf("GET /records/{%s}/publish/status", RecordIDPathParamKey)

// GetPublishStatus reports the publish lifecycle state of a record. For a
// record stuck in publishing with no live in-process operation (a restart
// orphan) it runs one status check against the Ledger and finalizes the
// record when the check resolves.
func GetPublishStatus(ctx context.Context, params Params) (dto.PublishStatusResponse, *apierrors.Error) {
	recordID := params.Request.PathValue(RecordIDPathParamKey)
	if len(recordID) == 0 {
		return dto.PublishStatusResponse{}, apierrors.NewBadRequestError(fmt.Sprintf("missing %q path parameter", RecordIDPathParamKey))
	}
	params.Container.AddLoggingContext(slog.String(RecordIDPathParamKey, recordID))

	record, err := params.Container.RecordsStore().GetRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, records.ErrRecordNotFound) {
			return dto.PublishStatusResponse{}, apierrors.NewRecordNotFoundError(recordID)
		}
		return dto.PublishStatusResponse{}, apierrors.NewInternalServerError("error querying store for record status", err)
	}

	return statusResponseForRecord(ctx, params, record)
}

func NewGetPublishStatusRouteHandler() Handler[dto.PublishStatusResponse] {
	return Handler[dto.PublishStatusResponse]{
		HandleFunc:        GetPublishStatus,
		SuccessStatusCode: http.StatusOK,
		Headers:           DefaultResponseHeaders(),
	}
}

// statusResponseForRecord maps a record's stored state to the polling
// response shape shared by the record and operation status routes.
func statusResponseForRecord(ctx context.Context, params Params, record records.Record) (dto.PublishStatusResponse, *apierrors.Error) {
	switch record.PublishStatus {
	case publishing.CompletedStatus:
		return completedStatusResponse(params, record), nil
	case publishing.FailedStatus:
		response := dto.PublishStatusResponse{Status: string(publishing.FailedStatus)}
		if record.PublishError != nil {
			response.Error = *record.PublishError
		}
		return response, nil
	case publishing.PublishingStatus:
		return publishingStatusResponse(ctx, params, record)
	default:
		return dto.PublishStatusResponse{Success: true, Status: string(record.PublishStatus)}, nil
	}
}

func completedStatusResponse(params Params, record records.Record) dto.PublishStatusResponse {
	response := dto.PublishStatusResponse{
		Success: true,
		Status:  string(publishing.CompletedStatus),
		Score:   record.PublishedScore,
	}
	if record.Locator != nil {
		response.Locator = *record.Locator
		if locator, err := publishing.ParseLocator(*record.Locator); err == nil {
			response.ExplorerURL = publishing.ResolveExplorerURL(params.Container.ExplorerURL(), &locator)
		} else {
			params.Container.Logger().Warn("stored locator does not parse",
				slog.String("locator", *record.Locator),
				slog.Any("error", err))
		}
	}
	if record.DatasetRoot != nil {
		response.DatasetRoot = *record.DatasetRoot
	}
	return response
}

func publishingStatusResponse(ctx context.Context, params Params, record records.Record) (dto.PublishStatusResponse, *apierrors.Error) {
	stillPublishing := dto.PublishStatusResponse{Success: true, Status: string(publishing.PublishingStatus)}

	// a live in-process operation will finalize the record itself
	if _, live := params.Container.Registry().GetByRecord(record.ID); live {
		return stillPublishing, nil
	}
	// no live operation and no handle: nothing to ask the Ledger about
	if record.PendingHandle.IsZero() {
		return stillPublishing, nil
	}

	ledger, ledgerErr := params.Container.Ledger()
	if ledgerErr != nil {
		return dto.PublishStatusResponse{}, apierrors.NewInternalServerError("error building ledger client", ledgerErr)
	}
	status, checkErr := ledger.CheckStatus(ctx, record.PendingHandle)
	if checkErr != nil {
		params.Container.Logger().Warn("status check for orphaned operation failed",
			slog.Any("error", checkErr))
		return stillPublishing, nil
	}

	switch status.State {
	case publishing.CompletedAssetState:
		if status.Locator == nil {
			return stillPublishing, nil
		}
		outcome := publishing.FinishOutcome{
			Status:      publishing.CompletedStatus,
			Locator:     status.Locator,
			DatasetRoot: status.DatasetRoot,
			Document:    record.Content,
		}
		if record.Kind == publishing.ProjectKind {
			outcome.Score = publishing.ProjectScore(record.Content)
		}
		if err := params.Container.RecordsStore().FinishPublish(ctx, record.ID, outcome); err != nil &&
			!errors.Is(err, publishing.ErrAlreadyFinalized) {
			return dto.PublishStatusResponse{}, apierrors.NewInternalServerError(
				fmt.Sprintf("error finalizing record %s after status check", record.ID), err)
		}
		updated, err := params.Container.RecordsStore().GetRecord(ctx, record.ID)
		if err != nil {
			return dto.PublishStatusResponse{}, apierrors.NewInternalServerError(
				fmt.Sprintf("error re-reading record %s after finalization", record.ID), err)
		}
		return completedStatusResponse(params, updated), nil
	case publishing.FailedAssetState:
		outcome := publishing.FinishOutcome{
			Status:       publishing.FailedStatus,
			ErrorMessage: status.Message,
		}
		if err := params.Container.RecordsStore().FinishPublish(ctx, record.ID, outcome); err != nil &&
			!errors.Is(err, publishing.ErrAlreadyFinalized) {
			return dto.PublishStatusResponse{}, apierrors.NewInternalServerError(
				fmt.Sprintf("error finalizing record %s after status check", record.ID), err)
		}
		return dto.PublishStatusResponse{Status: string(publishing.FailedStatus), Error: status.Message}, nil
	default:
		return stillPublishing, nil
	}
}
