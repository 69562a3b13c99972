package routes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/talentledger/anchor-service/internal/api/apierrors"
	"github.com/talentledger/anchor-service/internal/api/dto"
	"github.com/talentledger/anchor-service/internal/api/store/records"
)

var GetOperationStatusRouteKey = fmt.Sprintf("GET /operations/{%s}", OperationIDPathParamKey)

// GetOperationStatus resolves the record a publish operation belongs to and
// reports the same lifecycle view as the record status route. The lookup
// matches finished operations too, so a client can keep polling the same
// operation id across finalization.
func GetOperationStatus(ctx context.Context, params Params) (dto.PublishStatusResponse, *apierrors.Error) {
	operationID := params.Request.PathValue(OperationIDPathParamKey)
	if len(operationID) == 0 {
		return dto.PublishStatusResponse{}, apierrors.NewBadRequestError(fmt.Sprintf("missing %q path parameter", OperationIDPathParamKey))
	}
	params.Container.AddLoggingContext(slog.String(OperationIDPathParamKey, operationID))

	record, err := params.Container.RecordsStore().GetRecordByOperation(ctx, operationID)
	if err != nil {
		if errors.Is(err, records.ErrRecordNotFound) {
			return dto.PublishStatusResponse{}, apierrors.NewOperationNotFoundError(operationID)
		}
		return dto.PublishStatusResponse{}, apierrors.NewInternalServerError("error querying store for operation", err)
	}

	return statusResponseForRecord(ctx, params, record)
}

func NewGetOperationStatusRouteHandler() Handler[dto.PublishStatusResponse] {
	return Handler[dto.PublishStatusResponse]{
		HandleFunc:        GetOperationStatus,
		SuccessStatusCode: http.StatusOK,
		Headers:           DefaultResponseHeaders(),
	}
}
