package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/talentledger/anchor-service/internal/api/apierrors"
	"github.com/talentledger/anchor-service/internal/api/config"
	"github.com/talentledger/anchor-service/internal/api/container"
	"github.com/talentledger/anchor-service/internal/shared/util"
)

const RecordIDPathParamKey = "recordID"
const OperationIDPathParamKey = "operationID"

func DefaultResponseHeaders() map[string]string {
	return map[string]string{"content-type": util.ApplicationJSON}
}

type Params struct {
	Request   *http.Request
	Container container.DependencyContainer
	Config    config.Config
}

type Func[T any] func(ctx context.Context, params Params) (T, *apierrors.Error)

type Handler[T any] struct {
	HandleFunc        Func[T]
	SuccessStatusCode int
	Headers           map[string]string
}

// Handle runs the route function and writes either its response or its
// *apierrors.Error as JSON.
func Handle[T any](ctx context.Context, w http.ResponseWriter, params Params, handler Handler[T]) {
	logger := params.Container.Logger()
	response, err := handler.HandleFunc(ctx, params)
	if err != nil {
		err.LogError(logger)
		WriteAPIError(w, err)
		return
	}
	body, marshalErr := json.Marshal(response)
	if marshalErr != nil {
		err = apierrors.NewInternalServerError(fmt.Sprintf("error marshalling response body to %T", response), marshalErr)
		err.LogError(logger)
		WriteAPIError(w, err)
		return
	}
	for key, value := range handler.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(handler.SuccessStatusCode)
	if _, writeErr := w.Write(body); writeErr != nil {
		logger.Warn("error writing response body", slog.Any("error", writeErr))
	}
}

func WriteAPIError(w http.ResponseWriter, err *apierrors.Error) {
	for key, value := range DefaultResponseHeaders() {
		w.Header().Set(key, value)
	}
	w.WriteHeader(err.StatusCode)
	_, _ = fmt.Fprintf(w, `{"message": %q, "error_id": %q}`, err.UserMessage, err.ID)
}
