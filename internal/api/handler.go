package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/talentledger/anchor-service/internal/api/config"
	"github.com/talentledger/anchor-service/internal/api/container"
	"github.com/talentledger/anchor-service/internal/api/routes"
)

// AnchorServiceAPIHandler wires the publish routes onto a ServeMux. Each
// request gets a request-scoped view of the container so that logging
// context added by one route never leaks into a concurrent request.
func AnchorServiceAPIHandler(dependencyContainer container.DependencyContainer, apiConfig config.Config) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(routes.PublishRecordRouteKey,
		handle(dependencyContainer, apiConfig, routes.PublishRecordRouteKey, routes.NewPublishRecordRouteHandler()))
	mux.HandleFunc(routes.GetPublishStatusRouteKey,
		handle(dependencyContainer, apiConfig, routes.GetPublishStatusRouteKey, routes.NewGetPublishStatusRouteHandler()))
	mux.HandleFunc(routes.GetOperationStatusRouteKey,
		handle(dependencyContainer, apiConfig, routes.GetOperationStatusRouteKey, routes.NewGetOperationStatusRouteHandler()))
	return mux
}

func handle[T any](dependencyContainer container.DependencyContainer, apiConfig config.Config, routeKey string, handler routes.Handler[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scoped := &requestScopedContainer{
			DependencyContainer: dependencyContainer,
			logger: dependencyContainer.Logger().With(
				slog.String("routeKey", routeKey),
				slog.String("requestId", uuid.NewString()),
			),
		}
		routes.Handle(r.Context(), w, routes.Params{
			Request:   r,
			Container: scoped,
			Config:    apiConfig,
		}, handler)
	}
}

// requestScopedContainer shares the underlying container's dependencies but
// keeps its own logger.
type requestScopedContainer struct {
	container.DependencyContainer
	logger *slog.Logger
}

func (c *requestScopedContainer) Logger() *slog.Logger {
	return c.logger
}

func (c *requestScopedContainer) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

func (c *requestScopedContainer) AddLoggingContext(args ...any) {
	c.logger = c.logger.With(args...)
}
