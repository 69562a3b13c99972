package apierrors

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

type Error struct {
	UserMessage string
	Cause       error
	StatusCode  int
	ID          string
}

func NewError(userMessage string, cause error, statusCode int) *Error {
	return &Error{
		UserMessage: userMessage,
		Cause:       cause,
		StatusCode:  statusCode,
		ID:          uuid.NewString(),
	}
}

func NewInternalServerError(userMessage string, cause error) *Error {
	return NewError(userMessage, cause, http.StatusInternalServerError)
}

func NewBadRequestError(userMessage string) *Error {
	return NewError(userMessage, nil, http.StatusBadRequest)
}

func NewRequestUnmarshallError(requestType any, cause error) *Error {
	return NewError(fmt.Sprintf("error unmarshalling request body to %T", requestType), cause, http.StatusBadRequest)
}

func NewRecordNotFoundError(missingID string) *Error {
	return NewError(fmt.Sprintf("record %s not found", missingID), nil, http.StatusNotFound)
}

func NewOperationNotFoundError(missingID string) *Error {
	return NewError(fmt.Sprintf("operation %s not found", missingID), nil, http.StatusNotFound)
}

func NewConflictError(userMessage string) *Error {
	return NewError(userMessage, nil, http.StatusConflict)
}

func NewBadGatewayError(userMessage string, cause error) *Error {
	return NewError(userMessage, cause, http.StatusBadGateway)
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.UserMessage
	}
	return e.Cause.Error()
}

func (e *Error) LogError(logger *slog.Logger) {
	var cause string
	if e.Cause == nil {
		cause = "none"
	} else {
		cause = e.Cause.Error()
	}
	logger.Error(e.UserMessage,
		slog.Group("error",
			slog.String("id", e.ID),
			slog.Any("cause", cause),
		),
	)
}
