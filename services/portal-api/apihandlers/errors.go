package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/case-framework/records-portal/pkg/documents/coordinator"
	doctypes "github.com/case-framework/records-portal/pkg/documents/types"
	"github.com/case-framework/records-portal/pkg/portal/registry"
	"github.com/case-framework/records-portal/pkg/questionnaire/engine"
	"github.com/case-framework/records-portal/pkg/session"
	"github.com/gin-gonic/gin"
)

// statusForError maps session errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, registry.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, session.ErrNotAuthenticated):
		return http.StatusUnauthorized

	case errors.Is(err, coordinator.ErrLockUnavailable),
		errors.Is(err, coordinator.ErrVersionConflict),
		errors.Is(err, coordinator.ErrConflictPending),
		errors.Is(err, coordinator.ErrNoConflict),
		errors.Is(err, coordinator.ErrNotCheckedOut),
		errors.Is(err, coordinator.ErrOperationInProgress):
		return http.StatusConflict
	case errors.Is(err, coordinator.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, coordinator.ErrTransientFailure):
		return http.StatusServiceUnavailable
	case errors.Is(err, coordinator.ErrSubmissionFailure):
		return http.StatusBadGateway
	case errors.Is(err, coordinator.ErrClosed), errors.Is(err, engine.ErrClosed):
		return http.StatusGone
	case errors.Is(err, doctypes.ErrUnknownResolution):
		return http.StatusBadRequest

	case errors.Is(err, engine.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrUnknownQuestion):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrFirstPage),
		errors.Is(err, engine.ErrPageOutOfRange),
		errors.Is(err, engine.ErrDraftNotSupported):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotLoaded),
		errors.Is(err, engine.ErrAlreadySubmitted),
		errors.Is(err, engine.ErrOperationInProgress):
		return http.StatusConflict
	case errors.Is(err, engine.ErrLoadFailed),
		errors.Is(err, engine.ErrSubmissionFailure):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondWithError(c *gin.Context, err error, extra gin.H) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		slog.Error("unexpected error", slog.String("path", c.Request.URL.Path), slog.String("error", err.Error()))
	}
	body := gin.H{"error": err.Error()}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}
