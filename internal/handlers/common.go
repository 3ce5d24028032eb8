package handlers

import (
	"errors"
	"net/http"

	"github.com/mathewgeejo/would-you-rather/internal/services"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// respondError maps service sentinel errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrAlreadyVoted),
		errors.Is(err, services.ErrAlreadyFlagged),
		errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrBadgeNameTaken):
		status = http.StatusConflict
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrVoteNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrEditWindowExpired),
		errors.Is(err, services.ErrQuestionUnavailable),
		errors.Is(err, services.ErrInvalidChoice):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
