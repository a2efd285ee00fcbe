package server

import (
	"errors"
	"net/http"

	"github.com/bundlewatch/bundlewatch/internal/bundle"
	"github.com/bundlewatch/bundlewatch/internal/taara"
	usagedomain "github.com/bundlewatch/bundlewatch/internal/usage/domain"
	"github.com/gin-gonic/gin"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware renders the last gin error as JSON when no
// handler has written a response yet.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

// AbortWithError records the error for the middleware to render.
func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var authErr *taara.AuthError
	var fetchErr *taara.FetchError
	var structuralErr *bundle.StructuralError

	switch {
	case errors.Is(err, usagedomain.ErrInvalidLimit), errors.Is(err, usagedomain.ErrInvalidDays):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: err.Error()}
	case errors.As(err, &authErr):
		return http.StatusBadGateway, errorPayload{Type: "auth_error", Message: err.Error()}
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway, errorPayload{Type: "fetch_error", Message: err.Error()}
	case errors.As(err, &structuralErr):
		return http.StatusBadGateway, errorPayload{Type: "parse_error", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal error"}
	}
}
