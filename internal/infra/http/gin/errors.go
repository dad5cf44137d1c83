package ginserver

import (
	"encoding/json"
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"staycal/internal/app/handlers/availability"
	"staycal/internal/app/handlers/sessions"
	"staycal/internal/app/middleware"
	"staycal/internal/domain/calendar"
	"staycal/internal/domain/selection"
	"staycal/internal/infra/ics"
	"staycal/internal/infra/storage/s3"
)

func statusFor(err error) int {
	var (
		verrs  validator.ValidationErrors
		syntax *json.SyntaxError
		typ    *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &verrs),
		errors.As(err, &syntax),
		errors.As(err, &typ),
		errors.Is(err, calendar.ErrInvalidDate),
		errors.Is(err, calendar.ErrEmptyPropertyID),
		errors.Is(err, calendar.ErrNotObject),
		errors.Is(err, availability.ErrInvalidWindow),
		errors.Is(err, availability.ErrUnsupportedFormat),
		errors.Is(err, sessions.ErrInvalidDate),
		errors.Is(err, selection.ErrUnknownRole),
		errors.Is(err, ics.ErrEmptyFeed),
		errors.Is(err, ics.ErrMalformedFeed):
		return http.StatusBadRequest
	case errors.Is(err, middleware.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, calendar.ErrPropertyNotFound),
		errors.Is(err, sessions.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, calendar.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, s3.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": ...} and records it for the request log.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
