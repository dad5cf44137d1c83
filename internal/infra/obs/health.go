package obs

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check pings one backing service.
type Check func(ctx context.Context) error

// HealthHandlers exposes liveness and readiness. Readiness runs every
// registered check with a short deadline.
type HealthHandlers struct {
	Checks  map[string]Check
	Timeout time.Duration
}

func (h HealthHandlers) Livez(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h HealthHandlers) Readyz(c *gin.Context) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	var errs []error
	failing := gin.H{}
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			errs = append(errs, err)
			failing[name] = err.Error()
		}
	}
	if err := errors.Join(errs...); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": failing})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
