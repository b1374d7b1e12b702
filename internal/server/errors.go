package server

import (
	"errors"
	"net/http"

	devicedomain "github.com/autoprintfarm/connector/internal/device/domain"
	"github.com/autoprintfarm/connector/internal/shopify"
	tenantdomain "github.com/autoprintfarm/connector/internal/tenant/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
)

// errorResponse is the uniform envelope every failure is reported in. The
// message is merchant-facing remediation text, never an internal error.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorHandlingMiddleware converts errors recorded on the gin context into
// the JSON envelope. Handlers report failures via AbortWithError and never
// leak an unhandled fault to the caller.
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

		status, message := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Success: false, Message: message})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, devicedomain.ErrNameRequired):
		return http.StatusBadRequest, "Device name is required"
	case errors.Is(err, devicedomain.ErrDeviceIDRequired):
		return http.StatusBadRequest, "Device ID is required"
	case errors.Is(err, tenantdomain.ErrInvalidTenantID):
		return http.StatusBadRequest, "Tenant ID must be a valid UUID"
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, tenantdomain.ErrUnauthenticated),
		errors.Is(err, shopify.ErrInvalidToken),
		errors.Is(err, shopify.ErrNotConfigured):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, devicedomain.ErrInvalidCredential):
		return http.StatusUnauthorized, "Invalid device credentials"
	case errors.Is(err, tenantdomain.ErrNotConnected):
		return http.StatusNotFound, "Tenant not connected. Please connect your Print Farm first."
	case errors.Is(err, devicedomain.ErrNotFound):
		return http.StatusNotFound, "Device not found"
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, tenantdomain.ErrTenantIDClaimed):
		return http.StatusConflict, "This tenant ID is already connected to another shop"
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}
