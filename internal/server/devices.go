package server

import (
	"errors"
	"net/http"
	"strings"

	devicedomain "github.com/autoprintfarm/connector/internal/device/domain"
	tenantdomain "github.com/autoprintfarm/connector/internal/tenant/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createDeviceRequest struct {
	Name string `json:"name"`
}

type listDevicesResponse struct {
	Devices []devicedomain.Response `json:"devices"`
}

type revokeDeviceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListDevices returns every device for the caller's tenant, newest first,
// hashes stripped. An unbound tenant yields an empty list, and unexpected
// failures degrade to an empty list as well so the admin UI still renders.
func (s *Server) ListDevices(c *gin.Context) {
	devices, err := s.deviceSvc.List(c.Request.Context())
	if err != nil {
		if errors.Is(err, tenantdomain.ErrUnauthenticated) {
			AbortWithError(c, err)
			return
		}
		s.log.Error("failed to list devices", zap.Error(err))
		c.JSON(http.StatusInternalServerError, listDevicesResponse{Devices: []devicedomain.Response{}})
		return
	}

	c.JSON(http.StatusOK, listDevicesResponse{Devices: devices})
}

// CreateDevice registers a device and returns the one-time plaintext API key.
func (s *Server) CreateDevice(c *gin.Context) {
	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, devicedomain.ErrNameRequired)
		return
	}

	resp, err := s.deviceSvc.Create(c.Request.Context(), req.Name)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// RevokeDevice flips the device to revoked; the row is kept for audit.
func (s *Server) RevokeDevice(c *gin.Context) {
	deviceID := strings.TrimSpace(c.Query("id"))
	if deviceID == "" {
		AbortWithError(c, devicedomain.ErrDeviceIDRequired)
		return
	}

	if err := s.deviceSvc.Revoke(c.Request.Context(), deviceID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, revokeDeviceResponse{
		Success: true,
		Message: "Device access revoked successfully",
	})
}
