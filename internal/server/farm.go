package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type heartbeatRequest struct {
	DeviceID string `json:"deviceId"`
	APIKey   string `json:"apiKey"`
}

type heartbeatResponse struct {
	Success bool `json:"success"`
}

// DeviceHeartbeat authenticates a device by its issued API key and records
// the contact time. Anything beyond this check-in (order sync, job polling)
// lives on the print-farm side, not here.
func (s *Server) DeviceHeartbeat(c *gin.Context) {
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.deviceSvc.Heartbeat(c.Request.Context(), req.DeviceID, req.APIKey); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, heartbeatResponse{Success: true})
}
