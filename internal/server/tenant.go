package server

import (
	"errors"
	"net/http"

	tenantdomain "github.com/autoprintfarm/connector/internal/tenant/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type connectTenantRequest struct {
	TenantID string `json:"tenantId"`
}

// TenantStatus reports whether the calling shop is bound to a print farm.
func (s *Server) TenantStatus(c *gin.Context) {
	resp, err := s.tenantSvc.Status(c.Request.Context())
	if err != nil {
		if errors.Is(err, tenantdomain.ErrUnauthenticated) {
			AbortWithError(c, err)
			return
		}
		s.log.Error("failed to check tenant status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, tenantdomain.StatusResponse{Connected: false})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ConnectTenant binds (or re-points) the shop to a print-farm tenant ID.
func (s *Server) ConnectTenant(c *gin.Context) {
	var req connectTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, tenantdomain.ErrInvalidTenantID)
		return
	}

	resp, err := s.tenantSvc.Connect(c.Request.Context(), req.TenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
