package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/autoprintfarm/connector/internal/metrics"
	"github.com/autoprintfarm/connector/internal/shopctx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const headerShopDomain = "X-Shop-Domain"

// ShopSessionRequired resolves the caller's shop domain from the App Bridge
// session token and stores it in the request context. Outside production a
// bare X-Shop-Domain header is accepted so the API can be driven without a
// Shopify session.
func (s *Server) ShopSessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		shop, err := s.resolveShopDomain(c)
		if err != nil {
			s.log.Warn("rejected request without valid session", zap.Error(err))
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := shopctx.WithShopDomain(c.Request.Context(), shop)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) resolveShopDomain(c *gin.Context) (string, error) {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return s.verifier.VerifySessionToken(strings.TrimSpace(token))
	}

	if !s.cfg.IsProduction() {
		if shop := strings.TrimSpace(c.GetHeader(headerShopDomain)); shop != "" {
			return shop, nil
		}
		if shop := s.cfg.Shopify.DevShopDomain; shop != "" {
			return shop, nil
		}
	}

	return "", ErrUnauthorized
}

// MetricsMiddleware records request count and latency per route.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(c.Writer.Status())

		metrics.IncrementAPIRequests(c.Request.Method, c.FullPath(), statusCode)
		metrics.RecordAPIRequestDuration(c.Request.Method, c.FullPath(), duration)
	}
}
