package server

import (
	"context"
	"net/http"
	"time"

	"github.com/autoprintfarm/connector/internal/config"
	"github.com/autoprintfarm/connector/internal/device"
	devicedomain "github.com/autoprintfarm/connector/internal/device/domain"
	"github.com/autoprintfarm/connector/internal/shopify"
	"github.com/autoprintfarm/connector/internal/tenant"
	tenantdomain "github.com/autoprintfarm/connector/internal/tenant/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	tenant.Module,
	device.Module,
	fx.Provide(shopify.NewTokenVerifier),
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterAPIRoutes()
		s.RegisterFarmRoutes()
	}),
	fx.Invoke(RunHTTP),
)

// NewEngine builds the gin engine with the ambient middleware stack.
func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(MetricsMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	log       *zap.Logger
	db        *gorm.DB
	verifier  *shopify.TokenVerifier
	tenantSvc tenantdomain.Service
	deviceSvc devicedomain.Service
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Cfg       config.Config
	Log       *zap.Logger
	DB        *gorm.DB
	Verifier  *shopify.TokenVerifier
	TenantSvc tenantdomain.Service
	DeviceSvc devicedomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:    p.Gin,
		cfg:       p.Cfg,
		log:       p.Log.Named("server"),
		db:        p.DB,
		verifier:  p.Verifier,
		tenantSvc: p.TenantSvc,
		deviceSvc: p.DeviceSvc,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// RegisterAPIRoutes mounts the embedded-admin API. Every route runs behind
// the Shopify session gate.
func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api", s.ShopSessionRequired())

	api.GET("/devices", s.ListDevices)
	api.POST("/devices", s.CreateDevice)
	api.DELETE("/devices", s.RevokeDevice)

	api.GET("/tenant", s.TenantStatus)
	api.POST("/tenant", s.ConnectTenant)
}

// RegisterFarmRoutes mounts the endpoints the print-farm devices call with
// their own issued credentials.
func (s *Server) RegisterFarmRoutes() {
	farm := s.engine.Group("/farm")

	farm.POST("/heartbeat", s.DeviceHeartbeat)
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
