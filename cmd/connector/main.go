package main

import (
	"github.com/autoprintfarm/connector/internal/config"
	devicedomain "github.com/autoprintfarm/connector/internal/device/domain"
	"github.com/autoprintfarm/connector/internal/logger"
	"github.com/autoprintfarm/connector/internal/server"
	tenantdomain "github.com/autoprintfarm/connector/internal/tenant/domain"
	"github.com/autoprintfarm/connector/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		fx.Invoke(migrate),

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(&tenantdomain.Tenant{}, &devicedomain.Device{})
}
