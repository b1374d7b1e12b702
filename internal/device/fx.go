package device

import (
	"github.com/autoprintfarm/connector/internal/device/repository"
	"github.com/autoprintfarm/connector/internal/device/service"
	"go.uber.org/fx"
)

var Module = fx.Module("device.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
