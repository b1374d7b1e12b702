package tenant

import (
	"github.com/autoprintfarm/connector/internal/tenant/repository"
	"github.com/autoprintfarm/connector/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
