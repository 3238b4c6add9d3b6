package delivery

import (
	"github.com/recurshop/recurshop/internal/delivery/repository"
	"github.com/recurshop/recurshop/internal/delivery/service"
	"go.uber.org/fx"
)

var Module = fx.Module("delivery.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
