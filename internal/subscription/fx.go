package subscription

import (
	"github.com/recurshop/recurshop/internal/subscription/repository"
	"github.com/recurshop/recurshop/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
