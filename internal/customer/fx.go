package customer

import (
	"github.com/recurshop/recurshop/internal/customer/repository"
	"github.com/recurshop/recurshop/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
