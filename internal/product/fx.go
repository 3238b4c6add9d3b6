package product

import (
	"github.com/recurshop/recurshop/internal/product/repository"
	"github.com/recurshop/recurshop/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
