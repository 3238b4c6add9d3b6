package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	productdomain "github.com/recurshop/recurshop/internal/product/domain"
	"github.com/recurshop/recurshop/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  productdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  productdomain.Repository
}

func New(p Params) productdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req productdomain.CreateProductRequest) (productdomain.Product, error) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return productdomain.Product{}, productdomain.ErrInvalidSKU
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return productdomain.Product{}, productdomain.ErrInvalidName
	}
	if req.PriceCent < 0 {
		return productdomain.Product{}, productdomain.ErrInvalidPrice
	}

	now := time.Now().UTC()
	product := productdomain.Product{
		ID:        s.genID.Generate().String(),
		SKU:       sku,
		Name:      name,
		PriceCent: req.PriceCent,
		Currency:  strings.ToUpper(strings.TrimSpace(req.Currency)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &product); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return productdomain.Product{}, productdomain.ErrDuplicateSKU
		}
		return productdomain.Product{}, err
	}

	return product, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (productdomain.Product, error) {
	product, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return productdomain.Product{}, err
	}
	if product == nil {
		return productdomain.Product{}, productdomain.ErrProductNotFound
	}
	return *product, nil
}

func (s *Service) List(ctx context.Context) ([]productdomain.Product, error) {
	return s.repo.List(ctx, s.db)
}
