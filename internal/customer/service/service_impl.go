package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/recurshop/recurshop/internal/customer/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  customerdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  customerdomain.Repository
}

func New(p Params) customerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req customerdomain.CreateCustomerRequest) (customerdomain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return customerdomain.Customer{}, customerdomain.ErrInvalidName
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return customerdomain.Customer{}, customerdomain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	customer := customerdomain.Customer{
		ID:        s.genID.Generate().String(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		return customerdomain.Customer{}, err
	}

	return customer, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (customerdomain.Customer, error) {
	customer, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return customerdomain.Customer{}, err
	}
	if customer == nil {
		return customerdomain.Customer{}, customerdomain.ErrCustomerNotFound
	}
	return *customer, nil
}

func (s *Service) List(ctx context.Context) ([]customerdomain.Customer, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) CreateAddress(ctx context.Context, req customerdomain.CreateAddressRequest) (customerdomain.CustomerAddress, error) {
	if _, err := s.GetByID(ctx, req.CustomerID); err != nil {
		return customerdomain.CustomerAddress{}, err
	}
	if strings.TrimSpace(req.Street) == "" || strings.TrimSpace(req.City) == "" {
		return customerdomain.CustomerAddress{}, customerdomain.ErrInvalidAddress
	}

	now := time.Now().UTC()
	address := customerdomain.CustomerAddress{
		ID:         s.genID.Generate().String(),
		CustomerID: req.CustomerID,
		Name:       strings.TrimSpace(req.Name),
		Street:     strings.TrimSpace(req.Street),
		City:       strings.TrimSpace(req.City),
		PostalCode: strings.TrimSpace(req.PostalCode),
		Country:    strings.TrimSpace(req.Country),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.InsertAddress(ctx, s.db, &address); err != nil {
		return customerdomain.CustomerAddress{}, err
	}

	return address, nil
}

func (s *Service) GetAddress(ctx context.Context, customerID, addressID string) (customerdomain.CustomerAddress, error) {
	address, err := s.repo.FindAddress(ctx, s.db, customerID, addressID)
	if err != nil {
		return customerdomain.CustomerAddress{}, err
	}
	if address == nil {
		return customerdomain.CustomerAddress{}, customerdomain.ErrAddressNotFound
	}
	return *address, nil
}

func (s *Service) ListAddresses(ctx context.Context, customerID string) ([]customerdomain.CustomerAddress, error) {
	return s.repo.ListAddresses(ctx, s.db, customerID)
}
