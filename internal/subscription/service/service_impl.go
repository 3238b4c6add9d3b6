package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/recurshop/recurshop/internal/customer/domain"
	"github.com/recurshop/recurshop/internal/events"
	productdomain "github.com/recurshop/recurshop/internal/product/domain"
	"github.com/recurshop/recurshop/internal/schedule"
	subscriptiondomain "github.com/recurshop/recurshop/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        subscriptiondomain.Repository
	CustomerSvc customerdomain.Service
	ProductSvc  productdomain.Service
	Dispatcher  *events.Dispatcher
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        subscriptiondomain.Repository
	customerSvc customerdomain.Service
	productSvc  productdomain.Service
	dispatcher  *events.Dispatcher
}

func New(p Params) subscriptiondomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("subscription.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		customerSvc: p.CustomerSvc,
		productSvc:  p.ProductSvc,
		dispatcher:  p.Dispatcher,
	}
}

func (s *Service) Create(ctx context.Context, req subscriptiondomain.CreateSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	if req.Quantity <= 0 {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidQuantity
	}
	if strings.TrimSpace(req.PaymentCode) == "" {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidPaymentCode
	}
	if _, err := schedule.Parse(req.Schedule); err != nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidSchedule
	}
	if req.NextOrderDate != nil {
		if _, err := schedule.ParseDate(*req.NextOrderDate); err != nil {
			return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidOrderDate
		}
	}

	if _, err := s.customerSvc.GetByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, customerdomain.ErrCustomerNotFound) {
			return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidCustomer
		}
		return subscriptiondomain.Subscription{}, err
	}
	if req.ShippingAddressID != nil {
		if _, err := s.customerSvc.GetAddress(ctx, req.CustomerID, *req.ShippingAddressID); err != nil {
			if errors.Is(err, customerdomain.ErrAddressNotFound) {
				return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidCustomer
			}
			return subscriptiondomain.Subscription{}, err
		}
	}
	if _, err := s.productSvc.GetByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, productdomain.ErrProductNotFound) {
			return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidProduct
		}
		return subscriptiondomain.Subscription{}, err
	}

	now := time.Now().UTC()
	subscription := subscriptiondomain.Subscription{
		ID:                s.genID.Generate().String(),
		CustomerID:        req.CustomerID,
		ProductID:         req.ProductID,
		ShippingAddressID: req.ShippingAddressID,
		PaymentCode:       strings.TrimSpace(req.PaymentCode),
		Quantity:          req.Quantity,
		Schedule:          req.Schedule,
		Status:            subscriptiondomain.SubscriptionStatusActive,
		Scheduled:         false,
		NextOrderDate:     req.NextOrderDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Insert(ctx, s.db, &subscription); err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	s.dispatcher.PublishSubscriptionWritten(events.SubscriptionWritten{
		SubscriptionID: subscription.ID,
		After:          &subscription,
	})

	return subscription, nil
}

func (s *Service) Update(ctx context.Context, req subscriptiondomain.UpdateSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	before, err := s.repo.FindByID(ctx, s.db, req.ID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if before == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}

	after := *before
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidQuantity
		}
		after.Quantity = *req.Quantity
	}
	if req.Schedule != nil {
		if _, err := schedule.Parse(*req.Schedule); err != nil {
			return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidSchedule
		}
		after.Schedule = *req.Schedule
	}
	if req.PaymentCode != nil {
		if strings.TrimSpace(*req.PaymentCode) == "" {
			return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidPaymentCode
		}
		after.PaymentCode = strings.TrimSpace(*req.PaymentCode)
	}
	if req.NextOrderDate != nil {
		if _, err := schedule.ParseDate(*req.NextOrderDate); err != nil {
			return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidOrderDate
		}
		after.NextOrderDate = req.NextOrderDate
	}
	after.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, &after); err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	s.dispatcher.PublishSubscriptionWritten(events.SubscriptionWritten{
		SubscriptionID: after.ID,
		Before:         before,
		After:          &after,
	})

	return after, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (subscriptiondomain.Subscription, error) {
	subscription, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if subscription == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}
	return *subscription, nil
}

func (s *Service) List(ctx context.Context, req subscriptiondomain.ListSubscriptionRequest) ([]subscriptiondomain.Subscription, error) {
	return s.repo.List(ctx, s.db, req.CustomerID)
}

func (s *Service) Pause(ctx context.Context, id string) (subscriptiondomain.Subscription, error) {
	return s.transition(ctx, id, subscriptiondomain.SubscriptionStatusPaused)
}

func (s *Service) Resume(ctx context.Context, id string) (subscriptiondomain.Subscription, error) {
	return s.transition(ctx, id, subscriptiondomain.SubscriptionStatusActive)
}

func (s *Service) Expire(ctx context.Context, id string) (subscriptiondomain.Subscription, error) {
	return s.transition(ctx, id, subscriptiondomain.SubscriptionStatusExpired)
}

func (s *Service) Skip(ctx context.Context, id string) (subscriptiondomain.Subscription, error) {
	before, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if before == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}
	if before.NextOrderDate == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrNotScheduled
	}

	anchor, err := schedule.ParseDate(*before.NextOrderDate)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	next, err := schedule.NextOccurrence(anchor, before.Schedule)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	after := *before
	nextStr := schedule.FormatDate(next)
	after.NextOrderDate = &nextStr
	after.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, &after); err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	s.log.Info("subscription skipped one occurrence",
		zap.String("subscription_id", id),
		zap.Stringp("from", before.NextOrderDate),
		zap.String("to", nextStr),
	)

	s.dispatcher.PublishSubscriptionWritten(events.SubscriptionWritten{
		SubscriptionID: after.ID,
		Before:         before,
		After:          &after,
	})

	return after, nil
}

func (s *Service) transition(ctx context.Context, id string, status subscriptiondomain.SubscriptionStatus) (subscriptiondomain.Subscription, error) {
	before, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if before == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}

	after := *before
	after.Status = status
	after.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, &after); err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	s.dispatcher.PublishSubscriptionWritten(events.SubscriptionWritten{
		SubscriptionID: after.ID,
		Before:         before,
		After:          &after,
	})

	return after, nil
}
