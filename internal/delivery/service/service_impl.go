package service

import (
	"context"

	deliverydomain "github.com/recurshop/recurshop/internal/delivery/domain"
	"github.com/recurshop/recurshop/internal/events"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       deliverydomain.Repository
	Dispatcher *events.Dispatcher
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       deliverydomain.Repository
	dispatcher *events.Dispatcher
}

func New(p Params) deliverydomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("delivery.service"),
		repo:       p.Repo,
		dispatcher: p.Dispatcher,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (deliverydomain.Delivery, error) {
	delivery, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return deliverydomain.Delivery{}, err
	}
	if delivery == nil {
		return deliverydomain.Delivery{}, deliverydomain.ErrDeliveryNotFound
	}
	return *delivery, nil
}

func (s *Service) ListActive(ctx context.Context, req deliverydomain.ListActiveRequest) ([]deliverydomain.Delivery, error) {
	return s.repo.FindActiveByCustomer(ctx, s.db, req.CustomerID, req.ShippingAddressID)
}

func (s *Service) ListDueOn(ctx context.Context, date string) ([]deliverydomain.Delivery, error) {
	return s.repo.FindActiveByDate(ctx, s.db, date)
}

func (s *Service) MarkWaitingPayment(ctx context.Context, id string) error {
	return s.transition(ctx, id, deliverydomain.DeliveryStatusWaitingPayment)
}

func (s *Service) MarkProcessing(ctx context.Context, id string) error {
	return s.transition(ctx, id, deliverydomain.DeliveryStatusProcessing)
}

func (s *Service) RecordPaymentFailure(ctx context.Context, id, paymentCode, errorCode string) error {
	if err := s.repo.RecordPaymentFailure(ctx, s.db, id, paymentCode, errorCode); err != nil {
		return err
	}
	s.log.Warn("payment failed for delivery",
		zap.String("delivery_id", id),
		zap.String("payment_code", paymentCode),
		zap.String("error_code", errorCode),
	)
	return s.publish(ctx, id)
}

func (s *Service) transition(ctx context.Context, id string, status deliverydomain.DeliveryStatus) error {
	if err := s.repo.UpdateStatus(ctx, s.db, id, status); err != nil {
		return err
	}
	return s.publish(ctx, id)
}

func (s *Service) publish(ctx context.Context, id string) error {
	delivery, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	s.dispatcher.PublishDeliveryWritten(events.DeliveryWritten{
		DeliveryID: id,
		After:      delivery,
	})
	return nil
}
