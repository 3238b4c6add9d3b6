package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/recurshop/recurshop/internal/config"
	customerdomain "github.com/recurshop/recurshop/internal/customer/domain"
	"github.com/recurshop/recurshop/internal/events"
	productdomain "github.com/recurshop/recurshop/internal/product/domain"
	subscriptiondomain "github.com/recurshop/recurshop/internal/subscription/domain"
	subscriptionrepository "github.com/recurshop/recurshop/internal/subscription/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeCustomerService struct{}

func (fakeCustomerService) Create(ctx context.Context, req customerdomain.CreateCustomerRequest) (customerdomain.Customer, error) {
	return customerdomain.Customer{}, nil
}

func (fakeCustomerService) GetByID(ctx context.Context, id string) (customerdomain.Customer, error) {
	if id != "cust_001" {
		return customerdomain.Customer{}, customerdomain.ErrCustomerNotFound
	}
	return customerdomain.Customer{ID: id}, nil
}

func (fakeCustomerService) List(ctx context.Context) ([]customerdomain.Customer, error) {
	return nil, nil
}

func (fakeCustomerService) CreateAddress(ctx context.Context, req customerdomain.CreateAddressRequest) (customerdomain.CustomerAddress, error) {
	return customerdomain.CustomerAddress{}, nil
}

func (fakeCustomerService) GetAddress(ctx context.Context, customerID, addressID string) (customerdomain.CustomerAddress, error) {
	if addressID != "addr_001" {
		return customerdomain.CustomerAddress{}, customerdomain.ErrAddressNotFound
	}
	return customerdomain.CustomerAddress{ID: addressID, CustomerID: customerID}, nil
}

func (fakeCustomerService) ListAddresses(ctx context.Context, customerID string) ([]customerdomain.CustomerAddress, error) {
	return nil, nil
}

type fakeProductService struct{}

func (fakeProductService) Create(ctx context.Context, req productdomain.CreateProductRequest) (productdomain.Product, error) {
	return productdomain.Product{}, nil
}

func (fakeProductService) GetByID(ctx context.Context, id string) (productdomain.Product, error) {
	if id != "prod_001" {
		return productdomain.Product{}, productdomain.ErrProductNotFound
	}
	return productdomain.Product{ID: id}, nil
}

func (fakeProductService) List(ctx context.Context) ([]productdomain.Product, error) {
	return nil, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec(`
		CREATE TABLE subscriptions (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			shipping_address_id TEXT,
			payment_code TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			schedule TEXT NOT NULL,
			status TEXT NOT NULL,
			scheduled BOOLEAN NOT NULL DEFAULT FALSE,
			previous_order_date TEXT,
			next_order_date TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error)

	return db
}

func newTestService(t *testing.T) subscriptiondomain.Service {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:          setupTestDB(t),
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        subscriptionrepository.Provide(),
		CustomerSvc: fakeCustomerService{},
		ProductSvc:  fakeProductService{},
		Dispatcher: events.NewDispatcher(events.Params{
			Log: zap.NewNop(),
			Cfg: config.Config{EventWorkers: 1, EventMaxAttempts: 1},
		}),
	})
}

func validCreateRequest() subscriptiondomain.CreateSubscriptionRequest {
	addressID := "addr_001"
	return subscriptiondomain.CreateSubscriptionRequest{
		CustomerID:        "cust_001",
		ProductID:         "prod_001",
		ShippingAddressID: &addressID,
		PaymentCode:       "abcd",
		Quantity:          1,
		Schedule:          "2W",
	}
}

func TestCreateSubscription(t *testing.T) {
	svc := newTestService(t)

	sub, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	require.NotEmpty(t, sub.ID)
	require.Equal(t, subscriptiondomain.SubscriptionStatusActive, sub.Status)
	require.False(t, sub.Scheduled)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	req := validCreateRequest()
	req.Quantity = 0
	_, err := svc.Create(ctx, req)
	require.ErrorIs(t, err, subscriptiondomain.ErrInvalidQuantity)

	req = validCreateRequest()
	req.Schedule = "14D"
	_, err = svc.Create(ctx, req)
	require.ErrorIs(t, err, subscriptiondomain.ErrInvalidSchedule)

	req = validCreateRequest()
	req.PaymentCode = "  "
	_, err = svc.Create(ctx, req)
	require.ErrorIs(t, err, subscriptiondomain.ErrInvalidPaymentCode)

	req = validCreateRequest()
	req.CustomerID = "cust_404"
	_, err = svc.Create(ctx, req)
	require.ErrorIs(t, err, subscriptiondomain.ErrInvalidCustomer)

	req = validCreateRequest()
	req.ProductID = "prod_404"
	_, err = svc.Create(ctx, req)
	require.ErrorIs(t, err, subscriptiondomain.ErrInvalidProduct)

	req = validCreateRequest()
	badDate := "16/06/2025"
	req.NextOrderDate = &badDate
	_, err = svc.Create(ctx, req)
	require.ErrorIs(t, err, subscriptiondomain.ErrInvalidOrderDate)
}

func TestPauseAndResume(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, validCreateRequest())
	require.NoError(t, err)

	paused, err := svc.Pause(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, subscriptiondomain.SubscriptionStatusPaused, paused.Status)

	resumed, err := svc.Resume(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, subscriptiondomain.SubscriptionStatusActive, resumed.Status)
}

func TestSkipAdvancesOneOccurrence(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	req := validCreateRequest()
	date := "2025-06-13"
	req.NextOrderDate = &date
	sub, err := svc.Create(ctx, req)
	require.NoError(t, err)

	skipped, err := svc.Skip(ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, skipped.NextOrderDate)
	require.Equal(t, "2025-06-27", *skipped.NextOrderDate)
}

func TestSkipRequiresOrderDate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, validCreateRequest())
	require.NoError(t, err)

	_, err = svc.Skip(ctx, sub.ID)
	require.ErrorIs(t, err, subscriptiondomain.ErrNotScheduled)
}

func TestTransitionUnknownSubscription(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Pause(context.Background(), "missing")
	require.ErrorIs(t, err, subscriptiondomain.ErrSubscriptionNotFound)
}
