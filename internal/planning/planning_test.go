package planning

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/recurshop/recurshop/internal/clock"
	deliverydomain "github.com/recurshop/recurshop/internal/delivery/domain"
	deliveryrepository "github.com/recurshop/recurshop/internal/delivery/repository"
	subscriptiondomain "github.com/recurshop/recurshop/internal/subscription/domain"
	subscriptionrepository "github.com/recurshop/recurshop/internal/subscription/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	// SQLite support hack: remove FOR UPDATE clauses
	stripForUpdate := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			newSQL := strings.ReplaceAll(sql, "FOR UPDATE", "")
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(newSQL)
		}
	}
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("sqlite_skip_locked", stripForUpdate))
	require.NoError(t, db.Callback().Row().Before("gorm:row").Register("sqlite_skip_locked_row", stripForUpdate))

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
	require.NoError(t, db.Exec(`
		CREATE TABLE deliveries (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			shipping_address_id TEXT NOT NULL,
			next_order_date TEXT NOT NULL,
			status TEXT NOT NULL,
			payment_info TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error)

	return db
}

func newTestService(t *testing.T, db *gorm.DB, now time.Time) *Service {
	t.Helper()

	return New(Params{
		DB:               db,
		Log:              zap.NewNop(),
		Clock:            clock.NewFakeClock(now),
		SubscriptionRepo: subscriptionrepository.Provide(),
		DeliveryRepo:     deliveryrepository.Provide(),
	})
}

func seedSubscription(t *testing.T, db *gorm.DB, id, schedule, nextOrderDate string) {
	t.Helper()

	addressID := "addr_001"
	sub := subscriptiondomain.Subscription{
		ID:                id,
		CustomerID:        "cust_001",
		ProductID:         "prod_001",
		ShippingAddressID: &addressID,
		PaymentCode:       "abcd",
		Quantity:          1,
		Schedule:          schedule,
		Status:            subscriptiondomain.SubscriptionStatusActive,
		Scheduled:         true,
		NextOrderDate:     &nextOrderDate,
	}
	require.NoError(t, subscriptionrepository.Provide().Insert(context.Background(), db, &sub))
}

func seedDelivery(t *testing.T, db *gorm.DB, date string, subscriptionIDs []string) {
	t.Helper()

	delivery := deliverydomain.Delivery{
		CustomerID:        "cust_001",
		ShippingAddressID: "addr_001",
		NextOrderDate:     date,
		Status:            deliverydomain.DeliveryStatusActive,
		PaymentInfo: []deliverydomain.PaymentInfo{{
			PaymentCode:     "abcd",
			SubscriptionIDs: subscriptionIDs,
		}},
	}
	created, err := deliveryrepository.Provide().CreateIfNotExists(context.Background(), db, &delivery)
	require.NoError(t, err)
	require.True(t, created)
}

func TestBuildProjectsFutureCycles(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, time.June, 7, 0, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)

	seedSubscription(t, db, "sub_001", "2W", "2025-06-13")
	seedDelivery(t, db, "2025-06-13", []string{"sub_001"})

	planning, err := svc.Build(context.Background(), "cust_001", 1)
	require.NoError(t, err)
	require.Contains(t, planning, "addr_001")

	byDate := planning["addr_001"]

	// Anchored, editable occurrence backed by the persisted delivery.
	require.Contains(t, byDate, "2025-06-13")
	require.NotNil(t, byDate["2025-06-13"].Delivery)
	require.Len(t, byDate["2025-06-13"].Subscriptions, 1)
	require.True(t, byDate["2025-06-13"].Subscriptions[0].IsEditable)

	// Projected cycles up to the end of July, read-only, no delivery.
	for _, date := range []string{"2025-06-27", "2025-07-11", "2025-07-25"} {
		require.Contains(t, byDate, date)
		require.Nil(t, byDate[date].Delivery)
		require.Len(t, byDate[date].Subscriptions, 1)
		require.False(t, byDate[date].Subscriptions[0].IsEditable)
	}

	// Nothing beyond the horizon.
	require.NotContains(t, byDate, "2025-08-08")
}

func TestBuildGroupsByAddress(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, time.June, 7, 0, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)

	addr2 := "addr_002"
	sub := subscriptiondomain.Subscription{
		ID:                "sub_002",
		CustomerID:        "cust_001",
		ProductID:         "prod_001",
		ShippingAddressID: &addr2,
		PaymentCode:       "abcd",
		Quantity:          1,
		Schedule:          "1M",
		Status:            subscriptiondomain.SubscriptionStatusActive,
		Scheduled:         true,
		NextOrderDate:     strPtr("2025-06-15"),
	}
	require.NoError(t, subscriptionrepository.Provide().Insert(context.Background(), db, &sub))

	seedSubscription(t, db, "sub_001", "2W", "2025-06-13")
	seedDelivery(t, db, "2025-06-13", []string{"sub_001"})

	delivery2 := deliverydomain.Delivery{
		CustomerID:        "cust_001",
		ShippingAddressID: "addr_002",
		NextOrderDate:     "2025-06-15",
		Status:            deliverydomain.DeliveryStatusActive,
		PaymentInfo: []deliverydomain.PaymentInfo{{
			PaymentCode:     "abcd",
			SubscriptionIDs: []string{"sub_002"},
		}},
	}
	created, err := deliveryrepository.Provide().CreateIfNotExists(context.Background(), db, &delivery2)
	require.NoError(t, err)
	require.True(t, created)

	planning, err := svc.Build(context.Background(), "cust_001", 0)
	require.NoError(t, err)
	require.Len(t, planning, 2)
	require.Contains(t, planning, "addr_001")
	require.Contains(t, planning, "addr_002")
}

// Paused subscriptions are excluded even when a stale attachment still
// references them.
func TestBuildSkipsInactiveSubscriptions(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, time.June, 7, 0, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)

	addressID := "addr_001"
	sub := subscriptiondomain.Subscription{
		ID:                "sub_001",
		CustomerID:        "cust_001",
		ProductID:         "prod_001",
		ShippingAddressID: &addressID,
		PaymentCode:       "abcd",
		Quantity:          1,
		Schedule:          "2W",
		Status:            subscriptiondomain.SubscriptionStatusPaused,
		NextOrderDate:     strPtr("2025-06-13"),
	}
	require.NoError(t, subscriptionrepository.Provide().Insert(context.Background(), db, &sub))
	seedDelivery(t, db, "2025-06-13", []string{"sub_001"})

	planning, err := svc.Build(context.Background(), "cust_001", 1)
	require.NoError(t, err)
	require.Contains(t, planning, "addr_001")
	require.Empty(t, planning["addr_001"]["2025-06-13"].Subscriptions)
}

func strPtr(s string) *string { return &s }
