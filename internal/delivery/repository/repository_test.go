package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	deliverydomain "github.com/recurshop/recurshop/internal/delivery/domain"
	"github.com/stretchr/testify/require"
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

func newDelivery(date string) *deliverydomain.Delivery {
	return &deliverydomain.Delivery{
		CustomerID:        "cust_001",
		ShippingAddressID: "addr_001",
		NextOrderDate:     date,
		Status:            deliverydomain.DeliveryStatusActive,
		PaymentInfo:       []deliverydomain.PaymentInfo{},
	}
}

func TestCreateIfNotExists(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide()
	ctx := context.Background()

	delivery := newDelivery("2025-06-15")
	created, err := repo.CreateIfNotExists(ctx, db, delivery)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "cust_001_addr_001_2025-06-15", delivery.ID)

	again := newDelivery("2025-06-15")
	created, err = repo.CreateIfNotExists(ctx, db, again)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, delivery.ID, again.ID)
}

func TestAddSubscriptionPrependsAndDedupes(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide()
	ctx := context.Background()

	delivery := newDelivery("2025-06-15")
	_, err := repo.CreateIfNotExists(ctx, db, delivery)
	require.NoError(t, err)

	require.NoError(t, repo.AddSubscription(ctx, db, delivery.ID, "sub_001", "abcd"))
	require.NoError(t, repo.AddSubscription(ctx, db, delivery.ID, "sub_002", "abcd"))
	require.NoError(t, repo.AddSubscription(ctx, db, delivery.ID, "sub_001", "abcd"))

	stored, err := repo.FindByID(ctx, db, delivery.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.PaymentInfo, 1)
	require.Equal(t, []string{"sub_002", "sub_001"}, stored.PaymentInfo[0].SubscriptionIDs)
}

func TestAddSubscriptionUnknownDelivery(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide()

	err := repo.AddSubscription(context.Background(), db, "missing", "sub_001", "abcd")
	require.ErrorIs(t, err, deliverydomain.ErrDeliveryNotFound)
}

func TestRemoveSubscriptionKeepsDelivery(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide()
	ctx := context.Background()

	delivery := newDelivery("2025-06-15")
	_, err := repo.CreateIfNotExists(ctx, db, delivery)
	require.NoError(t, err)
	require.NoError(t, repo.AddSubscription(ctx, db, delivery.ID, "sub_001", "abcd"))

	require.NoError(t, repo.RemoveSubscription(ctx, db, delivery.ID, "sub_001"))

	stored, err := repo.FindByID(ctx, db, delivery.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.PaymentInfo, 1)
	require.Empty(t, stored.PaymentInfo[0].SubscriptionIDs)
}

func TestRecordPaymentFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide()
	ctx := context.Background()

	delivery := newDelivery("2025-06-15")
	_, err := repo.CreateIfNotExists(ctx, db, delivery)
	require.NoError(t, err)
	require.NoError(t, repo.AddSubscription(ctx, db, delivery.ID, "sub_001", "abcd"))

	require.NoError(t, repo.RecordPaymentFailure(ctx, db, delivery.ID, "abcd", "card_declined"))
	require.NoError(t, repo.RecordPaymentFailure(ctx, db, delivery.ID, "abcd", "card_declined"))

	stored, err := repo.FindByID(ctx, db, delivery.ID)
	require.NoError(t, err)
	require.Equal(t, deliverydomain.DeliveryStatusFailed, stored.Status)
	require.Equal(t, 2, stored.PaymentInfo[0].AttemptCount)
	require.Equal(t, "card_declined", stored.PaymentInfo[0].ErrorCode)
}

func TestRecordPaymentFailureUnknownCode(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide()
	ctx := context.Background()

	delivery := newDelivery("2025-06-15")
	_, err := repo.CreateIfNotExists(ctx, db, delivery)
	require.NoError(t, err)

	err = repo.RecordPaymentFailure(ctx, db, delivery.ID, "unknown", "card_declined")
	require.ErrorIs(t, err, deliverydomain.ErrPaymentNotFound)

	stored, err := repo.FindByID(ctx, db, delivery.ID)
	require.NoError(t, err)
	require.Equal(t, deliverydomain.DeliveryStatusActive, stored.Status)
}

func TestFindActiveByDate(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide()
	ctx := context.Background()

	due := newDelivery("2025-06-15")
	_, err := repo.CreateIfNotExists(ctx, db, due)
	require.NoError(t, err)

	later := newDelivery("2025-06-29")
	_, err = repo.CreateIfNotExists(ctx, db, later)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(ctx, db, later.ID, deliverydomain.DeliveryStatusCompleted))

	found, err := repo.FindActiveByDate(ctx, db, "2025-06-15")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, due.ID, found[0].ID)

	none, err := repo.FindActiveByDate(ctx, db, "2025-06-29")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestUpdateStatusUnknownDelivery(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide()

	err := repo.UpdateStatus(context.Background(), db, "missing", deliverydomain.DeliveryStatusProcessing)
	require.ErrorIs(t, err, deliverydomain.ErrDeliveryNotFound)
}
