package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Customer, error)
	List(ctx context.Context, db *gorm.DB) ([]Customer, error)
	InsertAddress(ctx context.Context, db *gorm.DB, address *CustomerAddress) error
	FindAddress(ctx context.Context, db *gorm.DB, customerID, addressID string) (*CustomerAddress, error)
	ListAddresses(ctx context.Context, db *gorm.DB, customerID string) ([]CustomerAddress, error)
}
