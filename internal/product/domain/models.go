package domain

import (
	"context"
	"errors"
	"time"
)

type Product struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	SKU       string    `gorm:"not null;uniqueIndex" json:"sku"`
	Name      string    `gorm:"not null" json:"name"`
	PriceCent int64     `gorm:"not null" json:"price_cent"`
	Currency  string    `gorm:"not null" json:"currency"`
	Archived  bool      `gorm:"not null;default:false" json:"archived"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

type CreateProductRequest struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	PriceCent int64  `json:"price_cent"`
	Currency  string `json:"currency"`
}

type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
	List(ctx context.Context) ([]Product, error)
}

var (
	ErrProductNotFound = errors.New("product_not_found")
	ErrInvalidSKU      = errors.New("invalid_sku")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrDuplicateSKU    = errors.New("duplicate_sku")
)
