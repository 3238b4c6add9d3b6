package repository

import (
	"context"

	productdomain "github.com/recurshop/recurshop/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() productdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, product *productdomain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (id, sku, name, price_cent, currency, archived, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.SKU,
		product.Name,
		product.PriceCent,
		product.Currency,
		product.Archived,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*productdomain.Product, error) {
	var product productdomain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, sku, name, price_cent, currency, archived, created_at, updated_at
		 FROM products WHERE id = ?`,
		id,
	).Scan(&product).Error
	if err != nil {
		return nil, err
	}
	if product.ID == "" {
		return nil, nil
	}
	return &product, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]productdomain.Product, error) {
	var products []productdomain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, sku, name, price_cent, currency, archived, created_at, updated_at
		 FROM products ORDER BY created_at ASC`,
	).Scan(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
