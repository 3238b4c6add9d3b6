package repository

import (
	"context"

	customerdomain "github.com/recurshop/recurshop/internal/customer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() customerdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *customerdomain.Customer) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO customers (id, name, email, archived, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.Archived,
		customer.CreatedAt,
		customer.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*customerdomain.Customer, error) {
	var customer customerdomain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, archived, created_at, updated_at FROM customers WHERE id = ?`,
		id,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == "" {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]customerdomain.Customer, error) {
	var customers []customerdomain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, archived, created_at, updated_at FROM customers ORDER BY created_at ASC`,
	).Scan(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repo) InsertAddress(ctx context.Context, db *gorm.DB, address *customerdomain.CustomerAddress) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO customer_addresses (id, customer_id, name, street, city, postal_code, country, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		address.ID,
		address.CustomerID,
		address.Name,
		address.Street,
		address.City,
		address.PostalCode,
		address.Country,
		address.CreatedAt,
		address.UpdatedAt,
	).Error
}

func (r *repo) FindAddress(ctx context.Context, db *gorm.DB, customerID, addressID string) (*customerdomain.CustomerAddress, error) {
	var address customerdomain.CustomerAddress
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, name, street, city, postal_code, country, created_at, updated_at
		 FROM customer_addresses WHERE customer_id = ? AND id = ?`,
		customerID,
		addressID,
	).Scan(&address).Error
	if err != nil {
		return nil, err
	}
	if address.ID == "" {
		return nil, nil
	}
	return &address, nil
}

func (r *repo) ListAddresses(ctx context.Context, db *gorm.DB, customerID string) ([]customerdomain.CustomerAddress, error) {
	var addresses []customerdomain.CustomerAddress
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, name, street, city, postal_code, country, created_at, updated_at
		 FROM customer_addresses WHERE customer_id = ? ORDER BY created_at ASC`,
		customerID,
	).Scan(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}
