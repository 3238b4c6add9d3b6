package domain

import (
	"context"
	"errors"
	"time"
)

type Customer struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null" json:"email"`
	Archived  bool      `gorm:"not null;default:false" json:"archived"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }

// CustomerAddress is a shipping destination owned by a customer.
// Deliveries are batched per address.
type CustomerAddress struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	CustomerID string    `gorm:"not null;index" json:"customer_id"`
	Name       string    `gorm:"not null" json:"name"`
	Street     string    `gorm:"not null" json:"street"`
	City       string    `gorm:"not null" json:"city"`
	PostalCode string    `gorm:"not null" json:"postal_code"`
	Country    string    `gorm:"not null" json:"country"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (CustomerAddress) TableName() string { return "customer_addresses" }

type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CreateAddressRequest struct {
	CustomerID string
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Service interface {
	Create(ctx context.Context, req CreateCustomerRequest) (Customer, error)
	GetByID(ctx context.Context, id string) (Customer, error)
	List(ctx context.Context) ([]Customer, error)
	CreateAddress(ctx context.Context, req CreateAddressRequest) (CustomerAddress, error)
	GetAddress(ctx context.Context, customerID, addressID string) (CustomerAddress, error)
	ListAddresses(ctx context.Context, customerID string) ([]CustomerAddress, error)
}

var (
	ErrCustomerNotFound = errors.New("customer_not_found")
	ErrAddressNotFound  = errors.New("address_not_found")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidAddress   = errors.New("invalid_address")
)
