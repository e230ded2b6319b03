package masterdata

import (
	"errors"
	"time"
)

// CounterpartyKind separates customer and vendor registries.
type CounterpartyKind string

const (
	// CounterpartyCustomer buys from the store.
	CounterpartyCustomer CounterpartyKind = "customer"
	// CounterpartyVendor supplies the store.
	CounterpartyVendor CounterpartyKind = "vendor"
)

// Product is a sellable item with on-hand stock.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Stock     float64   `json:"stock"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Counterparty is a customer or vendor record.
type Counterparty struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Kind      CounterpartyKind `json:"kind"`
	Phone     string           `json:"phone,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Bank is a reference entry for check payments.
type Bank struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Currency is a display-only reference entry. No conversion happens anywhere.
type Currency struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// StockDelta describes one product stock movement.
type StockDelta struct {
	ProductID string  `json:"productId"`
	Delta     float64 `json:"delta"`
}

// ErrNegativeStock triggered when a movement would drive stock below zero.
var ErrNegativeStock = errors.New("masterdata: insufficient stock")

// ErrNameRequired indicates a missing display name.
var ErrNameRequired = errors.New("masterdata: name required")

// ErrInvalidPrice indicates a negative product price.
var ErrInvalidPrice = errors.New("masterdata: price must be >= 0")
