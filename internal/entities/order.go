package entities

import (
	"errors"
	"fmt"
	"time"
)

const (
	StatusPending  = "PENDING"
	StatusCanceled = "CANCELED"
	StatusFinished = "FINISHED"
)

// OrderItem is an embedded value, it has no identity of its own.
type OrderItem struct {
	ProductCode int64
	Quantity    int
}

type Order struct {
	ID          int64
	TableNumber int
	// Status is free text at creation time, only the status update
	// endpoint enforces the PENDING/CANCELED/FINISHED whitelist.
	Status      string
	CreatedAt   time.Time
	LastUpdated time.Time
	Items       []OrderItem
}

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid status")
)

// ValidStatus reports whether s is one of the accepted order statuses.
// Any of the three values is accepted from any prior value.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusCanceled, StatusFinished:
		return true
	}
	return false
}

// UnknownProductError rejects an order whose line item references a
// product code the product service does not know.
type UnknownProductError struct {
	Code int64
}

func (e UnknownProductError) Error() string {
	return fmt.Sprintf("product not found: %d", e.Code)
}
