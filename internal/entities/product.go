package entities

import (
	"errors"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
}

var ErrProductNotFound = errors.New("product not found")
