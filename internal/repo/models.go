package repo

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tcc/restaurant-services/internal/entities"
)

type Order struct {
	ID          int64          `db:"id"`
	TableNumber int            `db:"table_number"`
	Status      sql.NullString `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	LastUpdated time.Time      `db:"last_updated"`
}

type OrderProduct struct {
	OrderID     int64 `db:"order_id"`
	ProductCode int64 `db:"product_code"`
	Quantity    int   `db:"quantity"`
}

type Product struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Description sql.NullString  `db:"description"`
	Price       decimal.Decimal `db:"price"`
}

func OrderToEntity(o Order, items []OrderProduct) entities.Order {
	order := entities.Order{
		ID:          o.ID,
		TableNumber: o.TableNumber,
		Status:      nullStringToString(o.Status),
		CreatedAt:   o.CreatedAt,
		LastUpdated: o.LastUpdated,
	}

	if len(items) > 0 {
		order.Items = make([]entities.OrderItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, entities.OrderItem{
				ProductCode: it.ProductCode,
				Quantity:    it.Quantity,
			})
		}
	}

	return order
}

func ProductToEntity(p Product) entities.Product {
	return entities.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: nullStringToString(p.Description),
		Price:       p.Price,
	}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
