package handler

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tcc/restaurant-services/internal/entities"
)

// Order is the wire representation, field names follow the public API.
type Order struct {
	ID          int64       `json:"id,omitempty"`
	TableNumber int         `json:"tableNumber"`
	Status      string      `json:"status,omitempty"`
	CreatedAt   time.Time   `json:"createdAt,omitzero"`
	LastUpdated time.Time   `json:"lastUpdated,omitzero"`
	Products    []OrderItem `json:"products" validate:"dive"`
}

type OrderItem struct {
	ProductCode int64 `json:"productCode" validate:"required"`
	Quantity    int   `json:"quantity" validate:"required,gt=0"`
}

type StatusUpdate struct {
	Status *string `json:"status"`
}

// DelayedOrder is the read view consumed by the admin dashboard.
type DelayedOrder struct {
	OrderID     int64    `json:"orderId"`
	TableNumber int      `json:"tableNumber"`
	TimeDelayed string   `json:"timeDelayed"`
	Products    []string `json:"products"`
}

// TriggerResult reports the outcome of a manual scanner invocation.
type TriggerResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Product struct {
	ID          int64           `json:"id,omitempty"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

func OrderEntityToJSON(o entities.Order) Order {
	products := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		products = append(products, OrderItem{ProductCode: it.ProductCode, Quantity: it.Quantity})
	}

	return Order{
		ID:          o.ID,
		TableNumber: o.TableNumber,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
		LastUpdated: o.LastUpdated,
		Products:    products,
	}
}

func OrderJSONToEntity(o Order) entities.Order {
	items := make([]entities.OrderItem, 0, len(o.Products))
	for _, p := range o.Products {
		items = append(items, entities.OrderItem{ProductCode: p.ProductCode, Quantity: p.Quantity})
	}

	return entities.Order{
		ID:          o.ID,
		TableNumber: o.TableNumber,
		Status:      o.Status,
		Items:       items,
	}
}

// DelayedOrderToJSON formats the delay as "<m>m <s>s" and each line
// item as "Cód: <code> (Qtd: <qty>)", both part of the public view.
func DelayedOrderToJSON(o entities.Order, now time.Time) DelayedOrder {
	delay := now.Sub(o.CreatedAt)
	minutes := int(delay.Minutes())
	seconds := int(delay.Seconds()) % 60

	products := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		products = append(products, fmt.Sprintf("Cód: %d (Qtd: %d)", it.ProductCode, it.Quantity))
	}

	return DelayedOrder{
		OrderID:     o.ID,
		TableNumber: o.TableNumber,
		TimeDelayed: fmt.Sprintf("%dm %ds", minutes, seconds),
		Products:    products,
	}
}

func ProductEntityToJSON(p entities.Product) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
	}
}

func ProductJSONToEntity(p Product) entities.Product {
	return entities.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
	}
}
