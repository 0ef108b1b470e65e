package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/tcc/restaurant-services/internal/entities"
	"github.com/tcc/restaurant-services/pkg/trm"
)

type orderRepo struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewOrderRepo(db *sqlx.DB) *orderRepo {
	return &orderRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *orderRepo) List(ctx context.Context) ([]entities.Order, error) {
	query, args := r.qb.Select("id", "table_number", "status", "created_at", "last_updated").
		From("orders").
		OrderBy("id").
		MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}

	return r.attachItems(ctx, orders)
}

func (r *orderRepo) Get(ctx context.Context, id int64) (entities.Order, error) {
	query, args := r.qb.Select("id", "table_number", "status", "created_at", "last_updated").
		From("orders").
		Where(sq.Eq{"id": id}).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.itemsFor(ctx, id)
	if err != nil {
		return entities.Order{}, err
	}

	return OrderToEntity(order, items), nil
}

func (r *orderRepo) Insert(ctx context.Context, o entities.Order) (entities.Order, error) {
	query, args := r.qb.Insert("orders").
		Columns("table_number", "status", "created_at", "last_updated").
		Values(o.TableNumber, nullString(o.Status), o.CreatedAt, o.LastUpdated).
		Suffix("RETURNING id").
		MustSql()

	var id int64
	if err := r.getContext(ctx, &id, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}
	o.ID = id

	if err := r.insertItems(ctx, o.ID, o.Items); err != nil {
		return entities.Order{}, err
	}
	return o, nil
}

func (r *orderRepo) Update(ctx context.Context, o entities.Order) error {
	// created_at stays untouched on purpose, it is assigned exactly once
	query, args := r.qb.Update("orders").
		Set("table_number", o.TableNumber).
		Set("status", nullString(o.Status)).
		Set("last_updated", o.LastUpdated).
		Where(sq.Eq{"id": o.ID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrOrderNotFound
	}

	query, args = r.qb.Delete("order_products").Where(sq.Eq{"order_id": o.ID}).MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear order items: %w", err)
	}

	return r.insertItems(ctx, o.ID, o.Items)
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error {
	query, args := r.qb.Update("orders").
		Set("status", status).
		Set("last_updated", updatedAt).
		Where(sq.Eq{"id": id}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, id int64) error {
	query, args := r.qb.Delete("orders").Where(sq.Eq{"id": id}).MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepo) FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]entities.Order, error) {
	query, args := r.qb.Select("id", "table_number", "status", "created_at", "last_updated").
		From("orders").
		Where(sq.Eq{"status": entities.StatusPending}).
		Where(sq.LtOrEq{"created_at": cutoff}).
		OrderBy("created_at").
		MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select pending orders: %w", err)
	}

	return r.attachItems(ctx, orders)
}

func (r *orderRepo) insertItems(ctx context.Context, orderID int64, items []entities.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	q := r.qb.Insert("order_products").Columns("order_id", "product_code", "quantity")
	for _, it := range items {
		q = q.Values(orderID, it.ProductCode, it.Quantity)
	}

	query, args := q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	return nil
}

func (r *orderRepo) itemsFor(ctx context.Context, orderID int64) ([]OrderProduct, error) {
	query, args := r.qb.Select("order_id", "product_code", "quantity").
		From("order_products").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var items []OrderProduct
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select order items: %w", err)
	}
	return items, nil
}

func (r *orderRepo) attachItems(ctx context.Context, orders []Order) ([]entities.Order, error) {
	if len(orders) == 0 {
		return []entities.Order{}, nil
	}

	ids := make([]int64, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
	}

	query, args := r.qb.Select("order_id", "product_code", "quantity").
		From("order_products").
		Where(sq.Eq{"order_id": ids}).
		MustSql()

	var items []OrderProduct
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select order items: %w", err)
	}

	itemsMap := make(map[int64][]OrderProduct, len(ids))
	for _, item := range items {
		itemsMap[item.OrderID] = append(itemsMap[item.OrderID], item)
	}

	result := make([]entities.Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, OrderToEntity(order, itemsMap[order.ID]))
	}
	return result, nil
}

func (r *orderRepo) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.db.ExecContext(ctx, query, args...)
}

func (r *orderRepo) getContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return r.db.GetContext(ctx, dest, query, args...)
}

func (r *orderRepo) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return r.db.SelectContext(ctx, dest, query, args...)
}
