package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/tcc/restaurant-services/internal/entities"
)

type productRepo struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewProductRepo(db *sqlx.DB) *productRepo {
	return &productRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *productRepo) List(ctx context.Context) ([]entities.Product, error) {
	query, args := r.qb.Select("id", "name", "description", "price").
		From("products").
		OrderBy("id").
		MustSql()

	var products []Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}

	result := make([]entities.Product, 0, len(products))
	for _, p := range products {
		result = append(result, ProductToEntity(p))
	}
	return result, nil
}

func (r *productRepo) Get(ctx context.Context, id int64) (entities.Product, error) {
	query, args := r.qb.Select("id", "name", "description", "price").
		From("products").
		Where(sq.Eq{"id": id}).
		MustSql()

	var product Product
	err := r.db.GetContext(ctx, &product, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Product{}, entities.ErrProductNotFound
	}
	if err != nil {
		return entities.Product{}, fmt.Errorf("failed to get product: %w", err)
	}

	return ProductToEntity(product), nil
}

func (r *productRepo) GetByIDs(ctx context.Context, ids []int64) ([]entities.Product, error) {
	if len(ids) == 0 {
		return []entities.Product{}, nil
	}

	query, args := r.qb.Select("id", "name", "description", "price").
		From("products").
		Where(sq.Eq{"id": ids}).
		MustSql()

	var products []Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select products by ids: %w", err)
	}

	result := make([]entities.Product, 0, len(products))
	for _, p := range products {
		result = append(result, ProductToEntity(p))
	}
	return result, nil
}

func (r *productRepo) Insert(ctx context.Context, p entities.Product) (entities.Product, error) {
	query, args := r.qb.Insert("products").
		Columns("name", "description", "price").
		Values(p.Name, nullString(p.Description), p.Price).
		Suffix("RETURNING id").
		MustSql()

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		return entities.Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	p.ID = id
	return p, nil
}

func (r *productRepo) Update(ctx context.Context, p entities.Product) error {
	query, args := r.qb.Update("products").
		Set("name", p.Name).
		Set("description", nullString(p.Description)).
		Set("price", p.Price).
		Where(sq.Eq{"id": p.ID}).
		MustSql()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrProductNotFound
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	query, args := r.qb.Delete("products").Where(sq.Eq{"id": id}).MustSql()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return entities.ErrProductNotFound
	}
	return nil
}
