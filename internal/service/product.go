package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tcc/restaurant-services/internal/entities"
	"github.com/tcc/restaurant-services/internal/metrics"
)

type ProductRepo interface {
	List(ctx context.Context) ([]entities.Product, error)
	Get(ctx context.Context, id int64) (entities.Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]entities.Product, error)
	Insert(ctx context.Context, p entities.Product) (entities.Product, error)
	Update(ctx context.Context, p entities.Product) error
	Delete(ctx context.Context, id int64) error
}

type ProductService struct {
	logger *slog.Logger
	repo   ProductRepo
	sink   metrics.Sink
}

func NewProductService(logger *slog.Logger, repo ProductRepo, sink metrics.Sink) *ProductService {
	return &ProductService{
		logger: logger.With(slog.String("service", "product")),
		repo:   repo,
		sink:   sink,
	}
}

func (s *ProductService) List(ctx context.Context) ([]entities.Product, error) {
	return s.repo.List(ctx)
}

func (s *ProductService) Get(ctx context.Context, id int64) (entities.Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *ProductService) Create(ctx context.Context, p entities.Product) (entities.Product, error) {
	created, err := s.repo.Insert(ctx, p)
	if err != nil {
		return entities.Product{}, err
	}
	s.sink.Inc("create_total", nil, 1)
	return created, nil
}

// Update overwrites name, description and price only.
func (s *ProductService) Update(ctx context.Context, id int64, p entities.Product) (entities.Product, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return entities.Product{}, err
	}

	existing.Name = p.Name
	existing.Description = p.Description
	existing.Price = p.Price

	if err := s.repo.Update(ctx, existing); err != nil {
		return entities.Product{}, err
	}
	s.sink.Inc("update_total", nil, 1)
	return existing, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.sink.Inc("delete_total", nil, 1)
	return nil
}

// Exists reports whether a product with the given code is known.
// "not found" and "false" are indistinguishable to the caller.
func (s *ProductService) Exists(ctx context.Context, code int64) (bool, error) {
	_, err := s.repo.Get(ctx, code)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, entities.ErrProductNotFound) {
		return false, nil
	}
	return false, err
}

// NamesBatch resolves ids to "name (id)" display strings, collapsing
// duplicates and omitting unresolved ids.
func (s *ProductService) NamesBatch(ctx context.Context, ids []int64) (map[int64]string, error) {
	seen := make(map[int64]struct{}, len(ids))
	distinct := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	products, err := s.repo.GetByIDs(ctx, distinct)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(products))
	for _, p := range products {
		names[p.ID] = fmt.Sprintf("%s (%d)", p.Name, p.ID)
	}
	return names, nil
}
