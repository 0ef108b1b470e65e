package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tcc/restaurant-services/internal/entities"
	"github.com/tcc/restaurant-services/internal/metrics"
	"github.com/tcc/restaurant-services/pkg/trm"
	"github.com/tcc/restaurant-services/pkg/utils"
)

// UnknownProductName labels metrics for codes the product service
// could not resolve.
const UnknownProductName = "Produto Desconhecido"

type OrderRepo interface {
	List(ctx context.Context) ([]entities.Order, error)
	Get(ctx context.Context, id int64) (entities.Order, error)
	Insert(ctx context.Context, o entities.Order) (entities.Order, error)
	Update(ctx context.Context, o entities.Order) error
	UpdateStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error
	Delete(ctx context.Context, id int64) error
	FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]entities.Order, error)
}

// ProductDirectory is the outbound view of the product service.
type ProductDirectory interface {
	Exists(ctx context.Context, code int64) bool
	Names(ctx context.Context, codes []int64) (map[int64]string, error)
}

type NameCache interface {
	Get(key int64) (string, bool)
	Set(key int64, value string)
}

type OrderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      OrderRepo
	products  ProductDirectory
	names     NameCache
	sink      metrics.Sink
	maxAge    time.Duration
	now       func() time.Time
}

func NewOrderService(
	logger *slog.Logger,
	txManager trm.Manager,
	repo OrderRepo,
	products ProductDirectory,
	names NameCache,
	sink metrics.Sink,
	maxAge time.Duration,
) *OrderService {
	return &OrderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		repo:      repo,
		products:  products,
		names:     names,
		sink:      sink,
		maxAge:    maxAge,
		now:       time.Now,
	}
}

func (s *OrderService) List(ctx context.Context) ([]entities.Order, error) {
	return s.repo.List(ctx)
}

func (s *OrderService) Get(ctx context.Context, id int64) (entities.Order, error) {
	var order entities.Order
	fn := func() error {
		var err error
		order, err = s.repo.Get(ctx, id)
		return err
	}
	cfg := utils.RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxAttempts:  3,
		Multiplier:   2,
	}
	if err := utils.Retry(cfg, fn, entities.ErrOrderNotFound); err != nil {
		return entities.Order{}, err
	}
	return order, nil
}

// Save validates every line item against the product service, persists
// the order and emits the per-product and product-pair metrics. A line
// referencing an unknown product rejects the whole order before
// anything is persisted.
func (s *OrderService) Save(ctx context.Context, order entities.Order) (entities.Order, error) {
	for _, item := range order.Items {
		if !s.products.Exists(ctx, item.ProductCode) {
			return entities.Order{}, entities.UnknownProductError{Code: item.ProductCode}
		}
	}

	now := s.now()
	order.LastUpdated = now

	var saved entities.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		if order.ID == 0 {
			order.CreatedAt = now
			saved, err = s.repo.Insert(ctx, order)
		} else {
			saved = order
			err = s.repo.Update(ctx, order)
		}
		if err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		return nil
	})
	if err != nil {
		return entities.Order{}, err
	}

	s.logger.DebugContext(ctx, "order saved", slog.Int64("order_id", saved.ID))

	names := s.resolveNames(ctx, distinctCodes(saved.Items))
	s.emitPairMetrics(saved, names)
	s.emitItemMetrics(saved, names)

	return saved, nil
}

// UpdateStatus normalizes status to upper case and accepts any of the
// three known values from any prior value. It never re-validates the
// order's product codes.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) (entities.Order, error) {
	status = strings.ToUpper(status)
	if !entities.ValidStatus(status) {
		return entities.Order{}, entities.ErrInvalidStatus
	}

	if err := s.repo.UpdateStatus(ctx, id, status, s.now()); err != nil {
		return entities.Order{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *OrderService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *OrderService) FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]entities.Order, error) {
	return s.repo.FindPendingOlderThan(ctx, cutoff)
}

// DelayedOrders returns the pending orders older than the configured
// maximum age, the same query the scanner runs.
func (s *OrderService) DelayedOrders(ctx context.Context) ([]entities.Order, error) {
	return s.repo.FindPendingOlderThan(ctx, s.now().Add(-s.maxAge))
}

// resolveNames batch-resolves display names for codes, going through
// the LRU cache first. Lookup failures degrade to placeholder names,
// they never fail the save.
func (s *OrderService) resolveNames(ctx context.Context, codes []int64) map[int64]string {
	resolved := make(map[int64]string, len(codes))

	var missing []int64
	for _, code := range codes {
		if name, ok := s.names.Get(code); ok {
			resolved[code] = name
			continue
		}
		missing = append(missing, code)
	}

	if len(missing) > 0 {
		names, err := s.products.Names(ctx, missing)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to resolve product names", slog.Any("error", err))
			names = map[int64]string{}
		}
		for code, name := range names {
			resolved[code] = name
			s.names.Set(code, name)
		}
	}

	for _, code := range codes {
		if _, ok := resolved[code]; !ok {
			resolved[code] = UnknownProductName
		}
	}
	return resolved
}

// emitPairMetrics increments one counter per unordered pair of
// distinct product codes, n*(n-1)/2 emissions for n distinct codes.
func (s *OrderService) emitPairMetrics(order entities.Order, names map[int64]string) {
	codes := distinctCodes(order.Items)
	for i := 0; i < len(codes); i++ {
		for j := i + 1; j < len(codes); j++ {
			id1, id2 := codes[i], codes[j]
			s.sink.Inc("product_combinations_total", map[string]string{
				"pair":        fmt.Sprintf("%s - %s", names[id1], names[id2]),
				"product1_id": strconv.FormatInt(id1, 10),
				"product2_id": strconv.FormatInt(id2, 10),
			}, 1)
		}
	}
}

func (s *OrderService) emitItemMetrics(order entities.Order, names map[int64]string) {
	for _, item := range order.Items {
		qty := float64(item.Quantity)
		s.sink.Inc("products_total", nil, qty)
		s.sink.Inc("product_details_total", map[string]string{
			"product_id":   strconv.FormatInt(item.ProductCode, 10),
			"product_name": names[item.ProductCode],
			"quantity":     strconv.Itoa(item.Quantity),
		}, qty)
	}
}

// distinctCodes keeps first-appearance order.
func distinctCodes(items []entities.OrderItem) []int64 {
	seen := make(map[int64]struct{}, len(items))
	codes := make([]int64, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductCode]; ok {
			continue
		}
		seen[item.ProductCode] = struct{}{}
		codes = append(codes, item.ProductCode)
	}
	return codes
}
