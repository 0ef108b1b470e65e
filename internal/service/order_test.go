package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcc/restaurant-services/internal/entities"
	"github.com/tcc/restaurant-services/internal/service"
	"github.com/tcc/restaurant-services/pkg/trm"
)

type fakeOrderRepo struct {
	ListFn                 func(ctx context.Context) ([]entities.Order, error)
	GetFn                  func(ctx context.Context, id int64) (entities.Order, error)
	InsertFn               func(ctx context.Context, o entities.Order) (entities.Order, error)
	UpdateFn               func(ctx context.Context, o entities.Order) error
	UpdateStatusFn         func(ctx context.Context, id int64, status string, updatedAt time.Time) error
	DeleteFn               func(ctx context.Context, id int64) error
	FindPendingOlderThanFn func(ctx context.Context, cutoff time.Time) ([]entities.Order, error)
}

func (f *fakeOrderRepo) List(ctx context.Context) ([]entities.Order, error) {
	return f.ListFn(ctx)
}

func (f *fakeOrderRepo) Get(ctx context.Context, id int64) (entities.Order, error) {
	return f.GetFn(ctx, id)
}

func (f *fakeOrderRepo) Insert(ctx context.Context, o entities.Order) (entities.Order, error) {
	return f.InsertFn(ctx, o)
}

func (f *fakeOrderRepo) Update(ctx context.Context, o entities.Order) error {
	return f.UpdateFn(ctx, o)
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error {
	return f.UpdateStatusFn(ctx, id, status, updatedAt)
}

func (f *fakeOrderRepo) Delete(ctx context.Context, id int64) error {
	return f.DeleteFn(ctx, id)
}

func (f *fakeOrderRepo) FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]entities.Order, error) {
	return f.FindPendingOlderThanFn(ctx, cutoff)
}

type fakeDirectory struct {
	existing map[int64]bool
	names    map[int64]string
	namesErr error
}

func (f *fakeDirectory) Exists(ctx context.Context, code int64) bool {
	return f.existing[code]
}

func (f *fakeDirectory) Names(ctx context.Context, codes []int64) (map[int64]string, error) {
	if f.namesErr != nil {
		return nil, f.namesErr
	}
	result := make(map[int64]string)
	for _, code := range codes {
		if name, ok := f.names[code]; ok {
			result[code] = name
		}
	}
	return result, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[int64]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[int64]string)}
}

func (f *fakeCache) Get(key int64) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[key]
	return v, ok
}

func (f *fakeCache) Set(key int64, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
}

// noopTxManager runs the callback without a real transaction.
type noopTxManager struct{}

func (noopTxManager) BeginTx(ctx context.Context) (context.Context, trm.Transaction, error) {
	return ctx, nil, nil
}

func (noopTxManager) Do(ctx context.Context, cb func(ctx context.Context) error) error {
	return cb(ctx)
}

// recordingSink accumulates Inc calls in emission order.
type recordingSink struct {
	mu     sync.Mutex
	incs   []sinkInc
	totals map[string]float64
}

type sinkInc struct {
	name   string
	labels map[string]string
	delta  float64
}

func newRecordingSink() *recordingSink {
	return &recordingSink{totals: make(map[string]float64)}
}

func (s *recordingSink) Inc(name string, labels map[string]string, delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incs = append(s.incs, sinkInc{name: name, labels: labels, delta: delta})
	s.totals[name] += delta
}

func (s *recordingSink) Observe(name string, labels map[string]string, d time.Duration) {}

func (s *recordingSink) byName(name string) []sinkInc {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []sinkInc
	for _, inc := range s.incs {
		if inc.name == name {
			result = append(result, inc)
		}
	}
	return result
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOrderService_Save_RejectsUnknownProduct(t *testing.T) {
	inserted := false
	repo := &fakeOrderRepo{
		InsertFn: func(ctx context.Context, o entities.Order) (entities.Order, error) {
			inserted = true
			return o, nil
		},
	}
	directory := &fakeDirectory{existing: map[int64]bool{10: true}}
	sink := newRecordingSink()

	svc := service.NewOrderService(testLogger(), noopTxManager{}, repo, directory, newFakeCache(), sink, 3*time.Minute)

	_, err := svc.Save(context.Background(), entities.Order{
		TableNumber: 1,
		Items: []entities.OrderItem{
			{ProductCode: 10, Quantity: 1},
			{ProductCode: 99, Quantity: 2},
		},
	})

	var unknownErr entities.UnknownProductError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, int64(99), unknownErr.Code)
	assert.False(t, inserted, "nothing should be persisted")
	assert.Empty(t, sink.incs, "no metrics on rejected orders")
}

func TestOrderService_Save_EmitsMetrics(t *testing.T) {
	repo := &fakeOrderRepo{
		InsertFn: func(ctx context.Context, o entities.Order) (entities.Order, error) {
			o.ID = 42
			return o, nil
		},
	}
	directory := &fakeDirectory{
		existing: map[int64]bool{10: true, 11: true},
		names:    map[int64]string{10: "Coxinha (10)", 11: "Pastel (11)"},
	}
	sink := newRecordingSink()

	svc := service.NewOrderService(testLogger(), noopTxManager{}, repo, directory, newFakeCache(), sink, 3*time.Minute)

	// quantities 1, 1 and 2 across two distinct products
	_, err := svc.Save(context.Background(), entities.Order{
		TableNumber: 4,
		Items: []entities.OrderItem{
			{ProductCode: 10, Quantity: 1},
			{ProductCode: 11, Quantity: 1},
			{ProductCode: 10, Quantity: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(4), sink.totals["products_total"])

	pairs := sink.byName("product_combinations_total")
	require.Len(t, pairs, 1, "two distinct products make exactly one pair")
	assert.Equal(t, "Coxinha (10) - Pastel (11)", pairs[0].labels["pair"])
	assert.Equal(t, "10", pairs[0].labels["product1_id"])
	assert.Equal(t, "11", pairs[0].labels["product2_id"])

	details := sink.byName("product_details_total")
	require.Len(t, details, 3, "one emission per line item")
	assert.Equal(t, float64(2), details[2].delta)
	assert.Equal(t, "Coxinha (10)", details[2].labels["product_name"])
	assert.Equal(t, "2", details[2].labels["quantity"])
}

func TestOrderService_Save_UnresolvedNamePlaceholder(t *testing.T) {
	repo := &fakeOrderRepo{
		InsertFn: func(ctx context.Context, o entities.Order) (entities.Order, error) {
			o.ID = 1
			return o, nil
		},
	}
	directory := &fakeDirectory{
		existing: map[int64]bool{10: true},
		namesErr: errors.New("product service down"),
	}
	sink := newRecordingSink()

	svc := service.NewOrderService(testLogger(), noopTxManager{}, repo, directory, newFakeCache(), sink, 3*time.Minute)

	_, err := svc.Save(context.Background(), entities.Order{
		TableNumber: 1,
		Items:       []entities.OrderItem{{ProductCode: 10, Quantity: 1}},
	})
	require.NoError(t, err, "name resolution failures never fail the save")

	details := sink.byName("product_details_total")
	require.Len(t, details, 1)
	assert.Equal(t, service.UnknownProductName, details[0].labels["product_name"])
}

func TestOrderService_Save_Timestamps(t *testing.T) {
	var inserted entities.Order
	repo := &fakeOrderRepo{
		InsertFn: func(ctx context.Context, o entities.Order) (entities.Order, error) {
			inserted = o
			o.ID = 7
			return o, nil
		},
	}
	directory := &fakeDirectory{existing: map[int64]bool{10: true}}

	svc := service.NewOrderService(testLogger(), noopTxManager{}, repo, directory, newFakeCache(), newRecordingSink(), 3*time.Minute)

	_, err := svc.Save(context.Background(), entities.Order{
		TableNumber: 1,
		Items:       []entities.OrderItem{{ProductCode: 10, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.False(t, inserted.CreatedAt.IsZero())
	assert.True(t, inserted.CreatedAt.Equal(inserted.LastUpdated), "both timestamps come from one clock read")
}

func TestOrderService_Save_UpdateKeepsCreatedAt(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	var updated entities.Order
	repo := &fakeOrderRepo{
		UpdateFn: func(ctx context.Context, o entities.Order) error {
			updated = o
			return nil
		},
	}
	directory := &fakeDirectory{existing: map[int64]bool{10: true}}

	svc := service.NewOrderService(testLogger(), noopTxManager{}, repo, directory, newFakeCache(), newRecordingSink(), 3*time.Minute)

	_, err := svc.Save(context.Background(), entities.Order{
		ID:          7,
		TableNumber: 1,
		CreatedAt:   createdAt,
		Items:       []entities.OrderItem{{ProductCode: 10, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.True(t, updated.CreatedAt.Equal(createdAt), "created_at never changes after the insert")
	assert.True(t, updated.LastUpdated.After(createdAt))
}

func TestOrderService_UpdateStatus(t *testing.T) {
	testCases := []struct {
		name       string
		status     string
		wantStored string
		repoErr    error
		wantErr    error
	}{
		{name: "uppercase", status: "FINISHED", wantStored: entities.StatusFinished},
		{name: "lowercase is normalized", status: "canceled", wantStored: entities.StatusCanceled},
		{name: "mixed case", status: "Pending", wantStored: entities.StatusPending},
		{name: "unknown value", status: "COOKING", wantErr: entities.ErrInvalidStatus},
		{name: "missing order", status: "FINISHED", repoErr: entities.ErrOrderNotFound, wantErr: entities.ErrOrderNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var stored string
			repo := &fakeOrderRepo{
				UpdateStatusFn: func(ctx context.Context, id int64, status string, updatedAt time.Time) error {
					stored = status
					return tc.repoErr
				},
				GetFn: func(ctx context.Context, id int64) (entities.Order, error) {
					return entities.Order{ID: id, Status: stored}, nil
				},
			}

			svc := service.NewOrderService(testLogger(), noopTxManager{}, repo, &fakeDirectory{}, newFakeCache(), newRecordingSink(), 3*time.Minute)

			order, err := svc.UpdateStatus(context.Background(), 1, tc.status)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantStored, order.Status)
		})
	}
}

func TestOrderService_Get_Retries(t *testing.T) {
	attempts := 0
	repo := &fakeOrderRepo{
		GetFn: func(ctx context.Context, id int64) (entities.Order, error) {
			attempts++
			if attempts == 1 {
				return entities.Order{}, errors.New("temporary error")
			}
			return entities.Order{ID: id}, nil
		},
	}

	svc := service.NewOrderService(testLogger(), noopTxManager{}, repo, &fakeDirectory{}, newFakeCache(), newRecordingSink(), 3*time.Minute)

	order, err := svc.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), order.ID)
	assert.Equal(t, 2, attempts)
}

func TestOrderService_Get_NotFoundShortCircuits(t *testing.T) {
	attempts := 0
	repo := &fakeOrderRepo{
		GetFn: func(ctx context.Context, id int64) (entities.Order, error) {
			attempts++
			return entities.Order{}, entities.ErrOrderNotFound
		},
	}

	svc := service.NewOrderService(testLogger(), noopTxManager{}, repo, &fakeDirectory{}, newFakeCache(), newRecordingSink(), 3*time.Minute)

	_, err := svc.Get(context.Background(), 5)
	assert.ErrorIs(t, err, entities.ErrOrderNotFound)
	assert.Equal(t, 1, attempts, "not found is not retried")
}

func TestOrderService_DelayedOrders_Cutoff(t *testing.T) {
	maxAge := 3 * time.Minute

	var cutoff time.Time
	repo := &fakeOrderRepo{
		FindPendingOlderThanFn: func(ctx context.Context, c time.Time) ([]entities.Order, error) {
			cutoff = c
			return []entities.Order{}, nil
		},
	}

	svc := service.NewOrderService(testLogger(), noopTxManager{}, repo, &fakeDirectory{}, newFakeCache(), newRecordingSink(), maxAge)

	before := time.Now()
	_, err := svc.DelayedOrders(context.Background())
	require.NoError(t, err)

	assert.WithinDuration(t, before.Add(-maxAge), cutoff, time.Second)
}

func TestOrderService_Save_CachesResolvedNames(t *testing.T) {
	repo := &fakeOrderRepo{
		InsertFn: func(ctx context.Context, o entities.Order) (entities.Order, error) {
			o.ID = 1
			return o, nil
		},
	}
	directory := &fakeDirectory{
		existing: map[int64]bool{10: true},
		names:    map[int64]string{10: "Coxinha (10)"},
	}
	cache := newFakeCache()

	svc := service.NewOrderService(testLogger(), noopTxManager{}, repo, directory, cache, newRecordingSink(), 3*time.Minute)

	_, err := svc.Save(context.Background(), entities.Order{
		TableNumber: 1,
		Items:       []entities.OrderItem{{ProductCode: 10, Quantity: 1}},
	})
	require.NoError(t, err)

	name, ok := cache.Get(10)
	require.True(t, ok)
	assert.Equal(t, "Coxinha (10)", name)
}
