package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/tcc/restaurant-services/internal/entities"
)

type OrderSource interface {
	FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]entities.Order, error)
}

// Scanner periodically reports orders that have been pending for
// longer than maxAge. It only logs, it never mutates, so it needs no
// coordination with concurrent status updates.
type Scanner struct {
	logger   *slog.Logger
	orders   OrderSource
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time
}

func New(logger *slog.Logger, orders OrderSource, interval, maxAge time.Duration) *Scanner {
	return &Scanner{
		logger:   logger.With(slog.String("scheduler", "delayed-orders")),
		orders:   orders,
		interval: interval,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Start launches the fixed-interval loop, no jitter and no overlap
// prevention. It satisfies the app starter interface.
func (s *Scanner) Start(ctx context.Context) error {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.Run(ctx); err != nil {
					s.logger.ErrorContext(ctx, "delayed order scan failed", slog.Any("error", err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Run executes one scan and returns the number of delayed orders
// found. It is also invoked on demand by the manual trigger endpoint.
func (s *Scanner) Run(ctx context.Context) (int, error) {
	s.logger.InfoContext(ctx, "checking for pending orders", slog.Duration("max_age", s.maxAge))

	cutoff := s.now().Add(-s.maxAge)
	delayed, err := s.orders.FindPendingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	// one order must never block reporting of the rest
	for _, order := range delayed {
		s.report(ctx, order)
	}

	if len(delayed) == 0 {
		s.logger.InfoContext(ctx, "no delayed orders found")
	} else {
		s.logger.InfoContext(ctx, "delayed orders found", slog.Int("total", len(delayed)))
	}
	return len(delayed), nil
}

func (s *Scanner) report(ctx context.Context, order entities.Order) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "failed to report delayed order",
				slog.Int64("order_id", order.ID), slog.Any("error", r))
		}
	}()

	s.logger.WarnContext(ctx, "order is delayed",
		slog.Int64("order_id", order.ID),
		slog.String("created_at", order.CreatedAt.Format(time.RFC3339)),
	)
}
