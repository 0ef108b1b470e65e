package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tcc/restaurant-services/internal/config"
)

// Poller drives status detection: it probes every registered
// instance's health URL on a fixed interval and feeds the results back
// into the registry, which fires StatusChanged events on transitions.
type Poller struct {
	logger   *slog.Logger
	registry *Registry
	client   *http.Client
	interval time.Duration
}

func NewPoller(logger *slog.Logger, registry *Registry, cfg config.Poller) *Poller {
	return &Poller{
		logger:   logger.With(slog.String("component", "poller")),
		registry: registry,
		client:   &http.Client{Timeout: cfg.Timeout},
		interval: cfg.Interval,
	}
}

// Start launches the polling loop, it satisfies the app starter
// interface.
func (p *Poller) Start(ctx context.Context) error {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.poll(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (p *Poller) poll(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	for _, inst := range p.registry.List() {
		g.Go(func() error {
			p.registry.SetStatus(inst.ID, p.check(ctx, inst))
			return nil
		})
	}
	g.Wait()
}

// check maps the probe outcome onto the status vocabulary: 2xx is UP,
// any other response is DOWN, a transport failure is OFFLINE.
func (p *Poller) check(ctx context.Context, inst Instance) StatusInfo {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, inst.HealthURL, nil)
	if err != nil {
		return StatusInfo{Status: StatusOffline, Details: map[string]any{"error": err.Error()}}
	}

	res, err := p.client.Do(req)
	if err != nil {
		return StatusInfo{Status: StatusOffline, Details: map[string]any{"error": err.Error()}}
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return StatusInfo{Status: StatusUp, Details: map[string]any{"statusCode": res.StatusCode}}
	}
	return StatusInfo{Status: StatusDown, Details: map[string]any{"statusCode": res.StatusCode}}
}
