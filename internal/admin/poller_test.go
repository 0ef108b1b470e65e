package admin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcc/restaurant-services/internal/config"
)

func testPoller(t *testing.T) (*Poller, *Registry) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := NewRegistry(logger)
	poller := NewPoller(logger, registry, config.Poller{Interval: time.Minute, Timeout: time.Second})
	return poller, registry
}

func TestPoller_Check(t *testing.T) {
	poller, _ := testPoller(t)

	t.Run("healthy endpoint is UP", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		status := poller.check(context.Background(), Instance{HealthURL: srv.URL})
		assert.Equal(t, StatusUp, status.Status)
		assert.Equal(t, http.StatusOK, status.Details["statusCode"])
	})

	t.Run("failing endpoint is DOWN", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		status := poller.check(context.Background(), Instance{HealthURL: srv.URL})
		assert.Equal(t, StatusDown, status.Status)
		assert.Equal(t, http.StatusServiceUnavailable, status.Details["statusCode"])
	})

	t.Run("unreachable endpoint is OFFLINE", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		status := poller.check(context.Background(), Instance{HealthURL: srv.URL})
		assert.Equal(t, StatusOffline, status.Status)
		assert.NotEmpty(t, status.Details["error"])
	})
}

func TestPoller_Poll_UpdatesRegistry(t *testing.T) {
	poller, registry := testPoller(t)

	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	healthy := registry.Register(Instance{Name: "order-service", HealthURL: up.URL})
	failing := registry.Register(Instance{Name: "product-service", HealthURL: down.URL})

	poller.poll(context.Background())

	got, ok := registry.Get(healthy.ID)
	require.True(t, ok)
	assert.Equal(t, StatusUp, got.Status.Status)

	got, ok = registry.Get(failing.ID)
	require.True(t, ok)
	assert.Equal(t, StatusDown, got.Status.Status)
}
