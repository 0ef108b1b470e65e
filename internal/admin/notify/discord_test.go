package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcc/restaurant-services/internal/admin"
	"github.com/tcc/restaurant-services/internal/config"
)

type discordPayload struct {
	Embeds []embed `json:"embeds"`
}

func testDiscord(webhookURL string) *Discord {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDiscord(logger, config.Discord{WebhookURL: webhookURL})
	d.now = func() time.Time { return time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC) }
	return d
}

func TestDiscord_Notify_Registered(t *testing.T) {
	var payload discordPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := testDiscord(srv.URL).Notify(context.Background(), admin.Event{
		Kind: admin.EventRegistered,
		Instance: admin.Instance{
			ID:         "abc-123",
			Name:       "order-service",
			ServiceURL: "http://localhost:2021",
		},
	})
	require.NoError(t, err)

	require.Len(t, payload.Embeds, 1)
	e := payload.Embeds[0]
	assert.Equal(t, 3447003, e.Color)
	assert.Contains(t, e.Fields[0].Value, "order-service")
	require.NotNil(t, e.Footer)
	assert.Contains(t, e.Footer.Text, "01/03/2025 18:30:00")
}

func TestDiscord_Notify_StatusChangeColors(t *testing.T) {
	testCases := []struct {
		status string
		color  int
	}{
		{status: admin.StatusUp, color: 5763719},
		{status: admin.StatusDown, color: 15548997},
		{status: admin.StatusOffline, color: 9807270},
		{status: admin.StatusUnknown, color: 15844367},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			var payload discordPayload
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			}))
			defer srv.Close()

			err := testDiscord(srv.URL).Notify(context.Background(), admin.Event{
				Kind:     admin.EventStatusChanged,
				Instance: admin.Instance{Name: "order-service"},
				Previous: admin.StatusInfo{Status: admin.StatusUnknown},
				Current:  admin.StatusInfo{Status: tc.status, Details: map[string]any{"statusCode": 200}},
			})
			require.NoError(t, err)

			require.Len(t, payload.Embeds, 1)
			assert.Equal(t, tc.color, payload.Embeds[0].Color)
		})
	}
}

func TestDiscord_Notify_WebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := testDiscord(srv.URL).Notify(context.Background(), admin.Event{
		Kind:     admin.EventRegistered,
		Instance: admin.Instance{Name: "order-service"},
	})
	assert.ErrorContains(t, err, "status 429")
}
