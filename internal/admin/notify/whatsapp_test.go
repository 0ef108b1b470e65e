package notify

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcc/restaurant-services/internal/admin"
	"github.com/tcc/restaurant-services/internal/config"
)

func testWhatsApp(baseURL string) *WhatsApp {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWhatsApp(logger, config.Twilio{
		BaseURL:    baseURL,
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+14155238886",
		To:         "+5511999999999",
	})
}

func TestWhatsApp_Notify_StatusChange(t *testing.T) {
	var gotPath, gotUser, gotPass string
	var gotForm map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := testWhatsApp(srv.URL).Notify(context.Background(), admin.Event{
		Kind:     admin.EventStatusChanged,
		Instance: admin.Instance{Name: "order-service"},
		Previous: admin.StatusInfo{Status: admin.StatusUp},
		Current:  admin.StatusInfo{Status: admin.StatusDown},
	})
	require.NoError(t, err)

	assert.Equal(t, "/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "secret", gotPass)
	assert.Equal(t, "whatsapp:+5511999999999", gotForm["To"][0])
	assert.Equal(t, "whatsapp:+14155238886", gotForm["From"][0])
	assert.Contains(t, gotForm["Body"][0], "order-service")
	assert.Contains(t, gotForm["Body"][0], "UP -> DOWN")
}

func TestWhatsApp_Notify_SkipsRegistrations(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	err := testWhatsApp(srv.URL).Notify(context.Background(), admin.Event{
		Kind:     admin.EventRegistered,
		Instance: admin.Instance{Name: "order-service"},
	})
	require.NoError(t, err)
	assert.False(t, called, "registration events are not forwarded")
}

func TestWhatsApp_Notify_APIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := testWhatsApp(srv.URL).Notify(context.Background(), admin.Event{
		Kind:     admin.EventStatusChanged,
		Instance: admin.Instance{Name: "order-service"},
		Previous: admin.StatusInfo{Status: admin.StatusUp},
		Current:  admin.StatusInfo{Status: admin.StatusOffline},
	})
	assert.ErrorContains(t, err, "status 401")
}
