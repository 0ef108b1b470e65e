package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tcc/restaurant-services/internal/admin"
	"github.com/tcc/restaurant-services/internal/config"
)

// WhatsApp delivers status-change alerts through the Twilio messaging
// API. Registration events are intentionally skipped to keep the
// channel low-noise.
type WhatsApp struct {
	logger     *slog.Logger
	baseURL    string
	accountSID string
	authToken  string
	from       string
	to         string
	http       *http.Client
}

func NewWhatsApp(logger *slog.Logger, cfg config.Twilio) *WhatsApp {
	return &WhatsApp{
		logger:     logger.With(slog.String("notifier", "whatsapp")),
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.From,
		to:         cfg.To,
		http:       &http.Client{},
	}
}

func (w *WhatsApp) Notify(ctx context.Context, ev admin.Event) error {
	if ev.Kind != admin.EventStatusChanged {
		return nil
	}

	body := fmt.Sprintf("Application %s changed status: %s -> %s",
		ev.Instance.Name, ev.Previous.Status, ev.Current.Status)

	form := url.Values{}
	form.Set("To", "whatsapp:"+w.to)
	form.Set("From", "whatsapp:"+w.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", w.baseURL, w.accountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(w.accountSID, w.authToken)

	res, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("twilio delivery failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("twilio returned status %d", res.StatusCode)
	}

	w.logger.DebugContext(ctx, "message sent", slog.String("application", ev.Instance.Name))
	return nil
}
