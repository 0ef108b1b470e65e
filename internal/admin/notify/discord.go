package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/tcc/restaurant-services/internal/admin"
	"github.com/tcc/restaurant-services/internal/config"
)

const timestampLayout = "02/01/2006 15:04:05"

// Discord forwards registry events to a Discord webhook as rich
// embeds. Best-effort only: failures are logged by the registry and
// never retried.
type Discord struct {
	logger     *slog.Logger
	webhookURL string
	http       *http.Client
	now        func() time.Time
}

func NewDiscord(logger *slog.Logger, cfg config.Discord) *Discord {
	return &Discord{
		logger:     logger.With(slog.String("notifier", "discord")),
		webhookURL: cfg.WebhookURL,
		http:       &http.Client{},
		now:        time.Now,
	}
}

type embed struct {
	Title  string       `json:"title"`
	Color  int          `json:"color"`
	Fields []embedField `json:"fields,omitempty"`
	Footer *embedFooter `json:"footer,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

func (d *Discord) Notify(ctx context.Context, ev admin.Event) error {
	switch ev.Kind {
	case admin.EventRegistered:
		return d.send(ctx, d.registrationEmbed(ev.Instance))
	case admin.EventStatusChanged:
		return d.send(ctx, d.statusChangeEmbed(ev))
	default:
		d.logger.DebugContext(ctx, "unhandled event", slog.String("kind", string(ev.Kind)))
		return nil
	}
}

func (d *Discord) registrationEmbed(inst admin.Instance) embed {
	return embed{
		Title: "New application registered",
		Color: 3447003,
		Fields: []embedField{
			{Name: "Name", Value: "```" + inst.Name + "```", Inline: true},
			{Name: "ID", Value: "```" + inst.ID + "```", Inline: true},
			{Name: "Service URL", Value: "```" + inst.ServiceURL + "```", Inline: false},
		},
		Footer: &embedFooter{Text: "Registered at " + d.now().Format(timestampLayout)},
	}
}

func (d *Discord) statusChangeEmbed(ev admin.Event) embed {
	return embed{
		Title: "Status changed: " + ev.Instance.Name,
		Color: statusColor(ev.Current.Status),
		Fields: []embedField{
			{Name: "Application", Value: "```" + ev.Instance.Name + "```", Inline: true},
			{Name: "Previous status", Value: "`" + ev.Previous.Status + "`", Inline: true},
			{Name: "New status", Value: "`" + ev.Current.Status + "`", Inline: true},
			{Name: "Details", Value: formatDetails(ev.Current.Details), Inline: false},
		},
		Footer: &embedFooter{Text: d.now().Format(timestampLayout)},
	}
}

func (d *Discord) send(ctx context.Context, e embed) error {
	payload, err := json.Marshal(map[string]any{"embeds": []embed{e}})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", res.StatusCode)
	}

	d.logger.DebugContext(ctx, "notification delivered", slog.String("title", e.Title))
	return nil
}

func statusColor(status string) int {
	switch status {
	case admin.StatusUp:
		return 5763719
	case admin.StatusDown:
		return 15548997
	case admin.StatusOffline:
		return 9807270
	default:
		return 15844367
	}
}

func formatDetails(details map[string]any) string {
	if len(details) == 0 {
		return "```no details```"
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString("```\n")
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s: %v\n", k, details[k])
	}
	buf.WriteString("```")
	return buf.String()
}
