package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/tcc/restaurant-services/internal/config"
)

// ProductClient talks to the product service over HTTP. Existence
// checks fail closed: a transport error, a non-2xx response and a
// false body are all reported as "does not exist".
type ProductClient struct {
	logger  *slog.Logger
	baseURL string
	http    *http.Client
}

func NewProductClient(logger *slog.Logger, cfg config.ProductAPI) *ProductClient {
	return &ProductClient{
		logger:  logger.With(slog.String("client", "product")),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *ProductClient) Exists(ctx context.Context, code int64) bool {
	url := c.baseURL + "/products/exists/" + strconv.FormatInt(code, 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to build existence request", slog.Any("error", err))
		return false
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "existence check failed",
			slog.Int64("product_code", code), slog.Any("error", err))
		return false
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.logger.WarnContext(ctx, "existence check returned non-2xx",
			slog.Int64("product_code", code), slog.Int("status", res.StatusCode))
		return false
	}

	var exists bool
	if err := json.NewDecoder(res.Body).Decode(&exists); err != nil {
		c.logger.ErrorContext(ctx, "failed to decode existence response", slog.Any("error", err))
		return false
	}
	return exists
}

func (c *ProductClient) Names(ctx context.Context, codes []int64) (map[int64]string, error) {
	body, err := json.Marshal(codes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal product codes: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/products/batch-details", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build batch-details request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("batch-details request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("batch-details returned status %d", res.StatusCode)
	}

	var names map[int64]string
	if err := json.NewDecoder(res.Body).Decode(&names); err != nil {
		return nil, fmt.Errorf("failed to decode batch-details response: %w", err)
	}
	return names, nil
}
