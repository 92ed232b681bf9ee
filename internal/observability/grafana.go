package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pizzashop/order-service/internal/config"
)

// GrafanaSink pushes metrics as line-protocol text to a Grafana-style
// collector endpoint.
type GrafanaSink struct {
	url    string
	source string
	token  string
	client *http.Client
}

// NewGrafanaSink builds the sink from telemetry configuration.
func NewGrafanaSink(cfg config.TelemetryConfig) *GrafanaSink {
	return &GrafanaSink{
		url:    cfg.URL,
		source: cfg.Source,
		token:  fmt.Sprintf("%s:%s", cfg.UserID, cfg.APIKey),
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Push implements Sink.
func (s *GrafanaSink) Push(ctx context.Context, metrics []Metric) error {
	if s.url == "" || len(metrics) == 0 {
		return nil
	}

	lines := make([]string, 0, len(metrics))
	for _, metric := range metrics {
		lines = append(lines, fmt.Sprintf("%s,source=%s,method=%s %s=%v",
			metric.Prefix, s.source, metric.Tag, metric.Name, metric.Value))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("collector responded %d", resp.StatusCode)
	}
	return nil
}
