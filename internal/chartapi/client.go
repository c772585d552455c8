// Package chartapi talks to the song service that generates charts: it
// fetches the chart for a job id and downloads the backing audio.
package chartapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.lost.host/meutraa/tiles/internal/game"
	"git.lost.host/meutraa/tiles/internal/logging"
	"git.lost.host/meutraa/tiles/internal/parser"
)

// ErrNotFound is returned when the service has no chart for a job.
var ErrNotFound = errors.New("chart not found")

const maxChartBytes = 16 << 20

type Client struct {
	base   *url.URL
	http   *http.Client
	parser *parser.DefaultParser
	logger *slog.Logger
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api url %q must be http or https", baseURL)
	}
	return &Client{
		base:   base,
		http:   &http.Client{Timeout: timeout},
		parser: &parser.DefaultParser{},
		logger: logging.OrNop(logger),
	}, nil
}

// ChartURL is where the chart for jobID is served.
func (c *Client) ChartURL(jobID string) string {
	return c.base.String() + "/api/piano-tiles/" + url.PathEscape(jobID)
}

// AudioURL makes a chart's audio reference absolute. References that are
// already URLs are returned unchanged.
func (c *Client) AudioURL(ref string) string {
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return c.base.String() + ref
}

// FetchRaw returns the undecoded chart document for jobID.
func (c *Client) FetchRaw(ctx context.Context, jobID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ChartURL(jobID), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch chart %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxChartBytes))
	if err != nil {
		return nil, fmt.Errorf("read chart %s: %w", jobID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, responseError(jobID, resp, body)
	}
	c.logger.Debug("chart fetched", "job", jobID, "bytes", len(body))
	return body, nil
}

// Decode turns a chart document into a chart with an absolute audio URL.
func (c *Client) Decode(body []byte) (*game.Chart, error) {
	chart, err := c.parser.Decode(body, parser.JSON)
	if err != nil {
		return nil, err
	}
	if chart.AudioURL != "" {
		chart.AudioURL = c.AudioURL(chart.AudioURL)
	}
	return chart, nil
}

func (c *Client) Chart(ctx context.Context, jobID string) (*game.Chart, error) {
	body, err := c.FetchRaw(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return c.Decode(body)
}

func responseError(jobID string, resp *http.Response, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	message := resp.Status
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		message = payload.Error
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s: %s", ErrNotFound, jobID, message)
	}
	return fmt.Errorf("failed to fetch chart %s: %s", jobID, message)
}
