// In file: internal/nwis/client.go
package nwis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// =================================================================================
// Configuration
// =================================================================================

const (
	DefaultWaterServicesURL = "https://waterservices.usgs.gov/nwis"
	DefaultWaterDataURL     = "https://nwis.waterdata.usgs.gov"
	DefaultHelpURL          = "https://help.waterdata.usgs.gov"

	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
	defaultUserAgent  = "waterdata-mcp/1.0"

	// maxErrorBody caps how much of an error page is kept in HTTPError.Message.
	maxErrorBody = 300
)

// Config holds the endpoints and transport settings of a Client.
// Zero values fall back to the public USGS endpoints and the defaults above.
type Config struct {
	WaterServicesURL string        `yaml:"water_services_url"`
	WaterDataURL     string        `yaml:"water_data_url"`
	HelpURL          string        `yaml:"help_url"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	UserAgent        string        `yaml:"user_agent"`
}

func (c Config) withDefaults() Config {
	if c.WaterServicesURL == "" {
		c.WaterServicesURL = DefaultWaterServicesURL
	}
	if c.WaterDataURL == "" {
		c.WaterDataURL = DefaultWaterDataURL
	}
	if c.HelpURL == "" {
		c.HelpURL = DefaultHelpURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	} else if c.RetryDelay == 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	c.WaterServicesURL = strings.TrimRight(c.WaterServicesURL, "/")
	c.WaterDataURL = strings.TrimRight(c.WaterDataURL, "/")
	c.HelpURL = strings.TrimRight(c.HelpURL, "/")
	return c
}

// =================================================================================
// Errors
// =================================================================================

// errNoData marks an answer the service uses to say "nothing matched".
var errNoData = errors.New("nwis: no data")

// HTTPError is returned when a service rejects a request.
type HTTPError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("nwis %s service returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("nwis %s service returned status %d: %s", e.Service, e.StatusCode, e.Message)
}

// =================================================================================
// Client
// =================================================================================

// Client talks to the NWIS web services. It is safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient builds a client. A nil httpClient gets one with the configured timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{config: cfg, httpClient: httpClient}
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// fetch performs a GET with retries and returns the body. A 404 answer, which
// the site service uses for "No sites found matching all criteria", yields errNoData.
func (c *Client) fetch(ctx context.Context, service, endpoint string, params url.Values) ([]byte, error) {
	target := endpoint
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var lastErr error
	delay := c.config.RetryDelay
	for i := 0; i < c.config.MaxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create nwis %s request: %w", service, err)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("nwis %s request failed (attempt %d/%d): %w", service, i+1, c.config.MaxRetries, err)
			log.Println(lastErr)
			if !sleep(ctx, delay) {
				return nil, ctx.Err()
			}
			delay *= 2
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		if err := resp.Body.Close(); err != nil {
			log.Printf("Warning: Failed to close nwis response body: %v", err)
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read nwis %s response: %w", service, readErr)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, errNoData
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			// Client errors (bad site number, bad parameter) are not retried.
			return nil, &HTTPError{Service: service, StatusCode: resp.StatusCode, Message: errorMessage(body)}
		}

		lastErr = &HTTPError{Service: service, StatusCode: resp.StatusCode, Message: errorMessage(body)}
		log.Printf("nwis %s attempt %d/%d failed: %v", service, i+1, c.config.MaxRetries, lastErr)
		if !sleep(ctx, delay) {
			return nil, ctx.Err()
		}
		delay *= 2
	}
	return nil, lastErr
}

// fetchRDB fetches and parses an RDB document. No-data answers become an empty frame.
func (c *Client) fetchRDB(ctx context.Context, service, endpoint string, params url.Values) (*Frame, error) {
	body, err := c.fetch(ctx, service, endpoint, params)
	if errors.Is(err, errNoData) {
		return NewFrame(), nil
	}
	if err != nil {
		return nil, err
	}
	if looksLikeHTML(body) {
		// The waterdata pages answer unknown queries with an HTML page and status 200.
		if noDataPage.Match(body) {
			return NewFrame(), nil
		}
		return nil, &HTTPError{Service: service, StatusCode: http.StatusOK, Message: errorMessage(body)}
	}
	frame, err := ParseRDB(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("nwis %s: %w", service, err)
	}
	return frame, nil
}

// fetchWaterML fetches and flattens a WaterML JSON document.
func (c *Client) fetchWaterML(ctx context.Context, service, endpoint string, params url.Values, dateOnly bool) (*Frame, error) {
	body, err := c.fetch(ctx, service, endpoint, params)
	if errors.Is(err, errNoData) {
		return NewFrame(timeSeriesColumns...), nil
	}
	if err != nil {
		return nil, err
	}
	frame, err := ParseWaterML(bytes.NewReader(body), dateOnly)
	if err != nil {
		return nil, fmt.Errorf("nwis %s: %w", service, err)
	}
	return frame, nil
}

// --- Helpers ---

var (
	htmlTag    = regexp.MustCompile(`<[^>]*>`)
	spaceRun   = regexp.MustCompile(`\s+`)
	noDataPage = regexp.MustCompile(`(?i)no (sites|data|records)[^<]*(found|available)`)
)

func looksLikeHTML(body []byte) bool {
	head := bytes.TrimSpace(body)
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.HasPrefix(bytes.ToLower(head), []byte("<!doctype html")) || bytes.HasPrefix(bytes.ToLower(head), []byte("<html"))
}

// errorMessage reduces an error page to a single readable line.
func errorMessage(body []byte) string {
	text := htmlTag.ReplaceAllString(string(body), " ")
	text = strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
