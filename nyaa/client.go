package nyaa

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/sunnygitgud/nyaaterm/metrics"
)

const (
	DefaultBaseURL   = "https://nyaa.si"
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "nyaaterm/1.0"

	// a results page is ~150KB; anything past this is not a results page
	maxBodySize = 16 << 20
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Filter    Filter
	RateLimit float64 // requests per second, <= 0 disables limiting
	RateBurst int
}

// StatusError is returned when nyaa answers with a non-2xx status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("nyaa returned status %d", e.Code)
}

// Client performs one request per search and hands the page to an Extractor.
type Client struct {
	baseURL    string
	userAgent  string
	filter     Filter
	httpClient *http.Client
	limiter    *rate.Limiter
	extractor  *Extractor
	log        zerolog.Logger
}

func NewClient(opts Options, extractor *Extractor, logger zerolog.Logger) (*Client, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(opts.RateBurst, 1))
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		filter:     opts.Filter,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		extractor:  extractor,
		log:        logger.With().Str("component", "nyaa").Logger(),
	}, nil
}

// SearchURL builds the results page URL for a query.
func (c *Client) SearchURL(query string, category Category, sort Sort, page int) string {
	return fmt.Sprintf("%s/?f=%s&c=%s&q=%s&s=%s&o=desc&p=%d",
		c.baseURL, c.filter, category, url.QueryEscape(query), sort, page)
}

// Search fetches one results page. Only transport failures are returned as
// errors; a page that yields no rows is an empty, successful result.
func (c *Client) Search(ctx context.Context, query string, category Category, sort Sort, page int) ([]Torrent, error) {
	if page < 1 {
		page = 1
	}
	searchURL := c.SearchURL(query, category, sort, page)
	log := c.log.With().Str("url", searchURL).Logger()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting to search: %w", err)
	}

	start := time.Now()
	torrents, err := c.fetch(ctx, searchURL)
	elapsed := time.Since(start)
	metrics.ObserveSearchDuration(elapsed)

	if err != nil {
		metrics.IncSearch(metrics.OutcomeError)
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("Search failed")
		return nil, err
	}

	metrics.IncSearch(metrics.OutcomeOK)
	log.Info().Int("count", len(torrents)).Dur("elapsed", elapsed).Msg("Search completed")
	return torrents, nil
}

func (c *Client) fetch(ctx context.Context, searchURL string) ([]Torrent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nyaa request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: searchURL}
	}

	var body io.Reader = resp.Body
	if r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type")); err == nil {
		body = r
	} else {
		c.log.Debug().Err(err).Msg("Charset detection failed, reading body as-is")
	}

	data, err := io.ReadAll(io.LimitReader(body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return c.extractor.Extract(bytes.NewReader(data), c.baseURL), nil
}
