// Package eodhd provides a client for the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/finq/internal/common"
	"github.com/bobmcallan/finq/internal/interfaces"
	"github.com/bobmcallan/finq/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the EODHDClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Unwrap classifies every EODHD failure as an unavailable source
func (e *APIError) Unwrap() error {
	return models.ErrSourceUnavailable
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	// Add API key
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %v: %w", err, models.ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %v: %w", err, models.ErrSourceUnavailable)
	}

	return nil
}

// NormalizeTicker appends the exchange suffix EODHD expects. Bare US tickers
// such as "AAPL" become "AAPL.US"; share-class dots map to dashes ("BRK.B" → "BRK-B.US").
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return ""
	}
	if i := strings.LastIndex(t, "."); i > 0 && len(t)-i-1 >= 2 {
		// already has an exchange suffix like .US or .AU
		return t
	}
	return strings.ReplaceAll(t, ".", "-") + ".US"
}

// GetFundamentals retrieves fundamental data
func (c *Client) GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	code := NormalizeTicker(ticker)
	if code == "" {
		return nil, fmt.Errorf("empty ticker: %w", models.ErrInvalidInput)
	}
	path := fmt.Sprintf("/fundamentals/%s", code)

	var resp fundamentalsResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	return &models.Fundamentals{
		Ticker:            code,
		Name:              resp.General.Name,
		MarketCap:         float64(resp.Highlights.MarketCapitalization),
		PE:                float64(resp.Highlights.PERatio),
		PB:                float64(resp.Valuation.PriceBookMRQ),
		EPS:               float64(resp.Highlights.EarningsShare),
		DividendYield:     float64(resp.Highlights.DividendYield),
		Beta:              float64(resp.Technicals.Beta),
		SharesOutstanding: int64(resp.SharesStats.SharesOutstanding),
		Sector:            resp.General.Sector,
		Industry:          resp.General.Industry,
		CIK:               normalizeCIK(resp.General.CIK),
		Description:       resp.General.Description,
		WebURL:            resp.General.WebURL,
		LastUpdated:       time.Now(),
	}, nil
}

// normalizeCIK pads the CIK EODHD reports, dropping anything unparseable
func normalizeCIK(raw string) string {
	if raw == "" {
		return ""
	}
	cik, err := models.PadCIK(raw)
	if err != nil {
		return ""
	}
	return cik
}

// fundamentalsResponse represents the API response structure
type fundamentalsResponse struct {
	General struct {
		Code        string `json:"Code"`
		Name        string `json:"Name"`
		Type        string `json:"Type"`
		Sector      string `json:"Sector"`
		Industry    string `json:"Industry"`
		CIK         string `json:"CIK"`
		Description string `json:"Description"`
		WebURL      string `json:"WebURL"`
	} `json:"General"`
	Highlights struct {
		MarketCapitalization flexFloat64 `json:"MarketCapitalization"`
		PERatio              flexFloat64 `json:"PERatio"`
		EarningsShare        flexFloat64 `json:"EarningsShare"`
		DividendYield        flexFloat64 `json:"DividendYield"`
	} `json:"Highlights"`
	Valuation struct {
		PriceBookMRQ flexFloat64 `json:"PriceBookMRQ"`
	} `json:"Valuation"`
	SharesStats struct {
		SharesOutstanding flexFloat64 `json:"SharesOutstanding"`
	} `json:"SharesStats"`
	Technicals struct {
		Beta flexFloat64 `json:"Beta"`
	} `json:"Technicals"`
}

// GetNews retrieves news for a ticker
func (c *Client) GetNews(ctx context.Context, ticker string, limit int) ([]*models.NewsItem, error) {
	code := NormalizeTicker(ticker)
	if code == "" {
		return nil, fmt.Errorf("empty ticker: %w", models.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("s", code)
	params.Set("limit", strconv.Itoa(limit))

	var newsResp []newsResponse
	if err := c.get(ctx, "/news", params, &newsResp); err != nil {
		return nil, err
	}

	news := make([]*models.NewsItem, len(newsResp))
	for i, item := range newsResp {
		publishedAt, _ := time.Parse("2006-01-02T15:04:05+00:00", item.Date)
		news[i] = &models.NewsItem{
			Title:       item.Title,
			URL:         item.Link,
			Source:      item.Source,
			PublishedAt: publishedAt,
			Sentiment:   item.Sentiment.classify(),
			Content:     item.Content,
		}
	}

	return news, nil
}

type newsSentiment struct {
	Polarity float64 `json:"polarity"`
	Neg      float64 `json:"neg"`
	Neu      float64 `json:"neu"`
	Pos      float64 `json:"pos"`
}

func (s newsSentiment) classify() string {
	if s.Polarity > 0.5 {
		return "positive"
	} else if s.Polarity < -0.5 {
		return "negative"
	}
	return "neutral"
}

type newsResponse struct {
	Date      string        `json:"date"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Link      string        `json:"link"`
	Source    string        `json:"source"`
	Sentiment newsSentiment `json:"sentiment"`
}

// Ensure Client implements EODHDClient
var _ interfaces.EODHDClient = (*Client)(nil)
