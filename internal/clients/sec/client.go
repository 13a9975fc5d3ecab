// Package sec provides a client for SEC EDGAR
package sec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/finq/internal/common"
	"github.com/bobmcallan/finq/internal/interfaces"
	"github.com/bobmcallan/finq/internal/models"
)

const (
	DefaultBaseURL   = "https://www.sec.gov"
	DefaultDataURL   = "https://data.sec.gov"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // SEC fair-access cap, requests per second
)

// Client implements the SECClient interface
type Client struct {
	baseURL    string
	dataURL    string
	userAgent  string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the www.sec.gov base URL (reference table host)
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithDataURL sets the data.sec.gov base URL (submissions host)
func WithDataURL(dataURL string) ClientOption {
	return func(c *Client) {
		if dataURL != "" {
			c.dataURL = strings.TrimRight(dataURL, "/")
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

// NewClient creates a new EDGAR client. userAgent must identify the caller;
// EDGAR answers 403 to anonymous agents.
func NewClient(userAgent string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		dataURL:   DefaultDataURL,
		userAgent: userAgent,
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
	return fmt.Sprintf("SEC API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Unwrap lets callers match any EDGAR failure with models.ErrSourceUnavailable
func (e *APIError) Unwrap() error {
	return models.ErrSourceUnavailable
}

// get performs a rate-limited GET and returns the response body
func (c *Client) get(ctx context.Context, reqURL, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", reqURL).Msg("SEC API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %v: %w", err, models.ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   endpoint,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v: %w", err, models.ErrSourceUnavailable)
	}
	return body, nil
}

// tableResponse is the fields/data shape of company_tickers_exchange.json
type tableResponse struct {
	Fields []string            `json:"fields"`
	Data   [][]json.RawMessage `json:"data"`
}

// FetchReferenceTable retrieves the company/ticker/exchange table
func (c *Client) FetchReferenceTable(ctx context.Context) (*models.ReferenceTable, error) {
	const endpoint = "/files/company_tickers_exchange.json"

	body, err := c.get(ctx, c.baseURL+endpoint, endpoint)
	if err != nil {
		return nil, err
	}

	var resp tableResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode reference table: %v: %w", err, models.ErrSourceUnavailable)
	}

	table, err := parseReferenceTable(resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Int("rows", table.Len()).Msg("Reference table fetched")
	return table, nil
}

// parseReferenceTable locates the columns by name and builds rows.
// Rows too short for a required column or with an unparseable CIK are skipped.
func parseReferenceTable(resp tableResponse) (*models.ReferenceTable, error) {
	cikCol, nameCol, tickerCol, exchangeCol := -1, -1, -1, -1
	for i, f := range resp.Fields {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "cik", "cik_str":
			cikCol = i
		case "name", "title":
			nameCol = i
		case "ticker":
			tickerCol = i
		case "exchange":
			exchangeCol = i
		}
	}
	if cikCol < 0 || nameCol < 0 || tickerCol < 0 {
		return nil, fmt.Errorf("reference table missing required columns (fields: %v): %w", resp.Fields, models.ErrSourceUnavailable)
	}

	required := max(cikCol, nameCol, tickerCol)
	table := &models.ReferenceTable{Rows: make([]models.ReferenceRow, 0, len(resp.Data))}
	for _, tuple := range resp.Data {
		if len(tuple) <= required {
			continue
		}
		cik, err := models.PadCIK(rawScalar(tuple[cikCol]))
		if err != nil {
			continue
		}
		row := models.ReferenceRow{
			CIK:    cik,
			Name:   rawScalar(tuple[nameCol]),
			Ticker: rawScalar(tuple[tickerCol]),
		}
		if exchangeCol >= 0 && exchangeCol < len(tuple) {
			row.Exchange = rawScalar(tuple[exchangeCol])
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// rawScalar renders a JSON string or number cell as text; null and other shapes become "".
func rawScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err == nil {
		return n.String()
	}
	return ""
}

// submissionsResponse is the subset of the per-entity submissions document we use
type submissionsResponse struct {
	CIK     json.RawMessage `json:"cik"`
	Name    string          `json:"name"`
	Tickers []string        `json:"tickers"`
	Filings *struct {
		Recent *recentFilings `json:"recent"`
	} `json:"filings"`
}

// recentFilings holds parallel arrays, one slot per filing
type recentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// FetchEntityRecord retrieves the submissions record for one CIK
func (c *Client) FetchEntityRecord(ctx context.Context, cik string) (*models.EntityRecord, error) {
	padded, err := models.PadCIK(cik)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/submissions/CIK%s.json", padded)
	body, err := c.get(ctx, c.dataURL+endpoint, endpoint)
	if err != nil {
		return nil, err
	}

	var resp submissionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode submissions for %s: %v: %w", padded, err, models.ErrSourceUnavailable)
	}

	record := &models.EntityRecord{
		CIK:     padded,
		Name:    resp.Name,
		Tickers: resp.Tickers,
		Filings: []models.Filing{},
	}
	if resp.Filings == nil || resp.Filings.Recent == nil {
		return record, nil
	}

	ticker := ""
	if len(resp.Tickers) > 0 {
		ticker = resp.Tickers[0]
	}
	filings, skipped := alignFilings(padded, resp.Name, ticker, resp.Filings.Recent)
	if skipped > 0 {
		c.logger.Warn().Str("cik", padded).Int("skipped", skipped).Msg("Dropped filings with unparseable dates")
	}
	record.Filings = filings
	return record, nil
}

// alignFilings zips the parallel arrays. Slots past the shortest of the
// accession/date/form arrays are dropped; primaryDocument may be short.
// Slots whose filing date does not parse are skipped and counted.
func alignFilings(cik, name, ticker string, recent *recentFilings) (filings []models.Filing, skipped int) {
	n := min(len(recent.AccessionNumber), len(recent.FilingDate), len(recent.Form))
	filings = make([]models.Filing, 0, n)
	for i := 0; i < n; i++ {
		acc := strings.TrimSpace(recent.AccessionNumber[i])
		if acc == "" {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(recent.FilingDate[i]))
		if err != nil {
			skipped++
			continue
		}
		f := models.Filing{
			CIK:             cik,
			CompanyName:     name,
			Ticker:          ticker,
			AccessionNumber: acc,
			FilingDate:      date,
			Form:            recent.Form[i],
		}
		if i < len(recent.PrimaryDocument) {
			f.PrimaryDocument = recent.PrimaryDocument[i]
		}
		filings = append(filings, f)
	}
	return filings, skipped
}

// Ensure Client implements SECClient
var _ interfaces.SECClient = (*Client)(nil)
