// Package sharepoint provides a Microsoft Graph client for SharePoint and
// OneDrive document search and download.
package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/finq/internal/common"
	"github.com/bobmcallan/finq/internal/interfaces"
	"github.com/bobmcallan/finq/internal/models"
)

const (
	DefaultBaseURL          = "https://graph.microsoft.com/v1.0"
	DefaultTimeout          = 60 * time.Second
	DefaultRateLimit        = 5
	DefaultRegion           = "NAM"
	DefaultMaxDownloadBytes = 50 * 1024 * 1024
	graphScope              = "https://graph.microsoft.com/.default"
)

// Client implements the DocumentIndex interface
type Client struct {
	baseURL          string
	tokenURL         string
	region           string
	maxDownloadBytes int64
	tokenSource      oauth2.TokenSource
	httpClient       *http.Client
	logger           *common.Logger
	limiter          *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the Graph base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTokenURL overrides the Azure AD token endpoint
func WithTokenURL(tokenURL string) ClientOption {
	return func(c *Client) {
		c.tokenURL = tokenURL
	}
}

// WithTokenSource supplies tokens directly instead of the client-credentials flow
func WithTokenSource(ts oauth2.TokenSource) ClientOption {
	return func(c *Client) {
		c.tokenSource = ts
	}
}

// WithRegion sets the search region required for app-only Graph search
func WithRegion(region string) ClientOption {
	return func(c *Client) {
		c.region = region
	}
}

// WithMaxDownloadBytes caps how much of a file is downloaded
func WithMaxDownloadBytes(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxDownloadBytes = n
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

// NewClient creates a Graph client authenticated with app-only client credentials
func NewClient(tenantID, clientID, clientSecret string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:          DefaultBaseURL,
		tokenURL:         fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", url.PathEscape(tenantID)),
		region:           DefaultRegion,
		maxDownloadBytes: DefaultMaxDownloadBytes,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.tokenSource == nil {
		cc := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     c.tokenURL,
			Scopes:       []string{graphScope},
		}
		tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: c.httpClient.Timeout})
		c.tokenSource = cc.TokenSource(tokenCtx)
	}

	c.httpClient.Transport = &oauth2.Transport{
		Source: oauth2.ReuseTokenSource(nil, c.tokenSource),
		Base:   http.DefaultTransport,
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
	return fmt.Sprintf("Graph API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Unwrap classifies every Graph failure as an unavailable source
func (e *APIError) Unwrap() error {
	return models.ErrSourceUnavailable
}

// do performs a rate-limited request and returns the open response on 200
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("endpoint", endpoint).Msg("Graph API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %v: %w", err, models.ErrSourceUnavailable)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
			Endpoint:   endpoint,
		}
	}

	return resp, nil
}

type searchRequest struct {
	Requests []searchRequestItem `json:"requests"`
}

type searchRequestItem struct {
	EntityTypes []string    `json:"entityTypes"`
	Query       searchQuery `json:"query"`
	From        int         `json:"from"`
	Size        int         `json:"size"`
	Region      string      `json:"region,omitempty"`
}

type searchQuery struct {
	QueryString string `json:"queryString"`
}

type searchResponse struct {
	Value []struct {
		HitsContainers []struct {
			Hits []struct {
				HitID    string `json:"hitId"`
				Resource struct {
					ID              string `json:"id"`
					Name            string `json:"name"`
					WebURL          string `json:"webUrl"`
					ParentReference struct {
						DriveID string `json:"driveId"`
					} `json:"parentReference"`
				} `json:"resource"`
			} `json:"hits"`
		} `json:"hitsContainers"`
	} `json:"value"`
}

// SearchFiles runs a driveItem search and maps hits to candidates in relevance order
func (c *Client) SearchFiles(ctx context.Context, term string, limit int) ([]models.Candidate, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("empty search term: %w", models.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 25
	}

	payload, err := json.Marshal(searchRequest{
		Requests: []searchRequestItem{{
			EntityTypes: []string{"driveItem"},
			Query:       searchQuery{QueryString: term},
			From:        0,
			Size:        limit,
			Region:      c.region,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/search/query", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %v: %w", err, models.ErrSourceUnavailable)
	}

	candidates := make([]models.Candidate, 0, limit)
	for _, v := range sr.Value {
		for _, container := range v.HitsContainers {
			for _, hit := range container.Hits {
				id := hit.Resource.ID
				if id == "" {
					id = hit.HitID
				}
				candidates = append(candidates, models.Candidate{
					ID:      id,
					Name:    hit.Resource.Name,
					DriveID: hit.Resource.ParentReference.DriveID,
					WebURL:  hit.Resource.WebURL,
				})
				if len(candidates) >= limit {
					return candidates, nil
				}
			}
		}
	}

	c.logger.Debug().Str("term", term).Int("hits", len(candidates)).Msg("Graph search complete")
	return candidates, nil
}

// DownloadContent returns the raw bytes of one drive item, capped at the download limit
func (c *Client) DownloadContent(ctx context.Context, driveID, itemID string) ([]byte, error) {
	if driveID == "" || itemID == "" {
		return nil, fmt.Errorf("drive and item id required: %w", models.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("/drives/%s/items/%s/content", url.PathEscape(driveID), url.PathEscape(itemID))
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %v: %w", err, models.ErrSourceUnavailable)
	}
	return data, nil
}

// Ensure Client implements DocumentIndex
var _ interfaces.DocumentIndex = (*Client)(nil)
