package models

import "time"

// Fundamentals contains the fundamental data points used to ground a summary
type Fundamentals struct {
	Ticker            string    `json:"ticker"`
	Name              string    `json:"name,omitempty"`
	MarketCap         float64   `json:"market_cap"`
	PE                float64   `json:"pe_ratio"`
	PB                float64   `json:"pb_ratio"`
	EPS               float64   `json:"eps"`
	DividendYield     float64   `json:"dividend_yield"`
	Beta              float64   `json:"beta"`
	SharesOutstanding int64     `json:"shares_outstanding"`
	Sector            string    `json:"sector"`
	Industry          string    `json:"industry"`
	CIK               string    `json:"cik,omitempty"`
	Description       string    `json:"description,omitempty"`
	WebURL            string    `json:"web_url,omitempty"`
	LastUpdated       time.Time `json:"last_updated"`
}

// NewsItem represents a news article
type NewsItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   string    `json:"sentiment,omitempty"` // positive, negative, neutral
	Content     string    `json:"-"`
}
