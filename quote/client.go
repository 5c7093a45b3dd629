package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultBaseURL is the Alpha Vantage API host.
	DefaultBaseURL = "https://www.alphavantage.co"

	exchangeRateFunction = "CURRENCY_EXCHANGE_RATE"
)

var (
	// ErrRateLimited is returned when the provider answers with its call
	// frequency notice instead of a quote.
	ErrRateLimited = errors.New("quote provider rate limit reached")

	// ErrMissingRate is returned when the payload has no usable exchange rate.
	ErrMissingRate = errors.New("quote response has no exchange rate")
)

// Client fetches spot exchange rates from an Alpha Vantage compatible API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a new quote client
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// exchangeRate is the body of "Realtime Currency Exchange Rate"
type exchangeRate struct {
	FromCode      string `json:"1. From_Currency Code"`
	FromName      string `json:"2. From_Currency Name"`
	ToCode        string `json:"3. To_Currency Code"`
	ToName        string `json:"4. To_Currency Name"`
	Rate          string `json:"5. Exchange Rate"`
	LastRefreshed string `json:"6. Last Refreshed"`
	TimeZone      string `json:"7. Time Zone"`
	Bid           string `json:"8. Bid Price"`
	Ask           string `json:"9. Ask Price"`
}

// exchangeRateResponse covers the success payload and both notice shapes
type exchangeRateResponse struct {
	Rate         *exchangeRate `json:"Realtime Currency Exchange Rate"`
	Note         string        `json:"Note"`
	Information  string        `json:"Information"`
	ErrorMessage string        `json:"Error Message"`
}

// ExchangeRate returns how many units of to one unit of from buys, rounded
// to 2 decimal places.
func (c *Client) ExchangeRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if from == "" || to == "" {
		return decimal.Zero, fmt.Errorf("from and to currencies are required")
	}

	params := url.Values{}
	params.Set("function", exchangeRateFunction)
	params.Set("from_currency", from)
	params.Set("to_currency", to)
	params.Set("apikey", c.apiKey)

	apiURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return decimal.Zero, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return decimal.Zero, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return decimal.Zero, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp exchangeRateResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return decimal.Zero, fmt.Errorf("decode response: %w", err)
	}

	if apiResp.Rate == nil || apiResp.Rate.Rate == "" {
		switch {
		case apiResp.Note != "":
			return decimal.Zero, fmt.Errorf("%w: %s", ErrRateLimited, apiResp.Note)
		case isRateLimitInfo(apiResp.Information):
			return decimal.Zero, fmt.Errorf("%w: %s", ErrRateLimited, apiResp.Information)
		case apiResp.ErrorMessage != "":
			return decimal.Zero, fmt.Errorf("%w: %s", ErrMissingRate, apiResp.ErrorMessage)
		case apiResp.Information != "":
			return decimal.Zero, fmt.Errorf("%w: %s", ErrMissingRate, apiResp.Information)
		}
		return decimal.Zero, ErrMissingRate
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(apiResp.Rate.Rate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: parse %q: %v", ErrMissingRate, apiResp.Rate.Rate, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive rate %s", ErrMissingRate, rate)
	}

	return rate.Round(2), nil
}

// The provider uses "Information" both for its daily/minute limit notice
// and for unrelated messages such as a missing API key.
func isRateLimitInfo(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "rate limit") || strings.Contains(s, "call frequency") ||
		strings.Contains(s, "requests per day")
}
