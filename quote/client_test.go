package quote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	return NewClient("test-key",
		WithBaseURL(server.URL),
		WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
	)
}

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		client := NewClient("test-key")
		assert.Equal(t, DefaultBaseURL, client.baseURL)
		assert.Equal(t, "test-key", client.apiKey)
		assert.NotNil(t, client.httpClient)
		assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	})

	t.Run("options", func(t *testing.T) {
		client := NewClient("k", WithBaseURL("http://localhost:9999/"), WithTimeout(time.Second))
		assert.Equal(t, "http://localhost:9999", client.baseURL)
		assert.Equal(t, time.Second, client.httpClient.Timeout)
	})
}

func TestExchangeRate_Success(t *testing.T) {
	mockResponse := exchangeRateResponse{
		Rate: &exchangeRate{
			FromCode:      "USD",
			FromName:      "United States Dollar",
			ToCode:        "JPY",
			ToName:        "Japanese Yen",
			Rate:          "147.51800000",
			LastRefreshed: "2024-01-01 10:00:01",
			TimeZone:      "UTC",
			Bid:           "147.51700000",
			Ask:           "147.51900000",
		},
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "CURRENCY_EXCHANGE_RATE", r.URL.Query().Get("function"))
		assert.Equal(t, "USD", r.URL.Query().Get("from_currency"))
		assert.Equal(t, "JPY", r.URL.Query().Get("to_currency"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(mockResponse)
	})

	rate, err := client.ExchangeRate(context.Background(), "USD", "JPY")
	require.NoError(t, err)
	assert.Equal(t, "147.52", rate.String())
}

func TestExchangeRate_RateLimited(t *testing.T) {
	t.Run("note", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute and 500 calls per day."}`))
		})

		_, err := client.ExchangeRate(context.Background(), "EUR", "JPY")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRateLimited))
	})

	t.Run("information", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"Information": "We have detected your API key and our standard API rate limit is 25 requests per day."}`))
		})

		_, err := client.ExchangeRate(context.Background(), "EUR", "JPY")
		assert.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("status 429", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.ExchangeRate(context.Background(), "EUR", "JPY")
		assert.ErrorIs(t, err, ErrRateLimited)
	})
}

func TestExchangeRate_Errors(t *testing.T) {
	t.Run("missing currencies", func(t *testing.T) {
		client := NewClient("test-key")
		_, err := client.ExchangeRate(context.Background(), "", "JPY")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "required")
	})

	t.Run("missing field", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		})
		_, err := client.ExchangeRate(context.Background(), "GBP", "JPY")
		assert.ErrorIs(t, err, ErrMissingRate)
	})

	t.Run("error message", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"Error Message": "Invalid API call."}`))
		})
		_, err := client.ExchangeRate(context.Background(), "GBP", "JPY")
		assert.ErrorIs(t, err, ErrMissingRate)
		assert.NotErrorIs(t, err, ErrRateLimited)
	})

	t.Run("unparsable rate", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"Realtime Currency Exchange Rate": {"5. Exchange Rate": "n/a"}}`))
		})
		_, err := client.ExchangeRate(context.Background(), "GBP", "JPY")
		assert.ErrorIs(t, err, ErrMissingRate)
	})

	t.Run("zero rate", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"Realtime Currency Exchange Rate": {"5. Exchange Rate": "0.0000"}}`))
		})
		_, err := client.ExchangeRate(context.Background(), "GBP", "JPY")
		assert.ErrorIs(t, err, ErrMissingRate)
	})

	t.Run("malformed json", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		})
		_, err := client.ExchangeRate(context.Background(), "GBP", "JPY")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "decode response")
	})

	t.Run("API error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`upstream down`))
		})
		_, err := client.ExchangeRate(context.Background(), "GBP", "JPY")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "API error (status 500)")
	})
}
