package brokers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/models"
)

func init() {
	logger.InitLogger("error")
}

func TestAlpacaFetchFills(t *testing.T) {
	var gotKey, gotSecret string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("APCA-API-KEY-ID")
		gotSecret = r.Header.Get("APCA-API-SECRET-KEY")
		assert.Equal(t, "/v2/account/activities", r.URL.Path)
		assert.Equal(t, "FILL", r.URL.Query().Get("activity_types"))
		assert.Equal(t, "asc", r.URL.Query().Get("direction"))

		json.NewEncoder(w).Encode([]map[string]string{
			{
				"id":               "act-1",
				"activity_type":    "FILL",
				"transaction_time": "2024-03-04T14:31:00Z",
				"symbol":           "aapl",
				"side":             "buy",
				"qty":              "100",
				"price":            "150.25",
			},
			{
				"id":               "act-2",
				"activity_type":    "FILL",
				"transaction_time": "2024-03-04T15:05:00Z",
				"symbol":           "AAPL",
				"side":             "sell",
				"qty":              "100",
				"price":            "152.00",
			},
		})
	}))
	defer server.Close()

	client := NewAlpacaClient("key-id", "key-secret", server.URL, 0)
	fills, err := client.FetchFills(context.Background(), time.Time{})

	require.NoError(t, err)
	assert.Equal(t, "key-id", gotKey)
	assert.Equal(t, "key-secret", gotSecret)
	require.Len(t, fills, 2)

	assert.Equal(t, "act-1", fills[0].FillID)
	assert.Equal(t, "AAPL", fills[0].Symbol, "symbols are upper-cased")
	assert.Equal(t, models.SideBuy, fills[0].Side)
	assert.Equal(t, 100.0, fills[0].Quantity)
	assert.Equal(t, 150.25, fills[0].Price)
	assert.Zero(t, fills[0].Commission)
	assert.Equal(t, models.SideSell, fills[1].Side)
}

func TestAlpacaFetchFillsSkipsBadActivities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{
			{"id": "bad-side", "transaction_time": "2024-03-04T14:31:00Z", "symbol": "AAPL", "side": "transfer", "qty": "100", "price": "150"},
			{"id": "bad-qty", "transaction_time": "2024-03-04T14:31:00Z", "symbol": "AAPL", "side": "buy", "qty": "zero", "price": "150"},
			{"id": "good", "transaction_time": "2024-03-04T14:31:00Z", "symbol": "AAPL", "side": "buy", "qty": "10", "price": "150"},
		})
	}))
	defer server.Close()

	client := NewAlpacaClient("k", "s", server.URL, 0)
	fills, err := client.FetchFills(context.Background(), time.Time{})

	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, "good", fills[0].FillID)
}

func TestAlpacaFetchFillsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"forbidden"}`, http.StatusForbidden)
	}))
	defer server.Close()

	client := NewAlpacaClient("k", "s", server.URL, 0)
	_, err := client.FetchFills(context.Background(), time.Now())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestAlpacaFetchFillsPaginates(t *testing.T) {
	var tokens []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.URL.Query().Get("page_token"))
		if len(tokens) > 1 {
			json.NewEncoder(w).Encode([]map[string]string{})
			return
		}
		page := make([]map[string]string, activitiesPageSize)
		for i := range page {
			page[i] = map[string]string{
				"id":               fmt.Sprintf("act-%d", i),
				"transaction_time": "2024-03-04T14:31:00Z",
				"symbol":           "AAPL",
				"side":             "buy",
				"qty":              "1",
				"price":            "10",
			}
		}
		page[len(page)-1]["id"] = "last-of-page"
		json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	client := NewAlpacaClient("k", "s", server.URL, 0)
	fills, err := client.FetchFills(context.Background(), time.Time{})

	require.NoError(t, err)
	assert.Len(t, fills, activitiesPageSize)
	require.Len(t, tokens, 2)
	assert.Empty(t, tokens[0])
	assert.Equal(t, "last-of-page", tokens[1], "next page starts after the last activity ID")
}
