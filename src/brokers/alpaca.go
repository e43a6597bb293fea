package brokers

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

	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/models"
	"golang.org/x/time/rate"
)

const activitiesPageSize = 100

// AlpacaClient fetches fill activities from the Alpaca account activities
// endpoint. Requests are rate limited client-side to stay under Alpaca's
// per-minute quota.
type AlpacaClient struct {
	apiKey    string
	apiSecret string
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewAlpacaClient creates a client against the given base URL (live or paper).
// ratePerMinute caps outgoing requests; zero or negative disables limiting.
func NewAlpacaClient(apiKey, apiSecret, baseURL string, ratePerMinute int) *AlpacaClient {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if ratePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMinute)), 1)
	}
	return &AlpacaClient{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   limiter,
	}
}

func (c *AlpacaClient) Name() string { return "alpaca" }

// alpacaActivity is one FILL entry from GET /v2/account/activities.
type alpacaActivity struct {
	ID              string `json:"id"`
	ActivityType    string `json:"activity_type"`
	TransactionTime string `json:"transaction_time"`
	Symbol          string `json:"symbol"`
	Side            string `json:"side"`
	Qty             string `json:"qty"`
	Price           string `json:"price"`
}

// FetchFills pages through FILL activities since the given time and converts
// them to RawFill. Alpaca reports no per-fill commission (commission-free),
// so Commission is always zero.
func (c *AlpacaClient) FetchFills(ctx context.Context, since time.Time) ([]models.RawFill, error) {
	var fills []models.RawFill
	pageToken := ""

	for {
		activities, err := c.fetchActivitiesPage(ctx, since, pageToken)
		if err != nil {
			return nil, err
		}
		if len(activities) == 0 {
			break
		}

		for _, activity := range activities {
			fill, err := activityToFill(activity)
			if err != nil {
				logger.L.Warn("Skipping unconvertible Alpaca activity", "activityID", activity.ID, "error", err)
				continue
			}
			fills = append(fills, fill)
		}

		if len(activities) < activitiesPageSize {
			break
		}
		pageToken = activities[len(activities)-1].ID
	}

	return fills, nil
}

func (c *AlpacaClient) fetchActivitiesPage(ctx context.Context, since time.Time, pageToken string) ([]alpacaActivity, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("alpaca: rate limiter: %w", err)
	}

	query := url.Values{}
	query.Set("activity_types", "FILL")
	query.Set("page_size", strconv.Itoa(activitiesPageSize))
	query.Set("direction", "asc")
	if !since.IsZero() {
		query.Set("after", since.Format(time.RFC3339))
	}
	if pageToken != "" {
		query.Set("page_token", pageToken)
	}

	endpoint := c.baseURL + "/v2/account/activities?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("alpaca: building request: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", c.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.apiSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alpaca: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alpaca: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpaca: API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var activities []alpacaActivity
	if err := json.Unmarshal(body, &activities); err != nil {
		return nil, fmt.Errorf("alpaca: decoding activities: %w", err)
	}
	return activities, nil
}

func activityToFill(activity alpacaActivity) (models.RawFill, error) {
	var side models.Side
	switch strings.ToLower(activity.Side) {
	case "buy":
		side = models.SideBuy
	case "sell", "sell_short":
		side = models.SideSell
	default:
		return models.RawFill{}, fmt.Errorf("unknown side %q", activity.Side)
	}

	qty, err := strconv.ParseFloat(activity.Qty, 64)
	if err != nil || qty <= 0 {
		return models.RawFill{}, fmt.Errorf("invalid qty %q", activity.Qty)
	}
	price, err := strconv.ParseFloat(activity.Price, 64)
	if err != nil || price <= 0 {
		return models.RawFill{}, fmt.Errorf("invalid price %q", activity.Price)
	}
	ts, err := time.Parse(time.RFC3339, activity.TransactionTime)
	if err != nil {
		return models.RawFill{}, fmt.Errorf("invalid transaction_time %q", activity.TransactionTime)
	}

	return models.RawFill{
		FillID:    activity.ID,
		Symbol:    strings.ToUpper(activity.Symbol),
		Side:      side,
		Quantity:  qty,
		Price:     price,
		Timestamp: ts,
	}, nil
}
