package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"etfbot/pkg/types"
)

const (
	alpacaLiveURL  = "https://api.alpaca.markets"
	alpacaPaperURL = "https://paper-api.alpaca.markets"
	alpacaDataURL  = "https://data.alpaca.markets"
)

// AlpacaClient is the live Gateway adapter over the Alpaca REST API. It also
// implements HistoricalSource through the market data endpoints.
type AlpacaClient struct {
	apiKey    string
	secretKey string
	tradeURL  string
	dataURL   string
	http      *http.Client
}

// NewAlpacaClient builds a client against the paper or live trading host.
func NewAlpacaClient(apiKey, secretKey string, paper bool) *AlpacaClient {
	tradeURL := alpacaLiveURL
	if paper {
		tradeURL = alpacaPaperURL
	}
	return &AlpacaClient{
		apiKey:    apiKey,
		secretKey: secretKey,
		tradeURL:  tradeURL,
		dataURL:   alpacaDataURL,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// AccountValue returns the account's total equity.
func (c *AlpacaClient) AccountValue(ctx context.Context) (float64, error) {
	var account struct {
		Equity string `json:"equity"`
	}
	if err := c.get(ctx, c.tradeURL+"/v2/account", &account); err != nil {
		return 0, fmt.Errorf("get account: %w", err)
	}
	equity, err := strconv.ParseFloat(account.Equity, 64)
	if err != nil {
		return 0, fmt.Errorf("parse account equity %q: %w", account.Equity, err)
	}
	return equity, nil
}

// PositionValues returns the market value of every open position.
func (c *AlpacaClient) PositionValues(ctx context.Context) (types.Positions, error) {
	var positions []struct {
		Symbol      string `json:"symbol"`
		MarketValue string `json:"market_value"`
	}
	if err := c.get(ctx, c.tradeURL+"/v2/positions", &positions); err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	values := make(types.Positions, len(positions))
	for _, p := range positions {
		v, err := strconv.ParseFloat(p.MarketValue, 64)
		if err != nil {
			return nil, fmt.Errorf("parse market value %q for %s: %w", p.MarketValue, p.Symbol, err)
		}
		values[p.Symbol] = v
	}
	return values, nil
}

// LatestPrice returns the latest bid price for a symbol, or zero when the
// data API has no quote for it.
func (c *AlpacaClient) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	var quote struct {
		Quote struct {
			BidPrice float64 `json:"bp"`
		} `json:"quote"`
	}
	endpoint := fmt.Sprintf("%s/v2/stocks/%s/quotes/latest", c.dataURL, url.PathEscape(symbol))
	if err := c.get(ctx, endpoint, &quote); err != nil {
		return 0, fmt.Errorf("get latest quote for %s: %w", symbol, err)
	}
	return quote.Quote.BidPrice, nil
}

// SubmitOrder places a day market order. Each order carries a fresh client
// order ID so a resubmitted pass never double-executes on the broker side.
func (c *AlpacaClient) SubmitOrder(ctx context.Context, symbol string, quantity int, side types.OrderSide) error {
	body := map[string]string{
		"symbol":          symbol,
		"qty":             strconv.Itoa(quantity),
		"side":            string(side),
		"type":            "market",
		"time_in_force":   "day",
		"client_order_id": uuid.NewString(),
	}
	var order struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, c.tradeURL+"/v2/orders", body, &order); err != nil {
		return fmt.Errorf("submit %s order for %d %s: %w", side, quantity, symbol, err)
	}
	log.Info().Str("symbol", symbol).Str("side", string(side)).Int("qty", quantity).
		Str("order_id", order.ID).Msg("order submitted")
	return nil
}

// HistoricalPrices fetches daily close bars for the requested symbols,
// following pagination until the range is exhausted.
func (c *AlpacaClient) HistoricalPrices(ctx context.Context, symbols []string, start, end time.Time) (map[string][]types.PriceBar, error) {
	type bar struct {
		Timestamp time.Time `json:"t"`
		Close     float64   `json:"c"`
	}
	result := make(map[string][]types.PriceBar, len(symbols))
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("symbols", strings.Join(symbols, ","))
		q.Set("timeframe", "1Day")
		q.Set("start", start.UTC().Format(time.RFC3339))
		q.Set("end", end.UTC().Format(time.RFC3339))
		q.Set("limit", "10000")
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}

		var page struct {
			Bars          map[string][]bar `json:"bars"`
			NextPageToken *string          `json:"next_page_token"`
		}
		if err := c.get(ctx, c.dataURL+"/v2/stocks/bars?"+q.Encode(), &page); err != nil {
			return nil, fmt.Errorf("get historical bars: %w", err)
		}
		for symbol, bars := range page.Bars {
			for _, b := range bars {
				result[symbol] = append(result[symbol], types.PriceBar{Date: b.Timestamp, Close: b.Close})
			}
		}
		if page.NextPageToken == nil || *page.NextPageToken == "" {
			break
		}
		pageToken = *page.NextPageToken
	}
	for symbol := range result {
		bars := result[symbol]
		sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	}
	return result, nil
}

func (c *AlpacaClient) get(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *AlpacaClient) post(ctx context.Context, endpoint string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, endpoint, payload, out)
}

func (c *AlpacaClient) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("APCA-API-KEY-ID", c.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
