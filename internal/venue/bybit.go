package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"crypto-trading-desk/internal/domain"
)

const bybitBaseURL = "https://api.bybit.com"

// Bybit talks to the v5 public market endpoints.
type Bybit struct {
	http    *http.Client
	baseURL string
}

func NewBybit() *Bybit {
	return &Bybit{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: bybitBaseURL,
	}
}

func (b *Bybit) Name() string { return "bybit" }

func (b *Bybit) pair(symbol string) string { return symbol + "USDT" }

// bybitIntervals maps the shared timeframe enum onto v5 interval codes.
var bybitIntervals = map[string]string{
	"1m": "1", "3m": "3", "5m": "5", "15m": "15", "30m": "30",
	"1h": "60", "2h": "120", "4h": "240", "6h": "360", "12h": "720",
	"1d": "D", "1w": "W", "1M": "M",
}

type bybitEnvelope struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

func (b *Bybit) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	var env bybitEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return err
	}
	if env.RetCode != 0 {
		return fmt.Errorf("retCode %d: %s", env.RetCode, env.RetMsg)
	}
	return json.Unmarshal(env.Result, out)
}

func (b *Bybit) Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	code, ok := bybitIntervals[interval]
	if !ok {
		return nil, &domain.DataUnavailableError{Symbol: symbol, Message: fmt.Sprintf("bybit does not serve the %s timeframe", interval)}
	}

	var result struct {
		List [][]string `json:"list"`
	}
	path := fmt.Sprintf("/v5/market/kline?category=spot&symbol=%s&interval=%s&limit=%d", b.pair(symbol), code, limit)
	if err := b.get(ctx, path, &result); err != nil {
		return nil, &domain.UpstreamError{Venue: "bybit", Op: "kline", Err: err}
	}

	out := make([]domain.Candle, 0, len(result.List))
	for _, row := range result.List {
		if len(row) < 6 {
			continue
		}
		ms := int64(parseFloat(row[0]))
		out = append(out, domain.Candle{
			Symbol:   symbol,
			Interval: interval,
			OpenTime: time.UnixMilli(ms).UTC(),
			Open:     parseFloat(row[1]),
			High:     parseFloat(row[2]),
			Low:      parseFloat(row[3]),
			Close:    parseFloat(row[4]),
			Volume:   parseFloat(row[5]),
		})
	}
	// v5 returns newest first.
	sort.Slice(out, func(i, j int) bool { return out[i].OpenTime.Before(out[j].OpenTime) })
	return out, nil
}

func (b *Bybit) OrderBook(ctx context.Context, symbol string, depth int) (*domain.OrderBook, error) {
	if depth > 200 {
		depth = 200
	}
	var result struct {
		Bids [][]string `json:"b"`
		Asks [][]string `json:"a"`
	}
	path := fmt.Sprintf("/v5/market/orderbook?category=spot&symbol=%s&limit=%d", b.pair(symbol), depth)
	if err := b.get(ctx, path, &result); err != nil {
		return nil, &domain.UpstreamError{Venue: "bybit", Op: "orderbook", Err: err}
	}

	book := &domain.OrderBook{
		Exchange:  "bybit",
		Symbol:    symbol,
		FetchedAt: time.Now().UTC(),
	}
	for _, lv := range result.Bids {
		if len(lv) >= 2 {
			book.Bids = append(book.Bids, domain.Level{Price: parseFloat(lv[0]), Size: parseFloat(lv[1])})
		}
	}
	for _, lv := range result.Asks {
		if len(lv) >= 2 {
			book.Asks = append(book.Asks, domain.Level{Price: parseFloat(lv[0]), Size: parseFloat(lv[1])})
		}
	}
	return book, nil
}

func (b *Bybit) FundingRate(ctx context.Context, symbol string) (*domain.FundingRate, error) {
	var result struct {
		List []struct {
			FundingRate     string `json:"fundingRate"`
			MarkPrice       string `json:"markPrice"`
			NextFundingTime string `json:"nextFundingTime"`
		} `json:"list"`
	}
	path := fmt.Sprintf("/v5/market/tickers?category=linear&symbol=%s", b.pair(symbol))
	if err := b.get(ctx, path, &result); err != nil {
		return nil, &domain.UpstreamError{Venue: "bybit", Op: "tickers", Err: err}
	}
	if len(result.List) == 0 {
		return nil, &domain.DataUnavailableError{Symbol: symbol, Message: "no bybit ticker returned"}
	}
	t := result.List[0]
	return &domain.FundingRate{
		Exchange:        "bybit",
		Symbol:          symbol,
		Rate:            parseFloat(t.FundingRate),
		MarkPrice:       parseFloat(t.MarkPrice),
		NextFundingTime: time.UnixMilli(int64(parseFloat(t.NextFundingTime))).UTC(),
		Time:            time.Now().UTC(),
	}, nil
}
