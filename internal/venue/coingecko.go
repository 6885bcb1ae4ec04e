package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"crypto-trading-desk/internal/domain"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// placeholderVolume fills in the volume field for aggregator sources that
// only report prices.
const placeholderVolume = 1000000

// coinIDs maps common tickers onto aggregator coin ids. Unknown tickers
// fall back to the lowercased symbol.
var coinIDs = map[string]string{
	"BTC": "bitcoin", "ETH": "ethereum", "SOL": "solana", "BNB": "binancecoin",
	"XRP": "ripple", "ADA": "cardano", "DOGE": "dogecoin", "DOT": "polkadot",
	"AVAX": "avalanche-2", "LINK": "chainlink", "LTC": "litecoin", "MATIC": "matic-network",
	"UNI": "uniswap", "ATOM": "cosmos", "TRX": "tron", "NEAR": "near",
}

// CoinGecko is the aggregator fallback for OHLC candles and close-only
// chart data.
type CoinGecko struct {
	http    *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewCoinGecko(tracer trace.Tracer) *CoinGecko {
	return &CoinGecko{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: coinGeckoBaseURL,
		tracer:  tracer,
	}
}

func CoinID(symbol string) string {
	if id, ok := coinIDs[symbol]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// intervalDays estimates how many days of history cover limit bars of the
// given interval.
func intervalDays(interval string, limit int) int {
	minutes := map[string]int{
		"1m": 1, "3m": 3, "5m": 5, "15m": 15, "30m": 30,
		"1h": 60, "2h": 120, "4h": 240, "6h": 360, "8h": 480, "12h": 720,
		"1d": 1440, "3d": 4320, "1w": 10080, "1M": 43200,
	}
	m, ok := minutes[interval]
	if !ok {
		m = 1440
	}
	days := int(math.Ceil(float64(m*limit) / 1440))
	if days < 1 {
		days = 1
	}
	return days
}

func (c *CoinGecko) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// OHLCCandles fetches true OHLC rows; volume is not reported and gets the
// fixed placeholder.
func (c *CoinGecko) OHLCCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	ctx, span := c.tracer.Start(ctx, "coingecko.ohlc", trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	days := intervalDays(interval, limit)
	var rows [][]float64
	path := fmt.Sprintf("/coins/%s/ohlc?vs_currency=usd&days=%d", CoinID(symbol), days)
	if err := c.get(ctx, path, &rows); err != nil {
		return nil, &domain.UpstreamError{Venue: "coingecko", Op: "ohlc", Err: err}
	}

	out := make([]domain.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		out = append(out, domain.Candle{
			Symbol:   symbol,
			Interval: interval,
			OpenTime: time.UnixMilli(int64(row[0])).UTC(),
			Open:     row[1],
			High:     row[2],
			Low:      row[3],
			Close:    row[4],
			Volume:   placeholderVolume,
		})
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// ChartCandles synthesizes OHLC bars from the close-only market chart:
// open is the previous close, high and low are a small fixed band around
// the open/close extremes.
func (c *CoinGecko) ChartCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	ctx, span := c.tracer.Start(ctx, "coingecko.market_chart", trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	days := intervalDays(interval, limit)
	var payload struct {
		Prices [][]float64 `json:"prices"`
	}
	path := fmt.Sprintf("/coins/%s/market_chart?vs_currency=usd&days=%d", CoinID(symbol), days)
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, &domain.UpstreamError{Venue: "coingecko", Op: "market_chart", Err: err}
	}

	out := make([]domain.Candle, 0, len(payload.Prices))
	for i, row := range payload.Prices {
		if len(row) < 2 {
			continue
		}
		closePrice := row[1]
		openPrice := closePrice
		if i > 0 {
			openPrice = payload.Prices[i-1][1]
		}
		out = append(out, domain.Candle{
			Symbol:   symbol,
			Interval: interval,
			OpenTime: time.UnixMilli(int64(row[0])).UTC(),
			Open:     openPrice,
			High:     math.Max(openPrice, closePrice) * 1.001,
			Low:      math.Min(openPrice, closePrice) * 0.999,
			Close:    closePrice,
			Volume:   placeholderVolume,
		})
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// GlobalStats fetches the aggregator-wide market snapshot.
func (c *CoinGecko) GlobalStats(ctx context.Context) (*domain.GlobalStats, error) {
	ctx, span := c.tracer.Start(ctx, "coingecko.global")
	defer span.End()

	var payload struct {
		Data struct {
			ActiveCryptocurrencies int                `json:"active_cryptocurrencies"`
			Markets                int                `json:"markets"`
			TotalMarketCap         map[string]float64 `json:"total_market_cap"`
			TotalVolume            map[string]float64 `json:"total_volume"`
			MarketCapPercentage    map[string]float64 `json:"market_cap_percentage"`
			MarketCapChange24hPct  float64            `json:"market_cap_change_percentage_24h_usd"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/global", &payload); err != nil {
		return nil, &domain.UpstreamError{Venue: "coingecko", Op: "global", Err: err}
	}

	return &domain.GlobalStats{
		TotalMarketCapUSD:      payload.Data.TotalMarketCap["usd"],
		TotalVolume24hUSD:      payload.Data.TotalVolume["usd"],
		MarketCapChange24hPct:  payload.Data.MarketCapChange24hPct,
		BTCDominancePct:        payload.Data.MarketCapPercentage["btc"],
		ETHDominancePct:        payload.Data.MarketCapPercentage["eth"],
		ActiveCryptocurrencies: payload.Data.ActiveCryptocurrencies,
		Markets:                payload.Data.Markets,
	}, nil
}

// CoinDetails fetches the per-coin metadata card by aggregator coin id.
func (c *CoinGecko) CoinDetails(ctx context.Context, coinID string) (*domain.CoinDetails, error) {
	ctx, span := c.tracer.Start(ctx, "coingecko.coin", trace.WithAttributes(attribute.String("coin_id", coinID)))
	defer span.End()

	var payload struct {
		ID            string `json:"id"`
		Symbol        string `json:"symbol"`
		Name          string `json:"name"`
		MarketCapRank int    `json:"market_cap_rank"`
		MarketData    struct {
			CurrentPrice   map[string]float64 `json:"current_price"`
			MarketCap      map[string]float64 `json:"market_cap"`
			TotalVolume    map[string]float64 `json:"total_volume"`
			PriceChange24h float64            `json:"price_change_percentage_24h"`
		} `json:"market_data"`
	}
	path := fmt.Sprintf("/coins/%s?localization=false&tickers=false&community_data=false&developer_data=false", coinID)
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, &domain.UpstreamError{Venue: "coingecko", Op: "coin", Err: err}
	}
	if payload.ID == "" {
		return nil, &domain.DataUnavailableError{Message: fmt.Sprintf("no coin found for id %q", coinID)}
	}

	return &domain.CoinDetails{
		ID:            payload.ID,
		Symbol:        strings.ToUpper(payload.Symbol),
		Name:          payload.Name,
		MarketCapRank: payload.MarketCapRank,
		PriceUSD:      payload.MarketData.CurrentPrice["usd"],
		MarketCapUSD:  payload.MarketData.MarketCap["usd"],
		Volume24hUSD:  payload.MarketData.TotalVolume["usd"],
		Change24hPct:  payload.MarketData.PriceChange24h,
	}, nil
}

// ohlcSource and chartSource expose the two aggregator endpoints as
// separate entries in the fallback chain.
type ohlcSource struct{ c *CoinGecko }

func (s ohlcSource) Name() string { return "coingecko-ohlc" }
func (s ohlcSource) Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	return s.c.OHLCCandles(ctx, symbol, interval, limit)
}

type chartSource struct{ c *CoinGecko }

func (s chartSource) Name() string { return "coingecko-chart" }
func (s chartSource) Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	return s.c.ChartCandles(ctx, symbol, interval, limit)
}

func (c *CoinGecko) OHLCSource() CandleSource  { return ohlcSource{c} }
func (c *CoinGecko) ChartSource() CandleSource { return chartSource{c} }
