// Package venue holds the upstream market-data clients and the ordered
// fallback fetcher that normalizes their output into domain records.
package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"

	"crypto-trading-desk/internal/domain"
)

const binanceFuturesData = "https://fapi.binance.com/futures/data"

// Binance wraps the spot and perpetual-futures APIs behind a shared rate
// limiter with bounded retry.
type Binance struct {
	spot    *binance.Client
	fut     *futures.Client
	http    *http.Client
	limiter *rate.Limiter
	dataURL string
}

func NewBinance() *Binance {
	httpClient := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	spot := binance.NewClient("", "")
	spot.HTTPClient = httpClient
	fut := futures.NewClient("", "")
	fut.HTTPClient = httpClient

	return &Binance{
		spot:    spot,
		fut:     fut,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		dataURL: binanceFuturesData,
	}
}

func (b *Binance) Name() string { return "binance" }

func (b *Binance) pair(symbol string) string { return symbol + "USDT" }

// withRetry runs fn up to 3 retries with exponential backoff, waiting on
// the shared limiter before each attempt.
func (b *Binance) withRetry(ctx context.Context, fn func() error) error {
	const maxRetries = 3
	backoff := 100 * time.Millisecond

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if werr := b.limiter.Wait(ctx); werr != nil {
			return werr
		}
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		wait := time.Duration(math.Pow(2, float64(attempt))) * backoff
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

func (b *Binance) Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	var klines []*binance.Kline
	err := b.withRetry(ctx, func() error {
		var kerr error
		klines, kerr = b.spot.NewKlinesService().
			Symbol(b.pair(symbol)).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		return kerr
	})
	if err != nil {
		return nil, &domain.UpstreamError{Venue: "binance", Op: "klines", Err: err}
	}

	out := make([]domain.Candle, 0, len(klines))
	for _, k := range klines {
		out = append(out, domain.Candle{
			Symbol:   symbol,
			Interval: interval,
			OpenTime: time.UnixMilli(k.OpenTime).UTC(),
			Open:     parseFloat(k.Open),
			High:     parseFloat(k.High),
			Low:      parseFloat(k.Low),
			Close:    parseFloat(k.Close),
			Volume:   parseFloat(k.Volume),
		})
	}
	return out, nil
}

func (b *Binance) OrderBook(ctx context.Context, symbol string, depth int) (*domain.OrderBook, error) {
	var res *binance.DepthResponse
	err := b.withRetry(ctx, func() error {
		var derr error
		res, derr = b.spot.NewDepthService().Symbol(b.pair(symbol)).Limit(depth).Do(ctx)
		return derr
	})
	if err != nil {
		return nil, &domain.UpstreamError{Venue: "binance", Op: "depth", Err: err}
	}

	book := &domain.OrderBook{
		Exchange:  "binance",
		Symbol:    symbol,
		FetchedAt: time.Now().UTC(),
	}
	for _, lv := range res.Bids {
		book.Bids = append(book.Bids, domain.Level{Price: parseFloat(lv.Price), Size: parseFloat(lv.Quantity)})
	}
	for _, lv := range res.Asks {
		book.Asks = append(book.Asks, domain.Level{Price: parseFloat(lv.Price), Size: parseFloat(lv.Quantity)})
	}
	return book, nil
}

func (b *Binance) Trades(ctx context.Context, symbol string, limit int) ([]domain.Trade, error) {
	var trades []*binance.Trade
	err := b.withRetry(ctx, func() error {
		var terr error
		trades, terr = b.spot.NewRecentTradesService().Symbol(b.pair(symbol)).Limit(limit).Do(ctx)
		return terr
	})
	if err != nil {
		return nil, &domain.UpstreamError{Venue: "binance", Op: "trades", Err: err}
	}

	out := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		// The buyer being the maker means the aggressor sold.
		side := domain.TradeBuy
		if t.IsBuyerMaker {
			side = domain.TradeSell
		}
		out = append(out, domain.Trade{
			ID:     strconv.FormatInt(t.ID, 10),
			Time:   time.UnixMilli(t.Time).UTC(),
			Price:  parseFloat(t.Price),
			Amount: parseFloat(t.Quantity),
			Side:   side,
		})
	}
	return out, nil
}

func (b *Binance) Ticker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	var stats []*binance.PriceChangeStats
	err := b.withRetry(ctx, func() error {
		var serr error
		stats, serr = b.spot.NewListPriceChangeStatsService().Symbol(b.pair(symbol)).Do(ctx)
		return serr
	})
	if err != nil {
		return nil, &domain.UpstreamError{Venue: "binance", Op: "ticker", Err: err}
	}
	if len(stats) == 0 {
		return nil, &domain.DataUnavailableError{Symbol: symbol, Message: "no ticker returned"}
	}
	s := stats[0]
	return &domain.Ticker{
		Exchange:  "binance",
		Symbol:    symbol,
		Last:      parseFloat(s.LastPrice),
		Bid:       parseFloat(s.BidPrice),
		Ask:       parseFloat(s.AskPrice),
		High24h:   parseFloat(s.HighPrice),
		Low24h:    parseFloat(s.LowPrice),
		Volume24h: parseFloat(s.Volume),
		Change24h: parseFloat(s.PriceChangePercent),
	}, nil
}

func (b *Binance) FundingRate(ctx context.Context, symbol string) (*domain.FundingRate, error) {
	var idx []*futures.PremiumIndex
	err := b.withRetry(ctx, func() error {
		var ierr error
		idx, ierr = b.fut.NewPremiumIndexService().Symbol(b.pair(symbol)).Do(ctx)
		return ierr
	})
	if err != nil {
		return nil, &domain.UpstreamError{Venue: "binance", Op: "premium index", Err: err}
	}
	if len(idx) == 0 {
		return nil, &domain.DataUnavailableError{Symbol: symbol, Message: "no premium index returned"}
	}
	p := idx[0]
	return &domain.FundingRate{
		Exchange:        "binance",
		Symbol:          symbol,
		Rate:            parseFloat(p.LastFundingRate),
		MarkPrice:       parseFloat(p.MarkPrice),
		NextFundingTime: time.UnixMilli(p.NextFundingTime).UTC(),
		Time:            time.UnixMilli(p.Time).UTC(),
	}, nil
}

func (b *Binance) FundingHistory(ctx context.Context, symbol string, limit int) ([]float64, error) {
	var hist []*futures.FundingRate
	err := b.withRetry(ctx, func() error {
		var herr error
		hist, herr = b.fut.NewFundingRateService().Symbol(b.pair(symbol)).Limit(limit).Do(ctx)
		return herr
	})
	if err != nil {
		return nil, &domain.UpstreamError{Venue: "binance", Op: "funding history", Err: err}
	}
	out := make([]float64, 0, len(hist))
	for _, h := range hist {
		out = append(out, parseFloat(h.FundingRate))
	}
	return out, nil
}

func (b *Binance) OpenInterest(ctx context.Context, symbol string) (*domain.OpenInterest, error) {
	var oi *futures.OpenInterest
	err := b.withRetry(ctx, func() error {
		var oerr error
		oi, oerr = b.fut.NewGetOpenInterestService().Symbol(b.pair(symbol)).Do(ctx)
		return oerr
	})
	if err != nil {
		return nil, &domain.UpstreamError{Venue: "binance", Op: "open interest", Err: err}
	}

	contracts := parseFloat(oi.OpenInterest)
	fr, err := b.FundingRate(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &domain.OpenInterest{
		Exchange:  "binance",
		Symbol:    symbol,
		Contracts: contracts,
		ValueUSD:  contracts * fr.MarkPrice,
		Time:      time.UnixMilli(oi.Time).UTC(),
	}, nil
}

// ratioPoint matches the futures/data endpoints, which are not covered by
// the SDK client.
type ratioPoint struct {
	LongShortRatio string `json:"longShortRatio"`
	BuySellRatio   string `json:"buySellRatio"`
	BuyVol         string `json:"buyVol"`
	SellVol        string `json:"sellVol"`
	Timestamp      int64  `json:"timestamp"`
}

func (b *Binance) fetchRatio(ctx context.Context, endpoint, symbol string) (*ratioPoint, error) {
	url := fmt.Sprintf("%s/%s?symbol=%s&period=1h&limit=1", b.dataURL, endpoint, b.pair(symbol))

	var points []ratioPoint
	err := b.withRetry(ctx, func() error {
		req, rerr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if rerr != nil {
			return rerr
		}
		resp, rerr := b.http.Do(req)
		if rerr != nil {
			return rerr
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&points)
	})
	if err != nil {
		return nil, &domain.UpstreamError{Venue: "binance", Op: endpoint, Err: err}
	}
	if len(points) == 0 {
		return nil, &domain.DataUnavailableError{Symbol: symbol, Message: "no " + endpoint + " data returned"}
	}
	return &points[0], nil
}

func (b *Binance) LongShortRatio(ctx context.Context, symbol string) (*domain.LongShortRatio, error) {
	top, err := b.fetchRatio(ctx, "topLongShortAccountRatio", symbol)
	if err != nil {
		return nil, err
	}
	global, err := b.fetchRatio(ctx, "globalLongShortAccountRatio", symbol)
	if err != nil {
		return nil, err
	}
	return &domain.LongShortRatio{
		Symbol:    symbol,
		TopTrader: parseFloat(top.LongShortRatio),
		Global:    parseFloat(global.LongShortRatio),
		Time:      time.UnixMilli(top.Timestamp).UTC(),
	}, nil
}

func (b *Binance) TakerRatio(ctx context.Context, symbol string) (*domain.TakerRatio, error) {
	p, err := b.fetchRatio(ctx, "takerlongshortRatio", symbol)
	if err != nil {
		return nil, err
	}
	return &domain.TakerRatio{
		Symbol:     symbol,
		BuySellVol: parseFloat(p.BuySellRatio),
		BuyVolume:  parseFloat(p.BuyVol),
		SellVolume: parseFloat(p.SellVol),
		Time:       time.UnixMilli(p.Timestamp).UTC(),
	}, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
