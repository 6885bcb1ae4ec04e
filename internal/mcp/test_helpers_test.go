package mcp

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"crypto-trading-desk/internal/domain"
)

// syntheticCandles builds a deterministic oscillating series long enough
// for every indicator.
func syntheticCandles(symbol, interval string, n int) []domain.Candle {
	out := make([]domain.Candle, 0, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		price := 100 + 10*math.Sin(float64(i)/7) + float64(i)*0.05
		out = append(out, domain.Candle{
			Symbol:   symbol,
			Interval: interval,
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     price - 0.5,
			High:     price + 1,
			Low:      price - 1,
			Close:    price,
			Volume:   1000 + 50*math.Cos(float64(i)/5),
		})
	}
	return out
}

func testBook(symbol string) *domain.OrderBook {
	book := &domain.OrderBook{
		Exchange:  "binance",
		Symbol:    symbol,
		FetchedAt: time.Unix(0, 0).UTC(),
	}
	for i := 0; i < 20; i++ {
		book.Bids = append(book.Bids, domain.Level{Price: 100 - float64(i)*0.5, Size: 2 + float64(i%3)})
		book.Asks = append(book.Asks, domain.Level{Price: 100.5 + float64(i)*0.5, Size: 2 + float64(i%4)})
	}
	return book
}

type stubMarket struct {
	candlesErr  error
	bookErr     error
	lastSymbol  string
	lastVenue   string
	lastLimit   int
	lastDepth   int
	priceResult float64
}

func (s *stubMarket) Candles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	s.lastSymbol = symbol
	s.lastLimit = limit
	if s.candlesErr != nil {
		return nil, s.candlesErr
	}
	return syntheticCandles(symbol, interval, limit), nil
}

func (s *stubMarket) OrderBook(ctx context.Context, exchange, symbol string, depth int) (*domain.OrderBook, error) {
	s.lastVenue = exchange
	s.lastDepth = depth
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	return testBook(symbol), nil
}

func (s *stubMarket) Trades(ctx context.Context, exchange, symbol string, limit int) ([]domain.Trade, error) {
	s.lastVenue = exchange
	trades := make([]domain.Trade, 0, limit)
	for i := 0; i < limit && i < 50; i++ {
		side := domain.TradeBuy
		if i%3 == 0 {
			side = domain.TradeSell
		}
		trades = append(trades, domain.Trade{
			ID: "t", Time: time.Unix(int64(i), 0).UTC(), Price: 100, Amount: 1 + float64(i%5), Side: side,
		})
	}
	return trades, nil
}

func (s *stubMarket) Price(ctx context.Context, symbol string) (float64, error) {
	if s.priceResult > 0 {
		return s.priceResult, nil
	}
	return 50000, nil
}

func (s *stubMarket) GlobalStats(ctx context.Context) (*domain.GlobalStats, error) {
	return &domain.GlobalStats{
		TotalMarketCapUSD:      2.5e12,
		TotalVolume24hUSD:      9e10,
		MarketCapChange24hPct:  1.2,
		BTCDominancePct:        52.5,
		ETHDominancePct:        17.25,
		ActiveCryptocurrencies: 12000,
		Markets:                900,
	}, nil
}

func (s *stubMarket) CoinDetails(ctx context.Context, coinID string) (*domain.CoinDetails, error) {
	return &domain.CoinDetails{
		ID: coinID, Symbol: "BTC", Name: "Bitcoin", MarketCapRank: 1,
		PriceUSD: 50000, MarketCapUSD: 1e12, Volume24hUSD: 3e10, Change24hPct: 2.5,
	}, nil
}

func (s *stubMarket) FearGreed(ctx context.Context, limit int) ([]domain.FearGreedPoint, error) {
	points := make([]domain.FearGreedPoint, 0, limit)
	for i := 0; i < limit && i < 30; i++ {
		points = append(points, domain.FearGreedPoint{
			Value:          40 + i, // newest first
			Classification: "Fear",
			Time:           time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -i),
		})
	}
	return points, nil
}

func (s *stubMarket) Sources() []string {
	return []string{"binance", "bybit", "coingecko-ohlc", "coingecko-chart"}
}

type stubDeriv struct {
	fundingRate float64
	fundingErr  error
	history     []float64
	lastVenue   string
}

func (s *stubDeriv) FundingRate(ctx context.Context, exchange, symbol string) (*domain.FundingRate, error) {
	s.lastVenue = exchange
	if s.fundingErr != nil {
		return nil, s.fundingErr
	}
	return &domain.FundingRate{
		Exchange: exchange, Symbol: symbol, Rate: s.fundingRate, MarkPrice: 50000,
		NextFundingTime: time.Unix(3600, 0).UTC(), Time: time.Unix(0, 0).UTC(),
	}, nil
}

func (s *stubDeriv) FundingRates(ctx context.Context, symbol string, exchanges []string) map[string]*domain.FundingRate {
	out := make(map[string]*domain.FundingRate, len(exchanges))
	for i, ex := range exchanges {
		out[ex] = &domain.FundingRate{Exchange: ex, Symbol: symbol, Rate: s.fundingRate + float64(i)*0.0002}
	}
	return out
}

func (s *stubDeriv) FundingHistory(ctx context.Context, symbol string, limit int) ([]float64, error) {
	if len(s.history) > 0 {
		return s.history, nil
	}
	rates := make([]float64, 0, limit)
	for i := 0; i < limit && i < 24; i++ {
		rates = append(rates, 0.0001)
	}
	return rates, nil
}

func (s *stubDeriv) OpenInterest(ctx context.Context, exchange, symbol string) (*domain.OpenInterest, error) {
	if exchange != "binance" {
		return nil, &domain.UnsupportedVenueError{Venue: exchange, Message: "open interest is served from binance only"}
	}
	return &domain.OpenInterest{Exchange: exchange, Symbol: symbol, Contracts: 120000, ValueUSD: 120000 * 50000, Time: time.Unix(0, 0).UTC()}, nil
}

func (s *stubDeriv) LongShortRatio(ctx context.Context, exchange, symbol string) (*domain.LongShortRatio, error) {
	if exchange != "binance" {
		return nil, &domain.UnsupportedVenueError{Venue: exchange, Message: "long/short ratios are served from binance only"}
	}
	return &domain.LongShortRatio{Symbol: symbol, TopTrader: 1.5, Global: 1.1, Time: time.Unix(0, 0).UTC()}, nil
}

func (s *stubDeriv) TakerRatio(ctx context.Context, exchange, symbol string) (*domain.TakerRatio, error) {
	if exchange != "binance" {
		return nil, &domain.UnsupportedVenueError{Venue: exchange, Message: "taker flow is served from binance only"}
	}
	return &domain.TakerRatio{Symbol: symbol, BuySellVol: 1.2, BuyVolume: 600, SellVolume: 500, Time: time.Unix(0, 0).UTC()}, nil
}

func testServer() (*sdkmcp.Server, *stubMarket, *stubDeriv) {
	market := &stubMarket{}
	deriv := &stubDeriv{fundingRate: 0.0001}
	srv := NewServer(nil, market, deriv, DefaultThresholds(), ServerConfig{RequestTimeout: 3 * time.Second})
	return srv, market, deriv
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}

// callToolJSON invokes a tool and decodes the structured payload.
func callToolJSON(ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any, out any) error {
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return err
	}
	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
