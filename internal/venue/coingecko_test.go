package venue

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/trace/noop"
)

func newTestCoinGecko(handler http.HandlerFunc) (*CoinGecko, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewCoinGecko(noop.NewTracerProvider().Tracer("test"))
	c.baseURL = srv.URL
	return c, srv
}

func TestCoinIDMapping(t *testing.T) {
	if CoinID("BTC") != "bitcoin" {
		t.Errorf("BTC: got %s", CoinID("BTC"))
	}
	if CoinID("AVAX") != "avalanche-2" {
		t.Errorf("AVAX: got %s", CoinID("AVAX"))
	}
	if CoinID("NEWCOIN") != "newcoin" {
		t.Errorf("unknown tickers should lowercase, got %s", CoinID("NEWCOIN"))
	}
}

func TestIntervalDays(t *testing.T) {
	cases := []struct {
		interval string
		limit    int
		want     int
	}{
		{"1h", 100, 5},  // 6000 minutes
		{"1d", 30, 30},  // exact
		{"1m", 10, 1},   // rounds up to a day
		{"15m", 96, 1},  // exactly one day
		{"1w", 4, 28},   // four weeks
		{"bogus", 2, 2}, // unknown falls back to daily
	}
	for _, c := range cases {
		if got := intervalDays(c.interval, c.limit); got != c.want {
			t.Errorf("intervalDays(%s, %d): got %d, want %d", c.interval, c.limit, got, c.want)
		}
	}
}

func TestOHLCCandlesTrimToLimit(t *testing.T) {
	var gotPath string
	c, srv := newTestCoinGecko(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `[
			[1704067200000,100,102,99,101],
			[1704070800000,101,103,100,102],
			[1704074400000,102,104,101,103]
		]`)
	})
	defer srv.Close()

	candles, err := c.OHLCCandles(context.Background(), "BTC", "1h", 2)
	if err != nil {
		t.Fatalf("OHLCCandles failed: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected trim to 2 rows, got %d", len(candles))
	}
	if candles[0].Close != 102 || candles[1].Close != 103 {
		t.Errorf("should keep the newest rows: %v, %v", candles[0].Close, candles[1].Close)
	}
	if candles[0].Volume != placeholderVolume {
		t.Errorf("volume placeholder: got %v", candles[0].Volume)
	}
	if gotPath != "/coins/bitcoin/ohlc" {
		t.Errorf("path: got %s", gotPath)
	}
}

func TestGlobalStatsParse(t *testing.T) {
	var gotPath string
	c, srv := newTestCoinGecko(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"data":{
			"active_cryptocurrencies":12000,
			"markets":900,
			"total_market_cap":{"usd":2500000000000},
			"total_volume":{"usd":90000000000},
			"market_cap_percentage":{"btc":52.5,"eth":17.25},
			"market_cap_change_percentage_24h_usd":1.2
		}}`)
	})
	defer srv.Close()

	stats, err := c.GlobalStats(context.Background())
	if err != nil {
		t.Fatalf("GlobalStats failed: %v", err)
	}
	if stats.TotalMarketCapUSD != 2.5e12 || stats.BTCDominancePct != 52.5 {
		t.Errorf("misparsed global stats: %+v", stats)
	}
	if stats.ActiveCryptocurrencies != 12000 || stats.Markets != 900 {
		t.Errorf("counts misparsed: %+v", stats)
	}
	if gotPath != "/global" {
		t.Errorf("path: got %s", gotPath)
	}
}

func TestCoinDetailsParse(t *testing.T) {
	var gotPath string
	c, srv := newTestCoinGecko(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{
			"id":"bitcoin","symbol":"btc","name":"Bitcoin","market_cap_rank":1,
			"market_data":{
				"current_price":{"usd":50000},
				"market_cap":{"usd":1000000000000},
				"total_volume":{"usd":30000000000},
				"price_change_percentage_24h":2.5
			}
		}`)
	})
	defer srv.Close()

	details, err := c.CoinDetails(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("CoinDetails failed: %v", err)
	}
	if details.Symbol != "BTC" || details.PriceUSD != 50000 || details.MarketCapRank != 1 {
		t.Errorf("misparsed details: %+v", details)
	}
	if gotPath != "/coins/bitcoin" {
		t.Errorf("path: got %s", gotPath)
	}
}

func TestChartCandlesSynthesizeOHLC(t *testing.T) {
	c, srv := newTestCoinGecko(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"prices":[
			[1704067200000,100],
			[1704070800000,110],
			[1704074400000,105]
		]}`)
	})
	defer srv.Close()

	candles, err := c.ChartCandles(context.Background(), "ETH", "1h", 10)
	if err != nil {
		t.Fatalf("ChartCandles failed: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(candles))
	}
	second := candles[1]
	if second.Open != 100 || second.Close != 110 {
		t.Errorf("open should be the previous close: open=%v close=%v", second.Open, second.Close)
	}
	if second.High < 110 || second.Low > 100 {
		t.Errorf("synthesized band should bracket the move: high=%v low=%v", second.High, second.Low)
	}
	if candles[0].Open != candles[0].Close {
		t.Errorf("first bar has no previous close: open=%v close=%v", candles[0].Open, candles[0].Close)
	}
}
