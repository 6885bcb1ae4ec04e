package venue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"crypto-trading-desk/internal/domain"
)

func newTestBybit(handler http.HandlerFunc) (*Bybit, *httptest.Server) {
	srv := httptest.NewServer(handler)
	b := NewBybit()
	b.baseURL = srv.URL
	return b, srv
}

func TestBybitCandlesSortedOldestFirst(t *testing.T) {
	var gotPath string
	b, srv := newTestBybit(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RawQuery
		// v5 returns newest first.
		fmt.Fprint(w, `{"retCode":0,"retMsg":"OK","result":{"list":[
			["1704070800000","101","102","100","101.5","12"],
			["1704067200000","100","101","99","101","10"]
		]}}`)
	})
	defer srv.Close()

	candles, err := b.Candles(context.Background(), "BTC", "1h", 2)
	if err != nil {
		t.Fatalf("Candles failed: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if !candles[0].OpenTime.Before(candles[1].OpenTime) {
		t.Error("candles should be reordered oldest first")
	}
	if candles[0].Close != 101 || candles[1].Close != 101.5 {
		t.Errorf("closes misparsed: %v, %v", candles[0].Close, candles[1].Close)
	}
	if candles[0].Symbol != "BTC" || candles[0].Interval != "1h" {
		t.Errorf("symbol/interval echo: %s %s", candles[0].Symbol, candles[0].Interval)
	}
	// The shared 1h timeframe maps to the v5 "60" code and the USDT pair.
	if want := "category=spot&symbol=BTCUSDT&interval=60&limit=2"; gotPath != want {
		t.Errorf("query: got %s, want %s", gotPath, want)
	}
}

func TestBybitRejectsUnmappedTimeframes(t *testing.T) {
	b := NewBybit() // no request should be issued
	for _, tf := range []string{"8h", "3d"} {
		_, err := b.Candles(context.Background(), "BTC", tf, 10)
		var unavailable *domain.DataUnavailableError
		if !errors.As(err, &unavailable) {
			t.Errorf("%s: expected DataUnavailableError, got %v", tf, err)
		}
	}
}

func TestBybitErrorEnvelope(t *testing.T) {
	b, srv := newTestBybit(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"retCode":10001,"retMsg":"params error","result":{}}`)
	})
	defer srv.Close()

	_, err := b.Candles(context.Background(), "BTC", "1h", 10)
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Venue != "bybit" {
		t.Errorf("venue: got %s", upstream.Venue)
	}
}

func TestBybitOrderBookParse(t *testing.T) {
	b, srv := newTestBybit(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"retCode":0,"retMsg":"OK","result":{
			"b":[["100.5","2"],["100.0","3"]],
			"a":[["101.0","1.5"],["101.5","4"]]
		}}`)
	})
	defer srv.Close()

	book, err := b.OrderBook(context.Background(), "BTC", 50)
	if err != nil {
		t.Fatalf("OrderBook failed: %v", err)
	}
	if book.Exchange != "bybit" {
		t.Errorf("exchange: got %s", book.Exchange)
	}
	if book.BestBid() != 100.5 || book.BestAsk() != 101.0 {
		t.Errorf("best levels: bid=%v ask=%v", book.BestBid(), book.BestAsk())
	}
	if len(book.Bids) != 2 || len(book.Asks) != 2 {
		t.Errorf("level counts: %d/%d", len(book.Bids), len(book.Asks))
	}
}

func TestBybitFundingRateParse(t *testing.T) {
	b, srv := newTestBybit(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"retCode":0,"retMsg":"OK","result":{"list":[
			{"fundingRate":"0.0001","markPrice":"50000","nextFundingTime":"1704096000000"}
		]}}`)
	})
	defer srv.Close()

	fr, err := b.FundingRate(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("FundingRate failed: %v", err)
	}
	if fr.Rate != 0.0001 || fr.MarkPrice != 50000 {
		t.Errorf("misparsed funding: %+v", fr)
	}
	if fr.Exchange != "bybit" || fr.Symbol != "BTC" {
		t.Errorf("identity fields: %s %s", fr.Exchange, fr.Symbol)
	}
}

func TestBybitFundingRateEmptyList(t *testing.T) {
	b, srv := newTestBybit(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"retCode":0,"retMsg":"OK","result":{"list":[]}}`)
	})
	defer srv.Close()

	_, err := b.FundingRate(context.Background(), "BTC")
	var unavailable *domain.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected DataUnavailableError, got %v", err)
	}
}
