package domain

import (
	"errors"
	"testing"
)

func TestOrderBookBestAndMid(t *testing.T) {
	b := &OrderBook{
		Bids: []Level{{Price: 99, Size: 1}, {Price: 98, Size: 2}},
		Asks: []Level{{Price: 101, Size: 1}, {Price: 102, Size: 2}},
	}
	if b.BestBid() != 99 || b.BestAsk() != 101 {
		t.Errorf("best levels not picked from head: bid=%v ask=%v", b.BestBid(), b.BestAsk())
	}
	if b.MidPrice() != 100 {
		t.Errorf("mid price: got %v, want 100", b.MidPrice())
	}
}

func TestOrderBookEmptySides(t *testing.T) {
	b := &OrderBook{}
	if b.BestBid() != 0 || b.BestAsk() != 0 || b.MidPrice() != 0 {
		t.Errorf("empty book should report zeros, got bid=%v ask=%v mid=%v", b.BestBid(), b.BestAsk(), b.MidPrice())
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "symbol", Message: "must be 1-10 letters"}
	if err.Error() != "symbol: must be 1-10 letters" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if (&ValidationError{Message: "bad input"}).Error() != "bad input" {
		t.Error("field-less validation error should return message only")
	}
}

func TestUpstreamErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &UpstreamError{Venue: "binance", Op: "klines", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to expose the inner error")
	}
}

func TestSupportedIntervalsContainCommonGranularities(t *testing.T) {
	want := map[string]bool{"1m": false, "1h": false, "1d": false, "1M": false}
	for _, iv := range SupportedIntervals {
		if _, ok := want[iv]; ok {
			want[iv] = true
		}
	}
	for iv, seen := range want {
		if !seen {
			t.Errorf("interval %q missing from SupportedIntervals", iv)
		}
	}
}
