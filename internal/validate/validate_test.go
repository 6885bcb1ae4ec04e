package validate

import (
	"errors"
	"testing"

	"crypto-trading-desk/internal/domain"
)

func TestSymbol(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"btc ", "BTC", false},
		{"ETH", "ETH", false},
		{"", "", true},
		{"BTCUSDTPERP1", "", true},
		{"BTC-USD", "", true},
		{"btc1", "", true},
	}
	for _, tt := range tests {
		got, err := Symbol(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Symbol(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Symbol(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSymbolReturnsValidationError(t *testing.T) {
	_, err := Symbol("")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *domain.ValidationError, got %T", err)
	}
	if verr.Field != "symbol" {
		t.Errorf("field = %q, want symbol", verr.Field)
	}
}

func TestCoinID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"Bitcoin", "bitcoin", false},
		{" wrapped-bitcoin ", "wrapped-bitcoin", false},
		{"usd-coin2", "usd-coin2", false},
		{"", "", true},
		{"bad id", "", true},
	}
	for _, tt := range tests {
		got, err := CoinID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("CoinID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("CoinID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExchange(t *testing.T) {
	if got, err := Exchange("Binance", domain.SpotVenues); err != nil || got != "binance" {
		t.Errorf("Exchange(Binance) = %q, %v", got, err)
	}
	if _, err := Exchange("nasdaq", domain.SpotVenues); err == nil {
		t.Error("expected error for unsupported exchange")
	}
	if _, err := Exchange("kraken", domain.FuturesVenues); err == nil {
		t.Error("kraken is not a futures venue")
	}
}

func TestTimeframe(t *testing.T) {
	if got, err := Timeframe("2h"); err != nil || got != "2h" {
		t.Errorf("Timeframe(2h) = %q, %v", got, err)
	}
	if _, err := Timeframe("7h"); err == nil {
		t.Error("expected error for 7h")
	}
	if _, err := Timeframe("1M"); err != nil {
		t.Errorf("1M should be accepted: %v", err)
	}
}

func TestPositiveInt(t *testing.T) {
	if got, err := PositiveInt(14, "period", 500); err != nil || got != 14 {
		t.Errorf("PositiveInt(14) = %d, %v", got, err)
	}
	if _, err := PositiveInt(5, "x", 3); err == nil {
		t.Error("expected error when value exceeds max")
	}
	if _, err := PositiveInt(0, "period", 0); err == nil {
		t.Error("expected error for zero")
	}
	if _, err := PositiveInt(-3, "period", 0); err == nil {
		t.Error("expected error for negative")
	}
	if _, err := PositiveInt(1000, "limit", 0); err != nil {
		t.Errorf("max<=0 should disable upper bound: %v", err)
	}
}
