package ta

import (
	"errors"
	"testing"

	"crypto-trading-desk/internal/domain"
)

func TestCorrelationIdenticalSeries(t *testing.T) {
	series := map[string][]domain.Candle{
		"BTC": waveBars(50),
		"ETH": waveBars(50),
	}
	res, err := Correlation([]string{"BTC", "ETH"}, series)
	if err != nil {
		t.Fatalf("Correlation failed: %v", err)
	}
	if res.Matrix["BTC"]["BTC"] != 1 || res.Matrix["ETH"]["ETH"] != 1 {
		t.Error("diagonal must be 1")
	}
	if res.Matrix["BTC"]["ETH"] != res.Matrix["ETH"]["BTC"] {
		t.Error("matrix must be symmetric")
	}
	if res.Matrix["BTC"]["ETH"] != 1 {
		t.Errorf("identical series should correlate at 1, got %v", res.Matrix["BTC"]["ETH"])
	}
	if len(res.Pairs) != 1 || res.Pairs[0].Strength != "VERY_STRONG" {
		t.Errorf("unexpected pairs: %+v", res.Pairs)
	}
	if res.Cohesion != "HIGHLY_CORRELATED" {
		t.Errorf("expected HIGHLY_CORRELATED, got %s", res.Cohesion)
	}
}

func TestCorrelationInverseSeries(t *testing.T) {
	wave := waveBars(50)
	mirror := make([]domain.Candle, len(wave))
	for i, c := range wave {
		mirror[i] = c
		mirror[i].Close = 200 - c.Close
	}
	res, err := Correlation([]string{"BTC", "XYZ"}, map[string][]domain.Candle{
		"BTC": wave,
		"XYZ": mirror,
	})
	if err != nil {
		t.Fatalf("Correlation failed: %v", err)
	}
	if r := res.Matrix["BTC"]["XYZ"]; r > -0.9 {
		t.Errorf("mirrored series should correlate strongly negative, got %v", r)
	}
}

func TestCorrelationAlignsToShortestSeries(t *testing.T) {
	res, err := Correlation([]string{"BTC", "ETH"}, map[string][]domain.Candle{
		"BTC": waveBars(80),
		"ETH": waveBars(40),
	})
	if err != nil {
		t.Fatalf("Correlation failed: %v", err)
	}
	if len(res.Pairs) != 1 {
		t.Fatalf("expected one pair, got %d", len(res.Pairs))
	}
}

func TestCorrelationRequiresTwoSymbols(t *testing.T) {
	_, err := Correlation([]string{"BTC"}, map[string][]domain.Candle{"BTC": waveBars(50)})
	var invalid *domain.ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCorrelationShortSeries(t *testing.T) {
	_, err := Correlation([]string{"BTC", "ETH"}, map[string][]domain.Candle{
		"BTC": waveBars(50),
		"ETH": waveBars(5),
	})
	var unavailable *domain.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected DataUnavailableError, got %v", err)
	}
}
