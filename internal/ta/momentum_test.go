package ta

import (
	"errors"
	"math"
	"testing"

	"crypto-trading-desk/internal/domain"
)

func TestRSIWithinBounds(t *testing.T) {
	res, err := RSI(waveBars(80), 14, DefaultThresholds())
	if err != nil {
		t.Fatalf("RSI failed: %v", err)
	}
	if res.Value < 0 || res.Value > 100 {
		t.Errorf("RSI out of bounds: %v", res.Value)
	}
	if res.Period != 14 {
		t.Errorf("period echo: got %d", res.Period)
	}
}

func TestRSIZeroLossPinsTo100(t *testing.T) {
	res, err := RSI(trendBars(20, 100, 1), 14, DefaultThresholds())
	if err != nil {
		t.Fatalf("RSI failed: %v", err)
	}
	if res.Value != 100 {
		t.Errorf("all-gain window should pin RSI to 100, got %v", res.Value)
	}
	if res.Signal != "OVERBOUGHT" {
		t.Errorf("expected OVERBOUGHT, got %s", res.Signal)
	}
}

func TestRSITrendComparesTwoBarsBack(t *testing.T) {
	// Fourteen straight losses, a sharp bounce, then two softer losses:
	// RSI two bars back (right after the bounce) sits above the current
	// value, so the trend reads FALLING even though RSI three bars back
	// was pinned near zero.
	closes := []float64{
		100, 99, 98, 97, 96, 95, 94, 93, 92, 91, 90, 89, 88, 87, 86,
		96, 94, 93.5,
	}
	res, err := RSI(barsFromCloses(closes...), 14, DefaultThresholds())
	if err != nil {
		t.Fatalf("RSI failed: %v", err)
	}
	if res.Trend != "FALLING" {
		t.Errorf("trend: got %s, want FALLING", res.Trend)
	}
}

func TestRSIShortSeries(t *testing.T) {
	_, err := RSI(trendBars(10, 100, 1), 14, DefaultThresholds())
	var unavailable *domain.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected DataUnavailableError, got %v", err)
	}
}

func TestMACDBullishOnUptrend(t *testing.T) {
	res, err := MACD(trendBars(60, 100, 1), 12, 26, 9, DefaultThresholds())
	if err != nil {
		t.Fatalf("MACD failed: %v", err)
	}
	if res.Histogram <= 0 || res.Trend != "BULLISH" {
		t.Errorf("steady uptrend should hold a positive histogram: %+v", res)
	}
}

func TestMACDCrossoverAtSignFlip(t *testing.T) {
	// Decline into a rally, then cut the series at the exact bar where the
	// histogram first turns positive.
	values := make([]float64, 0, 120)
	for i := 0; i < 60; i++ {
		values = append(values, 200-float64(i))
	}
	for i := 0; i < 60; i++ {
		values = append(values, 140+2*float64(i))
	}
	macdLine, signalLine := macdSeries(values, 12, 26, 9)

	flip := -1
	for i := 61; i < len(values); i++ {
		if macdLine[i-1]-signalLine[i-1] <= 0 && macdLine[i]-signalLine[i] > 0 {
			flip = i
			break
		}
	}
	if flip < 0 {
		t.Fatal("no histogram sign flip in constructed series")
	}

	res, err := MACD(barsFromCloses(values[:flip+1]...), 12, 26, 9, DefaultThresholds())
	if err != nil {
		t.Fatalf("MACD failed: %v", err)
	}
	if res.Crossover != "BULLISH_CROSSOVER" {
		t.Errorf("expected BULLISH_CROSSOVER at flip bar, got %s", res.Crossover)
	}
}

func TestStochasticFlatWindow(t *testing.T) {
	res, err := Stochastic(flatBars(30), 14, 3, DefaultThresholds())
	if err != nil {
		t.Fatalf("Stochastic failed: %v", err)
	}
	if res.K != 50 || res.D != 50 {
		t.Errorf("flat window should sit at the midpoint, got K=%v D=%v", res.K, res.D)
	}
	if res.Signal != "NEUTRAL" {
		t.Errorf("expected NEUTRAL, got %s", res.Signal)
	}
}

func TestWilliamsRFlatWindow(t *testing.T) {
	res, err := WilliamsR(flatBars(20), 14, DefaultThresholds())
	if err != nil {
		t.Fatalf("WilliamsR failed: %v", err)
	}
	if res.Value != -50 {
		t.Errorf("flat window should report -50, got %v", res.Value)
	}
}

func TestWilliamsRBounds(t *testing.T) {
	res, err := WilliamsR(waveBars(40), 14, DefaultThresholds())
	if err != nil {
		t.Fatalf("WilliamsR failed: %v", err)
	}
	if res.Value > 0 || res.Value < -100 {
		t.Errorf("Williams %%R out of bounds: %v", res.Value)
	}
}

func TestROCStrongMove(t *testing.T) {
	res, err := ROC(trendBars(40, 100, 2), 12, DefaultThresholds())
	if err != nil {
		t.Fatalf("ROC failed: %v", err)
	}
	if res.Signal != "STRONG_BULLISH" {
		t.Errorf("24 points over 12 bars should be STRONG_BULLISH, got %s (roc=%v)", res.Signal, res.Value)
	}
}

func TestROCZeroBase(t *testing.T) {
	candles := trendBars(20, 0, 0)
	_, err := ROC(candles, 12, DefaultThresholds())
	var unavailable *domain.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("zero base price should be unavailable, got %v", err)
	}
}

func TestCCISignOnTrend(t *testing.T) {
	up, err := CCI(trendBars(40, 100, 1), 20, DefaultThresholds())
	if err != nil {
		t.Fatalf("CCI failed: %v", err)
	}
	if up.Value <= 0 {
		t.Errorf("rising series should have positive CCI, got %v", up.Value)
	}
	down, err := CCI(trendBars(40, 200, -1), 20, DefaultThresholds())
	if err != nil {
		t.Fatalf("CCI failed: %v", err)
	}
	if down.Value >= 0 {
		t.Errorf("falling series should have negative CCI, got %v", down.Value)
	}
}

func TestMomentumContrarianVoteOnSelloff(t *testing.T) {
	// A steady selloff leaves stochastic, Williams %R, and CCI oversold.
	// Oversold counts as an anticipated bounce, so the bundle votes bullish
	// against the lone strong-bearish ROC.
	res, err := Momentum(trendBars(40, 200, -2), DefaultThresholds())
	if err != nil {
		t.Fatalf("Momentum failed: %v", err)
	}
	if res.Stochastic.Signal != "OVERSOLD" || res.WilliamsR.Signal != "OVERSOLD" || res.CCI.Signal != "OVERSOLD" {
		t.Fatalf("selloff should leave the oscillators oversold: %+v", res)
	}
	if res.ROC.Signal != "STRONG_BEARISH" {
		t.Fatalf("expected STRONG_BEARISH ROC, got %s", res.ROC.Signal)
	}
	if res.Overall != "BULLISH" {
		t.Errorf("3 oversold vs 1 bearish should vote BULLISH, got %s", res.Overall)
	}
}

func TestRSISeriesLeadingNaN(t *testing.T) {
	series := rsiSeries([]float64{1, 2, 3, 4, 5, 6}, 3)
	for i := 0; i < 3; i++ {
		if !math.IsNaN(series[i]) {
			t.Errorf("bar %d before the first full window should be NaN, got %v", i, series[i])
		}
	}
	if math.IsNaN(series[len(series)-1]) {
		t.Error("last bar should carry a value")
	}
}
