package futures

import "testing"

func TestConsolidateNeutralBaseline(t *testing.T) {
	stats := Consolidate(nil, nil, nil, nil, nil, DefaultThresholds())
	if stats.Score != 50 {
		t.Errorf("no inputs should leave the baseline 50, got %v", stats.Score)
	}
	if stats.Signal != "NEUTRAL" {
		t.Errorf("signal: got %s, want NEUTRAL", stats.Signal)
	}
}

func TestConsolidateContrarianFunding(t *testing.T) {
	th := DefaultThresholds()
	// 60% annualized longs-pay-shorts reads contrarian bearish.
	crowdedLongs := &FundingResult{AnnualizedPct: 60}
	stats := Consolidate(crowdedLongs, nil, nil, nil, nil, th)
	if stats.Score != 35 {
		t.Errorf("crowded longs should deduct 15, got %v", stats.Score)
	}
	if stats.Signal != "SELL" {
		t.Errorf("signal: got %s, want SELL", stats.Signal)
	}

	crowdedShorts := &FundingResult{AnnualizedPct: -60}
	stats = Consolidate(crowdedShorts, nil, nil, nil, nil, th)
	if stats.Score != 65 {
		t.Errorf("crowded shorts should add 15, got %v", stats.Score)
	}
	if stats.Signal != "BUY" {
		t.Errorf("signal: got %s, want BUY", stats.Signal)
	}

	// Inside the extreme band funding moves nothing.
	mild := &FundingResult{AnnualizedPct: 20}
	if got := Consolidate(mild, nil, nil, nil, nil, th).Score; got != 50 {
		t.Errorf("mild funding should not move the score, got %v", got)
	}
}

func TestConsolidateContrarianLongShort(t *testing.T) {
	th := DefaultThresholds()
	crowdedLongs := &LongShortResult{Sentiment: "EXTREMELY_BULLISH"}
	if got := Consolidate(nil, nil, crowdedLongs, nil, nil, th).Score; got != 40 {
		t.Errorf("an extremely long crowd should deduct 10, got %v", got)
	}
	crowdedShorts := &LongShortResult{Sentiment: "EXTREMELY_BEARISH"}
	if got := Consolidate(nil, nil, crowdedShorts, nil, nil, th).Score; got != 60 {
		t.Errorf("an extremely short crowd should add 10, got %v", got)
	}
}

func TestConsolidateStacksSignals(t *testing.T) {
	th := DefaultThresholds()
	stats := Consolidate(
		&FundingResult{AnnualizedPct: -60},
		&OpenInterestResult{ValueUSD: 1e9},
		&LongShortResult{Sentiment: "EXTREMELY_BEARISH"},
		&TakerFlowResult{Pressure: "STRONG_BUYING"},
		nil,
		th,
	)
	// 50 + 15 + 10 + 10.
	if stats.Score != 85 {
		t.Errorf("score: got %v, want 85", stats.Score)
	}
	if stats.Signal != "STRONG_BUY" {
		t.Errorf("signal: got %s, want STRONG_BUY", stats.Signal)
	}
	if stats.OpenInterest == nil || stats.Liquidations != nil {
		t.Error("sub-results should pass through as given")
	}
}

func TestConsolidateStrongSellFloor(t *testing.T) {
	stats := Consolidate(
		&FundingResult{AnnualizedPct: 60},
		nil,
		&LongShortResult{Sentiment: "EXTREMELY_BULLISH"},
		&TakerFlowResult{Pressure: "STRONG_SELLING"},
		nil,
		DefaultThresholds(),
	)
	// 50 - 15 - 10 - 10.
	if stats.Score != 15 {
		t.Errorf("score: got %v, want 15", stats.Score)
	}
	if stats.Signal != "STRONG_SELL" {
		t.Errorf("signal: got %s, want STRONG_SELL", stats.Signal)
	}
}

func TestConsolidateSignalBoundaries(t *testing.T) {
	th := DefaultThresholds()

	// 50 - 15 + 10 lands exactly on the 45 cutoff, which reads SELL.
	atSell := Consolidate(
		&FundingResult{AnnualizedPct: 60},
		nil,
		&LongShortResult{Sentiment: "EXTREMELY_BEARISH"},
		nil,
		nil,
		th,
	)
	if atSell.Score != 45 || atSell.Signal != "SELL" {
		t.Errorf("score 45 should map to SELL, got %v/%s", atSell.Score, atSell.Signal)
	}

	// 50 - 10 - 10 lands exactly on the 30 cutoff, which reads STRONG_SELL.
	atStrongSell := Consolidate(
		nil,
		nil,
		&LongShortResult{Sentiment: "EXTREMELY_BULLISH"},
		&TakerFlowResult{Pressure: "STRONG_SELLING"},
		nil,
		th,
	)
	if atStrongSell.Score != 30 || atStrongSell.Signal != "STRONG_SELL" {
		t.Errorf("score 30 should map to STRONG_SELL, got %v/%s", atStrongSell.Score, atStrongSell.Signal)
	}
}
