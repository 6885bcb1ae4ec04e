// Package futures implements perpetual-futures analytics: funding rates,
// open interest, positioning ratios, liquidation ladders, and a
// consolidated sentiment score.
package futures

import (
	"fmt"
	"math"

	"crypto-trading-desk/internal/domain"
)

// Thresholds holds the futures classification cutoffs. Annualized funding
// percentages assume three funding events per day.
type Thresholds struct {
	FundingNeutralPct float64
	FundingExtremePct float64
	OIVeryHighBase    float64
	OILowBase         float64
	LSExtremeBull     float64
	LSBull            float64
	LSExtremeBear     float64
	LSBear            float64
	LSDivergence      float64
	TakerStrongBuy    float64
	TakerBuy          float64
	TakerStrongSell   float64
	TakerSell         float64
	LiquidationFeePct float64
	MinArbSpreadPct   float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		FundingNeutralPct: 5,
		FundingExtremePct: 50,
		OIVeryHighBase:    100000,
		OILowBase:         50000,
		LSExtremeBull:     2.0,
		LSBull:            1.2,
		LSExtremeBear:     0.5,
		LSBear:            0.8,
		LSDivergence:      0.3,
		TakerStrongBuy:    1.5,
		TakerBuy:          1.1,
		TakerStrongSell:   0.7,
		TakerSell:         0.9,
		LiquidationFeePct: 0.5,
		MinArbSpreadPct:   10,
	}
}

// Annualize converts a per-event funding rate to an annual percentage,
// assuming 3 funding events per day.
func Annualize(rate float64) float64 {
	return rate * 3 * 365 * 100
}

type FundingResult struct {
	Rate           float64 `json:"funding_rate"`
	AnnualizedPct  float64 `json:"annual_rate_pct"`
	Bias           string  `json:"market_bias"`
	MarkPrice      float64 `json:"mark_price"`
	NextFunding    string  `json:"next_funding_time"`
	Interpretation string  `json:"interpretation"`
}

// ClassifyFunding maps the annualized rate to a bias label. Anything above
// the neutral band is labeled extreme immediately; the separate extreme
// cutoff only participates in the consolidated score.
func ClassifyFunding(annualPct float64, th Thresholds) string {
	switch {
	case math.Abs(annualPct) < th.FundingNeutralPct:
		return "NEUTRAL"
	case annualPct > th.FundingNeutralPct:
		return "BULLISH_EXTREME"
	default:
		return "BEARISH_EXTREME"
	}
}

func Funding(fr *domain.FundingRate, th Thresholds) *FundingResult {
	annual := Annualize(fr.Rate)
	bias := ClassifyFunding(annual, th)

	next := ""
	if !fr.NextFundingTime.IsZero() {
		next = fr.NextFundingTime.UTC().Format("2006-01-02T15:04:05Z")
	}

	return &FundingResult{
		Rate:           fr.Rate,
		AnnualizedPct:  roundTo(annual, 4),
		Bias:           bias,
		MarkPrice:      fr.MarkPrice,
		NextFunding:    next,
		Interpretation: fmt.Sprintf("Funding %.6f%% per event (%.2f%% annualized): %s", fr.Rate*100, annual, bias),
	}
}

type FundingHistoryResult struct {
	Rates          []float64 `json:"rates"`
	MeanRate       float64   `json:"mean_rate"`
	MeanAnnualPct  float64   `json:"mean_annual_pct"`
	Trend          string    `json:"trend"`
	Count          int       `json:"count"`
	Interpretation string    `json:"interpretation"`
}

// FundingHistory summarizes recent rates. With 16 or more samples the trend
// compares the last eight against the first eight.
func FundingHistory(rates []float64) (*FundingHistoryResult, error) {
	if len(rates) == 0 {
		return nil, &domain.DataUnavailableError{Message: "no funding history returned"}
	}
	m := mean(rates)

	trend := "STABLE"
	if len(rates) >= 16 {
		older := mean(rates[:8])
		recent := mean(rates[len(rates)-8:])
		if recent > older {
			trend = "RISING"
		} else if recent < older {
			trend = "FALLING"
		}
	}

	return &FundingHistoryResult{
		Rates:          rates,
		MeanRate:       m,
		MeanAnnualPct:  roundTo(Annualize(m), 4),
		Trend:          trend,
		Count:          len(rates),
		Interpretation: fmt.Sprintf("Mean funding %.6f%% over %d events, trend %s", m*100, len(rates), trend),
	}, nil
}

type FundingTrendResult struct {
	RecentMean     float64 `json:"recent_mean"`
	OlderMean      float64 `json:"older_mean"`
	ChangePct      float64 `json:"change_pct"`
	Trend          string  `json:"trend"`
	Volatility     string  `json:"volatility"`
	Interpretation string  `json:"interpretation"`
}

// FundingTrend compares the most recent four funding events against the
// four before them and classifies rate volatility from the sample stdev.
func FundingTrend(rates []float64) (*FundingTrendResult, error) {
	if len(rates) < 8 {
		return nil, &domain.DataUnavailableError{Message: fmt.Sprintf("funding trend requires at least 8 events, got %d", len(rates))}
	}
	recent := mean(rates[len(rates)-4:])
	older := mean(rates[len(rates)-8 : len(rates)-4])

	changePct := 0.0
	if older != 0 {
		changePct = (recent - older) / math.Abs(older) * 100
	}
	trend := "STABLE"
	switch {
	case changePct > 50:
		trend = "RISING_FAST"
	case changePct > 10:
		trend = "RISING"
	case changePct < -50:
		trend = "FALLING_FAST"
	case changePct < -10:
		trend = "FALLING"
	}

	_, std := meanStd(rates)
	volatility := "LOW"
	switch {
	case std > 0.0005:
		volatility = "HIGH"
	case std > 0.0002:
		volatility = "MODERATE"
	}

	return &FundingTrendResult{
		RecentMean:     recent,
		OlderMean:      older,
		ChangePct:      roundTo(changePct, 2),
		Trend:          trend,
		Volatility:     volatility,
		Interpretation: fmt.Sprintf("Funding trend %s (%.1f%% change), volatility %s", trend, changePct, volatility),
	}, nil
}

type VenueFunding struct {
	Venue         string  `json:"venue"`
	Rate          float64 `json:"rate"`
	AnnualizedPct float64 `json:"annual_pct"`
}

type FundingComparison struct {
	Venues          []VenueFunding `json:"venues"`
	SpreadAnnualPct float64        `json:"spread_annual_pct"`
	Opportunity     bool           `json:"arbitrage_opportunity"`
	LongVenue       string         `json:"long_venue"`
	ShortVenue      string         `json:"short_venue"`
	Interpretation  string         `json:"interpretation"`
}

// CompareFunding ranks venue funding rates and flags an arbitrage when the
// annualized spread exceeds minSpreadPct: long where funding is lowest,
// short where it is highest.
func CompareFunding(rates map[string]float64, minSpreadPct float64) (*FundingComparison, error) {
	if len(rates) < 2 {
		return nil, &domain.DataUnavailableError{Message: "funding comparison needs at least 2 venues"}
	}

	var venues []VenueFunding
	lowVenue, highVenue := "", ""
	low, high := math.Inf(1), math.Inf(-1)
	for venue, rate := range rates {
		annual := Annualize(rate)
		venues = append(venues, VenueFunding{Venue: venue, Rate: rate, AnnualizedPct: roundTo(annual, 4)})
		if annual < low {
			low, lowVenue = annual, venue
		}
		if annual > high {
			high, highVenue = annual, venue
		}
	}
	spread := high - low
	opportunity := spread > minSpreadPct

	interp := fmt.Sprintf("Annualized funding spread %.2f%% across %d venues", spread, len(venues))
	if opportunity {
		interp = fmt.Sprintf("%s: long %s, short %s", interp, lowVenue, highVenue)
	}

	return &FundingComparison{
		Venues:          venues,
		SpreadAnnualPct: roundTo(spread, 4),
		Opportunity:     opportunity,
		LongVenue:       lowVenue,
		ShortVenue:      highVenue,
		Interpretation:  interp,
	}, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanStd(values []float64) (m, std float64) {
	m = mean(values)
	if len(values) < 2 {
		return m, 0
	}
	for _, v := range values {
		d := v - m
		std += d * d
	}
	return m, math.Sqrt(std / float64(len(values)))
}

func roundTo(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
