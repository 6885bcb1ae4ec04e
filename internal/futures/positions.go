package futures

import (
	"fmt"

	"crypto-trading-desk/internal/domain"
)

type OpenInterestResult struct {
	ValueUSD       float64 `json:"open_interest_usd"`
	BaseEquivalent float64 `json:"base_equivalent"`
	Participation  string  `json:"participation"`
	Price          float64 `json:"price"`
	Interpretation string  `json:"interpretation"`
}

// OpenInterest expresses open interest in base-asset terms and buckets
// participation by the base-equivalent size.
func OpenInterest(oi *domain.OpenInterest, price float64, th Thresholds) (*OpenInterestResult, error) {
	if price <= 0 {
		return nil, &domain.DataUnavailableError{Message: "no price available to convert open interest"}
	}
	base := oi.ValueUSD / price

	participation := "MODERATE"
	switch {
	case base > th.OIVeryHighBase:
		participation = "VERY_HIGH"
	case base < th.OILowBase:
		participation = "LOW"
	}

	return &OpenInterestResult{
		ValueUSD:       roundTo(oi.ValueUSD, 2),
		BaseEquivalent: roundTo(base, 2),
		Participation:  participation,
		Price:          price,
		Interpretation: fmt.Sprintf("Open interest of %.0f base units indicates %s participation", base, participation),
	}, nil
}

type LongShortResult struct {
	TopTrader      float64 `json:"top_trader_ratio"`
	Global         float64 `json:"global_ratio"`
	Sentiment      string  `json:"sentiment"`
	Divergence     bool    `json:"smart_money_divergence"`
	Interpretation string  `json:"interpretation"`
}

// LongShort classifies the top-trader long/short ratio and flags a
// divergence when it disagrees with the global crowd by more than the
// configured gap.
func LongShort(ratio *domain.LongShortRatio, th Thresholds) *LongShortResult {
	sentiment := classifyRatio(ratio.TopTrader, th.LSExtremeBull, th.LSBull, th.LSExtremeBear, th.LSBear,
		"EXTREMELY_BULLISH", "BULLISH", "EXTREMELY_BEARISH", "BEARISH")

	divergence := abs(ratio.TopTrader-ratio.Global) > th.LSDivergence

	interp := fmt.Sprintf("Top traders at %.2f long/short: %s", ratio.TopTrader, sentiment)
	if divergence {
		interp += fmt.Sprintf(" (diverging from global ratio %.2f)", ratio.Global)
	}

	return &LongShortResult{
		TopTrader:      ratio.TopTrader,
		Global:         ratio.Global,
		Sentiment:      sentiment,
		Divergence:     divergence,
		Interpretation: interp,
	}
}

type TakerFlowResult struct {
	BuySellRatio   float64 `json:"buy_sell_ratio"`
	BuyVolume      float64 `json:"buy_volume"`
	SellVolume     float64 `json:"sell_volume"`
	Pressure       string  `json:"pressure"`
	Interpretation string  `json:"interpretation"`
}

// TakerFlow classifies aggressive taker volume pressure.
func TakerFlow(tr *domain.TakerRatio, th Thresholds) *TakerFlowResult {
	pressure := classifyRatio(tr.BuySellVol, th.TakerStrongBuy, th.TakerBuy, th.TakerStrongSell, th.TakerSell,
		"STRONG_BUYING", "BUYING", "STRONG_SELLING", "SELLING")

	return &TakerFlowResult{
		BuySellRatio:   tr.BuySellVol,
		BuyVolume:      tr.BuyVolume,
		SellVolume:     tr.SellVolume,
		Pressure:       pressure,
		Interpretation: fmt.Sprintf("Taker buy/sell ratio %.2f: %s", tr.BuySellVol, pressure),
	}
}

func classifyRatio(v, extremeHigh, high, extremeLow, low float64, labels ...string) string {
	switch {
	case v > extremeHigh:
		return labels[0]
	case v > high:
		return labels[1]
	case v < extremeLow:
		return labels[2]
	case v < low:
		return labels[3]
	}
	return "NEUTRAL"
}

type LiquidationLevel struct {
	Leverage int     `json:"leverage"`
	Long     float64 `json:"long_liquidation"`
	Short    float64 `json:"short_liquidation"`
}

type LiquidationResult struct {
	Price          float64            `json:"price"`
	Levels         []LiquidationLevel `json:"levels"`
	Interpretation string             `json:"interpretation"`
}

// LiquidationLevels estimates liquidation prices across the standard
// leverage ladder with a fixed maintenance fee.
func LiquidationLevels(price float64, th Thresholds) (*LiquidationResult, error) {
	if price <= 0 {
		return nil, &domain.DataUnavailableError{Message: "no price available for liquidation estimate"}
	}
	fee := th.LiquidationFeePct / 100
	ladder := []int{5, 10, 20, 50, 100}

	levels := make([]LiquidationLevel, 0, len(ladder))
	for _, lev := range ladder {
		inv := 1 / float64(lev)
		levels = append(levels, LiquidationLevel{
			Leverage: lev,
			Long:     roundTo(price*(1-inv-fee), 6),
			Short:    roundTo(price*(1+inv+fee), 6),
		})
	}

	return &LiquidationResult{
		Price:          price,
		Levels:         levels,
		Interpretation: fmt.Sprintf("Estimated liquidation prices from %dx to %dx around %.6g", ladder[0], ladder[len(ladder)-1], price),
	}, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
