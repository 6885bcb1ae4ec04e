package futures

import (
	"fmt"
	"math"
)

type PerpetualStats struct {
	Funding        *FundingResult      `json:"funding,omitempty"`
	OpenInterest   *OpenInterestResult `json:"open_interest,omitempty"`
	LongShort      *LongShortResult    `json:"long_short,omitempty"`
	TakerFlow      *TakerFlowResult    `json:"taker_flow,omitempty"`
	Liquidations   *LiquidationResult  `json:"liquidations,omitempty"`
	Score          float64             `json:"sentiment_score"`
	Signal         string              `json:"signal"`
	Interpretation string              `json:"interpretation"`
}

// Consolidate merges the available sub-results into a 0-100 sentiment
// score starting at 50. Missing sub-results are simply omitted; the score
// only moves on the data that arrived.
func Consolidate(funding *FundingResult, oi *OpenInterestResult, ls *LongShortResult, taker *TakerFlowResult, liq *LiquidationResult, th Thresholds) *PerpetualStats {
	score := 50.0

	if funding != nil && math.Abs(funding.AnnualizedPct) > th.FundingExtremePct {
		// Heavily positive funding means crowded longs, a contrarian
		// bearish read; heavily negative the reverse.
		if funding.AnnualizedPct > 0 {
			score -= 15
		} else {
			score += 15
		}
	}

	if ls != nil {
		// Same contrarian read as funding: an extremely long crowd is a
		// crowded trade, an extremely short crowd a contrarian setup.
		switch ls.Sentiment {
		case "EXTREMELY_BULLISH":
			score -= 10
		case "EXTREMELY_BEARISH":
			score += 10
		}
	}

	if taker != nil {
		switch taker.Pressure {
		case "STRONG_BUYING":
			score += 10
		case "STRONG_SELLING":
			score -= 10
		}
	}

	signal := "STRONG_SELL"
	switch {
	case score >= 70:
		signal = "STRONG_BUY"
	case score >= 55:
		signal = "BUY"
	case score > 45:
		signal = "NEUTRAL"
	case score > 30:
		signal = "SELL"
	}

	var missing int
	for _, ok := range []bool{funding != nil, oi != nil, ls != nil, taker != nil, liq != nil} {
		if !ok {
			missing++
		}
	}
	interp := fmt.Sprintf("Derivatives sentiment score %.0f/100: %s", score, signal)
	if missing > 0 {
		interp += fmt.Sprintf(" (%d sub-metrics unavailable)", missing)
	}

	return &PerpetualStats{
		Funding:        funding,
		OpenInterest:   oi,
		LongShort:      ls,
		TakerFlow:      taker,
		Liquidations:   liq,
		Score:          score,
		Signal:         signal,
		Interpretation: interp,
	}
}
