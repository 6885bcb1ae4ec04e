// Package micro implements order-book and trade-tape microstructure
// analysis: depth, imbalance, spread/slippage, spoofing heuristics, market
// impact, and order-flow sentiment.
package micro

import (
	"fmt"
	"math"

	"crypto-trading-desk/internal/domain"
)

// Thresholds collects the classification cutoffs for the microstructure
// calculators, passed by value like the indicator thresholds.
type Thresholds struct {
	StrongLevelRatio   float64 // multiple of the average level size
	ImbalanceExtreme   float64
	ImbalanceStrong    float64
	ImbalanceWeak      float64
	ImbalanceWeakest   float64
	SpreadTightBps     float64
	SpreadNormalBps    float64
	SpreadWideBps      float64
	SpoofSizeRatio     float64
	SpoofFloorSize     float64 // base-asset size below which a level is never suspicious
	SpoofDistancePct   float64
	SpoofHighScore     float64
	SpoofModerateScore float64
	ImpactMinimalPct   float64
	ImpactLowPct       float64
	ImpactModeratePct  float64
	ImpactHighPct      float64
	AggressionStrong   float64
	AggressionMild     float64
	LargeTradeRatio    float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		StrongLevelRatio:   2,
		ImbalanceExtreme:   2.0,
		ImbalanceStrong:    1.5,
		ImbalanceWeak:      0.66,
		ImbalanceWeakest:   0.5,
		SpreadTightBps:     5,
		SpreadNormalBps:    10,
		SpreadWideBps:      20,
		SpoofSizeRatio:     5,
		SpoofFloorSize:     5,
		SpoofDistancePct:   0.5,
		SpoofHighScore:     50,
		SpoofModerateScore: 25,
		ImpactMinimalPct:   0.1,
		ImpactLowPct:       0.5,
		ImpactModeratePct:  1.0,
		ImpactHighPct:      2.0,
		AggressionStrong:   65,
		AggressionMild:     55,
		LargeTradeRatio:    3,
	}
}

func errEmptyBook(exchange string) error {
	return &domain.DataUnavailableError{Message: fmt.Sprintf("empty order book from %s", exchange)}
}

type DepthResult struct {
	BidVolume      float64        `json:"bid_volume"`
	AskVolume      float64        `json:"ask_volume"`
	BidValueUSD    float64        `json:"bid_value_usd"`
	AskValueUSD    float64        `json:"ask_value_usd"`
	LiquidityRatio float64        `json:"liquidity_ratio"`
	SpreadAbs      float64        `json:"spread"`
	SpreadPct      float64        `json:"spread_pct"`
	Concentration  float64        `json:"top10_concentration_pct"`
	StrongBids     []domain.Level `json:"strong_bid_levels"`
	StrongAsks     []domain.Level `json:"strong_ask_levels"`
	MidPrice       float64        `json:"mid_price"`
	Interpretation string         `json:"interpretation"`
}

// Depth summarizes resting liquidity on both sides and flags levels holding
// more than StrongLevelRatio times the average size.
func Depth(book *domain.OrderBook, th Thresholds) (*DepthResult, error) {
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return nil, errEmptyBook(book.Exchange)
	}

	bidVol, bidVal := sideTotals(book.Bids)
	askVol, askVal := sideTotals(book.Asks)

	ratio := 0.0
	if askVol > 0 {
		ratio = bidVol / askVol
	}

	bestBid, bestAsk := book.BestBid(), book.BestAsk()
	spread := bestAsk - bestBid
	spreadPct := 0.0
	if bestBid > 0 {
		spreadPct = spread / bestBid * 100
	}

	total := bidVol + askVol
	top := topVolume(book.Bids, 10) + topVolume(book.Asks, 10)
	concentration := 0.0
	if total > 0 {
		concentration = top / total * 100
	}

	bias := "balanced"
	if ratio > 1.2 {
		bias = "bid-heavy"
	} else if ratio > 0 && ratio < 0.8 {
		bias = "ask-heavy"
	}

	return &DepthResult{
		BidVolume:      round(bidVol, 4),
		AskVolume:      round(askVol, 4),
		BidValueUSD:    round(bidVal, 2),
		AskValueUSD:    round(askVal, 2),
		LiquidityRatio: round(ratio, 4),
		SpreadAbs:      round(spread, 8),
		SpreadPct:      round(spreadPct, 4),
		Concentration:  round(concentration, 2),
		StrongBids:     strongLevels(book.Bids, th.StrongLevelRatio),
		StrongAsks:     strongLevels(book.Asks, th.StrongLevelRatio),
		MidPrice:       round(book.MidPrice(), 8),
		Interpretation: fmt.Sprintf("Book is %s with liquidity ratio %.2f and %.2f%% spread", bias, ratio, spreadPct),
	}, nil
}

func sideTotals(levels []domain.Level) (volume, value float64) {
	for _, lv := range levels {
		volume += lv.Size
		value += lv.Size * lv.Price
	}
	return volume, value
}

func topVolume(levels []domain.Level, n int) float64 {
	if len(levels) < n {
		n = len(levels)
	}
	var sum float64
	for _, lv := range levels[:n] {
		sum += lv.Size
	}
	return sum
}

func strongLevels(levels []domain.Level, ratio float64) []domain.Level {
	if len(levels) == 0 {
		return nil
	}
	var total float64
	for _, lv := range levels {
		total += lv.Size
	}
	avg := total / float64(len(levels))
	var out []domain.Level
	for _, lv := range levels {
		if lv.Size > ratio*avg {
			out = append(out, lv)
		}
	}
	return out
}

type ImbalanceResult struct {
	Ratios         map[string]float64 `json:"ratios_by_depth"`
	AverageRatio   float64            `json:"average_ratio"`
	Pressure       string             `json:"pressure"`
	MidPrice       float64            `json:"mid_price"`
	Interpretation string             `json:"interpretation"`
}

// Imbalance averages the bid/ask volume ratio at depths 5, 10, and 20. An
// empty ask side at a depth pins that ratio to 10.
func Imbalance(book *domain.OrderBook, th Thresholds) (*ImbalanceResult, error) {
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return nil, errEmptyBook(book.Exchange)
	}

	depths := []int{5, 10, 20}
	ratios := make(map[string]float64, len(depths))
	var sum float64
	for _, d := range depths {
		bidVol := topVolume(book.Bids, d)
		askVol := topVolume(book.Asks, d)
		ratio := 10.0
		if askVol > 0 {
			ratio = bidVol / askVol
		}
		ratios[fmt.Sprintf("depth_%d", d)] = round(ratio, 4)
		sum += ratio
	}
	avg := sum / float64(len(depths))

	pressure := "BALANCED"
	switch {
	case avg > th.ImbalanceExtreme:
		pressure = "EXTREME_BUY_PRESSURE"
	case avg > th.ImbalanceStrong:
		pressure = "STRONG_BUY_PRESSURE"
	case avg < th.ImbalanceWeakest:
		pressure = "EXTREME_SELL_PRESSURE"
	case avg < th.ImbalanceWeak:
		pressure = "STRONG_SELL_PRESSURE"
	}

	return &ImbalanceResult{
		Ratios:         ratios,
		AverageRatio:   round(avg, 4),
		Pressure:       pressure,
		MidPrice:       round(book.MidPrice(), 8),
		Interpretation: fmt.Sprintf("Average bid/ask ratio %.2f across depths: %s", avg, pressure),
	}, nil
}

type SpreadResult struct {
	SpreadAbs        float64 `json:"spread"`
	SpreadBps        float64 `json:"spread_bps"`
	LiquidityQuality string  `json:"liquidity_quality"`
	BuySlippagePct   float64 `json:"buy_slippage_pct"`
	SellSlippagePct  float64 `json:"sell_slippage_pct"`
	TotalCostPct     float64 `json:"total_cost_pct"`
	OrderSizeUSD     float64 `json:"order_size_usd"`
	MidPrice         float64 `json:"mid_price"`
	Interpretation   string  `json:"interpretation"`
}

// Spread measures the quoted spread in basis points and the round-trip
// execution cost of a given order size walked through both sides.
func Spread(book *domain.OrderBook, orderSizeUSD float64, th Thresholds) (*SpreadResult, error) {
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return nil, errEmptyBook(book.Exchange)
	}
	bestBid, bestAsk := book.BestBid(), book.BestAsk()
	spread := bestAsk - bestBid
	spreadBps := 0.0
	if bestBid > 0 {
		spreadBps = spread / bestBid * 10000
	}

	quality := "POOR"
	switch {
	case spreadBps < th.SpreadTightBps:
		quality = "EXCELLENT"
	case spreadBps < th.SpreadNormalBps:
		quality = "GOOD"
	case spreadBps < th.SpreadWideBps:
		quality = "FAIR"
	}

	buyAvg, _, buyFilled := walkSide(book.Asks, orderSizeUSD)
	sellAvg, _, sellFilled := walkSide(book.Bids, orderSizeUSD)

	buySlip := 0.0
	if buyFilled && bestAsk > 0 {
		buySlip = (buyAvg - bestAsk) / bestAsk * 100
	}
	sellSlip := 0.0
	if sellFilled && bestBid > 0 {
		sellSlip = (bestBid - sellAvg) / bestBid * 100
	}
	spreadPct := spreadBps / 100
	totalCost := spreadPct + (buySlip+sellSlip)/2

	return &SpreadResult{
		SpreadAbs:        round(spread, 8),
		SpreadBps:        round(spreadBps, 2),
		LiquidityQuality: quality,
		BuySlippagePct:   round(buySlip, 4),
		SellSlippagePct:  round(sellSlip, 4),
		TotalCostPct:     round(totalCost, 4),
		OrderSizeUSD:     orderSizeUSD,
		MidPrice:         round(book.MidPrice(), 8),
		Interpretation:   fmt.Sprintf("%.2f bps spread (%s liquidity), round-trip cost %.3f%% for $%.0f", spreadBps, quality, totalCost, orderSizeUSD),
	}, nil
}

// walkSide consumes levels until the accumulated notional reaches
// targetUSD, returning the volume-weighted average price, levels consumed,
// and whether the target was fully filled.
func walkSide(levels []domain.Level, targetUSD float64) (avgPrice float64, levelsUsed int, filled bool) {
	var spentUSD, gotVolume float64
	for _, lv := range levels {
		levelUSD := lv.Price * lv.Size
		levelsUsed++
		if spentUSD+levelUSD >= targetUSD {
			remaining := targetUSD - spentUSD
			gotVolume += remaining / lv.Price
			spentUSD = targetUSD
			filled = true
			break
		}
		spentUSD += levelUSD
		gotVolume += lv.Size
	}
	if gotVolume == 0 {
		return 0, levelsUsed, false
	}
	return spentUSD / gotVolume, levelsUsed, filled
}

type SpoofingResult struct {
	SuspiciousBids int     `json:"suspicious_bids"`
	SuspiciousAsks int     `json:"suspicious_asks"`
	Score          float64 `json:"manipulation_score"`
	Risk           string  `json:"risk"`
	MidPrice       float64 `json:"mid_price"`
	Interpretation string  `json:"interpretation"`
}

// Spoofing flags oversized resting orders placed away from the mid price.
// The score is a heuristic; it accumulates 25 points per matched condition.
func Spoofing(book *domain.OrderBook, th Thresholds) (*SpoofingResult, error) {
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return nil, errEmptyBook(book.Exchange)
	}
	mid := book.MidPrice()
	if mid == 0 {
		return nil, errEmptyBook(book.Exchange)
	}

	suspicious := func(levels []domain.Level) int {
		var total float64
		for _, lv := range levels {
			total += lv.Size
		}
		avg := total / float64(len(levels))
		// In small-size books the relative ratio alone would flag dust;
		// the absolute floor keeps only genuinely large orders in play.
		large := math.Max(th.SpoofSizeRatio*avg, th.SpoofFloorSize)
		count := 0
		for _, lv := range levels {
			distPct := math.Abs(lv.Price-mid) / mid * 100
			if lv.Size > large && distPct > th.SpoofDistancePct {
				count++
			}
		}
		return count
	}

	bids := suspicious(book.Bids)
	asks := suspicious(book.Asks)

	var score float64
	if bids > 3 {
		score += 25
	}
	if asks > 3 {
		score += 25
	}
	if (bids > 2*asks && bids > 0) || (asks > 2*bids && asks > 0) {
		score += 25
	}

	risk := "LOW"
	switch {
	case score > th.SpoofHighScore:
		risk = "HIGH"
	case score > th.SpoofModerateScore:
		risk = "MODERATE"
	}

	return &SpoofingResult{
		SuspiciousBids: bids,
		SuspiciousAsks: asks,
		Score:          score,
		Risk:           risk,
		MidPrice:       round(mid, 8),
		Interpretation: fmt.Sprintf("%d suspicious bids, %d suspicious asks, manipulation risk %s", bids, asks, risk),
	}, nil
}

type ImpactSide struct {
	AvgExecPrice          float64 `json:"avg_exec_price"`
	ImpactPct             float64 `json:"impact_pct"`
	MoveVsMidPct          float64 `json:"move_vs_mid_pct"`
	LevelsConsumed        int     `json:"levels_consumed"`
	InsufficientLiquidity bool    `json:"insufficient_liquidity"`
}

type ImpactResult struct {
	Buy            ImpactSide `json:"buy"`
	Sell           ImpactSide `json:"sell"`
	Severity       string     `json:"severity"`
	OrderSizeUSD   float64    `json:"order_size_usd"`
	MidPrice       float64    `json:"mid_price"`
	Interpretation string     `json:"interpretation"`
}

// Impact walks both sides of the book filling the target notional and
// buckets the worse side's price impact.
func Impact(book *domain.OrderBook, orderSizeUSD float64, th Thresholds) (*ImpactResult, error) {
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return nil, errEmptyBook(book.Exchange)
	}
	mid := book.MidPrice()

	side := func(levels []domain.Level, best float64, buying bool) ImpactSide {
		avg, used, filled := walkSide(levels, orderSizeUSD)
		s := ImpactSide{
			AvgExecPrice:          round(avg, 8),
			LevelsConsumed:        used,
			InsufficientLiquidity: !filled,
		}
		if avg > 0 && best > 0 {
			impact := (avg - best) / best * 100
			if !buying {
				impact = (best - avg) / best * 100
			}
			s.ImpactPct = round(impact, 4)
		}
		if avg > 0 && mid > 0 {
			move := (avg - mid) / mid * 100
			if !buying {
				move = (mid - avg) / mid * 100
			}
			s.MoveVsMidPct = round(move, 4)
		}
		return s
	}

	buy := side(book.Asks, book.BestAsk(), true)
	sell := side(book.Bids, book.BestBid(), false)

	worst := math.Max(buy.ImpactPct, sell.ImpactPct)
	severity := "VERY_HIGH"
	switch {
	case worst < th.ImpactMinimalPct:
		severity = "MINIMAL"
	case worst < th.ImpactLowPct:
		severity = "LOW"
	case worst < th.ImpactModeratePct:
		severity = "MODERATE"
	case worst < th.ImpactHighPct:
		severity = "HIGH"
	}

	return &ImpactResult{
		Buy:            buy,
		Sell:           sell,
		Severity:       severity,
		OrderSizeUSD:   orderSizeUSD,
		MidPrice:       round(mid, 8),
		Interpretation: fmt.Sprintf("$%.0f order moves price up to %.3f%%: %s impact", orderSizeUSD, worst, severity),
	}, nil
}

func round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
