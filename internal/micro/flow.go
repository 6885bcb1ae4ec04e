package micro

import (
	"fmt"

	"crypto-trading-desk/internal/domain"
)

type LargeTrade struct {
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
	Side   string  `json:"side"`
}

type OrderFlowResult struct {
	BuyVolume      float64      `json:"buy_volume"`
	SellVolume     float64      `json:"sell_volume"`
	BuyPct         float64      `json:"buy_pct"`
	BuySellRatio   float64      `json:"buy_sell_ratio"`
	LargeTrades    []LargeTrade `json:"large_trades"`
	Aggression     string       `json:"aggression"`
	TradeCount     int          `json:"trade_count"`
	Interpretation string       `json:"interpretation"`
}

// OrderFlow splits the trade tape by aggressor side and flags trades larger
// than LargeTradeRatio times the mean size.
func OrderFlow(trades []domain.Trade, th Thresholds) (*OrderFlowResult, error) {
	if len(trades) == 0 {
		return nil, &domain.DataUnavailableError{Message: "empty trade tape"}
	}

	var buyVol, sellVol, totalAmount float64
	for _, t := range trades {
		totalAmount += t.Amount
		if t.Side == domain.TradeBuy {
			buyVol += t.Amount
		} else {
			sellVol += t.Amount
		}
	}
	total := buyVol + sellVol
	if total == 0 {
		return nil, &domain.DataUnavailableError{Message: "zero traded volume in tape"}
	}
	buyPct := buyVol / total * 100

	ratio := 0.0
	if sellVol > 0 {
		ratio = buyVol / sellVol
	}

	meanAmount := totalAmount / float64(len(trades))
	var large []LargeTrade
	for _, t := range trades {
		if t.Amount > th.LargeTradeRatio*meanAmount {
			large = append(large, LargeTrade{Price: t.Price, Amount: t.Amount, Side: string(t.Side)})
		}
	}

	aggression := "NEUTRAL"
	switch {
	case buyPct > th.AggressionStrong:
		aggression = "STRONG_BUYING"
	case buyPct > th.AggressionMild:
		aggression = "MILD_BUYING"
	case buyPct < 100-th.AggressionStrong:
		aggression = "STRONG_SELLING"
	case buyPct < 100-th.AggressionMild:
		aggression = "MILD_SELLING"
	}

	return &OrderFlowResult{
		BuyVolume:      round(buyVol, 4),
		SellVolume:     round(sellVol, 4),
		BuyPct:         round(buyPct, 2),
		BuySellRatio:   round(ratio, 4),
		LargeTrades:    large,
		Aggression:     aggression,
		TradeCount:     len(trades),
		Interpretation: fmt.Sprintf("%.1f%% of volume was buyer-initiated across %d trades: %s", buyPct, len(trades), aggression),
	}, nil
}
