package ta

// Thresholds collects every classification cutoff used by the calculators.
// A single value is constructed at startup and passed by value, so tests can
// run against deterministic defaults without touching package state.
type Thresholds struct {
	RSI        RSIThresholds
	Stochastic BandThresholds
	WilliamsR  BandThresholds
	CCI        BandThresholds
	MFI        BandThresholds
	ADX        ADXThresholds
	Bollinger  BollingerThresholds
	Volume     VolumeThresholds
	Volatility VolatilityThresholds
	Reversal   ReversalThresholds
	Signals    SignalThresholds
}

type RSIThresholds struct {
	Overbought float64
	Oversold   float64
	Bullish    float64
}

// BandThresholds is a plain overbought/oversold pair shared by the
// oscillators that only need two cutoffs.
type BandThresholds struct {
	Overbought float64
	Oversold   float64
}

type ADXThresholds struct {
	VeryStrong float64
	Strong     float64
	Weak       float64
}

type BollingerThresholds struct {
	SqueezeWidthPct float64
}

type VolumeThresholds struct {
	SpikeRatio      float64
	LargeTradeRatio float64
}

type VolatilityThresholds struct {
	Extreme  float64
	High     float64
	Moderate float64
	Low      float64
}

type ReversalThresholds struct {
	High   float64
	Medium float64
	Low    float64
}

type SignalThresholds struct {
	StrongBuy     float64
	Buy           float64
	Sell          float64
	StrongSell    float64
	StopLossPct   float64
	TakeProfitPct float64
	PositionPct   float64
}

// DefaultThresholds returns the standard textbook cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RSI:        RSIThresholds{Overbought: 70, Oversold: 30, Bullish: 50},
		Stochastic: BandThresholds{Overbought: 80, Oversold: 20},
		WilliamsR:  BandThresholds{Overbought: -20, Oversold: -80},
		CCI:        BandThresholds{Overbought: 100, Oversold: -100},
		MFI:        BandThresholds{Overbought: 80, Oversold: 20},
		ADX:        ADXThresholds{VeryStrong: 50, Strong: 25, Weak: 20},
		Bollinger:  BollingerThresholds{SqueezeWidthPct: 5},
		Volume:     VolumeThresholds{SpikeRatio: 1.5, LargeTradeRatio: 3},
		Volatility: VolatilityThresholds{Extreme: 100, High: 60, Moderate: 30, Low: 15},
		Reversal:   ReversalThresholds{High: 50, Medium: 30, Low: 15},
		Signals: SignalThresholds{
			StrongBuy:     5,
			Buy:           2,
			Sell:          -2,
			StrongSell:    -5,
			StopLossPct:   5,
			TakeProfitPct: 10,
			PositionPct:   2,
		},
	}
}
