package domain

import "time"

// Candle is one OHLCV bar. Series are ordered oldest first.
type Candle struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// SupportedIntervals is the candle granularity enum accepted everywhere.
var SupportedIntervals = []string{
	"1m", "3m", "5m", "15m", "30m",
	"1h", "2h", "4h", "6h", "8h", "12h",
	"1d", "3d", "1w", "1M",
}

// SpotVenues are venues served for spot market data (candles, books,
// trades). Aggregator candle sources are reported separately.
var SpotVenues = []string{"binance", "bybit"}

// FuturesVenues are venues served for perpetual futures data.
var FuturesVenues = []string{"binance", "bybit", "okx"}

// MaxSeriesLength caps how many candles a single call may request.
const MaxSeriesLength = 500

type Level struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook holds a depth snapshot: bids descending, asks ascending by price.
type OrderBook struct {
	Exchange  string    `json:"exchange"`
	Symbol    string    `json:"symbol"`
	Bids      []Level   `json:"bids"`
	Asks      []Level   `json:"asks"`
	FetchedAt time.Time `json:"fetched_at"`
}

func (b *OrderBook) BestBid() float64 {
	if len(b.Bids) == 0 {
		return 0
	}
	return b.Bids[0].Price
}

func (b *OrderBook) BestAsk() float64 {
	if len(b.Asks) == 0 {
		return 0
	}
	return b.Asks[0].Price
}

func (b *OrderBook) MidPrice() float64 {
	bid, ask := b.BestBid(), b.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return (bid + ask) / 2
}

type TradeSide string

const (
	TradeBuy  TradeSide = "buy"
	TradeSell TradeSide = "sell"
)

type Trade struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Price  float64   `json:"price"`
	Amount float64   `json:"amount"`
	Side   TradeSide `json:"side"`
}

// GlobalStats is the aggregator-wide market snapshot.
type GlobalStats struct {
	TotalMarketCapUSD      float64 `json:"total_market_cap_usd"`
	TotalVolume24hUSD      float64 `json:"total_volume_24h_usd"`
	MarketCapChange24hPct  float64 `json:"market_cap_change_24h_pct"`
	BTCDominancePct        float64 `json:"btc_dominance_pct"`
	ETHDominancePct        float64 `json:"eth_dominance_pct"`
	ActiveCryptocurrencies int     `json:"active_cryptocurrencies"`
	Markets                int     `json:"markets"`
}

// CoinDetails is the aggregator's per-coin metadata card.
type CoinDetails struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	MarketCapRank int     `json:"market_cap_rank"`
	PriceUSD      float64 `json:"price_usd"`
	MarketCapUSD  float64 `json:"market_cap_usd"`
	Volume24hUSD  float64 `json:"volume_24h_usd"`
	Change24hPct  float64 `json:"change_24h_pct"`
}

// FearGreedPoint is one daily reading of the market sentiment index.
type FearGreedPoint struct {
	Value          int       `json:"value"`
	Classification string    `json:"classification"`
	Time           time.Time `json:"time"`
}

type Ticker struct {
	Exchange  string  `json:"exchange"`
	Symbol    string  `json:"symbol"`
	Last      float64 `json:"last"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	High24h   float64 `json:"high_24h"`
	Low24h    float64 `json:"low_24h"`
	Volume24h float64 `json:"volume_24h"`
	Change24h float64 `json:"change_24h"`
}

type FundingRate struct {
	Exchange        string    `json:"exchange"`
	Symbol          string    `json:"symbol"`
	Rate            float64   `json:"rate"`
	MarkPrice       float64   `json:"mark_price"`
	NextFundingTime time.Time `json:"next_funding_time"`
	Time            time.Time `json:"time"`
}

type OpenInterest struct {
	Exchange  string    `json:"exchange"`
	Symbol    string    `json:"symbol"`
	Contracts float64   `json:"contracts"`
	ValueUSD  float64   `json:"value_usd"`
	Time      time.Time `json:"time"`
}

// LongShortRatio carries the top-trader and global account ratios for one symbol.
type LongShortRatio struct {
	Symbol    string    `json:"symbol"`
	TopTrader float64   `json:"top_trader"`
	Global    float64   `json:"global"`
	Time      time.Time `json:"time"`
}

type TakerRatio struct {
	Symbol     string    `json:"symbol"`
	BuySellVol float64   `json:"buy_sell_ratio"`
	BuyVolume  float64   `json:"buy_volume"`
	SellVolume float64   `json:"sell_volume"`
	Time       time.Time `json:"time"`
}
