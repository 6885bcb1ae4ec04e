package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"crypto-trading-desk/internal/domain"
	"crypto-trading-desk/internal/micro"
	"crypto-trading-desk/internal/validate"
)

// fetchBook validates the shared book input and pulls a snapshot from the
// requested venue.
func fetchBook(ctx context.Context, market MarketData, symbol, exchange string, depth int) (*domain.OrderBook, string, string, error) {
	symbol, err := validate.Symbol(symbol)
	if err != nil {
		return nil, "", "", err
	}
	exchange, err = normalizeBookVenue(exchange)
	if err != nil {
		return nil, "", "", err
	}
	book, err := market.OrderBook(ctx, exchange, symbol, depth)
	if err != nil {
		return nil, "", "", err
	}
	return book, symbol, exchange, nil
}

func registerMicroTools(server *mcp.Server, market MarketData, th micro.Thresholds) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_orderbook_depth",
		Description: "Order book depth totals, notionals, spread, and liquidity concentration",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in bookInput) (*mcp.CallToolResult, depthOutput, error) {
		book, symbol, exchange, err := fetchBook(ctx, market, in.Symbol, in.Exchange, clampLimit(in.Depth, defaultBookDepth, maxBookDepth))
		if err != nil {
			return nil, depthOutput{toolResult: failResult(err)}, nil
		}
		res, err := micro.Depth(book, th)
		if err != nil {
			return nil, depthOutput{toolResult: failResult(err)}, nil
		}
		return nil, depthOutput{toolResult: okResult(), Symbol: symbol, Exchange: exchange, DepthResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_orderbook_imbalance",
		Description: "Bid/ask volume imbalance averaged over the top 5, 10, and 20 levels",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in bookInput) (*mcp.CallToolResult, imbalanceOutput, error) {
		book, symbol, exchange, err := fetchBook(ctx, market, in.Symbol, in.Exchange, clampLimit(in.Depth, defaultBookDepth, maxBookDepth))
		if err != nil {
			return nil, imbalanceOutput{toolResult: failResult(err)}, nil
		}
		res, err := micro.Imbalance(book, th)
		if err != nil {
			return nil, imbalanceOutput{toolResult: failResult(err)}, nil
		}
		return nil, imbalanceOutput{toolResult: okResult(), Symbol: symbol, Exchange: exchange, ImbalanceResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_spread_analysis",
		Description: "Bid-ask spread quality plus book-walk slippage for a target order size",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in orderSizeInput) (*mcp.CallToolResult, spreadOutput, error) {
		sizeUSD := in.SizeUSD
		if sizeUSD <= 0 {
			sizeUSD = defaultOrderSizeUSD
		}
		book, symbol, exchange, err := fetchBook(ctx, market, in.Symbol, in.Exchange, defaultBookDepth)
		if err != nil {
			return nil, spreadOutput{toolResult: failResult(err)}, nil
		}
		res, err := micro.Spread(book, sizeUSD, th)
		if err != nil {
			return nil, spreadOutput{toolResult: failResult(err)}, nil
		}
		return nil, spreadOutput{toolResult: okResult(), Symbol: symbol, Exchange: exchange, SpreadResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "detect_spoofing",
		Description: "Flags oversized orders resting away from the mid as potential spoofing",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in bookInput) (*mcp.CallToolResult, spoofingOutput, error) {
		book, symbol, exchange, err := fetchBook(ctx, market, in.Symbol, in.Exchange, clampLimit(in.Depth, defaultBookDepth, maxBookDepth))
		if err != nil {
			return nil, spoofingOutput{toolResult: failResult(err)}, nil
		}
		res, err := micro.Spoofing(book, th)
		if err != nil {
			return nil, spoofingOutput{toolResult: failResult(err)}, nil
		}
		return nil, spoofingOutput{toolResult: okResult(), Symbol: symbol, Exchange: exchange, SpoofingResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_market_impact",
		Description: "Walks both book sides for a target notional and reports execution impact",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in orderSizeInput) (*mcp.CallToolResult, impactOutput, error) {
		sizeUSD := in.SizeUSD
		if sizeUSD <= 0 {
			sizeUSD = defaultOrderSizeUSD
		}
		book, symbol, exchange, err := fetchBook(ctx, market, in.Symbol, in.Exchange, maxBookDepth)
		if err != nil {
			return nil, impactOutput{toolResult: failResult(err)}, nil
		}
		res, err := micro.Impact(book, sizeUSD, th)
		if err != nil {
			return nil, impactOutput{toolResult: failResult(err)}, nil
		}
		return nil, impactOutput{toolResult: okResult(), Symbol: symbol, Exchange: exchange, ImpactResult: res}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_order_flow",
		Description: "Aggressor buy/sell split, large-trade count, and flow aggression from the recent tape",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tradesInput) (*mcp.CallToolResult, orderFlowOutput, error) {
		symbol, err := validate.Symbol(in.Symbol)
		if err != nil {
			return nil, orderFlowOutput{toolResult: failResult(err)}, nil
		}
		exchange, err := normalizeBookVenue(in.Exchange)
		if err != nil {
			return nil, orderFlowOutput{toolResult: failResult(err)}, nil
		}
		trades, err := market.Trades(ctx, exchange, symbol, clampLimit(in.Limit, defaultTradeLimit, maxTradeLimit))
		if err != nil {
			return nil, orderFlowOutput{toolResult: failResult(err)}, nil
		}
		res, err := micro.OrderFlow(trades, th)
		if err != nil {
			return nil, orderFlowOutput{toolResult: failResult(err)}, nil
		}
		return nil, orderFlowOutput{toolResult: okResult(), Symbol: symbol, Exchange: exchange, OrderFlowResult: res}, nil
	})
}
