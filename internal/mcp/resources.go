package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"crypto-trading-desk/internal/domain"
)

func registerResources(server *mcp.Server, market MarketData, th Thresholds) {
	server.AddResource(&mcp.Resource{
		URI:         "desk://venues",
		Name:        "venues",
		Description: "Spot and futures venues the desk can reach",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_ = ctx
		return jsonResource(req.Params.URI, map[string]any{
			"spot":    domain.SpotVenues,
			"futures": domain.FuturesVenues,
		})
	})

	server.AddResource(&mcp.Resource{
		URI:         "desk://timeframes",
		Name:        "timeframes",
		Description: "Candle timeframes accepted by every series tool",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_ = ctx
		return jsonResource(req.Params.URI, domain.SupportedIntervals)
	})

	server.AddResource(&mcp.Resource{
		URI:         "desk://thresholds",
		Name:        "thresholds",
		Description: "Classification thresholds used by the indicator, book, and futures calculators",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_ = ctx
		return jsonResource(req.Params.URI, map[string]any{
			"indicators": th.TA,
			"orderbook":  th.Micro,
			"futures":    th.Futures,
		})
	})

	server.AddResource(&mcp.Resource{
		URI:         "desk://health",
		Name:        "health",
		Description: "Server identity and the candle sources currently wired",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_ = ctx
		payload := map[string]any{
			"status":  "ok",
			"server":  ServerName,
			"version": ServerVersion,
		}
		if market != nil {
			payload["candle_sources"] = market.Sources()
		}
		return jsonResource(req.Params.URI, payload)
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
