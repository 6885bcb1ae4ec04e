// Package handler serves the small REST status surface next to the MCP
// transports. It carries no business logic.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"crypto-trading-desk/internal/domain"
)

type Handler struct {
	tracer        trace.Tracer
	serverName    string
	version       string
	toolCount     int
	transports    []string
	candleSources []string
	startedAt     time.Time
}

func New(tracer trace.Tracer, serverName, version string, toolCount int, transports, candleSources []string) *Handler {
	return &Handler{
		tracer:        tracer,
		serverName:    serverName,
		version:       version,
		toolCount:     toolCount,
		transports:    transports,
		candleSources: candleSources,
		startedAt:     time.Now().UTC(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/venues", h.GetVenues)
	r.GET("/api/status", h.GetStatus)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"server": h.serverName,
		"tools":  h.toolCount,
	})
}

func (h *Handler) GetVenues(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-venues")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{
		"spot":           domain.SpotVenues,
		"futures":        domain.FuturesVenues,
		"candle_sources": h.candleSources,
	})
}

func (h *Handler) GetStatus(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-status")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{
		"server":         h.serverName,
		"version":        h.version,
		"transports":     h.transports,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}
