package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
)

// ValuationService defines the operations exposed over HTTP.
type ValuationService interface {
	ValueHoldings(ctx context.Context, holdings []domain.Holding) (*domain.Valuation, error)
	RefreshStoredDefaults(ctx context.Context) (int, error)
	ListHoldings(ctx context.Context) ([]domain.Holding, error)
	ReplaceHoldings(ctx context.Context, holdings []domain.Holding) error
	Price(ctx context.Context, ticker, exchange string) (domain.Decimal, bool)
	Exchanges() []domain.ExchangeRecord
}

type Handler struct {
	service ValuationService
}

func NewHandler(service ValuationService) *Handler {
	return &Handler{
		service: service,
	}
}

// HoldingsRequest is the body of both the valuation and the replace calls.
type HoldingsRequest struct {
	Holdings []domain.Holding `json:"holdings"`
}

type ValuationResponse struct {
	OK           bool                     `json:"ok"`
	Holdings     []domain.ValuationResult `json:"holdings"`
	Total        domain.Decimal           `json:"total"`
	TotalDisplay string                   `json:"totalDisplay"`
}

type PriceResponse struct {
	OK     bool           `json:"ok"`
	Ticker string         `json:"ticker"`
	Price  domain.Decimal `json:"price"`
}

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// VerifyAdmin is reached only through RequireAdmin.
func (h *Handler) VerifyAdmin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) ListExchanges(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "exchanges": h.service.Exchanges()})
}

func (h *Handler) GetPrice(c *gin.Context) {
	ticker := domain.NormalizeCode(c.Param("ticker"))
	if ticker == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ticker is required"})
		return
	}
	exchange := domain.NormalizeCode(c.Query("exchange"))

	price, ok := h.service.Price(c.Request.Context(), ticker, exchange)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Price not available"})
		return
	}

	c.JSON(http.StatusOK, PriceResponse{OK: true, Ticker: ticker, Price: price})
}

func (h *Handler) CalculateHoldings(c *gin.Context) {
	var req HoldingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		LoggerFrom(c).Warn("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	valuation, err := h.service.ValueHoldings(c.Request.Context(), req.Holdings)
	if err != nil {
		h.fail(c, "Failed to value holdings", err)
		return
	}

	c.JSON(http.StatusOK, ValuationResponse{
		OK:           true,
		Holdings:     valuation.Holdings,
		Total:        valuation.Total,
		TotalDisplay: displayTotal(valuation.Total),
	})
}

func (h *Handler) ListHoldings(c *gin.Context) {
	holdings, err := h.service.ListHoldings(c.Request.Context())
	if err != nil {
		LoggerFrom(c).Error("Failed to read holdings", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to read holdings", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"holdings": holdings})
}

func (h *Handler) ReplaceHoldings(c *gin.Context) {
	var req HoldingsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Holdings == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Holdings array is required"})
		return
	}

	if err := h.service.ReplaceHoldings(c.Request.Context(), req.Holdings); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		LoggerFrom(c).Error("Failed to write holdings", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to write holdings", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) RefreshDefaults(c *gin.Context) {
	count, err := h.service.RefreshStoredDefaults(c.Request.Context())
	if err != nil {
		LoggerFrom(c).Error("Failed to update default prices", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update default prices", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "updatedCount": count})
}

// fail maps a service error to a status code.
func (h *Handler) fail(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrValidation) {
		status = http.StatusBadRequest
	}
	LoggerFrom(c).Log(c.Request.Context(), levelFor(status), msg, slog.String("error", err.Error()))
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func levelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelWarn
}
