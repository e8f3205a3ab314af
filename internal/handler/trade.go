package handler

import (
	"net/http"
	"time"

	"github.com/efreitasn/toymarket/internal/domain"
	"github.com/efreitasn/toymarket/internal/service"
)

// TradeHandler handles HTTP requests for trade execution.
type TradeHandler struct {
	svc *service.MarketService
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(svc *service.MarketService) *TradeHandler {
	return &TradeHandler{svc: svc}
}

// tradeRequest is the JSON request body for POST /trades. Quantity is
// checked by the market so that a non-positive value is reported as
// invalid_quantity.
type tradeRequest struct {
	UserID    *int64 `json:"user_id" validate:"required"`
	CompanyID int64  `json:"company_id" validate:"required"`
	Side      string `json:"side" validate:"required,oneof=buy sell"`
	Quantity  int64  `json:"quantity"`
}

// tradeResponse is the JSON response for a settled trade.
type tradeResponse struct {
	TradeID         string `json:"trade_id"`
	Side            string `json:"side"`
	UserID          int64  `json:"user_id"`
	CompanyID       int64  `json:"company_id"`
	Company         string `json:"company"`
	Price           int64  `json:"price"`
	Quantity        int64  `json:"quantity"`
	Total           int64  `json:"total"`
	TotalDisplay    string `json:"total_display"`
	Balance         int64  `json:"balance"`
	BalanceDisplay  string `json:"balance_display"`
	Position        int64  `json:"position"`
	NewPrice        int64  `json:"new_price"`
	AvailableStocks int64  `json:"available_stocks"`
	ExecutedAt      string `json:"executed_at"`
}

// Submit handles POST /trades.
func (h *TradeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := ParseJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	res, err := h.svc.Trade(r.Context(), domain.TradeSide(req.Side), *req.UserID, req.CompanyID, req.Quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	cur := h.svc.Currency()
	WriteJSON(w, http.StatusCreated, tradeResponse{
		TradeID:         res.TradeID,
		Side:            string(res.Side),
		UserID:          res.UserID,
		CompanyID:       res.CompanyID,
		Company:         res.Company,
		Price:           res.Price,
		Quantity:        res.Quantity,
		Total:           res.Total,
		TotalDisplay:    domain.FormatAmount(res.Total, cur),
		Balance:         res.Balance,
		BalanceDisplay:  domain.FormatAmount(res.Balance, cur),
		Position:        res.Position,
		NewPrice:        res.NewPrice,
		AvailableStocks: res.AvailableStocks,
		ExecutedAt:      res.ExecutedAt.Format(time.RFC3339Nano),
	})
}
