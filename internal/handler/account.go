package handler

import (
	"net/http"
	"strconv"

	"github.com/efreitasn/toymarket/internal/domain"
	"github.com/efreitasn/toymarket/internal/service"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	svc *service.MarketService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc *service.MarketService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// freezeRequest is the JSON request body for PUT /accounts/{user_id}/freeze.
type freezeRequest struct {
	Frozen *bool `json:"frozen" validate:"required"`
}

// openAccountRequest is the optional JSON body for PUT /accounts/{user_id}.
type openAccountRequest struct {
	OpeningBalance *int64 `json:"opening_balance" validate:"omitempty,gte=0"`
}

// accountResponse is the JSON representation of an account.
type accountResponse struct {
	UserID         int64  `json:"user_id"`
	Balance        int64  `json:"balance"`
	BalanceDisplay string `json:"balance_display"`
	Frozen         bool   `json:"frozen"`
}

// balanceResponse is the JSON response for GET /accounts/{user_id}/balance.
type balanceResponse struct {
	UserID         int64  `json:"user_id"`
	Balance        int64  `json:"balance"`
	BalanceDisplay string `json:"balance_display"`
}

type positionResponse struct {
	CompanyID    int64  `json:"company_id"`
	Company      string `json:"company"`
	Amount       int64  `json:"amount"`
	Price        int64  `json:"price"`
	Value        int64  `json:"value"`
	ValueDisplay string `json:"value_display"`
}

// positionsResponse is the JSON response for GET /accounts/{user_id}/positions.
type positionsResponse struct {
	UserID    int64              `json:"user_id"`
	Positions []positionResponse `json:"positions"`
}

type rankingEntry struct {
	Rank           int    `json:"rank"`
	UserID         int64  `json:"user_id"`
	Balance        int64  `json:"balance"`
	BalanceDisplay string `json:"balance_display"`
}

// rankingResponse is the JSON response for GET /rankings.
type rankingResponse struct {
	Rankings []rankingEntry `json:"rankings"`
}

func (h *AccountHandler) toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		UserID:         a.UserID,
		Balance:        a.Balance,
		BalanceDisplay: domain.FormatAmount(a.Balance, h.svc.Currency()),
		Frozen:         a.Frozen,
	}
}

// Open handles PUT /accounts/{user_id}. It is idempotent. Without a body
// the configured opening balance is used.
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt64(r, "user_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req openAccountRequest
	if r.ContentLength != 0 {
		if err := ParseJSON(r, &req); err != nil {
			writeServiceError(w, err)
			return
		}
	}

	var a *domain.Account
	if req.OpeningBalance != nil {
		a, err = h.svc.OpenAccountWithBalance(r.Context(), userID, *req.OpeningBalance)
	} else {
		a, err = h.svc.OpenAccount(r.Context(), userID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.toAccountResponse(a))
}

// Balance handles GET /accounts/{user_id}/balance.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt64(r, "user_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	balance, err := h.svc.Balance(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, balanceResponse{
		UserID:         userID,
		Balance:        balance,
		BalanceDisplay: domain.FormatAmount(balance, h.svc.Currency()),
	})
}

// Freeze handles PUT /accounts/{user_id}/freeze.
func (h *AccountHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt64(r, "user_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req freezeRequest
	if err := ParseJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	a, err := h.svc.Freeze(r.Context(), userID, *req.Frozen)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.toAccountResponse(a))
}

// Positions handles GET /accounts/{user_id}/positions.
func (h *AccountHandler) Positions(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt64(r, "user_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	owned, err := h.svc.OwnedPositions(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := positionsResponse{UserID: userID, Positions: make([]positionResponse, 0, len(owned))}
	for _, p := range owned {
		resp.Positions = append(resp.Positions, positionResponse{
			CompanyID:    p.CompanyID,
			Company:      p.Company,
			Amount:       p.Amount,
			Price:        p.Price,
			Value:        p.Value,
			ValueDisplay: domain.FormatAmount(p.Value, h.svc.Currency()),
		})
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Ranking handles GET /rankings?limit=N.
func (h *AccountHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	accounts, err := h.svc.Ranking(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := rankingResponse{Rankings: make([]rankingEntry, 0, len(accounts))}
	for i, a := range accounts {
		resp.Rankings = append(resp.Rankings, rankingEntry{
			Rank:           i + 1,
			UserID:         a.UserID,
			Balance:        a.Balance,
			BalanceDisplay: domain.FormatAmount(a.Balance, h.svc.Currency()),
		})
	}
	WriteJSON(w, http.StatusOK, resp)
}
