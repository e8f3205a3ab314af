package handler

import (
	"net/http"
	"time"

	"github.com/efreitasn/toymarket/internal/service"
)

// HistoryHandler handles HTTP requests for price history.
type HistoryHandler struct {
	svc *service.MarketService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(svc *service.MarketService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

type historyEntryResponse struct {
	Timestamp int64  `json:"ts"`
	Time      string `json:"time"`
	CompanyID int64  `json:"company_id"`
	Company   string `json:"company"`
	Price     int64  `json:"price"`
}

// historyResponse is the JSON response for GET /history.
type historyResponse struct {
	Entries []historyEntryResponse `json:"entries"`
}

type averageEntryResponse struct {
	Timestamp      int64   `json:"ts"`
	Time           string  `json:"time"`
	MeanPrice      string  `json:"mean_price"`
	MeanPriceFloat float64 `json:"mean_price_float"`
	Samples        int     `json:"samples"`
}

// averageResponse is the JSON response for GET /history/average.
type averageResponse struct {
	Averages []averageEntryResponse `json:"averages"`
}

type snapshotResponse struct {
	Entries int `json:"entries"`
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}

// List handles GET /history?company=NAME.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.History(r.Context(), r.URL.Query().Get("company"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := historyResponse{Entries: make([]historyEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, historyEntryResponse{
			Timestamp: e.Timestamp,
			Time:      formatMillis(e.Timestamp),
			CompanyID: e.CompanyID,
			Company:   e.CompanyName,
			Price:     e.Price,
		})
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Average handles GET /history/average.
func (h *HistoryHandler) Average(w http.ResponseWriter, r *http.Request) {
	avgs, err := h.svc.AverageHistory(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := averageResponse{Averages: make([]averageEntryResponse, 0, len(avgs))}
	for _, a := range avgs {
		resp.Averages = append(resp.Averages, averageEntryResponse{
			Timestamp:      a.Timestamp,
			Time:           formatMillis(a.Timestamp),
			MeanPrice:      a.MeanPrice.String(),
			MeanPriceFloat: a.MeanPrice.InexactFloat64(),
			Samples:        a.Samples,
		})
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Snapshot handles POST /history/snapshots.
func (h *HistoryHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, snapshotResponse{Entries: n})
}
