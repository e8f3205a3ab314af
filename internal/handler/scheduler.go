package handler

import (
	"net/http"

	"github.com/efreitasn/toymarket/internal/service"
)

// SchedulerHandler starts and stops the background market activity.
type SchedulerHandler struct {
	svc *service.MarketService
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(svc *service.MarketService) *SchedulerHandler {
	return &SchedulerHandler{svc: svc}
}

type schedulerResponse struct {
	Running bool `json:"running"`
}

// Status handles GET /scheduler.
func (h *SchedulerHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, schedulerResponse{Running: h.svc.SchedulerRunning()})
}

// Start handles POST /scheduler/start.
func (h *SchedulerHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.StartScheduler(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, schedulerResponse{Running: true})
}

// Stop handles POST /scheduler/stop.
func (h *SchedulerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.svc.StopScheduler()
	WriteJSON(w, http.StatusOK, schedulerResponse{Running: false})
}
