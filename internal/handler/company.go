package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/toymarket/internal/domain"
	"github.com/efreitasn/toymarket/internal/service"
)

// CompanyHandler handles HTTP requests for company endpoints.
type CompanyHandler struct {
	svc *service.MarketService
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(svc *service.MarketService) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

// createCompanyRequest is the JSON request body for POST /companies.
type createCompanyRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	Price       int64  `json:"price" validate:"gte=1"`
	TotalStocks int64  `json:"total_stocks" validate:"gt=0"`
}

// eventRequest is the JSON request body for POST /companies/{ref}/events.
// Change is a fraction: 0.1 raises the price by 10%.
type eventRequest struct {
	Change *float64 `json:"change" validate:"required,gt=-1"`
}

// companyResponse is the JSON representation of a company.
type companyResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Price           int64  `json:"price"`
	PriceDisplay    string `json:"price_display"`
	TotalStocks     int64  `json:"total_stocks"`
	AvailableStocks int64  `json:"available_stocks"`
}

type companyListResponse struct {
	Companies []companyResponse `json:"companies"`
}

func toCompanyResponse(c *domain.Company, currency string) companyResponse {
	return companyResponse{
		ID:              c.ID,
		Name:            c.Name,
		Price:           c.Price,
		PriceDisplay:    domain.FormatAmount(c.Price, currency),
		TotalStocks:     c.TotalStocks,
		AvailableStocks: c.AvailableStocks,
	}
}

// List handles GET /companies.
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	companies, err := h.svc.ListCompanies(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := companyListResponse{Companies: make([]companyResponse, 0, len(companies))}
	for i := range companies {
		resp.Companies = append(resp.Companies, toCompanyResponse(&companies[i], h.svc.Currency()))
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Create handles POST /companies.
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if err := ParseJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	c, err := h.svc.CreateCompany(r.Context(), req.Name, req.Price, req.TotalStocks)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toCompanyResponse(c, h.svc.Currency()))
}

// Get handles GET /companies/{ref}. ref is a company id or name.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetCompany(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toCompanyResponse(c, h.svc.Currency()))
}

// ApplyEvent handles POST /companies/{ref}/events.
func (h *CompanyHandler) ApplyEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := ParseJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	c, err := h.svc.ApplyEvent(r.Context(), chi.URLParam(r, "ref"), *req.Change)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toCompanyResponse(c, h.svc.Currency()))
}
