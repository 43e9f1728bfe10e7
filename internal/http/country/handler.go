package country

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spendflow/spendflow/internal/country"
)

// Handler serves the country/currency lists used by the signup form, so its
// routes are public.
type Handler struct {
	svc *country.Service
}

func NewHandler(svc *country.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.full)
	r.Get("/top", h.top)
}

type countryResponse struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

func (h *Handler) full(w http.ResponseWriter, r *http.Request) {
	writeCountries(w, h.svc.Full(r.Context()))
}

func (h *Handler) top(w http.ResponseWriter, r *http.Request) {
	writeCountries(w, country.Top())
}

func writeCountries(w http.ResponseWriter, countries []country.Country) {
	resp := make([]countryResponse, len(countries))
	for i, c := range countries {
		resp[i] = countryResponse{Name: c.Name, Currency: c.Currency}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
