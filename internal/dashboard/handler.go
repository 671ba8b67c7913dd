package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sentosa-erp/sentosa/internal/platform/httpx"
	"github.com/sentosa-erp/sentosa/internal/transaction"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/finance", h.Finance)
	r.Get("/payments", h.Payments)
	r.Get("/payments/series", h.PaymentSeries)
	r.Get("/transactions/series", h.TransactionSeries)
}

func (h *Handler) Finance(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	summary, err := h.service.FinanceSummary(r.Context(), rng)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, r, http.StatusOK, "finance summary retrieved", summary)
}

func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	summary, err := h.service.PaymentSummary(r.Context(), rng)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	message := "payment summary retrieved"
	if len(summary.Customers) == 0 {
		message = "payment summary is empty"
	}
	httpx.OK(w, r, http.StatusOK, message, summary)
}

func (h *Handler) PaymentSeries(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	points, err := h.service.PaymentTimeSeries(r.Context(), rng, transaction.Interval(r.URL.Query().Get("interval")))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, r, http.StatusOK, "payment series retrieved", points)
}

func (h *Handler) TransactionSeries(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	points, err := h.service.TransactionTimeSeries(r.Context(), rng, transaction.Interval(r.URL.Query().Get("interval")))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, r, http.StatusOK, "transaction series retrieved", points)
}

func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request) (Range, bool) {
	var rng Range
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.Fail(w, r, http.StatusBadRequest, "invalid from date")
			return rng, false
		}
		rng.From = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.Fail(w, r, http.StatusBadRequest, "invalid to date")
			return rng, false
		}
		rng.To = t
	}
	return rng, true
}
