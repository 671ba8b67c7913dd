package inventory

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sentosa-erp/sentosa/internal/platform/httpx"
	"github.com/sentosa-erp/sentosa/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/manipulations", h.Manipulate)
	r.Get("/summary", h.Summary)
	r.Get("/series", h.Series)
	r.Get("/histories", h.Histories)
	r.Get("/total", h.Total)
}

type manipulateItemRequest struct {
	ProductID      int64   `json:"productId" validate:"required,gt=0"`
	Quantity       float64 `json:"quantity" validate:"required"`
	UnitQuantityID int64   `json:"unitQuantityId" validate:"required,gt=0"`
	Remark         string  `json:"remark"`
}

type manipulateRequest struct {
	Items  []manipulateItemRequest `json:"items" validate:"required,min=1,dive"`
	Remark string                  `json:"remark"`
}

func (h *Handler) Manipulate(w http.ResponseWriter, r *http.Request) {
	var req manipulateRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, r, http.StatusBadRequest, httpx.ValidationMessage(err))
		return
	}
	input := ManipulateInput{
		Remark:         req.Remark,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, ManipulateItem{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitQuantityID: item.UnitQuantityID,
			Remark:         item.Remark,
		})
	}
	histories, err := h.service.Manipulate(r.Context(), input, shared.ActorFrom(r.Context()))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, r, http.StatusCreated, "inventory manipulated", histories)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	var productID *int64
	if raw := r.URL.Query().Get("productId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Fail(w, r, http.StatusBadRequest, "invalid product ID")
			return
		}
		productID = &id
	}
	summary, err := h.service.Summary(r.Context(), productID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	message := "inventory summary retrieved"
	if len(summary) == 0 {
		message = "inventory summary is empty"
	}
	httpx.OK(w, r, http.StatusOK, message, summary)
}

func (h *Handler) Series(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.URL.Query().Get("productId"), 10, 64)
	if err != nil {
		httpx.Fail(w, r, http.StatusBadRequest, "invalid product ID")
		return
	}
	filter := SeriesFilter{
		ProductID: productID,
		Interval:  Interval(r.URL.Query().Get("interval")),
	}
	if raw := r.URL.Query().Get("unitQuantityId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Fail(w, r, http.StatusBadRequest, "invalid unit quantity ID")
			return
		}
		filter.UnitQuantityID = &id
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.Fail(w, r, http.StatusBadRequest, "invalid from date")
			return
		}
		filter.From = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.Fail(w, r, http.StatusBadRequest, "invalid to date")
			return
		}
		filter.To = t
	}
	points, err := h.service.TimeSeries(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, r, http.StatusOK, "inventory series retrieved", points)
}

func (h *Handler) Histories(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	filter := LogFilter{Page: page, Limit: limit}
	if raw := r.URL.Query().Get("productId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Fail(w, r, http.StatusBadRequest, "invalid product ID")
			return
		}
		filter.ProductID = &id
	}
	if raw := r.URL.Query().Get("unitQuantityId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Fail(w, r, http.StatusBadRequest, "invalid unit quantity ID")
			return
		}
		filter.UnitQuantityID = &id
	}
	histories, total, err := h.service.Log(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if histories == nil {
		histories = []HistoryRow{}
	}
	message := "inventory history retrieved"
	if len(histories) == 0 {
		message = "inventory history is empty"
	}
	meta := shared.NewPagination(shared.NewPageRequest(page, limit), total)
	httpx.List(w, r, message, meta, histories)
}

func (h *Handler) Total(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.URL.Query().Get("productId"), 10, 64)
	if err != nil {
		httpx.Fail(w, r, http.StatusBadRequest, "invalid product ID")
		return
	}
	unitQuantityID, err := strconv.ParseInt(r.URL.Query().Get("unitQuantityId"), 10, 64)
	if err != nil {
		httpx.Fail(w, r, http.StatusBadRequest, "invalid unit quantity ID")
		return
	}
	total, err := h.service.TotalQuantity(r.Context(), productID, unitQuantityID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, r, http.StatusOK, "total quantity retrieved", map[string]float64{"total": total})
}
