package transaction

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
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/summary", h.Summary)
	r.Get("/summary/products", h.ProductSummary)
	r.Get("/series", h.Series)
	r.Get("/export", h.ExportCSV)
	r.Get("/{id}", h.Get)
}

type itemRequest struct {
	ProductID      int64   `json:"productId" validate:"required,gt=0"`
	Quantity       float64 `json:"quantity" validate:"required,gt=0"`
	UnitQuantityID int64   `json:"unitQuantityId" validate:"required,gt=0"`
	PricePerUnit   float64 `json:"pricePerUnit" validate:"gte=0"`
	Remark         string  `json:"remark"`
}

type discountRequest struct {
	Type       string   `json:"type" validate:"required"`
	Percentage *float64 `json:"percentage"`
	Amount     *float64 `json:"amount"`
	ItemIndex  *int     `json:"itemIndex"`
}

type createRequest struct {
	Type       string            `json:"type" validate:"required,oneof=SELL BUY"`
	CustomerID *int64            `json:"customerId"`
	Items      []itemRequest     `json:"items" validate:"required,min=1,dive"`
	Discounts  []discountRequest `json:"discounts" validate:"dive"`
	TaxIDs     []int64           `json:"taxIds"`
	Remark     string            `json:"remark"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, r, http.StatusBadRequest, httpx.ValidationMessage(err))
		return
	}
	input := CreateInput{
		Type:           Type(req.Type),
		CustomerID:     req.CustomerID,
		TaxIDs:         req.TaxIDs,
		Remark:         req.Remark,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, ItemInput{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitQuantityID: item.UnitQuantityID,
			PricePerUnit:   item.PricePerUnit,
			Remark:         item.Remark,
		})
	}
	for _, d := range req.Discounts {
		input.Discounts = append(input.Discounts, DiscountInput{
			Type:       DiscountType(d.Type),
			Percentage: d.Percentage,
			Amount:     d.Amount,
			ItemIndex:  d.ItemIndex,
		})
	}
	detail, err := h.service.Create(r.Context(), input, shared.ActorFrom(r.Context()))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, r, http.StatusCreated, "transaction created", detail)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, r, http.StatusBadRequest, "invalid transaction ID")
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, r, http.StatusOK, "transaction retrieved", detail)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	filter := ListFilter{Page: page, Limit: limit}
	if raw := r.URL.Query().Get("type"); raw != "" {
		t := Type(raw)
		filter.Type = &t
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := Status(raw)
		filter.Status = &s
	}
	if raw := r.URL.Query().Get("customerId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Fail(w, r, http.StatusBadRequest, "invalid customer ID")
			return
		}
		filter.CustomerID = &id
	}
	var ok bool
	if filter.From, filter.To, ok = h.parseRange(w, r); !ok {
		return
	}
	details, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if details == nil {
		details = []Detail{}
	}
	message := "transaction list retrieved"
	if len(details) == 0 {
		message = "transaction list is empty"
	}
	meta := shared.NewPagination(shared.NewPageRequest(page, limit), total)
	httpx.List(w, r, message, meta, details)
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Page: 1, Limit: shared.MaxPageLimit}
	if raw := r.URL.Query().Get("type"); raw != "" {
		t := Type(raw)
		filter.Type = &t
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := Status(raw)
		filter.Status = &s
	}
	var ok bool
	if filter.From, filter.To, ok = h.parseRange(w, r); !ok {
		return
	}

	var details []Detail
	for {
		page, total, err := h.service.List(r.Context(), filter)
		if err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		details = append(details, page...)
		if len(page) < filter.Limit || int64(len(details)) >= total {
			break
		}
		filter.Page++
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=transactions.csv")
	if err := WriteListCSV(w, details); err != nil {
		h.logger.Error("transaction csv export failed", "error", err)
	}
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	summary, err := h.service.GetSummary(r.Context(), RangeFilter{From: from, To: to})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, r, http.StatusOK, "transaction summary retrieved", summary)
}

func (h *Handler) ProductSummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	filter := ProductSummaryFilter{RangeFilter: RangeFilter{From: from, To: to}}
	if raw := r.URL.Query().Get("productId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Fail(w, r, http.StatusBadRequest, "invalid product ID")
			return
		}
		filter.ProductID = &id
	}
	rows, err := h.service.GetProductSummary(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	message := "product summary retrieved"
	if len(rows) == 0 {
		message = "product summary is empty"
	}
	httpx.OK(w, r, http.StatusOK, message, rows)
}

func (h *Handler) Series(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	filter := SeriesFilter{
		RangeFilter: RangeFilter{From: from, To: to},
		Interval:    Interval(r.URL.Query().Get("interval")),
	}
	points, err := h.service.GetTimeSeries(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, r, http.StatusOK, "transaction series retrieved", points)
}

func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.Fail(w, r, http.StatusBadRequest, "invalid from date")
			return from, to, false
		}
		from = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.Fail(w, r, http.StatusBadRequest, "invalid to date")
			return from, to, false
		}
		to = t
	}
	return from, to, true
}
