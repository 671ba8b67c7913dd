package payment

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
	r.Get("/{id}", h.Get)
}

type detailRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Value      string `json:"value"`
}

type createPaymentRequest struct {
	TransactionID *int64          `json:"transactionId"`
	Type          string          `json:"type" validate:"required,oneof=CASH CARD TRANSFER QRIS PAPER"`
	Direction     string          `json:"direction" validate:"required,oneof=INFLOW OUTFLOW"`
	Amount        float64         `json:"amount" validate:"required,gt=0"`
	Details       []detailRequest `json:"details" validate:"dive"`
	Remark        string          `json:"remark"`
	FileID        *string         `json:"fileId"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, r, http.StatusBadRequest, httpx.ValidationMessage(err))
		return
	}
	input := CreateInput{
		TransactionID:  req.TransactionID,
		Type:           Type(req.Type),
		Direction:      Direction(req.Direction),
		Amount:         req.Amount,
		Remark:         req.Remark,
		FileID:         req.FileID,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
	for _, d := range req.Details {
		input.Details = append(input.Details, DetailInput{Identifier: d.Identifier, Value: d.Value})
	}
	detail, err := h.service.Create(r.Context(), input, shared.ActorFrom(r.Context()))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, r, http.StatusCreated, "payment created", detail)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, r, http.StatusBadRequest, "invalid payment ID")
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, r, http.StatusOK, "payment retrieved", detail)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	filter := ListFilter{Page: page, Limit: limit}
	if raw := r.URL.Query().Get("transactionId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Fail(w, r, http.StatusBadRequest, "invalid transaction ID")
			return
		}
		filter.TransactionID = &id
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		t := Type(raw)
		filter.Type = &t
	}
	if raw := r.URL.Query().Get("direction"); raw != "" {
		d := Direction(raw)
		filter.Direction = &d
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
	details, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if details == nil {
		details = []Detail{}
	}
	message := "payment list retrieved"
	if len(details) == 0 {
		message = "payment list is empty"
	}
	meta := shared.NewPagination(shared.NewPageRequest(page, limit), total)
	httpx.List(w, r, message, meta, details)
}
