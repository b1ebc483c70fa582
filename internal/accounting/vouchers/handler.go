package vouchers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/purchasebook"
	"github.com/odyssey-erp/voucherdesk/internal/platform/httpx"
	"github.com/odyssey-erp/voucherdesk/internal/shared"
)

// Exporter renders printable voucher documents.
type Exporter interface {
	PDF(ctx context.Context, v Voucher) ([]byte, error)
	XLSX(ctx context.Context, v Voucher) ([]byte, error)
}

// IdempotencyGuard rejects replayed create requests.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

type Handler struct {
	logger      *slog.Logger
	service     *Service
	exporter    Exporter
	idempotency IdempotencyGuard
	validator   *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, exporter Exporter, idempotency IdempotencyGuard) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		exporter:    exporter,
		idempotency: idempotency,
		validator:   validator.New(),
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateVoucherRequest
	if !h.decode(w, r, &req) {
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, "vouchers"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
				return
			}
			h.logger.Error("idempotency check", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}
	v := req.ToVoucher()
	v.ID = uuid.Nil

	var (
		body any
		err  error
	)
	if req.PurchaseBook != nil {
		var report SaveReport
		report, err = h.service.SaveWithPurchaseBook(r.Context(), v, *req.PurchaseBook)
		body = report
	} else {
		var saved Voucher
		saved, err = h.service.Save(r.Context(), v)
		body = newVoucherResponse(saved)
	}
	if err != nil {
		if key != "" && h.idempotency != nil {
			_ = h.idempotency.Delete(r.Context(), key)
		}
		h.respondError(w, "create voucher", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, body)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.voucherID(w, r)
	if !ok {
		return
	}
	v, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get voucher", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newVoucherResponse(v))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.voucherID(w, r)
	if !ok {
		return
	}
	var req VoucherRequest
	if !h.decode(w, r, &req) {
		return
	}
	v := req.ToVoucher()
	v.ID = id
	saved, err := h.service.Save(r.Context(), v)
	if err != nil {
		h.respondError(w, "update voucher", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newVoucherResponse(saved))
}

func (h *Handler) Compose(w http.ResponseWriter, r *http.Request) {
	var req ComposeRequest
	if !h.decode(w, r, &req) {
		return
	}
	v := req.Voucher.ToVoucher()
	res := h.service.Edit(r.Context(), v, Edit{Line: req.Edit.Line, Field: Field(req.Edit.Field), Value: req.Edit.Value})
	httpx.JSON(w, http.StatusOK, ComposeResponse{
		Voucher:     res.Voucher,
		Totals:      Totals(res.Voucher.Lines),
		Outcome:     res.Outcome,
		Diagnostics: res.Diagnostics,
	})
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var req VoucherRequest
	if !h.decode(w, r, &req) {
		return
	}
	approved, err := h.service.Approve(r.Context(), req.ToVoucher(), actorID(r))
	if err != nil {
		h.respondError(w, "approve voucher", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newVoucherResponse(approved))
}

func (h *Handler) CreatePurchaseBook(w http.ResponseWriter, r *http.Request) {
	id, ok := h.voucherID(w, r)
	if !ok {
		return
	}
	var rec purchasebook.Record
	if !h.decode(w, r, &rec) {
		return
	}
	created, err := h.service.CreatePurchaseBook(r.Context(), id, rec)
	if err != nil {
		h.respondError(w, "create purchase book", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/pdf", "pdf", h.exporter.PDF)
}

func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", h.exporter.XLSX)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, contentType, ext string, render func(context.Context, Voucher) ([]byte, error)) {
	id, ok := h.voucherID(w, r)
	if !ok {
		return
	}
	v, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get voucher", err)
		return
	}
	data, err := render(r.Context(), v)
	if err != nil {
		h.logger.Error("export voucher", slog.String("format", ext), slog.Any("error", err))
		http.Error(w, "Failed to export voucher", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=voucher-%d.%s", v.Number, ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed",
				fmt.Sprintf("%s failed on %s", first.Namespace(), first.Tag()))
			return false
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) voucherID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid voucher ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

type validationProblem struct {
	httpx.ProblemDetail
	Reason       Reason   `json:"reason"`
	DifferenceLC *float64 `json:"difference_lc,omitempty"`
	Line         *int     `json:"line,omitempty"`
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		p := validationProblem{
			ProblemDetail: httpx.ProblemDetail{
				Title:  "Validation Failed",
				Status: http.StatusUnprocessableEntity,
				Detail: verr.Error(),
			},
			Reason: verr.Reason,
		}
		if verr.Reason == ReasonUnbalanced {
			diff := verr.DifferenceLC
			p.DifferenceLC = &diff
		}
		if verr.Line >= 0 {
			line := verr.Line
			p.Line = &line
		}
		httpx.JSON(w, http.StatusUnprocessableEntity, p)
	case errors.Is(err, httpx.ErrNotFound), errors.Is(err, httpx.ErrConflict),
		errors.Is(err, httpx.ErrDuplicate), errors.Is(err, httpx.ErrValidation):
		httpx.RespondError(w, err)
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func actorID(r *http.Request) int64 {
	if id := shared.ActorFromContext(r.Context()); id != 0 {
		return id
	}
	return shared.ParseActor(r.Header.Get(shared.ActorHeader))
}
