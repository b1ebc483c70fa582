package vouchers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/purchasebook"
	"github.com/odyssey-erp/voucherdesk/internal/shared"
)

// Repository persists vouchers. Update and MarkApproved compare the
// voucher version and fail with ErrVersionConflict on mismatch.
type Repository interface {
	Create(ctx context.Context, v Voucher) (Voucher, error)
	Update(ctx context.Context, v Voucher) (Voucher, error)
	MarkApproved(ctx context.Context, id uuid.UUID, version int64, at time.Time) (Voucher, error)
	Get(ctx context.Context, id uuid.UUID) (Voucher, error)
}

// PurchaseBookPort creates purchase-book records.
type PurchaseBookPort interface {
	Create(ctx context.Context, rec purchasebook.Record) (purchasebook.Record, error)
}

// ApprovalPort keeps approval history.
type ApprovalPort interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// ApprovedEvent is published after a voucher is approved.
type ApprovedEvent struct {
	VoucherID  uuid.UUID `json:"voucher_id"`
	Number     int64     `json:"number"`
	ActorID    int64     `json:"actor_id"`
	TotalLC    float64   `json:"total_lc"`
	ApprovedAt time.Time `json:"approved_at"`
}

// EventPublisher announces voucher lifecycle events.
type EventPublisher interface {
	PublishVoucherApproved(ctx context.Context, evt ApprovedEvent) error
}

// MetricsRecorder counts edit and approval outcomes.
type MetricsRecorder interface {
	ObserveVoucherEdit(outcome string)
	ObserveVoucherApproval(result string)
}

// ServiceDeps groups optional collaborators.
type ServiceDeps struct {
	PurchaseBook PurchaseBookPort
	Approvals    ApprovalPort
	Events       EventPublisher
	Metrics      MetricsRecorder
	Logger       *slog.Logger
}

// Service coordinates composing, saving, and approving vouchers.
type Service struct {
	repo     Repository
	books    PurchaseBookPort
	approval ApprovalPort
	events   EventPublisher
	metrics  MetricsRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the voucher service.
func NewService(repo Repository, deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		books:    deps.PurchaseBook,
		approval: deps.Approvals,
		events:   deps.Events,
		metrics:  deps.Metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Edit applies a field edit and logs any diagnostics. Nothing is persisted.
func (s *Service) Edit(ctx context.Context, v Voucher, e Edit) EditResult {
	res := ApplyEdit(v, e)
	for _, d := range res.Diagnostics {
		s.logger.WarnContext(ctx, "voucher edit diagnostic",
			slog.String("voucher_id", v.ID.String()),
			slog.Int("line", d.Line),
			slog.String("field", string(d.Field)),
			slog.String("code", string(d.Code)),
			slog.String("message", d.Message))
	}
	if s.metrics != nil {
		s.metrics.ObserveVoucherEdit(string(res.Outcome))
	}
	return res
}

// Get loads a voucher.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Voucher, error) {
	return s.repo.Get(ctx, id)
}

// Save creates or updates a draft voucher.
func (s *Service) Save(ctx context.Context, v Voucher) (Voucher, error) {
	if v.Approved() {
		return v, ErrImmutable
	}
	if err := CheckHeader(v); err != nil {
		return v, err
	}
	if len(v.Lines) == 0 {
		return v, newValidationError(ReasonEmptyLines, "at least one line required")
	}
	v = v.Clone()
	v.Status = StatusDraft
	renumber(v.Lines)
	if !v.Persisted() {
		return s.repo.Create(ctx, v)
	}
	return s.repo.Update(ctx, v)
}

// Approve validates and approves a voucher. An unsaved voucher is created
// first; if the approval step then fails the saved DRAFT is returned
// together with the error so the caller keeps its identity. There is no
// rollback of the create.
func (s *Service) Approve(ctx context.Context, v Voucher, actorID int64) (Voucher, error) {
	result, err := s.approve(ctx, v, actorID)
	if s.metrics != nil {
		s.metrics.ObserveVoucherApproval(approvalResult(err))
	}
	return result, err
}

func (s *Service) approve(ctx context.Context, v Voucher, actorID int64) (Voucher, error) {
	if v.Approved() {
		return v, ErrImmutable
	}
	if err := CheckHeader(v); err != nil {
		return v, err
	}
	if err := CheckApprovable(v); err != nil {
		s.recordRejection(ctx, v, actorID, err)
		return v, err
	}
	// The approved content is what the caller validated, so it is saved
	// first; the version check catches concurrent writers.
	current, err := s.Save(ctx, v)
	if err != nil {
		return v, fmt.Errorf("vouchers: save before approve: %w", err)
	}
	approved, err := s.repo.MarkApproved(ctx, current.ID, current.Version, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "approve voucher", slog.String("voucher_id", current.ID.String()), slog.Any("error", err))
		return current, err
	}
	s.afterApprove(ctx, approved, actorID)
	return approved, nil
}

func (s *Service) afterApprove(ctx context.Context, v Voucher, actorID int64) {
	at := s.now()
	if v.ApprovedAt != nil {
		at = *v.ApprovedAt
	}
	if s.approval != nil && actorID != 0 {
		if err := s.approval.Record(ctx, shared.ApprovalLog{
			Module:  "vouchers",
			RefID:   v.ID,
			ActorID: actorID,
			Action:  shared.ApprovalApprove,
			At:      at,
		}); err != nil {
			s.logger.WarnContext(ctx, "record voucher approval", slog.Any("error", err))
		}
	}
	if s.events != nil {
		evt := ApprovedEvent{
			VoucherID:  v.ID,
			Number:     v.Number,
			ActorID:    actorID,
			TotalLC:    Totals(v.Lines).DebitLC,
			ApprovedAt: at,
		}
		if err := s.events.PublishVoucherApproved(ctx, evt); err != nil {
			s.logger.WarnContext(ctx, "publish voucher approved", slog.Any("error", err))
		}
	}
}

// recordRejection keeps a REJECT entry for saved vouchers that failed the
// approval guard.
func (s *Service) recordRejection(ctx context.Context, v Voucher, actorID int64, cause error) {
	if s.approval == nil || actorID == 0 || !v.Persisted() {
		return
	}
	if err := s.approval.Record(ctx, shared.ApprovalLog{
		Module:  "vouchers",
		RefID:   v.ID,
		ActorID: actorID,
		Action:  shared.ApprovalReject,
		Note:    cause.Error(),
		At:      s.now(),
	}); err != nil {
		s.logger.WarnContext(ctx, "record voucher rejection", slog.Any("error", err))
	}
}

func approvalResult(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return "approved"
	case errors.As(err, &verr):
		return string(verr.Reason)
	case errors.Is(err, ErrVersionConflict):
		return "conflict"
	case errors.Is(err, ErrImmutable):
		return "immutable"
	default:
		return "error"
	}
}

// SaveReport describes a two step save.
type SaveReport struct {
	Voucher      Voucher              `json:"voucher"`
	PurchaseBook *purchasebook.Record `json:"purchase_book,omitempty"`
	// Partial is true when the voucher was saved but the record was not.
	Partial bool `json:"partial"`
	// CompensatingAction tells the user what to redo by hand.
	CompensatingAction string `json:"compensating_action,omitempty"`
	Warning            string `json:"warning,omitempty"`
}

// SaveWithPurchaseBook saves the voucher and then creates the record for
// rec.LineOrder. Both inputs are validated before anything is written. A
// failure of the second step is reported, not rolled back.
func (s *Service) SaveWithPurchaseBook(ctx context.Context, v Voucher, rec purchasebook.Record) (SaveReport, error) {
	if s.books == nil {
		return SaveReport{}, errors.New("vouchers: purchase book not configured")
	}
	if err := checkLineOrder(v, rec.LineOrder); err != nil {
		return SaveReport{}, err
	}
	if err := rec.Validate(); err != nil {
		return SaveReport{}, err
	}
	saved, err := s.Save(ctx, v)
	if err != nil {
		return SaveReport{}, err
	}
	report := SaveReport{Voucher: saved}
	created, err := s.createBook(ctx, saved.ID, rec)
	if err != nil {
		report.Partial = true
		report.Warning = err.Error()
		report.CompensatingAction = fmt.Sprintf("create purchase-book record for voucher %s line %d", saved.ID, rec.LineOrder)
		s.logger.WarnContext(ctx, "purchase book after voucher save",
			slog.String("voucher_id", saved.ID.String()),
			slog.Int("line_order", rec.LineOrder),
			slog.Any("error", err))
		return report, nil
	}
	report.PurchaseBook = &created
	return report, nil
}

// CreatePurchaseBook attaches a record to an already saved voucher.
func (s *Service) CreatePurchaseBook(ctx context.Context, voucherID uuid.UUID, rec purchasebook.Record) (purchasebook.Record, error) {
	if s.books == nil {
		return purchasebook.Record{}, errors.New("vouchers: purchase book not configured")
	}
	v, err := s.repo.Get(ctx, voucherID)
	if err != nil {
		return purchasebook.Record{}, err
	}
	if err := checkLineOrder(v, rec.LineOrder); err != nil {
		return purchasebook.Record{}, err
	}
	if err := rec.Validate(); err != nil {
		return purchasebook.Record{}, err
	}
	return s.createBook(ctx, voucherID, rec)
}

func (s *Service) createBook(ctx context.Context, voucherID uuid.UUID, rec purchasebook.Record) (purchasebook.Record, error) {
	if voucherID == uuid.Nil {
		return purchasebook.Record{}, ErrNotPersisted
	}
	rec.VoucherID = voucherID
	return s.books.Create(ctx, rec)
}

func checkLineOrder(v Voucher, order int) error {
	if order < 1 || order > len(v.Lines) {
		verr := newValidationError(ReasonInvalidLineOrder, fmt.Sprintf("line order %d does not exist", order))
		return verr
	}
	return nil
}
