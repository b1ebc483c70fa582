package vouchers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/purchasebook"
	"github.com/odyssey-erp/voucherdesk/internal/shared"
)

type memRepo struct {
	mu         sync.Mutex
	items      map[uuid.UUID]Voucher
	next       int64
	creates    int
	approveErr error
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[uuid.UUID]Voucher{}}
}

func (r *memRepo) Create(_ context.Context, v Voucher) (Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	r.next++
	v.ID = uuid.New()
	v.Number = r.next
	v.Version = 1
	v.Status = StatusDraft
	r.items[v.ID] = v.Clone()
	return v, nil
}

func (r *memRepo) Update(_ context.Context, v Voucher) (Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[v.ID]
	if !ok {
		return Voucher{}, ErrNotFound
	}
	if cur.Approved() {
		return Voucher{}, ErrImmutable
	}
	if cur.Version != v.Version {
		return Voucher{}, ErrVersionConflict
	}
	v.Version++
	v.Number = cur.Number
	r.items[v.ID] = v.Clone()
	return v, nil
}

func (r *memRepo) MarkApproved(_ context.Context, id uuid.UUID, version int64, at time.Time) (Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.approveErr != nil {
		return Voucher{}, r.approveErr
	}
	cur, ok := r.items[id]
	if !ok {
		return Voucher{}, ErrNotFound
	}
	if cur.Version != version {
		return Voucher{}, ErrVersionConflict
	}
	cur.Status = StatusApproved
	cur.Version++
	cur.ApprovedAt = &at
	r.items[id] = cur
	return cur.Clone(), nil
}

func (r *memRepo) Get(_ context.Context, id uuid.UUID) (Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	if !ok {
		return Voucher{}, ErrNotFound
	}
	return v.Clone(), nil
}

type stubBooks struct {
	err     error
	created []purchasebook.Record
}

func (b *stubBooks) Create(_ context.Context, rec purchasebook.Record) (purchasebook.Record, error) {
	if b.err != nil {
		return purchasebook.Record{}, b.err
	}
	rec.ID = uuid.New()
	b.created = append(b.created, rec)
	return rec, nil
}

type stubApprovals struct {
	logs []shared.ApprovalLog
}

func (a *stubApprovals) Record(_ context.Context, log shared.ApprovalLog) error {
	if err := log.Validate(); err != nil {
		return err
	}
	a.logs = append(a.logs, log)
	return nil
}

type stubEvents struct {
	events []ApprovedEvent
	err    error
}

func (e *stubEvents) PublishVoucherApproved(_ context.Context, evt ApprovedEvent) error {
	e.events = append(e.events, evt)
	return e.err
}

type stubMetrics struct {
	edits     []string
	approvals []string
}

func (m *stubMetrics) ObserveVoucherEdit(outcome string)    { m.edits = append(m.edits, outcome) }
func (m *stubMetrics) ObserveVoucherApproval(result string) { m.approvals = append(m.approvals, result) }

type fixture struct {
	svc       *Service
	repo      *memRepo
	books     *stubBooks
	approvals *stubApprovals
	events    *stubEvents
	metrics   *stubMetrics
	now       time.Time
}

func newFixture() *fixture {
	f := &fixture{
		repo:      newMemRepo(),
		books:     &stubBooks{},
		approvals: &stubApprovals{},
		events:    &stubEvents{},
		metrics:   &stubMetrics{},
		now:       time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.repo, ServiceDeps{
		PurchaseBook: f.books,
		Approvals:    f.approvals,
		Events:       f.events,
		Metrics:      f.metrics,
	})
	f.svc.WithNow(func() time.Time { return f.now })
	return f
}

func TestServiceApproveCreatesUnsavedVoucher(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	approved, err := f.svc.Approve(ctx, balancedVoucher(), 7)
	require.NoError(t, err)

	assert.True(t, approved.Persisted())
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, 1, f.repo.creates)
	stored, err := f.repo.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)

	require.Len(t, f.approvals.logs, 1)
	assert.Equal(t, shared.ApprovalApprove, f.approvals.logs[0].Action)
	assert.Equal(t, approved.ID, f.approvals.logs[0].RefID)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, 1000.0, f.events.events[0].TotalLC)
	assert.Equal(t, f.now, f.events.events[0].ApprovedAt)
	assert.Equal(t, []string{"approved"}, f.metrics.approvals)
}

func TestServiceApproveUnbalancedTouchesNothing(t *testing.T) {
	f := newFixture()
	v := balancedVoucher()
	v.Lines[1].CreditLC = 999.5

	_, err := f.svc.Approve(context.Background(), v, 7)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0.5, verr.DifferenceLC)
	assert.Zero(t, f.repo.creates)
	assert.Empty(t, f.approvals.logs, "unsaved vouchers leave no history")
	assert.Empty(t, f.events.events)
	assert.Equal(t, []string{"unbalanced"}, f.metrics.approvals)
}

func TestServiceApproveRejectionIsRecordedForSavedVoucher(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	saved, err := f.svc.Save(ctx, balancedVoucher())
	require.NoError(t, err)

	saved.Lines[0].Account = ""
	_, err = f.svc.Approve(ctx, saved, 9)
	require.Error(t, err)

	require.Len(t, f.approvals.logs, 1)
	assert.Equal(t, shared.ApprovalReject, f.approvals.logs[0].Action)
	assert.Equal(t, "every line needs an account", f.approvals.logs[0].Note)
	stored, _ := f.repo.Get(ctx, saved.ID)
	assert.Equal(t, StatusDraft, stored.Status)
}

func TestServiceApproveFailureKeepsSavedDraft(t *testing.T) {
	f := newFixture()
	f.repo.approveErr = errors.New("db down")

	got, err := f.svc.Approve(context.Background(), balancedVoucher(), 7)
	require.Error(t, err)
	assert.True(t, got.Persisted(), "caller keeps the identity of the created draft")
	assert.Equal(t, StatusDraft, got.Status)
	assert.Equal(t, 1, f.repo.creates)
	assert.Empty(t, f.events.events)
	assert.Equal(t, []string{"error"}, f.metrics.approvals)
}

func TestServiceApproveVersionConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	saved, err := f.svc.Save(ctx, balancedVoucher())
	require.NoError(t, err)

	// Another writer bumps the version.
	_, err = f.svc.Save(ctx, saved)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, saved, 7)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, []string{"conflict"}, f.metrics.approvals)
}

func TestServiceApprovedVoucherIsImmutable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	approved, err := f.svc.Approve(ctx, balancedVoucher(), 7)
	require.NoError(t, err)

	_, err = f.svc.Save(ctx, approved)
	assert.ErrorIs(t, err, ErrImmutable)
	_, err = f.svc.Approve(ctx, approved, 7)
	assert.ErrorIs(t, err, ErrImmutable)

	// Even a stale draft copy cannot overwrite it.
	draft := approved.Clone()
	draft.Status = StatusDraft
	_, err = f.svc.Save(ctx, draft)
	assert.ErrorIs(t, err, ErrImmutable)
}

func TestServiceEventFailureDoesNotFailApprove(t *testing.T) {
	f := newFixture()
	f.events.err = errors.New("queue down")

	approved, err := f.svc.Approve(context.Background(), balancedVoucher(), 0)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Empty(t, f.approvals.logs, "no actor, no approval log")
	assert.Len(t, f.events.events, 1)
}

func TestServiceSaveValidatesHeader(t *testing.T) {
	f := newFixture()
	v := balancedVoucher()
	v.ExchangeRate = 0
	_, err := f.svc.Save(context.Background(), v)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonInvalidRate, verr.Reason)

	v = balancedVoucher()
	v.Lines = nil
	_, err = f.svc.Save(context.Background(), v)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonEmptyLines, verr.Reason)
	assert.Zero(t, f.repo.creates)
}

func TestServiceSaveAllowsUnbalancedDraft(t *testing.T) {
	f := newFixture()
	v := balancedVoucher()
	v.Lines[1].CreditLC = 1
	v.Lines[0].Order = 9

	saved, err := f.svc.Save(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, saved.Status)
	assert.Equal(t, 1, saved.Lines[0].Order)
	assert.Equal(t, 9, v.Lines[0].Order, "input is not mutated")
}

func TestServiceEditRecordsOutcome(t *testing.T) {
	f := newFixture()
	res := f.svc.Edit(context.Background(), purchaseTemplate(87), Edit{Line: 0, Field: FieldDebitLC, Value: "870"})
	assert.Equal(t, OutcomeDecomposed, res.Outcome)
	res = f.svc.Edit(context.Background(), purchaseTemplate(87), Edit{Line: 1, Field: FieldDebitLC, Value: "1"})
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Equal(t, []string{"decomposed", "rejected"}, f.metrics.edits)
}

func purchaseRecord(line int) purchasebook.Record {
	return purchasebook.Record{
		LineOrder:     line,
		InvoiceDate:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		InvoiceNumber: "F-1001",
		SupplierTaxID: "1020304050",
		SupplierName:  "Acme SRL",
		Amount:        1000,
		TaxCredit:     130,
	}
}

func TestServiceSaveWithPurchaseBook(t *testing.T) {
	f := newFixture()
	report, err := f.svc.SaveWithPurchaseBook(context.Background(), balancedVoucher(), purchaseRecord(1))
	require.NoError(t, err)

	assert.False(t, report.Partial)
	require.NotNil(t, report.PurchaseBook)
	assert.Equal(t, report.Voucher.ID, report.PurchaseBook.VoucherID)
	assert.Len(t, f.books.created, 1)
}

func TestServiceSaveWithPurchaseBookPartial(t *testing.T) {
	f := newFixture()
	f.books.err = purchasebook.ErrDuplicate

	report, err := f.svc.SaveWithPurchaseBook(context.Background(), balancedVoucher(), purchaseRecord(2))
	require.NoError(t, err)

	assert.True(t, report.Partial)
	assert.True(t, report.Voucher.Persisted(), "the voucher stays saved")
	assert.Nil(t, report.PurchaseBook)
	assert.Contains(t, report.CompensatingAction, report.Voucher.ID.String())
	assert.Contains(t, report.CompensatingAction, "line 2")
	assert.Equal(t, purchasebook.ErrDuplicate.Error(), report.Warning)
}

func TestServiceSaveWithPurchaseBookValidatesFirst(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SaveWithPurchaseBook(context.Background(), balancedVoucher(), purchaseRecord(3))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonInvalidLineOrder, verr.Reason)

	bad := purchaseRecord(1)
	bad.InvoiceNumber = ""
	_, err = f.svc.SaveWithPurchaseBook(context.Background(), balancedVoucher(), bad)
	assert.ErrorIs(t, err, purchasebook.ErrInvalid)
	assert.Zero(t, f.repo.creates)
}

func TestServiceCreatePurchaseBookForSavedVoucher(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	saved, err := f.svc.Save(ctx, balancedVoucher())
	require.NoError(t, err)

	rec, err := f.svc.CreatePurchaseBook(ctx, saved.ID, purchaseRecord(2))
	require.NoError(t, err)
	assert.Equal(t, saved.ID, rec.VoucherID)

	_, err = f.svc.CreatePurchaseBook(ctx, uuid.New(), purchaseRecord(1))
	assert.ErrorIs(t, err, ErrNotFound)
}
