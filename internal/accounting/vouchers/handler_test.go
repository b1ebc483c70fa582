package vouchers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/purchasebook"
	"github.com/odyssey-erp/voucherdesk/internal/shared"
)

type stubExporter struct {
	err error
}

func (e stubExporter) PDF(_ context.Context, v Voucher) ([]byte, error) {
	return []byte("%PDF " + v.Lines[0].Account), e.err
}

func (e stubExporter) XLSX(_ context.Context, _ Voucher) ([]byte, error) {
	return []byte("PK"), e.err
}

type stubIdempotency struct {
	seen    map[string]bool
	deleted []string
}

func (s *stubIdempotency) CheckAndInsert(_ context.Context, key, _ string) error {
	if s.seen[key] {
		return shared.ErrIdempotencyConflict
	}
	s.seen[key] = true
	return nil
}

func (s *stubIdempotency) Delete(_ context.Context, key string) error {
	delete(s.seen, key)
	s.deleted = append(s.deleted, key)
	return nil
}

type handlerFixture struct {
	*fixture
	router http.Handler
	idem   *stubIdempotency
}

func newHandlerFixture(exporter Exporter) *handlerFixture {
	f := newFixture()
	idem := &stubIdempotency{seen: map[string]bool{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, f.svc, exporter, idem)
	r := chi.NewRouter()
	r.Route("/api/vouchers", h.MountRoutes)
	return &handlerFixture{fixture: f, router: r, idem: idem}
}

func (hf *handlerFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	hf.router.ServeHTTP(rr, req)
	return rr
}

func voucherPayload(credit float64) map[string]any {
	return map[string]any{
		"date":          "2024-03-15T00:00:00Z",
		"currency":      "USD",
		"exchange_rate": rate,
		"lines": []map[string]any{
			{"account": "5101", "debit_lc": 1000, "debit_fc": 143.68},
			{"account": "2101", "credit_lc": credit, "credit_fc": 143.68},
		},
	}
}

func TestHandlerCompose(t *testing.T) {
	hf := newHandlerFixture(stubExporter{})
	body := map[string]any{
		"voucher": map[string]any{
			"date":          "2024-03-15T00:00:00Z",
			"exchange_rate": rate,
			"lines": []map[string]any{
				{"account": "5101", "template": map[string]any{"percentage": 87, "side": "DEBIT"}},
				{"account": "1142", "template": map[string]any{"locked": true, "percentage": 13, "side": "DEBIT"}},
				{"account": "2101", "template": map[string]any{"locked": true, "percentage": 100, "side": "CREDIT"}},
			},
		},
		"edit": map[string]any{"line": 0, "field": "debit_lc", "value": "870"},
	}
	rr := hf.do(t, http.MethodPost, "/api/vouchers/compose", body, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp ComposeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, OutcomeDecomposed, resp.Outcome)
	assert.Equal(t, 130.0, resp.Voucher.Lines[1].DebitLC)
	assert.Equal(t, 1000.0, resp.Voucher.Lines[2].CreditLC)
	assert.True(t, resp.Totals.Balanced)
	assert.Equal(t, []string{"decomposed"}, hf.metrics.edits)
}

func TestHandlerComposeRejectsUnknownField(t *testing.T) {
	hf := newHandlerFixture(stubExporter{})
	body := map[string]any{
		"voucher": voucherPayload(1000),
		"edit":    map[string]any{"line": 0, "field": "amount", "value": "1"},
	}
	rr := hf.do(t, http.MethodPost, "/api/vouchers/compose", body, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "oneof")
}

func TestHandlerCreateWithIdempotencyKey(t *testing.T) {
	hf := newHandlerFixture(stubExporter{})
	headers := map[string]string{"Idempotency-Key": "abc"}

	rr := hf.do(t, http.MethodPost, "/api/vouchers/", voucherPayload(1000), headers)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp VoucherResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Voucher.Persisted())
	assert.Equal(t, StatusDraft, resp.Voucher.Status)

	rr = hf.do(t, http.MethodPost, "/api/vouchers/", voucherPayload(1000), headers)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, 1, hf.repo.creates)
}

func TestHandlerCreateFailureReleasesKey(t *testing.T) {
	hf := newHandlerFixture(stubExporter{})
	body := voucherPayload(1000)
	body["purchase_book"] = map[string]any{
		"line_order":      5,
		"invoice_date":    "2024-03-15T00:00:00Z",
		"invoice_number":  "F-1",
		"supplier_tax_id": "1020",
		"supplier_name":   "Acme",
	}
	rr := hf.do(t, http.MethodPost, "/api/vouchers/", body, map[string]string{"Idempotency-Key": "k1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, []string{"k1"}, hf.idem.deleted)
}

func TestHandlerApproveUnbalanced(t *testing.T) {
	hf := newHandlerFixture(stubExporter{})
	rr := hf.do(t, http.MethodPost, "/api/vouchers/approve", voucherPayload(999.5), map[string]string{shared.ActorHeader: "7"})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var p struct {
		Detail       string  `json:"detail"`
		Reason       string  `json:"reason"`
		DifferenceLC float64 `json:"difference_lc"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "unbalanced", p.Reason)
	assert.Equal(t, 0.5, p.DifferenceLC)
	assert.Equal(t, "unbalanced (difference 0.50)", p.Detail)
	assert.Zero(t, hf.repo.creates)
}

func TestHandlerApproveAndConflict(t *testing.T) {
	hf := newHandlerFixture(stubExporter{})
	rr := hf.do(t, http.MethodPost, "/api/vouchers/approve", voucherPayload(1000), map[string]string{shared.ActorHeader: "7"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp VoucherResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, StatusApproved, resp.Voucher.Status)
	require.Len(t, hf.approvals.logs, 1)
	assert.Equal(t, int64(7), hf.approvals.logs[0].ActorID)

	payload := voucherPayload(1000)
	payload["version"] = resp.Voucher.Version
	rr = hf.do(t, http.MethodPut, "/api/vouchers/"+resp.Voucher.ID.String(), payload, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandlerShowAndExport(t *testing.T) {
	hf := newHandlerFixture(stubExporter{})
	saved, err := hf.svc.Save(context.Background(), balancedVoucher())
	require.NoError(t, err)

	rr := hf.do(t, http.MethodGet, "/api/vouchers/"+saved.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = hf.do(t, http.MethodGet, "/api/vouchers/"+saved.ID.String()+"/pdf", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "voucher-1.pdf")
	assert.Equal(t, "%PDF 5101", rr.Body.String())

	rr = hf.do(t, http.MethodGet, "/api/vouchers/"+saved.ID.String()+"/xlsx", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "voucher-1.xlsx")
}

func TestHandlerExportFailure(t *testing.T) {
	hf := newHandlerFixture(stubExporter{err: errors.New("renderer down")})
	saved, err := hf.svc.Save(context.Background(), balancedVoucher())
	require.NoError(t, err)

	rr := hf.do(t, http.MethodGet, "/api/vouchers/"+saved.ID.String()+"/pdf", nil, nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestHandlerNotFoundAndBadID(t *testing.T) {
	hf := newHandlerFixture(stubExporter{})
	rr := hf.do(t, http.MethodGet, "/api/vouchers/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = hf.do(t, http.MethodGet, "/api/vouchers/4b0f0b56-1c5c-4a4b-8d1a-3b7f0d3a9c11", nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerCreatePurchaseBook(t *testing.T) {
	hf := newHandlerFixture(stubExporter{})
	saved, err := hf.svc.Save(context.Background(), balancedVoucher())
	require.NoError(t, err)

	rec := map[string]any{
		"line_order":      1,
		"invoice_date":    "2024-03-15T00:00:00Z",
		"invoice_number":  "F-1",
		"supplier_tax_id": "1020",
		"supplier_name":   "Acme",
		"amount":          1000,
		"tax_credit":      130,
	}
	rr := hf.do(t, http.MethodPost, "/api/vouchers/"+saved.ID.String()+"/purchase-book", rec, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Len(t, hf.books.created, 1)
}

func TestHandlerPurchaseBookErrors(t *testing.T) {
	hf := newHandlerFixture(stubExporter{})
	saved, err := hf.svc.Save(context.Background(), balancedVoucher())
	require.NoError(t, err)
	path := "/api/vouchers/" + saved.ID.String() + "/purchase-book"
	rec := map[string]any{
		"line_order":      1,
		"invoice_date":    "2024-03-15T00:00:00Z",
		"invoice_number":  "F-1",
		"supplier_tax_id": "1020",
		"supplier_name":   "Acme",
		"amount":          1000,
		"tax_credit":      130,
	}

	hf.books.err = purchasebook.ErrDuplicate
	rr := hf.do(t, http.MethodPost, path, rec, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "already has a record")

	hf.books.err = nil
	rec["tax_credit"] = 2000
	rr = hf.do(t, http.MethodPost, path, rec, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Empty(t, hf.books.created)
}
