package purchasebook

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/voucherdesk/internal/platform/db"
)

// Repository persists purchase-book records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts the record and returns it with its identity.
func (r *Repository) Create(ctx context.Context, rec Record) (Record, error) {
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `INSERT INTO purchase_book (id, voucher_id, line_order, invoice_date, invoice_number,
authorization_code, supplier_tax_id, supplier_name, amount, tax_credit, control_code)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING created_at`,
		rec.ID, rec.VoucherID, rec.LineOrder, rec.InvoiceDate, rec.InvoiceNumber, rec.AuthorizationCode,
		rec.SupplierTaxID, rec.SupplierName, toNumeric(rec.Amount), toNumeric(rec.TaxCredit), rec.ControlCode).
		Scan(&rec.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Record{}, ErrDuplicate
		}
		return Record{}, fmt.Errorf("purchasebook: insert: %w", err)
	}
	return rec, nil
}

// GetByVoucherLine loads the record attached to a voucher line.
func (r *Repository) GetByVoucherLine(ctx context.Context, voucherID uuid.UUID, lineOrder int) (Record, error) {
	var rec Record
	err := r.pool.QueryRow(ctx, `SELECT id, voucher_id, line_order, invoice_date, invoice_number, authorization_code,
supplier_tax_id, supplier_name, amount::float8, tax_credit::float8, control_code, created_at
FROM purchase_book WHERE voucher_id=$1 AND line_order=$2`, voucherID, lineOrder).
		Scan(&rec.ID, &rec.VoucherID, &rec.LineOrder, &rec.InvoiceDate, &rec.InvoiceNumber, &rec.AuthorizationCode,
			&rec.SupplierTaxID, &rec.SupplierName, &rec.Amount, &rec.TaxCredit, &rec.ControlCode, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
