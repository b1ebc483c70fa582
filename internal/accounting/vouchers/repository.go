package vouchers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/voucherdesk/internal/platform/db"
)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres backed voucher repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const voucherColumns = `id, number, version, status, origin, voucher_type, entry_type, date, period_month, fiscal_year,
currency, exchange_rate::float8, concept, counterparty, check_number, approved_at, created_at, updated_at`

func (r *pgRepository) Create(ctx context.Context, v Voucher) (Voucher, error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.Status = StatusDraft
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO vouchers (id, version, status, origin, voucher_type, entry_type, date,
period_month, fiscal_year, currency, exchange_rate, concept, counterparty, check_number)
VALUES ($1,1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
RETURNING number, version, created_at, updated_at`,
			v.ID, v.Status, v.Origin, v.Type, v.EntryType, v.Date, v.PeriodMonth, v.FiscalYear,
			v.Currency, v.ExchangeRate, v.Concept, v.Counterparty, v.CheckNumber).
			Scan(&v.Number, &v.Version, &v.CreatedAt, &v.UpdatedAt)
		if err != nil {
			return fmt.Errorf("vouchers: insert header: %w", err)
		}
		return insertLines(ctx, tx, v.ID, v.Lines)
	})
	if err != nil {
		return Voucher{}, err
	}
	return v, nil
}

func (r *pgRepository) Update(ctx context.Context, v Voucher) (Voucher, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var status Status
		err := tx.QueryRow(ctx, `SELECT status FROM vouchers WHERE id=$1 FOR UPDATE`, v.ID).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if status == StatusApproved {
			return ErrImmutable
		}
		err = tx.QueryRow(ctx, `UPDATE vouchers SET version=version+1, origin=$3, voucher_type=$4, entry_type=$5, date=$6,
period_month=$7, fiscal_year=$8, currency=$9, exchange_rate=$10, concept=$11, counterparty=$12, check_number=$13,
updated_at=NOW()
WHERE id=$1 AND version=$2 RETURNING number, version, status, created_at, updated_at`,
			v.ID, v.Version, v.Origin, v.Type, v.EntryType, v.Date, v.PeriodMonth, v.FiscalYear,
			v.Currency, v.ExchangeRate, v.Concept, v.Counterparty, v.CheckNumber).
			Scan(&v.Number, &v.Version, &v.Status, &v.CreatedAt, &v.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrVersionConflict
			}
			return fmt.Errorf("vouchers: update header: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM voucher_lines WHERE voucher_id=$1`, v.ID); err != nil {
			return fmt.Errorf("vouchers: clear lines: %w", err)
		}
		return insertLines(ctx, tx, v.ID, v.Lines)
	})
	if err != nil {
		return Voucher{}, err
	}
	return v, nil
}

func (r *pgRepository) MarkApproved(ctx context.Context, id uuid.UUID, version int64, at time.Time) (Voucher, error) {
	cmd, err := r.pool.Exec(ctx, `UPDATE vouchers SET status='APPROVED', approved_at=$3, version=version+1, updated_at=NOW()
WHERE id=$1 AND version=$2 AND status='DRAFT'`, id, version, at)
	if err != nil {
		return Voucher{}, fmt.Errorf("vouchers: approve: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		current, err := r.Get(ctx, id)
		if err != nil {
			return Voucher{}, err
		}
		if current.Approved() {
			return Voucher{}, ErrImmutable
		}
		return Voucher{}, ErrVersionConflict
	}
	return r.Get(ctx, id)
}

func (r *pgRepository) Get(ctx context.Context, id uuid.UUID) (Voucher, error) {
	var v Voucher
	err := r.pool.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE id=$1`, id).
		Scan(&v.ID, &v.Number, &v.Version, &v.Status, &v.Origin, &v.Type, &v.EntryType, &v.Date, &v.PeriodMonth,
			&v.FiscalYear, &v.Currency, &v.ExchangeRate, &v.Concept, &v.Counterparty, &v.CheckNumber,
			&v.ApprovedAt, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Voucher{}, ErrNotFound
		}
		return Voucher{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT line_order, account, auxiliary, memo, debit_lc::float8, credit_lc::float8,
debit_fc::float8, credit_fc::float8, is_derived, tpl_locked, tpl_percentage::float8, tpl_side
FROM voucher_lines WHERE voucher_id=$1 ORDER BY line_order ASC`, id)
	if err != nil {
		return Voucher{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l       Line
			locked  *bool
			pct     *float64
			tplSide *string
		)
		if err := rows.Scan(&l.Order, &l.Account, &l.Auxiliary, &l.Memo, &l.DebitLC, &l.CreditLC, &l.DebitFC,
			&l.CreditFC, &l.IsDerived, &locked, &pct, &tplSide); err != nil {
			return Voucher{}, err
		}
		if locked != nil {
			meta := &TemplateMetadata{Locked: *locked}
			if pct != nil {
				meta.Percentage = *pct
			}
			if tplSide != nil {
				meta.Side = Side(*tplSide)
			}
			l.Template = meta
		}
		v.Lines = append(v.Lines, l)
	}
	return v, rows.Err()
}

func insertLines(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID, lines []Line) error {
	batch := &pgx.Batch{}
	for _, l := range lines {
		var (
			locked  any
			pct     any
			tplSide any
		)
		if l.Template != nil {
			locked = l.Template.Locked
			pct = toNumeric(l.Template.Percentage)
			tplSide = string(l.Template.Side)
		}
		batch.Queue(`INSERT INTO voucher_lines (voucher_id, line_order, account, auxiliary, memo, debit_lc, credit_lc,
debit_fc, credit_fc, is_derived, tpl_locked, tpl_percentage, tpl_side)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			voucherID, l.Order, l.Account, l.Auxiliary, l.Memo, toNumeric(l.DebitLC), toNumeric(l.CreditLC),
			toNumeric(l.DebitFC), toNumeric(l.CreditFC), l.IsDerived, locked, pct, tplSide)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("vouchers: insert lines: %w", err)
	}
	return nil
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
