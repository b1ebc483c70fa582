package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/voucherdesk/internal/shared"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// JobMetrics counts job runs.
type JobMetrics interface {
	ObserveJob(task string, err error)
}

// VoucherApprovedJob writes the audit trail of an approval.
type VoucherApprovedJob struct {
	Audit   AuditRecorder
	Logger  *slog.Logger
	Metrics JobMetrics
}

// NewVoucherApprovedJob wires dependencies for the handler.
func NewVoucherApprovedJob(audit AuditRecorder, logger *slog.Logger, metrics JobMetrics) *VoucherApprovedJob {
	return &VoucherApprovedJob{Audit: audit, Logger: logger, Metrics: metrics}
}

// Handle processes TaskVoucherApproved tasks.
func (j *VoucherApprovedJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Audit == nil {
		return errors.New("voucher approved: handler not configured")
	}
	var payload VoucherApprovedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("voucher approved: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	defer func() {
		if j.Metrics != nil {
			j.Metrics.ObserveJob(TaskVoucherApproved, err)
		}
	}()

	logger := logOrDefault(j.Logger).With(slog.String("voucher_id", payload.VoucherID.String()))
	err = j.Audit.Record(ctx, shared.AuditLog{
		ActorID:  payload.ActorID,
		Action:   "voucher.approved",
		Entity:   "voucher",
		EntityID: payload.VoucherID.String(),
		Meta: map[string]any{
			"number":   payload.Number,
			"total_lc": payload.TotalLC,
		},
		At: payload.ApprovedAt,
	})
	if err != nil {
		logger.Error("record voucher approval audit", slog.Any("error", err))
		return err
	}
	logger.Info("voucher approval audited", slog.Int64("number", payload.Number))
	return nil
}

func logOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
