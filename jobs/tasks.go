package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskVoucherApproved writes the audit trail for an approved voucher.
	TaskVoucherApproved = "voucher:approved"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// VoucherApprovedPayload describes an approval to audit.
type VoucherApprovedPayload struct {
	VoucherID  uuid.UUID `json:"voucher_id"`
	Number     int64     `json:"number"`
	ActorID    int64     `json:"actor_id"`
	TotalLC    float64   `json:"total_lc"`
	ApprovedAt time.Time `json:"approved_at"`
}

// NewVoucherApprovedTask constructs an Asynq task.
func NewVoucherApprovedTask(payload VoucherApprovedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVoucherApproved, data), nil
}

// IdempotencyCleanupPayload configures the retention window.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewIdempotencyCleanupTask constructs the cron task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: int(retention.Hours())})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
