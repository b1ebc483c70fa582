package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/vouchers"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Publisher turns voucher events into queued tasks.
type Publisher struct {
	enqueuer Enqueuer
}

// NewPublisher constructs a publisher.
func NewPublisher(enqueuer Enqueuer) *Publisher {
	return &Publisher{enqueuer: enqueuer}
}

// PublishVoucherApproved enqueues the audit task for an approval.
func (p *Publisher) PublishVoucherApproved(ctx context.Context, evt vouchers.ApprovedEvent) error {
	if p == nil || p.enqueuer == nil {
		return fmt.Errorf("jobs: publisher not configured")
	}
	task, err := NewVoucherApprovedTask(VoucherApprovedPayload{
		VoucherID:  evt.VoucherID,
		Number:     evt.Number,
		ActorID:    evt.ActorID,
		TotalLC:    evt.TotalLC,
		ApprovedAt: evt.ApprovedAt,
	})
	if err != nil {
		return err
	}
	// One audit task per voucher; a replay of the same approval is dropped.
	_, err = p.enqueuer.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(5),
		asynq.TaskID("voucher-approved:"+evt.VoucherID.String()))
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("jobs: enqueue %s: %w", TaskVoucherApproved, err)
	}
	return nil
}
