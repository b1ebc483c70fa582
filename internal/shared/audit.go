package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAuditNotInitialised is returned by nil audit loggers.
var ErrAuditNotInitialised = errors.New("audit logger not initialised")

// AuditLog is one business event stored in audit_logs.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// Validate checks mandatory fields.
func (l AuditLog) Validate() error {
	switch {
	case l.Action == "":
		return errors.New("audit action required")
	case l.Entity == "":
		return errors.New("audit entity required")
	case l.EntityID == "":
		return errors.New("audit entity id required")
	}
	return nil
}

// AuditLogger appends audit records.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger constructs AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record inserts the entry. A zero actor is stored as NULL (system jobs)
// and a zero time defaults to NOW().
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return ErrAuditNotInitialised
	}
	if err := log.Validate(); err != nil {
		return err
	}
	meta := log.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	args := pgx.NamedArgs{
		"actor":     nil,
		"action":    log.Action,
		"entity":    log.Entity,
		"entity_id": log.EntityID,
		"meta":      meta,
		"at":        nil,
	}
	if log.ActorID != 0 {
		args["actor"] = log.ActorID
	}
	if !log.At.IsZero() {
		args["at"] = log.At
	}
	_, err := l.pool.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
VALUES (@actor, @action, @entity, @entity_id, @meta, COALESCE(@at::timestamptz, NOW()))`, args)
	return err
}
