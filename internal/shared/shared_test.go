package shared

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalLogValidate(t *testing.T) {
	valid := ApprovalLog{Module: "vouchers", RefID: uuid.New(), ActorID: 3, Action: ApprovalApprove}
	require.NoError(t, valid.Validate())

	cases := map[string]func(*ApprovalLog){
		"module": func(l *ApprovalLog) { l.Module = "" },
		"actor":  func(l *ApprovalLog) { l.ActorID = 0 },
		"ref":    func(l *ApprovalLog) { l.RefID = uuid.Nil },
		"action": func(l *ApprovalLog) { l.Action = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			l := valid
			mutate(&l)
			assert.Error(t, l.Validate())
		})
	}
}

func TestAuditLogValidate(t *testing.T) {
	assert.NoError(t, AuditLog{Action: "voucher.approved", Entity: "voucher", EntityID: "x"}.Validate())
	assert.Error(t, AuditLog{Entity: "voucher", EntityID: "x"}.Validate())
	assert.Error(t, AuditLog{Action: "a", EntityID: "x"}.Validate())
	assert.Error(t, AuditLog{Action: "a", Entity: "voucher"}.Validate())
}

func TestNilRecordersFail(t *testing.T) {
	var audit *AuditLogger
	assert.ErrorIs(t, audit.Record(context.Background(), AuditLog{}), ErrAuditNotInitialised)

	var approvals *ApprovalRecorder
	assert.ErrorIs(t, approvals.Record(context.Background(), ApprovalLog{}), ErrRecorderNotInitialised)
}
