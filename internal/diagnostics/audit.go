package diagnostics

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-dbaccess/internal/audit"
	"github.com/nerrad567/gray-logic-dbaccess/internal/infrastructure/database"
)

// AuditRecorder journals events into an audit.Repository.
type AuditRecorder struct {
	repo audit.Repository
}

// NewAuditRecorder returns a recorder writing to repo.
func NewAuditRecorder(repo audit.Repository) *AuditRecorder {
	return &AuditRecorder{repo: repo}
}

// Record stores ev as one entry. A zero event time is stamped by the
// repository.
func (r *AuditRecorder) Record(ctx context.Context, ev database.Event) error {
	e := &audit.Entry{
		Kind:       string(ev.Kind),
		Action:     string(ev.Action),
		SQL:        ev.SQL,
		Params:     encodeParams(ev.Params),
		CostMillis: ev.CostMillis,
		Rows:       ev.Rows,
		Attempt:    ev.Attempt,
		Message:    ev.Message,
		Code:       ev.Code,
		CreatedAt:  ev.Time.UTC(),
	}
	if err := r.repo.Create(ctx, e); err != nil {
		return fmt.Errorf("journaling %s event: %w", ev.Kind, err)
	}
	return nil
}
