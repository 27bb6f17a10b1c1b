package warehouse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
)

// AuditRepository persists run-level audit records. A row is written when a
// run starts and finalized when it completes, so an aborted run is visible as
// one stuck in "running" with no finish timestamp.
type AuditRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewAuditRepository creates an audit repository.
func NewAuditRepository(db *sqlx.DB, logger *slog.Logger) *AuditRepository {
	return &AuditRepository{db: db, logger: logger}
}

// BeginRun records the start of a per-source run.
func (r *AuditRepository) BeginRun(ctx context.Context, run domain.RunAudit) error {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(runTable)
	ib.Cols("run_id", "data_source", "started_at", "status")
	ib.Values(run.ID, string(run.Source), run.StartedAt, string(domain.RunRunning))
	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("begin run audit: %w", err)
	}
	return nil
}

// FinishRun finalizes the audit record with counts and terminal status.
func (r *AuditRepository) FinishRun(ctx context.Context, run domain.RunAudit) error {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(runTable)
	ub.Set(
		ub.Assign("finished_at", run.FinishedAt),
		ub.Assign("records_processed", run.Processed),
		ub.Assign("records_inserted", run.Inserted),
		ub.Assign("records_skipped", run.Skipped),
		ub.Assign("records_failed", run.Failed),
		ub.Assign("status", string(run.Status)),
		ub.Assign("error", nullStr(run.Error)),
	)
	ub.Where(ub.Equal("run_id", run.ID))
	query, args := ub.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("finish run audit: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent runs across all sources, newest first.
func (r *AuditRepository) RecentRuns(ctx context.Context, limit int) ([]domain.RunAudit, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("run_id", "data_source", "started_at", "finished_at",
		"records_processed", "records_inserted", "records_skipped", "records_failed",
		"status", "error")
	sb.From(runTable)
	sb.OrderBy("started_at").Desc()
	sb.Limit(limit)
	query, args := sb.Build()

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}

	runs := make([]domain.RunAudit, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, row.toRunAudit())
	}
	return runs, nil
}
