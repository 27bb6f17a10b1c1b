package warehouse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
)

// StagingRepository reads and writes the per-source staging tables. Payloads
// are held verbatim; the reconciliation core is the only reader.
type StagingRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStagingRepository creates a staging repository.
func NewStagingRepository(db *sqlx.DB, logger *slog.Logger) *StagingRepository {
	return &StagingRepository{db: db, logger: logger}
}

// InsertRaw bulk-loads raw records into the source's staging table with
// insert-if-absent semantics. Returns the number of newly staged records.
func (r *StagingRepository) InsertRaw(ctx context.Context, source domain.Source, records []domain.RawRecord) (int, error) {
	table, ok := stagingTables[source]
	if !ok {
		return 0, fmt.Errorf("no staging table for source %q", source)
	}
	if len(records) == 0 {
		return 0, nil
	}

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertIgnoreInto(table)
	ib.Cols("source_unique_id", "raw_json")
	// jsonb parameters go over the wire as text; []byte would be mistaken
	// for bytea by the driver.
	for _, rec := range records {
		ib.Values(rec.UniqueID, string(rec.Payload))
	}
	query, args := ib.Build()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("stage %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stage %s: %w", table, err)
	}

	r.logger.Info("staged records", "source", source, "received", len(records), "inserted", n)
	return int(n), nil
}

// FetchAll returns every staged record of a source in insertion order.
func (r *StagingRepository) FetchAll(ctx context.Context, source domain.Source) ([]domain.RawRecord, error) {
	table, ok := stagingTables[source]
	if !ok {
		return nil, fmt.Errorf("no staging table for source %q", source)
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("source_unique_id", "raw_json").From(table)
	sb.OrderBy("loaded_at", "source_unique_id").Asc()
	query, args := sb.Build()

	var rows []stagedRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("fetch staged %s: %w", table, err)
	}

	records := make([]domain.RawRecord, len(rows))
	for i, row := range rows {
		records[i] = domain.RawRecord{
			Source:   source,
			UniqueID: row.SourceUniqueID,
			Payload:  row.RawJSON,
		}
	}
	return records, nil
}
