package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
)

// DimensionRepository performs insert-if-absent upserts and natural-key
// lookups against the five dimension tables. Concurrent use across sources is
// safe: natural-key namespaces are disjoint and the uniqueness constraints
// and ON CONFLICT DO NOTHING make racing inserts mutually harmless.
type DimensionRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewDimensionRepository creates a dimension repository.
func NewDimensionRepository(db *sqlx.DB, logger *slog.Logger) *DimensionRepository {
	return &DimensionRepository{db: db, logger: logger}
}

// ensure runs a prepared insert-ignore builder and reports whether a row was
// actually inserted (false means the natural key already existed).
func (r *DimensionRepository) ensure(ctx context.Context, ib *sqlbuilder.InsertBuilder, table string) (bool, error) {
	query, args := ib.Build()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", table, err)
	}
	return n > 0, nil
}

// EnsureDate inserts a date dimension row if its natural key is absent.
func (r *DimensionRepository) EnsureDate(ctx context.Context, d domain.DateDimension) (bool, error) {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertIgnoreInto(dimDateTable)
	ib.Cols("data_source", "source_native_id", "full_date", "year", "month", "day", "weekday", "is_fallback")
	ib.Values(string(d.Source), d.NativeID, d.Date, d.Year, d.Month, d.Day, nullStr(d.Weekday), d.Fallback)
	return r.ensure(ctx, ib, dimDateTable)
}

// EnsureTime inserts a time dimension row if its natural key is absent.
func (r *DimensionRepository) EnsureTime(ctx context.Context, d domain.TimeDimension) (bool, error) {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertIgnoreInto(dimTimeTable)
	ib.Cols("data_source", "source_native_id", "hour", "minute")
	ib.Values(string(d.Source), d.NativeID, d.Hour, d.Minute)
	return r.ensure(ctx, ib, dimTimeTable)
}

// EnsureLocation inserts a location dimension row if its natural key is absent.
func (r *DimensionRepository) EnsureLocation(ctx context.Context, d domain.LocationDimension) (bool, error) {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertIgnoreInto(dimLocationTable)
	ib.Cols("data_source", "source_native_id", "country", "state", "city", "airport")
	ib.Values(string(d.Source), d.NativeID, nullStr(d.Country), nullStr(d.State), nullStr(d.City), nullStr(d.Airport))
	return r.ensure(ctx, ib, dimLocationTable)
}

// EnsureAircraft inserts an aircraft dimension row if its natural key is absent.
func (r *DimensionRepository) EnsureAircraft(ctx context.Context, d domain.AircraftDimension) (bool, error) {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertIgnoreInto(dimAircraftTable)
	ib.Cols("data_source", "source_native_id", "aircraft_type", "make", "model", "registration", "msn", "year_built", "category")
	ib.Values(string(d.Source), d.NativeID, nullStr(d.Type), nullStr(d.Make), nullStr(d.Model),
		nullStr(d.Registration), nullStr(d.MSN), nullStr(d.YearBuilt), nullStr(d.Category))
	return r.ensure(ctx, ib, dimAircraftTable)
}

// EnsureOperator inserts an operator dimension row if its natural key is absent.
func (r *DimensionRepository) EnsureOperator(ctx context.Context, d domain.OperatorDimension) (bool, error) {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertIgnoreInto(dimOperatorTable)
	ib.Cols("data_source", "source_native_id", "name")
	ib.Values(string(d.Source), d.NativeID, nullStr(d.Name))
	return r.ensure(ctx, ib, dimOperatorTable)
}

// LookupKey resolves a natural key to its surrogate key. The second return
// is false on a miss; the caller decides whether to fall back to a sentinel.
func (r *DimensionRepository) LookupKey(ctx context.Context, dim domain.DimensionType, key domain.NaturalKey) (int64, bool, error) {
	target, ok := keyColumns[dim]
	if !ok {
		return 0, false, fmt.Errorf("unknown dimension type %q", dim)
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(target.key).From(target.table)
	sb.Where(
		sb.Equal("data_source", string(key.Source)),
		sb.Equal("source_native_id", key.NativeID),
	)
	query, args := sb.Build()

	var surrogate int64
	err := r.db.GetContext(ctx, &surrogate, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup %s key: %w", dim, err)
	}
	return surrogate, true, nil
}

// SentinelKeys loads the surrogate keys of the UNKNOWN sentinel rows. They
// are seeded by migration, so a miss here is a schema error and fatal.
func (r *DimensionRepository) SentinelKeys(ctx context.Context) (domain.DimensionKeys, error) {
	sentinel := domain.NaturalKey{Source: domain.SourceSystem, NativeID: domain.SentinelNativeID}

	var keys domain.DimensionKeys
	for _, target := range []struct {
		dim  domain.DimensionType
		dest *int64
	}{
		{domain.DimDate, &keys.Date},
		{domain.DimTime, &keys.Time},
		{domain.DimLocation, &keys.Location},
		{domain.DimAircraft, &keys.Aircraft},
		{domain.DimOperator, &keys.Operator},
	} {
		key, found, err := r.LookupKey(ctx, target.dim, sentinel)
		if err != nil {
			return domain.DimensionKeys{}, err
		}
		if !found {
			return domain.DimensionKeys{}, fmt.Errorf("sentinel row missing for %s dimension", target.dim)
		}
		*target.dest = key
	}
	return keys, nil
}
