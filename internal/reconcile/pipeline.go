package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
	"github.com/couchcryptid/accident-data-warehouse/internal/observability"
)

// StagingReader supplies a source's staged raw records.
type StagingReader interface {
	FetchAll(ctx context.Context, source domain.Source) ([]domain.RawRecord, error)
}

// DimensionStore performs insert-if-absent upserts and natural-key lookups
// against the dimension tables.
type DimensionStore interface {
	EnsureDate(ctx context.Context, d domain.DateDimension) (bool, error)
	EnsureTime(ctx context.Context, d domain.TimeDimension) (bool, error)
	EnsureLocation(ctx context.Context, d domain.LocationDimension) (bool, error)
	EnsureAircraft(ctx context.Context, d domain.AircraftDimension) (bool, error)
	EnsureOperator(ctx context.Context, d domain.OperatorDimension) (bool, error)
	LookupKey(ctx context.Context, dim domain.DimensionType, key domain.NaturalKey) (int64, bool, error)
	SentinelKeys(ctx context.Context) (domain.DimensionKeys, error)
}

// FactStore inserts a fact row and its bridge children atomically. The
// returned bool is false when the fact natural key already existed.
type FactStore interface {
	InsertAccident(ctx context.Context, fact domain.Accident, children domain.BridgeSet) (bool, error)
}

// AuditStore persists run-level audit records.
type AuditStore interface {
	BeginRun(ctx context.Context, run domain.RunAudit) error
	FinishRun(ctx context.Context, run domain.RunAudit) error
}

// Runner executes the reconciliation pipeline: parse and normalize staged
// records, upsert dimensions, then load facts with sentinel fallback and
// bridge expansion, in that order per source. Per-record problems downgrade
// to skip or fallback; only storage errors fail a run.
type Runner struct {
	staging  StagingReader
	dims     DimensionStore
	facts    FactStore
	audit    AuditStore
	reporter domain.QualityReporter
	logger   *slog.Logger
	metrics  *observability.Metrics
	mappers  map[domain.Source]sourceMapper
	ready    atomic.Bool
}

// New creates a Runner wired with mappers for all three sources.
func New(staging StagingReader, dims DimensionStore, facts FactStore, audit AuditStore,
	reporter domain.QualityReporter, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		staging:  staging,
		dims:     dims,
		facts:    facts,
		audit:    audit,
		reporter: reporter,
		logger:   logger,
		metrics:  metrics,
		mappers: map[domain.Source]sourceMapper{
			domain.SourceASN:  asnMapper{},
			domain.SourceNTSB: ntsbMapper{},
			domain.SourceCSV:  csvMapper{},
		},
	}
}

// CheckReadiness returns nil once a full reconciliation pass has completed.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("reconciliation pass has not completed yet")
	}
	return nil
}

// RunAll reconciles the given sources concurrently. Natural-key namespaces
// are disjoint per source, so the runs share no mutable state beyond the
// uniqueness-constrained tables. Returns the joined errors of failed runs.
func (r *Runner) RunAll(ctx context.Context, sources []domain.Source) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, source := range sources {
		wg.Add(1)
		go func(source domain.Source) {
			defer wg.Done()
			if err := r.RunSource(ctx, source); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("source %s: %w", source, err))
				mu.Unlock()
			}
		}(source)
	}
	wg.Wait()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	r.ready.Store(true)
	return nil
}

// RunSource executes one complete per-source batch pass and writes its audit
// record. The pass is idempotent: re-running over identical staging data
// inserts nothing new.
func (r *Runner) RunSource(ctx context.Context, source domain.Source) (err error) {
	mapper, ok := r.mappers[source]
	if !ok {
		return fmt.Errorf("no mapper registered for source %q", source)
	}

	run := domain.RunAudit{
		ID:        uuid.NewString(),
		Source:    source,
		StartedAt: domain.Now(),
		Status:    domain.RunRunning,
	}
	if err := r.audit.BeginRun(ctx, run); err != nil {
		return err
	}

	r.metrics.RunsActive.Inc()
	start := time.Now()
	defer func() {
		r.metrics.RunsActive.Dec()
		r.metrics.RunDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())

		run.FinishedAt = domain.Now()
		if err != nil {
			run.Status = domain.RunFailed
			run.Error = err.Error()
		} else {
			run.Status = domain.RunSucceeded
		}
		if auditErr := r.audit.FinishRun(context.WithoutCancel(ctx), run); auditErr != nil {
			r.logger.Error("finalize run audit failed", "source", source, "run_id", run.ID, "error", auditErr)
		}
	}()

	records, err := r.staging.FetchAll(ctx, source)
	if err != nil {
		return err
	}
	run.Processed = len(records)
	r.metrics.RecordsProcessed.WithLabelValues(string(source)).Add(float64(len(records)))
	r.logger.Info("run started", "source", source, "run_id", run.ID, "staged_records", len(records))

	batch := r.mapBatch(source, mapper, records, &run)

	if err := r.reconcileDimensions(ctx, source, batch); err != nil {
		return err
	}

	sentinels, err := r.dims.SentinelKeys(ctx)
	if err != nil {
		return err
	}

	if err := r.loadFacts(ctx, source, batch, sentinels, &run); err != nil {
		return err
	}

	r.logger.Info("run finished", "source", source, "run_id", run.ID,
		"processed", run.Processed, "inserted", run.Inserted,
		"skipped", run.Skipped, "failed", run.Failed)
	return nil
}

// mapBatch parses and normalizes every staged record, reporting quality
// events and counting malformed payloads as failed. A bad record never
// aborts the batch.
func (r *Runner) mapBatch(source domain.Source, mapper sourceMapper, records []domain.RawRecord, run *domain.RunAudit) []mapped {
	batch := make([]mapped, 0, len(records))
	for _, raw := range records {
		m, err := mapper.Map(raw)
		if err != nil {
			run.Failed++
			r.metrics.RecordsFailed.WithLabelValues(string(source)).Inc()
			r.logger.Warn("record skipped: malformed payload",
				"source", source, "record_id", raw.UniqueID, "error", err)
			r.reporter.Report(qualityEvent(source, raw.UniqueID, "", "malformed payload", err.Error()))
			continue
		}
		for _, q := range m.Quality {
			r.metrics.ParseFallbacks.WithLabelValues(string(source), q.Field).Inc()
			r.reporter.Report(q)
		}
		batch = append(batch, m)
	}
	return batch
}

// reconcileDimensions upserts every dimension row the batch can populate.
// Rows are deduplicated by natural key first; the database's uniqueness
// constraint makes the residual races with other runs harmless. This stage
// must complete before fact loading, which resolves keys by lookup.
func (r *Runner) reconcileDimensions(ctx context.Context, source domain.Source, batch []mapped) error {
	seen := make(map[domain.DimensionType]map[string]bool)
	for _, dim := range []domain.DimensionType{domain.DimDate, domain.DimTime, domain.DimLocation, domain.DimAircraft, domain.DimOperator} {
		seen[dim] = make(map[string]bool)
	}

	ensure := func(dim domain.DimensionType, nativeID string, fn func() (bool, error)) error {
		if seen[dim][nativeID] {
			return nil
		}
		seen[dim][nativeID] = true
		inserted, err := fn()
		if err != nil {
			return err
		}
		if inserted {
			r.metrics.DimensionInserts.WithLabelValues(string(source), string(dim)).Inc()
		}
		return nil
	}

	for i := range batch {
		m := &batch[i]
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := ensure(domain.DimDate, m.Date.NativeID, func() (bool, error) {
			return r.dims.EnsureDate(ctx, m.Date)
		}); err != nil {
			return err
		}
		if m.Time != nil {
			if err := ensure(domain.DimTime, m.Time.NativeID, func() (bool, error) {
				return r.dims.EnsureTime(ctx, *m.Time)
			}); err != nil {
				return err
			}
		}
		if err := ensure(domain.DimLocation, m.Location.NativeID, func() (bool, error) {
			return r.dims.EnsureLocation(ctx, m.Location)
		}); err != nil {
			return err
		}
		if err := ensure(domain.DimAircraft, m.Aircraft.NativeID, func() (bool, error) {
			return r.dims.EnsureAircraft(ctx, m.Aircraft)
		}); err != nil {
			return err
		}
		if err := ensure(domain.DimOperator, m.Operator.NativeID, func() (bool, error) {
			return r.dims.EnsureOperator(ctx, m.Operator)
		}); err != nil {
			return err
		}
	}
	return nil
}

// loadFacts resolves each mapped record's dimension keys and inserts the
// fact plus its bridge children. Lookup misses substitute the sentinel key;
// an existing fact natural key counts as skipped.
func (r *Runner) loadFacts(ctx context.Context, source domain.Source, batch []mapped, sentinels domain.DimensionKeys, run *domain.RunAudit) error {
	for i := range batch {
		m := &batch[i]
		if err := ctx.Err(); err != nil {
			return err
		}

		fact := m.Fact
		var err error
		if fact.DateKey, err = r.resolveKey(ctx, source, domain.DimDate, fact.DateID, sentinels.Date); err != nil {
			return err
		}
		if fact.LocationKey, err = r.resolveKey(ctx, source, domain.DimLocation, fact.LocationID, sentinels.Location); err != nil {
			return err
		}
		if fact.AircraftKey, err = r.resolveKey(ctx, source, domain.DimAircraft, fact.AircraftID, sentinels.Aircraft); err != nil {
			return err
		}
		if fact.OperatorKey, err = r.resolveKey(ctx, source, domain.DimOperator, fact.OperatorID, sentinels.Operator); err != nil {
			return err
		}
		if fact.TimeID != "" {
			key, err := r.resolveKey(ctx, source, domain.DimTime, fact.TimeID, sentinels.Time)
			if err != nil {
				return err
			}
			fact.TimeKey = &key
		}

		inserted, err := r.facts.InsertAccident(ctx, fact, m.Bridges)
		if err != nil {
			return err
		}
		if inserted {
			run.Inserted++
			r.metrics.RecordsInserted.WithLabelValues(string(source)).Inc()
		} else {
			run.Skipped++
			r.metrics.RecordsSkipped.WithLabelValues(string(source)).Inc()
		}
	}
	return nil
}

// resolveKey looks up a dimension surrogate key by natural key, falling back
// to the sentinel on a miss. The foreign key is never left null and a miss
// is never an error.
func (r *Runner) resolveKey(ctx context.Context, source domain.Source, dim domain.DimensionType, nativeID string, sentinel int64) (int64, error) {
	key, found, err := r.dims.LookupKey(ctx, dim, domain.NaturalKey{Source: source, NativeID: nativeID})
	if err != nil {
		return 0, err
	}
	if !found {
		r.metrics.SentinelFallbacks.WithLabelValues(string(source), string(dim)).Inc()
		return sentinel, nil
	}
	return key, nil
}
