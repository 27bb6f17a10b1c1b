package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
	"github.com/couchcryptid/accident-data-warehouse/internal/observability"
)

// fakeWarehouse is an in-memory stand-in for the staging, dimension, fact,
// and audit repositories, enforcing the same natural-key uniqueness the
// database does.
type fakeWarehouse struct {
	mu      sync.Mutex
	staged  map[domain.Source][]domain.RawRecord
	dims    map[domain.DimensionType]map[domain.NaturalKey]int64
	nextKey int64
	facts   map[domain.NaturalKey]domain.Accident
	bridges map[domain.NaturalKey]domain.BridgeSet
	begun   []domain.RunAudit
	done    []domain.RunAudit

	stagingErr error
	factErr    error
}

func newFakeWarehouse() *fakeWarehouse {
	f := &fakeWarehouse{
		staged:  make(map[domain.Source][]domain.RawRecord),
		dims:    make(map[domain.DimensionType]map[domain.NaturalKey]int64),
		facts:   make(map[domain.NaturalKey]domain.Accident),
		bridges: make(map[domain.NaturalKey]domain.BridgeSet),
	}
	sentinel := domain.NaturalKey{Source: domain.SourceSystem, NativeID: domain.SentinelNativeID}
	for _, dim := range []domain.DimensionType{domain.DimDate, domain.DimTime, domain.DimLocation, domain.DimAircraft, domain.DimOperator} {
		f.dims[dim] = make(map[domain.NaturalKey]int64)
		f.nextKey++
		f.dims[dim][sentinel] = f.nextKey
	}
	return f
}

func (f *fakeWarehouse) stage(source domain.Source, id string, payload string) {
	f.staged[source] = append(f.staged[source], domain.RawRecord{
		Source:   source,
		UniqueID: id,
		Payload:  []byte(payload),
	})
}

func (f *fakeWarehouse) FetchAll(_ context.Context, source domain.Source) ([]domain.RawRecord, error) {
	if f.stagingErr != nil {
		return nil, f.stagingErr
	}
	return f.staged[source], nil
}

func (f *fakeWarehouse) ensure(dim domain.DimensionType, key domain.NaturalKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.dims[dim][key]; ok {
		return false, nil
	}
	f.nextKey++
	f.dims[dim][key] = f.nextKey
	return true, nil
}

func (f *fakeWarehouse) EnsureDate(_ context.Context, d domain.DateDimension) (bool, error) {
	return f.ensure(domain.DimDate, domain.NaturalKey{Source: d.Source, NativeID: d.NativeID})
}

func (f *fakeWarehouse) EnsureTime(_ context.Context, d domain.TimeDimension) (bool, error) {
	return f.ensure(domain.DimTime, domain.NaturalKey{Source: d.Source, NativeID: d.NativeID})
}

func (f *fakeWarehouse) EnsureLocation(_ context.Context, d domain.LocationDimension) (bool, error) {
	return f.ensure(domain.DimLocation, domain.NaturalKey{Source: d.Source, NativeID: d.NativeID})
}

func (f *fakeWarehouse) EnsureAircraft(_ context.Context, d domain.AircraftDimension) (bool, error) {
	return f.ensure(domain.DimAircraft, domain.NaturalKey{Source: d.Source, NativeID: d.NativeID})
}

func (f *fakeWarehouse) EnsureOperator(_ context.Context, d domain.OperatorDimension) (bool, error) {
	return f.ensure(domain.DimOperator, domain.NaturalKey{Source: d.Source, NativeID: d.NativeID})
}

func (f *fakeWarehouse) LookupKey(_ context.Context, dim domain.DimensionType, key domain.NaturalKey) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.dims[dim][key]
	return k, ok, nil
}

func (f *fakeWarehouse) SentinelKeys(_ context.Context) (domain.DimensionKeys, error) {
	sentinel := domain.NaturalKey{Source: domain.SourceSystem, NativeID: domain.SentinelNativeID}
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.DimensionKeys{
		Date:     f.dims[domain.DimDate][sentinel],
		Time:     f.dims[domain.DimTime][sentinel],
		Location: f.dims[domain.DimLocation][sentinel],
		Aircraft: f.dims[domain.DimAircraft][sentinel],
		Operator: f.dims[domain.DimOperator][sentinel],
	}, nil
}

func (f *fakeWarehouse) InsertAccident(_ context.Context, fact domain.Accident, children domain.BridgeSet) (bool, error) {
	if f.factErr != nil {
		return false, f.factErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := domain.NaturalKey{Source: fact.Source, NativeID: fact.UniqueID}
	if _, ok := f.facts[key]; ok {
		return false, nil
	}
	f.facts[key] = fact
	f.bridges[key] = children
	return true, nil
}

func (f *fakeWarehouse) BeginRun(_ context.Context, run domain.RunAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.begun = append(f.begun, run)
	return nil
}

func (f *fakeWarehouse) FinishRun(_ context.Context, run domain.RunAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done = append(f.done, run)
	return nil
}

type captureReporter struct {
	mu     sync.Mutex
	events []domain.QualityEvent
}

func (c *captureReporter) Report(e domain.QualityEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func newTestRunner(fake *fakeWarehouse, reporter domain.QualityReporter) *Runner {
	if reporter == nil {
		reporter = &captureReporter{}
	}
	return New(fake, fake, fake, fake, reporter, slog.Default(), observability.NewMetricsForTesting())
}

const asnStagePayload = `{
	"url": "https://aviation-safety.net/wikibase/346470",
	"date": "Monday 9 December 2024",
	"time": "14:35",
	"type": "Cessna 208B",
	"owner_operator": "Island Air",
	"registration": "N123AB",
	"location": "Indonesia",
	"fatalities": "Fatalities: 2 / Occupants: 9"
}`

func TestRunSourceLoadsStagedRecords(t *testing.T) {
	fake := newFakeWarehouse()
	fake.stage(domain.SourceASN, "346470", asnStagePayload)

	runner := newTestRunner(fake, nil)
	require.NoError(t, runner.RunSource(context.Background(), domain.SourceASN))

	factKey := domain.NaturalKey{Source: domain.SourceASN, NativeID: "346470"}
	fact, ok := fake.facts[factKey]
	require.True(t, ok)

	// Every dimension key resolved to a real row, not the sentinel.
	sentinels, _ := fake.SentinelKeys(context.Background())
	assert.NotEqual(t, sentinels.Date, fact.DateKey)
	assert.NotEqual(t, sentinels.Location, fact.LocationKey)
	assert.NotEqual(t, sentinels.Aircraft, fact.AircraftKey)
	assert.NotEqual(t, sentinels.Operator, fact.OperatorKey)
	require.NotNil(t, fact.TimeKey)

	require.Len(t, fake.done, 1)
	run := fake.done[0]
	assert.Equal(t, domain.RunSucceeded, run.Status)
	assert.Equal(t, 1, run.Processed)
	assert.Equal(t, 1, run.Inserted)
	assert.Equal(t, 0, run.Skipped)
	assert.Equal(t, 0, run.Failed)
}

func TestRunSourceIsIdempotent(t *testing.T) {
	fake := newFakeWarehouse()
	fake.stage(domain.SourceASN, "346470", asnStagePayload)

	runner := newTestRunner(fake, nil)
	require.NoError(t, runner.RunSource(context.Background(), domain.SourceASN))
	require.NoError(t, runner.RunSource(context.Background(), domain.SourceASN))

	assert.Len(t, fake.facts, 1)

	require.Len(t, fake.done, 2)
	assert.Equal(t, 1, fake.done[0].Inserted)
	assert.Equal(t, 0, fake.done[1].Inserted)
	assert.Equal(t, 1, fake.done[1].Skipped)
}

func TestRunSourceSkipsMalformedRecords(t *testing.T) {
	fake := newFakeWarehouse()
	fake.stage(domain.SourceASN, "bad", `{{{`)
	fake.stage(domain.SourceASN, "346470", asnStagePayload)

	reporter := &captureReporter{}
	runner := newTestRunner(fake, reporter)
	require.NoError(t, runner.RunSource(context.Background(), domain.SourceASN))

	assert.Len(t, fake.facts, 1)

	require.Len(t, fake.done, 1)
	run := fake.done[0]
	assert.Equal(t, 2, run.Processed)
	assert.Equal(t, 1, run.Inserted)
	assert.Equal(t, 1, run.Failed)

	require.NotEmpty(t, reporter.events)
	assert.Equal(t, "malformed payload", reporter.events[0].Problem)
	assert.Equal(t, "bad", reporter.events[0].RecordID)
}

func TestRunSourceSharedDimensionsInsertedOnce(t *testing.T) {
	fake := newFakeWarehouse()
	fake.stage(domain.SourceCSV, "1", `{"index": "1", "Date": "06/02/1955", "Location": "Moscow, Russia", "Operator": "Aeroflot"}`)
	fake.stage(domain.SourceCSV, "2", `{"index": "2", "Date": "06/02/1955", "Location": "Moscow, Russia", "Operator": "Aeroflot"}`)

	runner := newTestRunner(fake, nil)
	require.NoError(t, runner.RunSource(context.Background(), domain.SourceCSV))

	// Two facts share one date, location, and operator row each.
	assert.Len(t, fake.facts, 2)
	assert.Len(t, fake.dims[domain.DimDate], 2)     // sentinel + 19550602
	assert.Len(t, fake.dims[domain.DimLocation], 2) // sentinel + Moscow
	assert.Len(t, fake.dims[domain.DimOperator], 2) // sentinel + Aeroflot
}

func TestRunSourceFailureRecordedInAudit(t *testing.T) {
	fake := newFakeWarehouse()
	fake.stage(domain.SourceASN, "346470", asnStagePayload)
	fake.factErr = errors.New("connection reset")

	runner := newTestRunner(fake, nil)
	err := runner.RunSource(context.Background(), domain.SourceASN)
	require.Error(t, err)

	require.Len(t, fake.done, 1)
	run := fake.done[0]
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Contains(t, run.Error, "connection reset")
}

func TestRunSourceUnknownSource(t *testing.T) {
	runner := newTestRunner(newFakeWarehouse(), nil)
	err := runner.RunSource(context.Background(), domain.Source("FAA"))
	assert.Error(t, err)
}

func TestRunAllRunsSourcesConcurrentlyAndSetsReadiness(t *testing.T) {
	fake := newFakeWarehouse()
	fake.stage(domain.SourceASN, "346470", asnStagePayload)
	fake.stage(domain.SourceNTSB, "ERA25LA101", `{"cm_ntsbNum": "ERA25LA101", "cm_eventDate": "2025-11-03T09:30:00Z", "cm_vehicles": [{"registrationNumber": "N456CD"}]}`)
	fake.stage(domain.SourceCSV, "42", `{"index": "42", "Date": "09/17/1908", "Location": "Fort Myer, Virginia"}`)

	runner := newTestRunner(fake, nil)
	require.Error(t, runner.CheckReadiness(context.Background()))

	require.NoError(t, runner.RunAll(context.Background(), domain.Sources))

	assert.Len(t, fake.facts, 3)
	assert.Len(t, fake.done, 3)
	assert.NoError(t, runner.CheckReadiness(context.Background()))
}

func TestRunAllJoinsFailuresAndStaysUnready(t *testing.T) {
	fake := newFakeWarehouse()
	fake.stage(domain.SourceASN, "346470", asnStagePayload)
	fake.factErr = errors.New("connection reset")

	runner := newTestRunner(fake, nil)
	err := runner.RunAll(context.Background(), []domain.Source{domain.SourceASN, domain.SourceNTSB})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ASN")

	assert.Error(t, runner.CheckReadiness(context.Background()))
}

func TestRunSourceSentinelFallbackOnLookupMiss(t *testing.T) {
	fake := newFakeWarehouse()
	fake.stage(domain.SourceASN, "346470", asnStagePayload)

	miss := &missingOperatorStore{fakeWarehouse: fake}
	runner := New(fake, miss, fake, fake, &captureReporter{}, slog.Default(), observability.NewMetricsForTesting())
	require.NoError(t, runner.RunSource(context.Background(), domain.SourceASN))

	fact := fake.facts[domain.NaturalKey{Source: domain.SourceASN, NativeID: "346470"}]
	sentinels, _ := fake.SentinelKeys(context.Background())
	assert.Equal(t, sentinels.Operator, fact.OperatorKey)
	assert.NotEqual(t, sentinels.Date, fact.DateKey)
}

// missingOperatorStore wraps the fake but reports every operator lookup as a
// miss, forcing the sentinel substitution path.
type missingOperatorStore struct {
	*fakeWarehouse
}

func (s *missingOperatorStore) LookupKey(ctx context.Context, dim domain.DimensionType, key domain.NaturalKey) (int64, bool, error) {
	if dim == domain.DimOperator {
		return 0, false, nil
	}
	return s.fakeWarehouse.LookupKey(ctx, dim, key)
}
