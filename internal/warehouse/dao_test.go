package warehouse

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
)

func intPtr(n int) *int { return &n }

func TestFromAccidentNullability(t *testing.T) {
	timeKey := int64(7)
	fatal := 2
	a := domain.Accident{
		Source:          domain.SourceASN,
		UniqueID:        "346470",
		DateKey:         3,
		TimeKey:         &timeKey,
		LocationKey:     4,
		AircraftKey:     5,
		OperatorKey:     6,
		TotalFatalities: &fatal,
		TotalAboard:     intPtr(0),
		Damage:          "Substantial",
	}

	row := fromAccident(a)

	assert.Equal(t, "ASN", row.DataSource)
	assert.Equal(t, "346470", row.SourceUniqueID)
	assert.Equal(t, sql.NullInt64{Int64: 7, Valid: true}, row.TimeKey)

	// A reported zero stays a zero, it does not become NULL.
	assert.Equal(t, sql.NullInt64{Int64: 0, Valid: true}, row.TotalAboard)
	assert.Equal(t, sql.NullInt64{Int64: 2, Valid: true}, row.TotalFatalities)
	assert.False(t, row.SeriousInjuries.Valid)

	assert.Equal(t, sql.NullString{String: "Substantial", Valid: true}, row.Damage)
	assert.False(t, row.Phase.Valid)
}

func TestFromAccidentAbsentTimeKey(t *testing.T) {
	row := fromAccident(domain.Accident{Source: domain.SourceCSV, UniqueID: "42"})
	assert.False(t, row.TimeKey.Valid)
}

func TestRunRowRoundTrip(t *testing.T) {
	started := time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC)
	finished := started.Add(time.Minute)

	row := runRow{
		ID:         "run-1",
		DataSource: "NTSB",
		StartedAt:  started,
		FinishedAt: sql.NullTime{Time: finished, Valid: true},
		Processed:  10,
		Inserted:   8,
		Skipped:    1,
		Failed:     1,
		Status:     "succeeded",
		Error:      sql.NullString{},
	}

	run := row.toRunAudit()
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, domain.SourceNTSB, run.Source)
	assert.Equal(t, finished, run.FinishedAt)
	assert.Equal(t, domain.RunSucceeded, run.Status)
	assert.Empty(t, run.Error)
}

func TestRunRowUnfinished(t *testing.T) {
	run := runRow{ID: "run-2", DataSource: "ASN", Status: "running"}.toRunAudit()
	assert.True(t, run.FinishedAt.IsZero())
	assert.Equal(t, domain.RunRunning, run.Status)
}

func TestStagingTablesCoverAllSources(t *testing.T) {
	for _, source := range domain.Sources {
		_, ok := stagingTables[source]
		assert.True(t, ok, "source %s has no staging table", source)
	}
}
