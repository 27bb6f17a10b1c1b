package warehouse

import (
	"database/sql"
	"time"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
)

const (
	dimDateTable     = "dim_date"
	dimTimeTable     = "dim_time"
	dimLocationTable = "dim_location"
	dimAircraftTable = "dim_aircraft"
	dimOperatorTable = "dim_operator"
	factTable        = "fact_accident"
	eventTable       = "bridge_event"
	findingTable     = "bridge_finding"
	crewTable        = "bridge_crew"
	injuryTable      = "bridge_injury"
	runTable         = "etl_run"
)

// stagingTables maps a source to its staging table. The staging layout
// mirrors the original holding area: one verbatim jsonb payload per record.
var stagingTables = map[domain.Source]string{
	domain.SourceASN:  "stg_source1_aviation_safety",
	domain.SourceNTSB: "stg_source2_ntsb",
	domain.SourceCSV:  "stg_source3_csv",
}

// keyColumns maps a dimension type to its table and surrogate key column.
var keyColumns = map[domain.DimensionType]struct{ table, key string }{
	domain.DimDate:     {dimDateTable, "date_key"},
	domain.DimTime:     {dimTimeTable, "time_key"},
	domain.DimLocation: {dimLocationTable, "location_key"},
	domain.DimAircraft: {dimAircraftTable, "aircraft_key"},
	domain.DimOperator: {dimOperatorTable, "operator_key"},
}

// nullStr maps "" to NULL so empty source fields do not masquerade as data.
func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt maps nil to NULL, preserving the zero-vs-absent distinction on
// measures.
func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

type factRow struct {
	Key                int64          `db:"accident_key"`
	DataSource         string         `db:"data_source"`
	SourceUniqueID     string         `db:"source_unique_id"`
	DateKey            int64          `db:"date_key"`
	TimeKey            sql.NullInt64  `db:"time_key"`
	LocationKey        int64          `db:"location_key"`
	AircraftKey        int64          `db:"aircraft_key"`
	OperatorKey        int64          `db:"operator_key"`
	TotalAboard        sql.NullInt64  `db:"total_aboard"`
	TotalFatalities    sql.NullInt64  `db:"total_fatalities"`
	SeriousInjuries    sql.NullInt64  `db:"serious_injuries"`
	MinorInjuries      sql.NullInt64  `db:"minor_injuries"`
	GroundFatalities   sql.NullInt64  `db:"ground_fatalities"`
	Damage             sql.NullString `db:"damage"`
	Phase              sql.NullString `db:"phase"`
	Nature             sql.NullString `db:"nature"`
	FlightNumber       sql.NullString `db:"flight_number"`
	Route              sql.NullString `db:"route"`
	DepartureAirport   sql.NullString `db:"departure_airport"`
	DestinationAirport sql.NullString `db:"destination_airport"`
	Narrative          sql.NullString `db:"narrative"`
	ProbableCause      sql.NullString `db:"probable_cause"`
}

func fromAccident(a domain.Accident) factRow {
	row := factRow{
		DataSource:         string(a.Source),
		SourceUniqueID:     a.UniqueID,
		DateKey:            a.DateKey,
		LocationKey:        a.LocationKey,
		AircraftKey:        a.AircraftKey,
		OperatorKey:        a.OperatorKey,
		TotalAboard:        nullInt(a.TotalAboard),
		TotalFatalities:    nullInt(a.TotalFatalities),
		SeriousInjuries:    nullInt(a.SeriousInjuries),
		MinorInjuries:      nullInt(a.MinorInjuries),
		GroundFatalities:   nullInt(a.GroundFatalities),
		Damage:             nullStr(a.Damage),
		Phase:              nullStr(a.Phase),
		Nature:             nullStr(a.Nature),
		FlightNumber:       nullStr(a.FlightNumber),
		Route:              nullStr(a.Route),
		DepartureAirport:   nullStr(a.DepartureAirport),
		DestinationAirport: nullStr(a.DestinationAirport),
		Narrative:          nullStr(a.Narrative),
		ProbableCause:      nullStr(a.ProbableCause),
	}
	if a.TimeKey != nil {
		row.TimeKey = sql.NullInt64{Int64: *a.TimeKey, Valid: true}
	}
	return row
}

type runRow struct {
	ID         string         `db:"run_id"`
	DataSource string         `db:"data_source"`
	StartedAt  time.Time      `db:"started_at"`
	FinishedAt sql.NullTime   `db:"finished_at"`
	Processed  int            `db:"records_processed"`
	Inserted   int            `db:"records_inserted"`
	Skipped    int            `db:"records_skipped"`
	Failed     int            `db:"records_failed"`
	Status     string         `db:"status"`
	Error      sql.NullString `db:"error"`
}

func (r runRow) toRunAudit() domain.RunAudit {
	return domain.RunAudit{
		ID:         r.ID,
		Source:     domain.Source(r.DataSource),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt.Time,
		Processed:  r.Processed,
		Inserted:   r.Inserted,
		Skipped:    r.Skipped,
		Failed:     r.Failed,
		Status:     domain.RunStatus(r.Status),
		Error:      r.Error.String,
	}
}

type stagedRow struct {
	SourceUniqueID string `db:"source_unique_id"`
	RawJSON        []byte `db:"raw_json"`
}
