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

// FactRepository inserts fact rows and their bridge children. Each record is
// one transaction: either the fact and all of its children commit together,
// or none of them are visible. A conflicting natural key rolls the whole
// record back as a skip, so a re-run can never attach duplicate children to
// an existing fact.
type FactRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewFactRepository creates a fact repository.
func NewFactRepository(db *sqlx.DB, logger *slog.Logger) *FactRepository {
	return &FactRepository{db: db, logger: logger}
}

// InsertAccident inserts one fact row plus its bridge rows. Returns false
// with no error when the fact's (data_source, source_unique_id) already
// exists. An existing key is a skip, not a failure.
func (r *FactRepository) InsertAccident(ctx context.Context, fact domain.Accident, children domain.BridgeSet) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin fact tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	factKey, inserted, err := insertFact(ctx, tx, fact)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}

	if err := insertBridges(ctx, tx, factKey, children); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit fact tx: %w", err)
	}
	return true, nil
}

// insertFact attempts the fact insert and returns the new surrogate key.
// inserted=false means the natural key already existed.
func insertFact(ctx context.Context, tx *sqlx.Tx, fact domain.Accident) (int64, bool, error) {
	row := fromAccident(fact)

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertIgnoreInto(factTable)
	ib.Cols(
		"data_source", "source_unique_id",
		"date_key", "time_key", "location_key", "aircraft_key", "operator_key",
		"total_aboard", "total_fatalities", "serious_injuries", "minor_injuries", "ground_fatalities",
		"damage", "phase", "nature", "flight_number", "route",
		"departure_airport", "destination_airport", "narrative", "probable_cause",
	)
	ib.Values(
		row.DataSource, row.SourceUniqueID,
		row.DateKey, row.TimeKey, row.LocationKey, row.AircraftKey, row.OperatorKey,
		row.TotalAboard, row.TotalFatalities, row.SeriousInjuries, row.MinorInjuries, row.GroundFatalities,
		row.Damage, row.Phase, row.Nature, row.FlightNumber, row.Route,
		row.DepartureAirport, row.DestinationAirport, row.Narrative, row.ProbableCause,
	)
	ib.Returning("accident_key")
	query, args := ib.Build()

	var factKey int64
	err := tx.GetContext(ctx, &factKey, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		// ON CONFLICT DO NOTHING returned no row: the fact already exists.
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert fact: %w", err)
	}
	return factKey, true, nil
}

// insertBridges expands every child collection into bridge rows referencing
// the parent fact key. Sequence numbers are stored verbatim.
func insertBridges(ctx context.Context, tx *sqlx.Tx, factKey int64, children domain.BridgeSet) error {
	if children.Empty() {
		return nil
	}

	if len(children.Events) > 0 {
		ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
		ib.InsertInto(eventTable)
		ib.Cols("accident_key", "seq_number", "event_code", "phase", "narrative")
		for _, e := range children.Events {
			ib.Values(factKey, e.Sequence, nullStr(e.EventCode), nullStr(e.Phase), nullStr(e.Narrative))
		}
		if err := execBridge(ctx, tx, ib, eventTable); err != nil {
			return err
		}
	}

	if len(children.Findings) > 0 {
		ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
		ib.InsertInto(findingTable)
		ib.Cols("accident_key", "seq_number", "category", "description", "probable_cause")
		for _, f := range children.Findings {
			ib.Values(factKey, f.Sequence, nullStr(f.Category), nullStr(f.Description), f.ProbableCause)
		}
		if err := execBridge(ctx, tx, ib, findingTable); err != nil {
			return err
		}
	}

	if len(children.Crew) > 0 {
		ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
		ib.InsertInto(crewTable)
		ib.Cols("accident_key", "role", "injury_level", "age")
		for _, c := range children.Crew {
			ib.Values(factKey, nullStr(c.Role), nullStr(c.InjuryLevel), nullInt(c.Age))
		}
		if err := execBridge(ctx, tx, ib, crewTable); err != nil {
			return err
		}
	}

	if len(children.Injuries) > 0 {
		ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
		ib.InsertInto(injuryTable)
		ib.Cols("accident_key", "injury_level", "person_count")
		for _, i := range children.Injuries {
			ib.Values(factKey, nullStr(i.InjuryLevel), i.Count)
		}
		if err := execBridge(ctx, tx, ib, injuryTable); err != nil {
			return err
		}
	}

	return nil
}

func execBridge(ctx context.Context, tx *sqlx.Tx, ib *sqlbuilder.InsertBuilder, table string) error {
	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}
