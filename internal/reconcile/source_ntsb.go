package reconcile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
)

// ntsbMapper maps NTSB CAROL cases. Cases are keyed by cm_ntsbNum and
// are the only source carrying nested collections, which expand into bridge
// rows. Geographic codes from this feed are upper-cased per the source's
// normalization rule.
type ntsbMapper struct{}

func (ntsbMapper) Source() domain.Source { return domain.SourceNTSB }

func (m ntsbMapper) Map(raw domain.RawRecord) (mapped, error) {
	var rec domain.NTSBRecord
	if err := json.Unmarshal(raw.Payload, &rec); err != nil {
		return mapped{}, fmt.Errorf("parse NTSB case: %w", err)
	}

	id := strings.TrimSpace(rec.NTSBNum)
	if id == "" {
		id = raw.UniqueID
	}
	if id == "" {
		return mapped{}, fmt.Errorf("NTSB case missing cm_ntsbNum")
	}

	out := mapped{UniqueID: id}
	src := m.Source()

	dateRes := domain.ParseSourceDate(src, rec.EventDate)
	if !dateRes.Parsed {
		out.Quality = append(out.Quality, qualityEvent(src, id, "cm_eventDate", "unparseable date, fallback applied", rec.EventDate))
	}
	out.Date = dateDimension(src, dateRes)

	// The event timestamp doubles as the time of day. CAROL reports
	// midnight when the time is unknown, so 00:00 is treated as absent.
	if t := timeDimension(src, rec.EventDate); t != nil && !(t.Hour == 0 && t.Minute == 0) {
		out.Time = t
	}

	country := domain.NormalizeGeoText(src, rec.Country)
	state := domain.NormalizeGeoText(src, rec.State)
	city := domain.NormalizeGeoText(src, rec.City)
	out.Location = domain.LocationDimension{
		Source:   src,
		NativeID: domain.LocationNativeID(country, state, city),
		Country:  country,
		State:    state,
		City:     city,
	}

	// Multi-vehicle cases exist; the first vehicle drives the aircraft and
	// operator dimensions, matching the one-aircraft-per-fact grain.
	var vehicle domain.NTSBVehicle
	if len(rec.Vehicles) > 0 {
		vehicle = rec.Vehicles[0]
	} else {
		out.Quality = append(out.Quality, qualityEvent(src, id, "cm_vehicles", "case has no vehicles", ""))
	}

	out.Aircraft = domain.AircraftDimension{
		Source:       src,
		NativeID:     domain.AircraftNativeID(vehicle.Registration, vehicle.Make, vehicle.Model),
		Make:         strings.TrimSpace(vehicle.Make),
		Model:        strings.TrimSpace(vehicle.Model),
		Registration: strings.TrimSpace(vehicle.Registration),
		Category:     strings.TrimSpace(vehicle.AircraftCategory),
	}

	operatorName := strings.TrimSpace(vehicle.OperatorName)
	out.Operator = domain.OperatorDimension{
		Source:   src,
		NativeID: domain.OperatorNativeID(operatorName),
		Name:     operatorName,
	}

	fact := domain.Accident{
		Source:          src,
		UniqueID:        id,
		DateID:          out.Date.NativeID,
		LocationID:      out.Location.NativeID,
		AircraftID:      out.Aircraft.NativeID,
		OperatorID:      out.Operator.NativeID,
		TotalFatalities: rec.FatalInjuryCount,
		SeriousInjuries: rec.SeriousInjuryCount,
		MinorInjuries:   rec.MinorInjuryCount,
		Nature:          strings.TrimSpace(rec.EventType),
		ProbableCause:   strings.TrimSpace(rec.ProbableCause),
	}
	if out.Time != nil {
		fact.TimeID = out.Time.NativeID
	}
	out.Fact = fact

	out.Bridges = ntsbBridges(rec)
	return out, nil
}

// ntsbBridges expands a case's nested collections into bridge children.
// Sequence numbers are carried verbatim from the source.
func ntsbBridges(rec domain.NTSBRecord) domain.BridgeSet {
	var set domain.BridgeSet

	for _, e := range rec.Events {
		set.Events = append(set.Events, domain.SequenceEvent{
			Sequence:  e.Sequence,
			EventCode: strings.TrimSpace(e.EventCode),
			Phase:     strings.TrimSpace(e.Phase),
			Narrative: strings.TrimSpace(e.Narrative),
		})
	}

	for _, f := range rec.Findings {
		set.Findings = append(set.Findings, domain.Finding{
			Sequence:      f.Sequence,
			Category:      strings.TrimSpace(f.Category),
			Description:   strings.TrimSpace(f.Description),
			ProbableCause: f.ProbableCause,
		})
	}

	for _, c := range rec.CrewMembers {
		set.Crew = append(set.Crew, domain.CrewMember{
			Role:        strings.TrimSpace(c.Role),
			InjuryLevel: strings.TrimSpace(c.InjuryLevel),
			Age:         c.Age,
		})
	}

	// Injury matrix: one row per reported injury level. Absent counts add
	// no row; reported zeros do.
	for _, cell := range []struct {
		level string
		count *int
	}{
		{"fatal", rec.FatalInjuryCount},
		{"serious", rec.SeriousInjuryCount},
		{"minor", rec.MinorInjuryCount},
	} {
		if cell.count != nil {
			set.Injuries = append(set.Injuries, domain.InjuryCount{
				InjuryLevel: cell.level,
				Count:       *cell.count,
			})
		}
	}

	return set
}
