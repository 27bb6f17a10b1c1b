package reconcile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
)

// csvMapper maps rows of the historical accidents CSV. Rows are keyed
// by their index column; the staging loader stores each row as a JSON object
// keyed by the original column headers.
type csvMapper struct{}

func (csvMapper) Source() domain.Source { return domain.SourceCSV }

func (m csvMapper) Map(raw domain.RawRecord) (mapped, error) {
	var rec domain.CSVRecord
	if err := json.Unmarshal(raw.Payload, &rec); err != nil {
		return mapped{}, fmt.Errorf("parse CSV row: %w", err)
	}

	id := strings.TrimSpace(rec.Index)
	if id == "" {
		id = raw.UniqueID
	}
	if id == "" {
		return mapped{}, fmt.Errorf("CSV row missing index")
	}

	out := mapped{UniqueID: id}
	src := m.Source()

	dateRes := domain.ParseSourceDate(src, rec.Date)
	if !dateRes.Parsed {
		out.Quality = append(out.Quality, qualityEvent(src, id, "Date", "unparseable date, fallback applied", rec.Date))
	}
	out.Date = dateDimension(src, dateRes)
	out.Time = timeDimension(src, rec.Time)

	city, country := splitPlace(domain.NormalizeGeoText(src, rec.Location))
	out.Location = domain.LocationDimension{
		Source:   src,
		NativeID: domain.LocationNativeID(city, country),
		Country:  country,
		City:     city,
	}

	out.Aircraft = domain.AircraftDimension{
		Source:       src,
		NativeID:     domain.AircraftNativeID(rec.Registration, rec.Type, rec.CnIn),
		Type:         strings.TrimSpace(rec.Type),
		Registration: strings.TrimSpace(rec.Registration),
		MSN:          strings.TrimSpace(rec.CnIn),
	}

	operatorName := strings.TrimSpace(rec.Operator)
	out.Operator = domain.OperatorDimension{
		Source:   src,
		NativeID: domain.OperatorNativeID(operatorName),
		Name:     operatorName,
	}

	fact := domain.Accident{
		Source:           src,
		UniqueID:         id,
		DateID:           out.Date.NativeID,
		LocationID:       out.Location.NativeID,
		AircraftID:       out.Aircraft.NativeID,
		OperatorID:       out.Operator.NativeID,
		TotalAboard:      m.count(&out, id, "Aboard", rec.Aboard),
		TotalFatalities:  m.count(&out, id, "Fatalities", rec.Fatalities),
		GroundFatalities: m.count(&out, id, "Ground", rec.Ground),
		FlightNumber:     strings.TrimSpace(rec.FlightNumber),
		Route:            strings.TrimSpace(rec.Route),
		Narrative:        strings.TrimSpace(rec.Summary),
	}
	if out.Time != nil {
		fact.TimeID = out.Time.NativeID
	}
	out.Fact = fact

	return out, nil
}

// count parses a plain integer measure, quality-logging values that are
// present but unparseable. Blank columns are silently absent.
func (m csvMapper) count(out *mapped, id, field, raw string) *int {
	n := domain.ParseOptionalCount(raw)
	if n == nil && strings.TrimSpace(raw) != "" {
		out.Quality = append(out.Quality, qualityEvent(m.Source(), id, field, "unparseable count", raw))
	}
	return n
}

// splitPlace breaks a free-text "city, region" location on its last comma.
// Single-token locations are treated as country-level, matching how the
// upstream scraper resolves countries from location text.
func splitPlace(location string) (city, country string) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", ""
	}
	if i := strings.LastIndex(location, ","); i >= 0 {
		return strings.TrimSpace(location[:i]), strings.TrimSpace(location[i+1:])
	}
	return "", location
}
