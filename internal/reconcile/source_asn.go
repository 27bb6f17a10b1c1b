package reconcile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
)

// asnMapper maps Aviation Safety Network wikibase records. Records
// are keyed by the numeric wikibase id from the page URL; casualty counts
// live inside the free-text fatalities field.
type asnMapper struct{}

func (asnMapper) Source() domain.Source { return domain.SourceASN }

func (m asnMapper) Map(raw domain.RawRecord) (mapped, error) {
	var rec domain.ASNRecord
	if err := json.Unmarshal(raw.Payload, &rec); err != nil {
		return mapped{}, fmt.Errorf("parse ASN record: %w", err)
	}

	id := raw.UniqueID
	if id == "" {
		id = domain.WikibaseID(rec.URL)
	}

	out := mapped{UniqueID: id}
	src := m.Source()

	dateRes := domain.ParseSourceDate(src, rec.Date)
	if !dateRes.Parsed {
		out.Quality = append(out.Quality, qualityEvent(src, id, "date", "unparseable date, fallback applied", rec.Date))
	}
	out.Date = dateDimension(src, dateRes)
	out.Time = timeDimension(src, rec.Time)

	country := domain.NormalizeGeoText(src, rec.Location)
	out.Location = domain.LocationDimension{
		Source:   src,
		NativeID: domain.LocationNativeID(country),
		Country:  country,
	}

	out.Aircraft = domain.AircraftDimension{
		Source:       src,
		NativeID:     domain.AircraftNativeID(rec.Registration, rec.Type, rec.MSN),
		Type:         strings.TrimSpace(rec.Type),
		Registration: strings.TrimSpace(rec.Registration),
		MSN:          strings.TrimSpace(rec.MSN),
		YearBuilt:    strings.TrimSpace(rec.YearOfManufacture),
	}

	operatorName := strings.TrimSpace(rec.OwnerOperator)
	out.Operator = domain.OperatorDimension{
		Source:   src,
		NativeID: domain.OperatorNativeID(operatorName),
		Name:     operatorName,
	}

	fact := domain.Accident{
		Source:             src,
		UniqueID:           id,
		DateID:             out.Date.NativeID,
		LocationID:         out.Location.NativeID,
		AircraftID:         out.Aircraft.NativeID,
		OperatorID:         out.Operator.NativeID,
		Damage:             strings.TrimSpace(rec.AircraftDamage),
		Phase:              strings.TrimSpace(rec.Phase),
		Nature:             strings.TrimSpace(rec.Nature),
		DepartureAirport:   strings.TrimSpace(rec.DepartureAirport),
		DestinationAirport: strings.TrimSpace(rec.DestinationAirport),
		Narrative:          strings.TrimSpace(rec.Narrative),
	}
	if out.Time != nil {
		fact.TimeID = out.Time.NativeID
	}

	// Counts are embedded in free text: "Fatalities: 0 / Occupants: 2".
	// A matched zero is a reported zero; only a missing label leaves the
	// measure absent.
	if n, ok := domain.ExtractLabeledCount(rec.Fatalities, "Fatalities"); ok {
		fact.TotalFatalities = &n
	} else if strings.TrimSpace(rec.Fatalities) != "" {
		out.Quality = append(out.Quality, qualityEvent(src, id, "fatalities", "no fatality count found", rec.Fatalities))
	}
	if n, ok := domain.ExtractLabeledCount(rec.Fatalities, "Occupants"); ok {
		fact.TotalAboard = &n
	}

	out.Fact = fact
	return out, nil
}
