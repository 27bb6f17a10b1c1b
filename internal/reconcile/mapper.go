// Package reconcile is the Transform/Load core: it maps staged payloads from
// each source into the shared star schema, upserting dimensions first and
// then loading facts and their bridge children. Stages within a source are
// strictly ordered; independent sources run concurrently.
package reconcile

import (
	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
)

// mapped is one staged record after identity resolution and normalization:
// the dimension rows it can populate, the fact carrying resolved natural
// keys, its bridge children, and any quality events raised along the way.
type mapped struct {
	UniqueID string
	Date     domain.DateDimension
	Time     *domain.TimeDimension
	Location domain.LocationDimension
	Aircraft domain.AircraftDimension
	Operator domain.OperatorDimension
	Fact     domain.Accident
	Bridges  domain.BridgeSet
	Quality  []domain.QualityEvent
}

// sourceMapper converts one source's raw payloads into mapped records.
// Mapping is pure: identical payloads always produce identical natural keys.
// A returned error means the payload was not the expected document shape;
// field-level problems downgrade to fallbacks plus quality events instead.
type sourceMapper interface {
	Source() domain.Source
	Map(raw domain.RawRecord) (mapped, error)
}

// qualityEvent builds a quality event stamped with the domain clock.
func qualityEvent(source domain.Source, recordID, field, problem, rawValue string) domain.QualityEvent {
	return domain.QualityEvent{
		Source:     source,
		RecordID:   recordID,
		Field:      field,
		Problem:    problem,
		RawValue:   rawValue,
		ObservedAt: domain.Now(),
	}
}

// dateDimension builds the date dimension row for a normalization result.
func dateDimension(source domain.Source, res domain.DateResult) domain.DateDimension {
	return domain.DateDimension{
		Source:   source,
		NativeID: domain.DateNativeID(res.YYYYMMDD),
		Date:     res.Date,
		Year:     res.Date.Year(),
		Month:    int(res.Date.Month()),
		Day:      res.Date.Day(),
		Weekday:  res.Date.Weekday().String(),
		Fallback: !res.Parsed,
	}
}

// timeDimension builds an optional time dimension row from a raw clock field.
func timeDimension(source domain.Source, raw string) *domain.TimeDimension {
	hour, minute, ok := domain.ParseClock(raw)
	if !ok {
		return nil
	}
	return &domain.TimeDimension{
		Source:   source,
		NativeID: domain.TimeNativeID(hour, minute),
		Hour:     hour,
		Minute:   minute,
	}
}
