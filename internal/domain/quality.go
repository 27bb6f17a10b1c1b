package domain

import "time"

// QualityEvent records a per-record data problem that was downgraded to a
// fallback or skip: a date that defaulted, a count that would not parse, a
// payload that was not the expected shape. These exist for operator
// visibility only; the pipeline never acts on them.
type QualityEvent struct {
	Source     Source    `json:"source"`
	RecordID   string    `json:"record_id"`
	Field      string    `json:"field"`
	Problem    string    `json:"problem"`
	RawValue   string    `json:"raw_value,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// QualityReporter receives quality events. Implementations must be safe for
// concurrent use; sources run in parallel.
type QualityReporter interface {
	Report(event QualityEvent)
}
