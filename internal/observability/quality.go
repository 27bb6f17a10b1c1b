package observability

import (
	"log/slog"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
)

// LogReporter writes quality events to the structured log. It is the
// always-on reporter; publishing to Kafka is layered on top when enabled.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a LogReporter.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs one quality event at warn level.
func (r *LogReporter) Report(event domain.QualityEvent) {
	r.logger.Warn("data quality event",
		"source", event.Source,
		"record_id", event.RecordID,
		"field", event.Field,
		"problem", event.Problem,
		"raw_value", event.RawValue,
	)
}

// MultiReporter fans one quality event out to several reporters.
type MultiReporter []domain.QualityReporter

// Report delivers the event to every underlying reporter.
func (m MultiReporter) Report(event domain.QualityEvent) {
	for _, r := range m {
		r.Report(event)
	}
}
