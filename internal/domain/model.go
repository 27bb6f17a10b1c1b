package domain

import "time"

// DateDimension is one calendar date as seen by one source. NativeID is the
// canonical YYYYMMDD string, so identical dates within a source collapse to
// one row.
type DateDimension struct {
	Key      int64
	Source   Source
	NativeID string
	Date     time.Time
	Year     int
	Month    int
	Day      int
	Weekday  string
	Fallback bool // true when the source date failed to parse
}

// TimeDimension is one time-of-day as seen by one source, NativeID "HHMM".
type TimeDimension struct {
	Key      int64
	Source   Source
	NativeID string
	Hour     int
	Minute   int
}

// LocationDimension holds the source-specific subset of the shared location
// attributes; unreported fields stay empty.
type LocationDimension struct {
	Key      int64
	Source   Source
	NativeID string
	Country  string
	State    string
	City     string
	Airport  string
}

// AircraftDimension describes one airframe as reported by one source.
type AircraftDimension struct {
	Key          int64
	Source       Source
	NativeID     string
	Type         string
	Make         string
	Model        string
	Registration string
	MSN          string
	YearBuilt    string
	Category     string
}

// OperatorDimension is one owner/operator name as reported by one source.
type OperatorDimension struct {
	Key      int64
	Source   Source
	NativeID string
	Name     string
}

// Accident is the fact-table grain: one row per staged source record.
// Dimension references carry the resolved natural keys until the fact load
// swaps them for surrogate keys (or the sentinel on a lookup miss).
type Accident struct {
	Key      int64
	Source   Source
	UniqueID string

	DateID     string
	TimeID     string // empty when the source reports no time of day
	LocationID string
	AircraftID string
	OperatorID string

	DateKey     int64
	TimeKey     *int64
	LocationKey int64
	AircraftKey int64
	OperatorKey int64

	// Measures. Nil means the source does not report the count; zero means
	// the source reports zero. The two are never conflated.
	TotalAboard      *int
	TotalFatalities  *int
	SeriousInjuries  *int
	MinorInjuries    *int
	GroundFatalities *int

	Damage             string
	Phase              string
	Nature             string
	FlightNumber       string
	Route              string
	DepartureAirport   string
	DestinationAirport string
	Narrative          string
	ProbableCause      string
}

// SequenceEvent is one entry of an accident's occurrence sequence. Sequence
// is carried verbatim from the source, never re-derived.
type SequenceEvent struct {
	Sequence  int
	EventCode string
	Phase     string
	Narrative string
}

// Finding is one investigation finding attached to an accident.
type Finding struct {
	Sequence      int
	Category      string
	Description   string
	ProbableCause bool
}

// CrewMember is one crew entry attached to an accident.
type CrewMember struct {
	Role        string
	InjuryLevel string
	Age         *int
}

// InjuryCount is one cell of the injury matrix: how many people sustained a
// given injury level.
type InjuryCount struct {
	InjuryLevel string
	Count       int
}

// BridgeSet groups every child collection an accident owns.
type BridgeSet struct {
	Events   []SequenceEvent
	Findings []Finding
	Crew     []CrewMember
	Injuries []InjuryCount
}

// Empty reports whether the record has no child rows at all.
func (b BridgeSet) Empty() bool {
	return len(b.Events) == 0 && len(b.Findings) == 0 && len(b.Crew) == 0 && len(b.Injuries) == 0
}

// DimensionKeys holds the surrogate keys of one dimension row per table,
// used both for sentinel lookup and per-fact resolution.
type DimensionKeys struct {
	Date     int64
	Time     int64
	Location int64
	Aircraft int64
	Operator int64
}

// RunStatus is the terminal state of a per-source reconciliation run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunAudit is the run-level audit record consumed by operational monitoring.
type RunAudit struct {
	ID         string
	Source     Source
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	Inserted   int
	Skipped    int
	Failed     int
	Status     RunStatus
	Error      string
}
