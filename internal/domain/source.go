package domain

// Source identifies which upstream system a record or dimension row came from.
// Natural-key namespaces are disjoint per source, so two sources may load
// concurrently without coordinating beyond the uniqueness constraints.
type Source string

const (
	// SourceASN is the Aviation Safety Network web database, staged as source 1.
	SourceASN Source = "ASN"
	// SourceNTSB is the NTSB CAROL investigation API export, staged as source 2.
	SourceNTSB Source = "NTSB"
	// SourceCSV is the flat historical accident CSV, staged as source 3.
	SourceCSV Source = "CSV"
	// SourceSystem owns synthetic rows such as the UNKNOWN sentinels.
	SourceSystem Source = "SYSTEM"
)

// Sources lists the reconcilable sources in canonical order.
var Sources = []Source{SourceASN, SourceNTSB, SourceCSV}

// ParseSource returns the Source for a tag string, or false if unrecognized.
func ParseSource(s string) (Source, bool) {
	switch Source(s) {
	case SourceASN, SourceNTSB, SourceCSV:
		return Source(s), true
	default:
		return "", false
	}
}

// DimensionType discriminates the five dimension tables.
type DimensionType string

const (
	DimDate     DimensionType = "date"
	DimTime     DimensionType = "time"
	DimLocation DimensionType = "location"
	DimAircraft DimensionType = "aircraft"
	DimOperator DimensionType = "operator"
)

// SentinelNativeID is the source_native_id shared by every sentinel dimension
// row. The full sentinel natural key is (SYSTEM, UNKNOWN).
const SentinelNativeID = "UNKNOWN"

// NaturalKey is the composite business key of a dimension row. It is stored
// as two columns with a real uniqueness constraint rather than a concatenated
// string, so separator characters inside source ids cannot cause collisions.
type NaturalKey struct {
	Source   Source
	NativeID string
}

// RawRecord is one staged payload: the source-native unique id plus the
// verbatim JSON document copied from the source extract.
type RawRecord struct {
	Source   Source
	UniqueID string
	Payload  []byte
}
