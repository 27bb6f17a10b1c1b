package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourceDate(t *testing.T) {
	tests := []struct {
		name     string
		source   Source
		raw      string
		expected int
		parsed   bool
	}{
		{"ASN long form", SourceASN, "Monday 9 December 2024", 20241209, true},
		{"ASN long form with comma", SourceASN, "Monday, 9 December 2024", 20241209, true},
		{"ASN without weekday", SourceASN, "9 December 2024", 20241209, true},
		{"NTSB RFC3339", SourceNTSB, "2025-11-03T09:30:00Z", 20251103, true},
		{"NTSB without zone", SourceNTSB, "2025-11-03T09:30:00", 20251103, true},
		{"NTSB date only", SourceNTSB, "2025-11-03", 20251103, true},
		{"CSV slash date", SourceCSV, "09/17/1908", 19080917, true},
		{"unparseable text", SourceASN, "not a date", FallbackDate, false},
		{"wrong format for source", SourceCSV, "2024-12-09", FallbackDate, false},
		{"empty string", SourceNTSB, "", FallbackDate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseSourceDate(tt.source, tt.raw)
			assert.Equal(t, tt.expected, result.YYYYMMDD)
			assert.Equal(t, tt.parsed, result.Parsed)
		})
	}

	t.Run("fallback carries the 1900-01-01 canonical date", func(t *testing.T) {
		result := ParseSourceDate(SourceCSV, "garbage")
		require.False(t, result.Parsed)
		assert.Equal(t, 1900, result.Date.Year())
		assert.Equal(t, 19000101, result.YYYYMMDD)
	})
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		hour   int
		minute int
		ok     bool
	}{
		{"plain HH:MM", "14:30", 14, 30, true},
		{"approximate prefix", "ca. 09:15", 9, 15, true},
		{"local time suffix", "17:05 LT", 17, 5, true},
		{"midnight", "0:00", 0, 0, true},
		{"blank", "", 0, 0, false},
		{"no time present", "daytime", 0, 0, false},
		{"invalid hour", "25:10", 0, 0, false},
		{"invalid minute", "12:75", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, ok := ParseClock(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.hour, hour)
				assert.Equal(t, tt.minute, minute)
			}
		})
	}
}

func TestExtractLabeledCount(t *testing.T) {
	const asnFatalities = "Fatalities: 0 / Occupants: 2"

	t.Run("occupants", func(t *testing.T) {
		n, ok := ExtractLabeledCount(asnFatalities, "Occupants")
		require.True(t, ok)
		assert.Equal(t, 2, n)
	})

	t.Run("zero is present, not absent", func(t *testing.T) {
		n, ok := ExtractLabeledCount(asnFatalities, "Fatalities")
		require.True(t, ok)
		assert.Equal(t, 0, n)
	})

	t.Run("missing label", func(t *testing.T) {
		_, ok := ExtractLabeledCount("Occupants: 2", "Fatalities")
		assert.False(t, ok)
	})

	t.Run("label without number", func(t *testing.T) {
		_, ok := ExtractLabeledCount("Fatalities: unknown", "Fatalities")
		assert.False(t, ok)
	})

	t.Run("case insensitive", func(t *testing.T) {
		n, ok := ExtractLabeledCount("fatalities: 12", "Fatalities")
		require.True(t, ok)
		assert.Equal(t, 12, n)
	})
}

func TestParseOptionalCount(t *testing.T) {
	t.Run("blank is nil", func(t *testing.T) {
		assert.Nil(t, ParseOptionalCount(""))
		assert.Nil(t, ParseOptionalCount("  "))
	})

	t.Run("malformed is nil", func(t *testing.T) {
		assert.Nil(t, ParseOptionalCount("n/a"))
	})

	t.Run("zero stays zero", func(t *testing.T) {
		n := ParseOptionalCount("0")
		require.NotNil(t, n)
		assert.Equal(t, 0, *n)
	})

	t.Run("positive", func(t *testing.T) {
		n := ParseOptionalCount(" 47 ")
		require.NotNil(t, n)
		assert.Equal(t, 47, *n)
	})
}

func TestNormalizeGeoText(t *testing.T) {
	t.Run("NTSB upper-cases geographic codes", func(t *testing.T) {
		assert.Equal(t, "UNITED STATES", NormalizeGeoText(SourceNTSB, " United States "))
	})

	t.Run("ASN and CSV only trim", func(t *testing.T) {
		assert.Equal(t, "United States", NormalizeGeoText(SourceASN, " United States "))
		assert.Equal(t, "Tenerife, Canary Islands", NormalizeGeoText(SourceCSV, "Tenerife, Canary Islands "))
	})
}
