package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-data-warehouse/internal/domain"
)

func TestCSVMapperFullRow(t *testing.T) {
	payload := []byte(`{
		"index": "42",
		"Date": "09/17/1908",
		"Time": "17:18",
		"Location": "Fort Myer, Virginia",
		"Operator": "Military - U.S. Army",
		"Flight #": "",
		"Route": "Demonstration",
		"Type": "Wright Flyer III",
		"Registration": "",
		"cn/In": "1",
		"Aboard": "2",
		"Fatalities": "1",
		"Ground": "0",
		"Summary": "First recorded airplane fatality."
	}`)

	m, err := csvMapper{}.Map(domain.RawRecord{Source: domain.SourceCSV, UniqueID: "42", Payload: payload})
	require.NoError(t, err)

	assert.Equal(t, "42", m.UniqueID)
	assert.Empty(t, m.Quality)

	assert.Equal(t, "19080917", m.Date.NativeID)
	assert.False(t, m.Date.Fallback)

	require.NotNil(t, m.Time)
	assert.Equal(t, "1718", m.Time.NativeID)

	// Free-text place splits on the last comma.
	assert.Equal(t, "Fort Myer", m.Location.City)
	assert.Equal(t, "Virginia", m.Location.Country)

	// No registration mark, so the aircraft id falls back to a content hash.
	assert.Equal(t, domain.AircraftNativeID("", "Wright Flyer III", "1"), m.Aircraft.NativeID)
	assert.Equal(t, "1", m.Aircraft.MSN)

	assert.Equal(t, "Military - U.S. Army", m.Operator.Name)

	require.NotNil(t, m.Fact.TotalAboard)
	assert.Equal(t, 2, *m.Fact.TotalAboard)
	require.NotNil(t, m.Fact.TotalFatalities)
	assert.Equal(t, 1, *m.Fact.TotalFatalities)
	require.NotNil(t, m.Fact.GroundFatalities)
	assert.Equal(t, 0, *m.Fact.GroundFatalities)
	assert.Equal(t, "Demonstration", m.Fact.Route)
	assert.Equal(t, "First recorded airplane fatality.", m.Fact.Narrative)
}

func TestCSVMapperSingleTokenLocationIsCountry(t *testing.T) {
	payload := []byte(`{"index": "7", "Date": "06/02/1955", "Location": "Atlantic Ocean"}`)

	m, err := csvMapper{}.Map(domain.RawRecord{Source: domain.SourceCSV, Payload: payload})
	require.NoError(t, err)

	assert.Empty(t, m.Location.City)
	assert.Equal(t, "Atlantic Ocean", m.Location.Country)
}

func TestCSVMapperBlankMeasuresAreAbsent(t *testing.T) {
	payload := []byte(`{"index": "8", "Date": "06/02/1955", "Aboard": "", "Fatalities": "  ", "Ground": ""}`)

	m, err := csvMapper{}.Map(domain.RawRecord{Source: domain.SourceCSV, Payload: payload})
	require.NoError(t, err)

	assert.Nil(t, m.Fact.TotalAboard)
	assert.Nil(t, m.Fact.TotalFatalities)
	assert.Nil(t, m.Fact.GroundFatalities)
	assert.Empty(t, m.Quality)
}

func TestCSVMapperUnparseableMeasureReported(t *testing.T) {
	payload := []byte(`{"index": "9", "Date": "06/02/1955", "Fatalities": "unknown"}`)

	m, err := csvMapper{}.Map(domain.RawRecord{Source: domain.SourceCSV, Payload: payload})
	require.NoError(t, err)

	assert.Nil(t, m.Fact.TotalFatalities)
	require.Len(t, m.Quality, 1)
	assert.Equal(t, "Fatalities", m.Quality[0].Field)
	assert.Equal(t, "unknown", m.Quality[0].RawValue)
}

func TestCSVMapperDateFallback(t *testing.T) {
	payload := []byte(`{"index": "10", "Date": "1955-06-02"}`)

	m, err := csvMapper{}.Map(domain.RawRecord{Source: domain.SourceCSV, Payload: payload})
	require.NoError(t, err)

	assert.Equal(t, "19000101", m.Date.NativeID)
	assert.True(t, m.Date.Fallback)
	require.Len(t, m.Quality, 1)
	assert.Equal(t, "Date", m.Quality[0].Field)
}

func TestCSVMapperMissingIndex(t *testing.T) {
	_, err := csvMapper{}.Map(domain.RawRecord{Source: domain.SourceCSV, Payload: []byte(`{"Date": "06/02/1955"}`)})
	assert.Error(t, err)
}

func TestSplitPlace(t *testing.T) {
	tests := []struct {
		name     string
		location string
		city     string
		country  string
	}{
		{"city and country", "Moscow, Russia", "Moscow", "Russia"},
		{"nested place keeps last token", "Near Moose Lake, British Columbia, Canada", "Near Moose Lake, British Columbia", "Canada"},
		{"single token", "Russia", "", "Russia"},
		{"blank", "  ", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			city, country := splitPlace(tt.location)
			assert.Equal(t, tt.city, city)
			assert.Equal(t, tt.country, country)
		})
	}
}
