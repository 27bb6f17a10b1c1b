package domain

// ASNRecord is the JSON shape produced by the Aviation Safety Network
// scraper, one object per wikibase occurrence page.
type ASNRecord struct {
	URL                string   `json:"url"`
	Date               string   `json:"date"` // long form, e.g. "Monday 9 December 2024"
	Time               string   `json:"time"`
	Type               string   `json:"type"` // aircraft type
	OwnerOperator      string   `json:"owner_operator"`
	Registration       string   `json:"registration"`
	MSN                string   `json:"msn"`
	YearOfManufacture  string   `json:"year_of_manufacture"`
	Fatalities         string   `json:"fatalities"` // "Fatalities: 0 / Occupants: 2"
	AircraftDamage     string   `json:"aircraft_damage"`
	Location           string   `json:"location"` // country-level
	Phase              string   `json:"phase"`
	Nature             string   `json:"nature"`
	DepartureAirport   string   `json:"departure_airport"`
	DestinationAirport string   `json:"destination_airport"`
	ConfidenceRating   string   `json:"confidence_rating"`
	Narrative          string   `json:"narrative"`
	Sources            []string `json:"sources"`
}

// NTSBRecord is one case from the CAROL FileExport API, as merged by the
// extraction scripts. Column names keep the upstream cm_ prefix.
type NTSBRecord struct {
	NTSBNum            string         `json:"cm_ntsbNum"`
	MKey               int            `json:"cm_mkey"`
	EventDate          string         `json:"cm_eventDate"` // ISO 8601 timestamp
	City               string         `json:"cm_city"`
	State              string         `json:"cm_state"`
	Country            string         `json:"cm_country"`
	EventType          string         `json:"cm_eventType"`
	HighestInjury      string         `json:"cm_highestInjury"`
	FatalInjuryCount   *int           `json:"cm_fatalInjuryCount"`
	SeriousInjuryCount *int           `json:"cm_seriousInjuryCount"`
	MinorInjuryCount   *int           `json:"cm_minorInjuryCount"`
	ProbableCause      string         `json:"cm_probableCause"`
	Vehicles           []NTSBVehicle  `json:"cm_vehicles"`
	Events             []NTSBEvent    `json:"cm_events"`
	Findings           []NTSBFinding  `json:"cm_findings"`
	CrewMembers        []NTSBCrewSeat `json:"cm_crew"`
}

// NTSBVehicle describes one aircraft involved in a case. Cases with multiple
// vehicles exist; the first vehicle drives the aircraft and operator
// dimensions, matching the one-aircraft-per-fact warehouse grain.
type NTSBVehicle struct {
	Make             string `json:"make"`
	Model            string `json:"model"`
	Registration     string `json:"registrationNumber"`
	OperatorName     string `json:"operatorName"`
	AircraftCategory string `json:"aircraftCategory"`
	AirCarrier       string `json:"airCarrier"`
	NumberOfEngines  *int   `json:"numberOfEngines"`
}

// NTSBEvent is one entry in a case's occurrence sequence.
type NTSBEvent struct {
	Sequence  int    `json:"sequenceNum"`
	EventCode string `json:"eventCode"`
	Phase     string `json:"phase"`
	Narrative string `json:"narrative"`
}

// NTSBFinding is one probable-cause or contributing-factor finding.
type NTSBFinding struct {
	Sequence      int    `json:"sequenceNum"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	ProbableCause bool   `json:"isCause"`
}

// NTSBCrewSeat is one crew member entry on a case.
type NTSBCrewSeat struct {
	Role        string `json:"role"`
	InjuryLevel string `json:"injuryLevel"`
	Age         *int   `json:"age"`
}

// CSVRecord is one row of the historical accidents CSV. The staging loader
// stores each row as a JSON object keyed by the original column headers.
type CSVRecord struct {
	Index        string `json:"index"`
	Date         string `json:"Date"` // MM/DD/YYYY
	Time         string `json:"Time"` // HH:MM, often blank
	Location     string `json:"Location"`
	Operator     string `json:"Operator"`
	FlightNumber string `json:"Flight #"`
	Route        string `json:"Route"`
	Type         string `json:"Type"`
	Registration string `json:"Registration"`
	CnIn         string `json:"cn/In"`
	Aboard       string `json:"Aboard"`
	Fatalities   string `json:"Fatalities"`
	Ground       string `json:"Ground"`
	Summary      string `json:"Summary"`
}
