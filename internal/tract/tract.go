// Package tract defines the geographic sampling units targeted by a
// collection run and the record shape produced for each of them.
package tract

// SamplingUnit identifies one census tract by its FIPS hierarchy plus a
// human-readable display name. Units are immutable and drawn from the
// built-in sample list.
type SamplingUnit struct {
	State  string `json:"state"`
	County string `json:"county"`
	Tract  string `json:"tract"`
	Name   string `json:"name"`
}

// GEOID returns the concatenated state+county+tract FIPS identifier.
func (u SamplingUnit) GEOID() string {
	return u.State + u.County + u.Tract
}

// Record is the flat field->value mapping produced for one sampling unit.
// Values are float64 for numeric fields, string for non-numeric ones, and
// nil when the source returned no value. A record is mutated exactly twice
// after collection: once to attach quality_score and once to attach
// nearby_stores.
type Record map[string]any

// Store describes one nearby food-retail point of interest.
type Store struct {
	Type          string  `json:"type"`
	DistanceMiles float64 `json:"distance_miles"`
	Name          string  `json:"name"`
}

// sampleTracts is a diverse fixed sample spanning urban, suburban and rural
// contexts. Collection runs consume a prefix of this list.
var sampleTracts = []SamplingUnit{
	// Urban areas
	{State: "17", County: "031", Tract: "770100", Name: "Chicago, IL (Urban)"},
	{State: "06", County: "037", Tract: "207400", Name: "Los Angeles, CA (Urban)"},
	{State: "36", County: "061", Tract: "008600", Name: "Manhattan, NY (Urban)"},

	// Suburban areas
	{State: "17", County: "031", Tract: "810600", Name: "Chicago Suburbs, IL"},
	{State: "06", County: "073", Tract: "401101", Name: "San Diego Suburbs, CA"},

	// Rural areas
	{State: "28", County: "151", Tract: "960100", Name: "Mississippi Delta (Rural)"},
	{State: "21", County: "095", Tract: "950100", Name: "Appalachia, KY (Rural)"},

	// Mixed areas
	{State: "48", County: "201", Tract: "110305", Name: "Houston, TX"},
	{State: "04", County: "013", Tract: "040902", Name: "Phoenix, AZ"},
	{State: "13", County: "121", Tract: "000604", Name: "Atlanta, GA"},
}

// SampleTracts returns up to n units from the built-in sample list.
// Non-positive or oversized n returns the whole list.
func SampleTracts(n int) []SamplingUnit {
	if n <= 0 || n > len(sampleTracts) {
		n = len(sampleTracts)
	}
	out := make([]SamplingUnit, n)
	copy(out, sampleTracts[:n])
	return out
}
