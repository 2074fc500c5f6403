package lookup

import (
	"github.com/dukerupert/zipfinder/internal/domain"
)

// Line is one "Label: value" line of a display region.
type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func (l Line) String() string {
	return l.Label + ": " + l.Value
}

// DisplayRegion holds the rendered lines of one successful lookup.
type DisplayRegion struct {
	Lines []Line `json:"lines"`
}

// NewDisplayRegion builds the five lines for result from its first place:
// Zip Code, City, State, Latitude, Longitude.
func NewDisplayRegion(result *domain.LookupResult) DisplayRegion {
	place, _ := result.FirstPlace()

	var postCode domain.Scalar
	if result != nil {
		postCode = result.PostCode
	}

	return DisplayRegion{Lines: []Line{
		{Label: "Zip Code", Value: postCode.String()},
		{Label: "City", Value: place.Name.String()},
		{Label: "State", Value: place.State.String()},
		{Label: "Latitude", Value: place.Latitude.String()},
		{Label: "Longitude", Value: place.Longitude.String()},
	}}
}

// Text returns the region's lines as strings.
func (r DisplayRegion) Text() []string {
	out := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.String()
	}
	return out
}
