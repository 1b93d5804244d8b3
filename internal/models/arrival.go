package models

import "fmt"

// Section selects which part of the arrival guide to (re)generate.
// The empty value means all sections.
type Section string

const (
	SectionAll     Section = ""
	SectionRoad    Section = "road"
	SectionPlane   Section = "plane"
	SectionTrain   Section = "train"
	SectionParking Section = "parking"
)

// ParseSection validates a user-supplied section name.
func ParseSection(s string) (Section, error) {
	switch Section(s) {
	case SectionAll, SectionRoad, SectionPlane, SectionTrain, SectionParking:
		return Section(s), nil
	}
	return SectionAll, fmt.Errorf("models: unknown section %q", s)
}

// GuideSection is one narrative block of the arrival instructions.
type GuideSection struct {
	Text     string `json:"text"`
	Duration string `json:"duration,omitempty"`
	Price    string `json:"price,omitempty"`
}

// NearbyTransport is a one-line entry in the instructions' transit summary.
type NearbyTransport struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Distance string `json:"distance"`
}

// ArrivalInstructions is the structured guide produced by the final synthesis
// call. When generation was scoped to one section the other fields are nil so
// the caller can merge them over previously stored sections.
type ArrivalInstructions struct {
	ByRoad          *GuideSection     `json:"by_road"`
	FromAirport     *GuideSection     `json:"from_airport"`
	FromTrain       *GuideSection     `json:"from_train"`
	NearbyTransport []NearbyTransport `json:"nearby_transport"`
	Parking         *GuideSection     `json:"parking"`
}

// ArrivalGuide bundles everything the pipeline produced for one address.
// Instructions is nil when the synthesis step failed; the geocode and
// discovery data are still usable by the caller in that case.
type ArrivalGuide struct {
	Geocode      *GeocodeResult       `json:"geocode"`
	Airports     []Airport            `json:"airports"`
	Stations     []Station            `json:"stations"`
	Parking      ParkingInfo          `json:"parking"`
	Instructions *ArrivalInstructions `json:"instructions"`
}
