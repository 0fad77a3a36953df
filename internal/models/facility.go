package models

// FacilityType identifies one upstream facility dataset.
type FacilityType string

const (
	FacilityElevator          FacilityType = "elevator" // mixed EV / ES / WL feed
	FacilityToilet            FacilityType = "toilet"
	FacilityDisabledToilet    FacilityType = "disabled_toilet"
	FacilityNursingRoom       FacilityType = "nursing_room"
	FacilityLocker            FacilityType = "locker"
	FacilityWheelchairLift    FacilityType = "wheelchair_lift"
	FacilityAudioBeacon       FacilityType = "audio_beacon"
	FacilityWheelchairCharger FacilityType = "wheelchair_charger"
)

// FacilityTypes lists every type served by the generic facility endpoint.
var FacilityTypes = []FacilityType{
	FacilityElevator,
	FacilityToilet,
	FacilityDisabledToilet,
	FacilityNursingRoom,
	FacilityLocker,
	FacilityWheelchairLift,
	FacilityAudioBeacon,
	FacilityWheelchairCharger,
}

// ParseFacilityType returns the FacilityType named by s.
func ParseFacilityType(s string) (FacilityType, bool) {
	for _, t := range FacilityTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Sub-type discriminators for feeds that mix several facility kinds.
const (
	KindElevator       = "EV"
	KindEscalator      = "ES"
	KindWheelchairLift = "WL"
)

// User-facing status strings.
const (
	StatusAvailable   = "사용가능"
	StatusStopped     = "중지"
	StatusUnknown     = "-"
	StatusNonstopPass = "무정차"
	StatusNormal      = "정상"
)

// FacilityRow is the canonical form of one facility at one station.
// Rows are values; nothing mutates a row after the normalizer returns it.
type FacilityRow struct {
	ID             string       `json:"id"`
	Type           FacilityType `json:"type"`
	StationCode    string       `json:"stationCode"`
	StationName    string       `json:"stationName"`
	StationNameRaw string       `json:"stationNameRaw,omitempty"`
	FacilityName   string       `json:"facilityName"`
	Line           string       `json:"line"`
	Section        string       `json:"section"`
	Position       string       `json:"position"`
	Floor          string       `json:"floor"`
	Location       string       `json:"location"`
	Status         string       `json:"status"`
	Kind           string       `json:"kind"`
	Accessible     string       `json:"accessible,omitempty"`
}

// QuickExitEntry tells a rider which car and door is closest to a station facility.
type QuickExitEntry struct {
	StationName string `json:"stationName"`
	Line        string `json:"line"`
	StationCode string `json:"stationCode"`
	DoorNumber  string `json:"doorNumber"`
	Facility    string `json:"facility"`
	Direction   string `json:"direction"`
	Position    string `json:"position"`
	ElevatorNo  string `json:"elevatorNo"`
}

// DedupKey is the identity used to collapse duplicate quick-exit rows.
func (e QuickExitEntry) DedupKey() string {
	return e.StationCode + "-" + e.DoorNumber
}

// Notice is one station operation notice, e.g. a non-stop pass announcement.
type Notice struct {
	ID          string `json:"id"`
	StationName string `json:"stationName"`
	Line        string `json:"line"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	OccurredAt  string `json:"occurredAt"`
	Status      string `json:"status"`
	NonstopPass bool   `json:"nonstopPass"`
}
