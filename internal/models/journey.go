package models

// WheelchairStatus is derived per request from arrival-station elevator rows.
type WheelchairStatus string

const (
	WheelchairOK          WheelchairStatus = "OK"
	WheelchairPartial     WheelchairStatus = "PARTIAL"
	WheelchairUnavailable WheelchairStatus = "UNAVAILABLE"
)

// ArrivalInfo groups what a rider needs at the arrival station.
// Errors names feeds that failed; an absent key means the feed answered,
// even when it returned no rows.
type ArrivalInfo struct {
	QuickExit  []QuickExitEntry  `json:"quickExit"`
	Facilities []FacilityRow     `json:"facilities"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// JourneyResponse is the composed answer for one route request.
type JourneyResponse struct {
	TotalTime        int              `json:"totalTime"`
	TotalDistance    float64          `json:"totalDistance"`
	Transfers        int              `json:"transfers"`
	Paths            []PathSegment    `json:"paths"`
	ArrivalInfo      ArrivalInfo      `json:"arrivalInfo"`
	WheelchairStatus WheelchairStatus `json:"wheelchairStatus,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
