package models

// PathSegment is one leg of a route between two adjacent stops.
// Time is in minutes; Distance is whatever unit the upstream reports (meters).
type PathSegment struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Line     string  `json:"line"`
	Time     int     `json:"time"`
	Distance float64 `json:"distance"`
	Transfer bool    `json:"transfer"`
}

// RouteSummary is the primary shortest route between two stations.
type RouteSummary struct {
	TotalTime     int           `json:"totalTime"`
	TotalDistance float64       `json:"totalDistance"`
	Transfers     int           `json:"transfers"`
	Paths         []PathSegment `json:"paths"`
}
