package journey

import (
	"strings"

	"barrierfree.app/internal/models"
)

// brokenMarkers appear in the status text of elevators under maintenance
// ("보수") or inspection ("점검").
var brokenMarkers = []string{"보수", "점검"}

func broken(status string) bool {
	for _, marker := range brokenMarkers {
		if strings.Contains(status, marker) {
			return true
		}
	}
	return false
}

// WheelchairStatusFor derives the arrival verdict from facility rows. Only
// elevators count. No elevator rows at all yields OK: the feeds cannot tell
// "no elevator needed" from "no data", and absence is not treated as a
// blocker.
func WheelchairStatusFor(rows []models.FacilityRow) models.WheelchairStatus {
	var elevators, down int
	for _, row := range rows {
		if row.Kind != models.KindElevator {
			continue
		}
		elevators++
		if broken(row.Status) {
			down++
		}
	}
	switch {
	case elevators > 0 && down == elevators:
		return models.WheelchairUnavailable
	case down > 0:
		return models.WheelchairPartial
	default:
		return models.WheelchairOK
	}
}
