package utils

import (
	"strings"
	"time"
)

// KST is Korea Standard Time. Korea has no daylight saving, so a fixed
// offset is exact and needs no tzdata on the host.
var KST = time.FixedZone("KST", 9*60*60)

// DateTimeLayout is the request format for route search times.
const DateTimeLayout = "2006-01-02 15:04:05"

const YYYYMMDD = "20060102"

var serviceDateLayouts = []string{
	DateTimeLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006.01.02 15:04:05",
	"2006.01.02",
	"20060102150405",
	YYYYMMDD,
}

// InKST converts t to Korea Standard Time.
func InKST(t time.Time) time.Time {
	return t.In(KST)
}

// ParseServiceDate parses the date formats seen in station notices.
// Values without an explicit zone are read as KST.
func ParseServiceDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(KST), true
	}
	for _, layout := range serviceDateLayouts {
		if t, err := time.ParseInLocation(layout, s, KST); err == nil {
			return t, true
		}
	}
	// fall back to the leading date part, e.g. "2026-10-15 07:31:02.0"
	if len(s) >= 10 {
		if t, err := time.ParseInLocation("2006-01-02", s[:10], KST); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SameServiceDay reports whether a and b fall on the same KST calendar day.
func SameServiceDay(a, b time.Time) bool {
	return InKST(a).Format(YYYYMMDD) == InKST(b).Format(YYYYMMDD)
}

// ParseRequestTime parses a route search time in KST. An empty string yields now.
func ParseRequestTime(s string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return InKST(now), nil
	}
	return time.ParseInLocation(DateTimeLayout, strings.TrimSpace(s), KST)
}
