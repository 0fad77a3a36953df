package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"barrierfree.app/internal/models"
)

var parenSuffix = regexp.MustCompile(`\s*\(\s*[0-9０-９]+\s*(호선)?\s*\)\s*$`)

// CleanStationName strips the suffixes feeds use to disambiguate stations,
// "서울(1)" and "서울역" both becoming "서울". Other parentheticals such as
// "총신대입구(이수)" are kept because they are part of the name.
func CleanStationName(name string) string {
	name = strings.TrimSpace(name)
	name = parenSuffix.ReplaceAllString(name, "")
	if trimmed := strings.TrimSuffix(name, "역"); trimmed != "" {
		name = trimmed
	}
	return strings.TrimSpace(name)
}

// MapStatus translates a raw status flag. Blank becomes "-"; values the
// descriptor does not know pass through unchanged.
func MapStatus(raw string, statusMap map[string]string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.StatusUnknown
	}
	if mapped, ok := statusMap[raw]; ok {
		return mapped
	}
	if mapped, ok := statusMap[strings.ToUpper(raw)]; ok {
		return mapped
	}
	return raw
}

// MapKind translates a raw kind label into EV / ES / WL.
func MapKind(raw string, d Descriptor) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return d.DefaultKind
	}
	if k, ok := d.KindMap[strings.ToUpper(raw)]; ok {
		return k
	}
	if k, ok := d.KindMap[raw]; ok {
		return k
	}
	return raw
}

// Row normalizes one raw record. It never fails: missing fields become ""
// and a missing status becomes "-".
func Row(rec Record, d Descriptor) models.FacilityRow {
	get := func(f Field) string { return rec.Lookup(d.Fields[f]...) }

	rawName := get(FieldStationName)
	row := models.FacilityRow{
		Type:         d.Type,
		StationCode:  get(FieldStationCode),
		StationName:  CleanStationName(rawName),
		FacilityName: get(FieldFacilityName),
		Line:         get(FieldLine),
		Section:      get(FieldSection),
		Position:     get(FieldPosition),
		Floor:        get(FieldFloor),
		Location:     get(FieldLocation),
		Status:       MapStatus(get(FieldStatus), d.StatusMap),
		Kind:         MapKind(get(FieldKind), d),
		Accessible:   strings.ToUpper(get(FieldAccessible)),
	}
	if rawName != row.StationName {
		row.StationNameRaw = rawName
	}
	return row
}

// Rows normalizes records in order.
func Rows(recs []Record, d Descriptor) []models.FacilityRow {
	rows := make([]models.FacilityRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, Row(rec, d))
	}
	return rows
}

// AssignIDs stamps rows with "stationName-kind-index" ids. The index is the
// position in the final list, so the same input yields the same ids.
func AssignIDs(rows []models.FacilityRow) {
	for i := range rows {
		kind := rows[i].Kind
		if kind == "" {
			kind = string(rows[i].Type)
		}
		rows[i].ID = fmt.Sprintf("%s-%s-%d", rows[i].StationName, kind, i)
	}
}

// QuickExit normalizes one quick-exit record.
func QuickExit(rec Record) models.QuickExitEntry {
	return models.QuickExitEntry{
		StationName: CleanStationName(rec.Lookup(quickExitStationNameKeys...)),
		Line:        rec.Lookup(quickExitLineKeys...),
		StationCode: rec.Lookup(quickExitStationCodeKeys...),
		DoorNumber:  rec.Lookup(quickExitDoorKeys...),
		Facility:    rec.Lookup(quickExitFacilityKeys...),
		Direction:   rec.Lookup(quickExitDirectionKeys...),
		Position:    rec.Lookup(quickExitPositionKeys...),
		ElevatorNo:  rec.Lookup(quickExitElevatorKeys...),
	}
}

var noticeBodyCleaner = strings.NewReplacer("&#xd;", "", "&#xD;", "", "&#13;", "", "\r", "")

// Notice normalizes one notice record. The feed leaks XML carriage-return
// entities into the body text, which are removed here.
func Notice(rec Record) models.Notice {
	nonstop := strings.ToUpper(rec.Lookup(noticeNonstopKeys...)) == "Y"
	status := models.StatusNormal
	if nonstop {
		status = models.StatusNonstopPass
	}
	return models.Notice{
		ID:          rec.Lookup(noticeIDKeys...),
		StationName: CleanStationName(rec.Lookup(noticeStationKeys...)),
		Line:        rec.Lookup(noticeLineKeys...),
		Title:       strings.TrimSpace(noticeBodyCleaner.Replace(rec.Lookup(noticeTitleKeys...))),
		Body:        strings.TrimSpace(noticeBodyCleaner.Replace(rec.Lookup(noticeBodyKeys...))),
		OccurredAt:  rec.Lookup(noticeOccurredKeys...),
		Status:      status,
		NonstopPass: nonstop,
	}
}
