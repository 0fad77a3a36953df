package normalize

import "barrierfree.app/internal/models"

// Field is a canonical facility field.
type Field int

const (
	FieldStationCode Field = iota
	FieldStationName
	FieldFacilityName
	FieldLine
	FieldSection
	FieldPosition
	FieldFloor
	FieldLocation
	FieldStatus
	FieldKind
	FieldAccessible
)

// Descriptor tells the normalizer how one facility type is spelled upstream.
// Each canonical field maps to an ordered list of candidate source keys;
// the first non-blank one wins.
type Descriptor struct {
	Type   models.FacilityType
	Fields map[Field][]string
	// StatusMap translates raw status flags. Unlisted values pass through.
	StatusMap map[string]string
	// KindMap translates raw kind labels into EV / ES / WL.
	KindMap map[string]string
	// DefaultKind is used when the feed serves a single kind.
	DefaultKind string
}

var (
	stationCodeKeys = []string{"STN_CD", "STATN_ID", "STN_ID", "stnCd", "stationCode", "stinCd", "code", "역코드", "역번호"}
	stationNameKeys = []string{"STN_NM", "STATN_NM", "SBWY_STNS_NM", "stnNm", "stationName", "stinNm", "name", "역명", "역이름"}
	lineKeys        = []string{"LINE", "LINE_NUM", "SBWY_ROUT_LN", "ROUTE", "lineNm", "line", "lnCd", "호선", "노선명"}
	floorKeys       = []string{"FLR", "FLOOR", "GRND_UDGD_SE", "grndDvNm", "floor", "층", "지상지하구분"}
	locationKeys    = []string{"DTL_PSTN", "LOCATION", "INSTL_PSTN", "dtlLoc", "location", "상세위치", "설치위치"}
)

var ynStatus = map[string]string{
	"Y":  models.StatusAvailable,
	"N":  models.StatusStopped,
	"정상": models.StatusAvailable,
}

// Descriptors holds the field layout of every facility feed.
var Descriptors = map[models.FacilityType]Descriptor{
	models.FacilityElevator: {
		Type: models.FacilityElevator,
		Fields: map[Field][]string{
			FieldStationCode:  stationCodeKeys,
			FieldStationName:  stationNameKeys,
			FieldFacilityName: {"ELVTR_NM", "FCLT_NM", "elvtrNm", "facilityName", "승강기명", "시설명"},
			FieldLine:         lineKeys,
			FieldSection:      {"OPR_SEC", "OPRTNG_SCTN", "oprtngSctn", "section", "운행구간"},
			FieldPosition:     {"INSTL_PSTN", "PSTN", "instlPstn", "position", "설치위치"},
			FieldFloor:        floorKeys,
			FieldLocation:     {"DTL_PSTN", "LOCATION", "dtlLoc", "location", "상세위치"},
			FieldStatus:       {"USE_YN", "OPR_STTS", "ELVTR_STTS", "useYn", "status", "가동현황", "운행상태"},
			FieldKind:         {"ELVTR_SE", "FCLT_SE", "EQPMNT_SE", "elvtrSe", "kind", "type", "구분", "승강기구분"},
		},
		StatusMap: map[string]string{
			"Y":    models.StatusAvailable,
			"N":    models.StatusStopped,
			"M":    "보수중",
			"사용":   models.StatusAvailable,
			"정상운행": models.StatusAvailable,
		},
		KindMap: map[string]string{
			"EV":     models.KindElevator,
			"엘리베이터":  models.KindElevator,
			"승강기":    models.KindElevator,
			"ES":     models.KindEscalator,
			"에스컬레이터": models.KindEscalator,
			"WL":     models.KindWheelchairLift,
			"휠체어리프트": models.KindWheelchairLift,
			"휠체어 리프트": models.KindWheelchairLift,
		},
		DefaultKind: models.KindElevator,
	},
	models.FacilityToilet: {
		Type: models.FacilityToilet,
		Fields: map[Field][]string{
			FieldStationCode:  stationCodeKeys,
			FieldStationName:  stationNameKeys,
			FieldFacilityName: {"TOILET_NM", "FCLT_NM", "toiletNm", "facilityName", "화장실명", "시설명"},
			FieldLine:         lineKeys,
			FieldSection:      {"GATE_INOTDR", "INOUT_GBN", "gateInotDvNm", "section", "게이트내외구분"},
			FieldPosition:     {"EXIT_NO", "NEAR_EXIT", "exitNo", "position", "출입구번호"},
			FieldFloor:        floorKeys,
			FieldLocation:     locationKeys,
			FieldStatus:       {"USE_YN", "OPEN_YN", "useYn", "status", "사용여부"},
			FieldAccessible:   {"DSPSN_TOILET_YN", "DSPSN_YN", "HANDICAP_YN", "dsbldYn", "accessible", "장애인화장실여부"},
		},
		StatusMap: ynStatus,
	},
	models.FacilityNursingRoom: {
		Type: models.FacilityNursingRoom,
		Fields: map[Field][]string{
			FieldStationCode:  stationCodeKeys,
			FieldStationName:  stationNameKeys,
			FieldFacilityName: {"FCLT_NM", "NRSRM_NM", "facilityName", "수유실명", "시설명"},
			FieldLine:         lineKeys,
			FieldSection:      {"GATE_INOTDR", "gateInotDvNm", "section", "게이트내외구분"},
			FieldPosition:     {"EXIT_NO", "position", "출입구번호"},
			FieldFloor:        floorKeys,
			FieldLocation:     locationKeys,
			FieldStatus:       {"USE_YN", "useYn", "status", "운영여부"},
		},
		StatusMap: ynStatus,
	},
	models.FacilityLocker: {
		Type: models.FacilityLocker,
		Fields: map[Field][]string{
			FieldStationCode:  stationCodeKeys,
			FieldStationName:  stationNameKeys,
			FieldFacilityName: {"LCKR_NM", "FCLT_NM", "lckrNm", "facilityName", "보관함명"},
			FieldLine:         lineKeys,
			FieldSection:      {"LCKR_SIZE", "SIZE", "lckrSize", "section", "크기"},
			FieldPosition:     {"EXIT_NO", "position", "출입구번호"},
			FieldFloor:        floorKeys,
			FieldLocation:     locationKeys,
			FieldStatus:       {"USE_YN", "useYn", "status", "사용여부"},
		},
		StatusMap: ynStatus,
	},
	models.FacilityWheelchairLift: {
		Type: models.FacilityWheelchairLift,
		Fields: map[Field][]string{
			FieldStationCode:  stationCodeKeys,
			FieldStationName:  stationNameKeys,
			FieldFacilityName: {"WHLCHR_LIFT_NM", "FCLT_NM", "facilityName", "리프트명"},
			FieldLine:         lineKeys,
			FieldSection:      {"OPR_SEC", "OPRTNG_SCTN", "section", "운행구간"},
			FieldPosition:     {"INSTL_PSTN", "position", "설치위치"},
			FieldFloor:        floorKeys,
			FieldLocation:     {"DTL_PSTN", "location", "상세위치"},
			FieldStatus:       {"USE_YN", "OPR_STTS", "useYn", "status", "가동현황"},
		},
		StatusMap:   ynStatus,
		DefaultKind: models.KindWheelchairLift,
	},
	models.FacilityAudioBeacon: {
		Type: models.FacilityAudioBeacon,
		Fields: map[Field][]string{
			FieldStationCode:  stationCodeKeys,
			FieldStationName:  stationNameKeys,
			FieldFacilityName: {"BCN_NM", "FCLT_NM", "facilityName", "음성유도기명"},
			FieldLine:         lineKeys,
			FieldSection:      {"GUIDE_CN", "section", "안내내용"},
			FieldPosition:     {"EXIT_NO", "INSTL_PSTN", "position", "출입구번호"},
			FieldFloor:        floorKeys,
			FieldLocation:     locationKeys,
			FieldStatus:       {"USE_YN", "useYn", "status", "작동여부"},
		},
		StatusMap: ynStatus,
	},
	models.FacilityWheelchairCharger: {
		Type: models.FacilityWheelchairCharger,
		Fields: map[Field][]string{
			FieldStationCode:  stationCodeKeys,
			FieldStationName:  append([]string{"FCLTY_NM", "fcltyNm"}, stationNameKeys...),
			FieldFacilityName: {"CHRGR_NM", "FCLTY_NM", "fcltyNm", "facilityName", "충전기명", "시설명"},
			FieldLine:         lineKeys,
			FieldSection:      {"SMTM_CHRG_CNT", "smtmChrgPsbltyNocs", "section", "동시사용가능대수"},
			FieldPosition:     {"INSTL_PSTN", "instlLcDesc", "position", "설치장소설명"},
			FieldFloor:        floorKeys,
			FieldLocation:     {"RDNMADR", "LNMADR", "rdnmadr", "location", "소재지도로명주소"},
			FieldStatus:       {"USE_YN", "AIR_INJ_YN", "useYn", "status", "사용가능여부"},
		},
		StatusMap: ynStatus,
	},
}

// DescriptorFor returns the descriptor of a facility type. Disabled toilets
// come from the mixed toilet feed, so they share its layout.
func DescriptorFor(t models.FacilityType) (Descriptor, bool) {
	if t == models.FacilityDisabledToilet {
		d := Descriptors[models.FacilityToilet]
		d.Type = models.FacilityDisabledToilet
		return d, true
	}
	d, ok := Descriptors[t]
	return d, ok
}

var (
	quickExitStationCodeKeys = []string{"stnCd", "STN_CD", "stationCode", "역코드"}
	quickExitStationNameKeys = []string{"stnNm", "STN_NM", "stationName", "역명"}
	quickExitLineKeys        = []string{"lineNm", "LINE", "line", "호선"}
	quickExitDoorKeys        = []string{"qckgffVhclDoorNo", "VHCL_DOOR_NO", "doorNumber", "doorNo", "빠른하차칸", "차량문번호"}
	quickExitFacilityKeys    = []string{"plfmCmgFac", "FCLT_NM", "facility", "facilityName", "시설물"}
	quickExitDirectionKeys   = []string{"upbdnbSe", "UPBDNB_SE", "direction", "drtnInfo", "상하행"}
	quickExitPositionKeys    = []string{"fcltPstnNm", "FCLT_PSTN", "position", "qckgffPstn", "위치"}
	quickExitElevatorKeys    = []string{"elvtrNo", "ELVTR_NO", "elevatorNo", "승강기번호"}
)

var (
	noticeIDKeys       = []string{"noftSeCd", "NTC_ID", "id", "noticeId", "공지번호"}
	noticeStationKeys  = []string{"stnNm", "STN_NM", "stationName", "역명"}
	noticeLineKeys     = []string{"lineNm", "LINE", "line", "호선"}
	noticeTitleKeys    = []string{"noftTtl", "NTC_TTL", "title", "제목"}
	noticeBodyKeys     = []string{"noftCn", "NTC_CN", "body", "content", "내용"}
	noticeOccurredKeys = []string{"noftOcrnDt", "OCRN_DT", "occurredAt", "crtrYmd", "발생일시"}
	noticeNonstopKeys  = []string{"nonstopYn", "NONSTOP_YN", "nonstop", "무정차여부"}
)
