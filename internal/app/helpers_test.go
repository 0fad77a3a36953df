package app

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"barrierfree.app/internal/config"
)

const elevatorJSON = `{"SeoulMetroFaciInfo":{"list_total_count":3,"RESULT":{"CODE":"INFO-000","MESSAGE":"정상 처리되었습니다"},"row":[
{"STN_CD":"0201","STN_NM":"시청","ELVTR_NM":"엘리베이터 1호기","LINE":"2호선","USE_YN":"Y","ELVTR_SE":"EV"},
{"STN_CD":"0201","STN_NM":"시청","ELVTR_NM":"엘리베이터 2호기","LINE":"2호선","USE_YN":"M","ELVTR_SE":"EV"},
{"STN_CD":"0202","STN_NM":"을지로입구","ELVTR_NM":"에스컬레이터 1호기","LINE":"2호선","USE_YN":"Y","ELVTR_SE":"ES"}]}}`

const quickExitJSON = `{"response":{"header":{"resultCode":"00","resultMsg":"NORMAL SERVICE."},"body":{"totalCount":3,"items":{"item":[
{"stnCd":"0201","stnNm":"시청","lineNm":"2호선","qckgffVhclDoorNo":"3-2","plfmCmgFac":"엘리베이터","upbdnbSe":"내선"},
{"stnCd":"0201","stnNm":"시청","lineNm":"2호선","qckgffVhclDoorNo":"3-2","plfmCmgFac":"엘리베이터","upbdnbSe":"외선"},
{"stnCd":"0201","stnNm":"시청","lineNm":"2호선","qckgffVhclDoorNo":"7-1","plfmCmgFac":"계단","upbdnbSe":"내선"}]}}}}`

const routeXML = `<?xml version="1.0" encoding="UTF-8"?>
<response><header><resultCode>00</resultCode><resultMsg>NORMAL SERVICE.</resultMsg></header>
<body><totalreqHr>480</totalreqHr><totalDstc>2600</totalDstc><trsitNmtm>1</trsitNmtm><paths>
<item><dptreStn><stnNm>서울</stnNm></dptreStn><arvlStn><stnNm>시청</stnNm></arvlStn><lineNm>1호선</lineNm><reqHr>120</reqHr><stnSctnDstc>1100</stnSctnDstc><trsitYn>N</trsitYn></item>
<item><dptreStn><stnNm>시청</stnNm></dptreStn><arvlStn><stnNm>시청</stnNm></arvlStn><lineNm>2호선</lineNm><reqHr>360</reqHr><stnSctnDstc>1500</stnSctnDstc><trsitYn>Y</trsitYn></item>
</paths></body></response>`

// newFakeUpstream serves the elevator feed in path style, quick exits under
// /quick and routes under /route. Anything else answers with an HTML page.
func newFakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/route"):
			if r.URL.Query().Get("arvlStnNm") == "없는역" {
				fmt.Fprint(w, `<response><header><resultCode>00</resultCode></header></response>`)
				return
			}
			fmt.Fprint(w, routeXML)
		case strings.HasPrefix(r.URL.Path, "/quick"):
			fmt.Fprint(w, quickExitJSON)
		case strings.Contains(r.URL.Path, "/SeoulMetroFaciInfo/"):
			fmt.Fprint(w, elevatorJSON)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, "<html><body>maintenance</body></html>")
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApplication(t *testing.T, srv *httptest.Server) *Application {
	t.Helper()

	cfg := config.Default()
	cfg.Env = "test"
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL
	cfg.RouteBaseURL = srv.URL + "/route"
	cfg.QuickExitBaseURL = srv.URL + "/quick"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, logger, srv.Client(), nil, nil, "test-version")
}
