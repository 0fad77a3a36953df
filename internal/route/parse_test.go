package route

import (
	"errors"
	"testing"

	"barrierfree.app/internal/upstream"
)

func TestParseFallsBackToSegmentSums(t *testing.T) {
	body := []byte(`<response><body><paths>
<item><dptreStn><stnNm>종각</stnNm><lineNm>1호선</lineNm></dptreStn><arvlStn><stnNm>시청</stnNm></arvlStn><reqHr>90</reqHr><stnSctnDstc>1,000</stnSctnDstc><trsitYn>N</trsitYn></item>
<item><dptreStn><stnNm>시청</stnNm><lineNm>2호선</lineNm></dptreStn><arvlStn><stnNm>을지로입구</stnNm></arvlStn><reqHr>100</reqHr><stnSctnDstc>800</stnSctnDstc><trsitYn>y</trsitYn>
</paths></body></response>`)

	summary, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(summary.Paths) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(summary.Paths))
	}
	if summary.TotalTime != 3 || summary.TotalDistance != 1800 || summary.Transfers != 1 {
		t.Errorf("unexpected totals %+v", summary)
	}
	if summary.Paths[0].Time != 2 || summary.Paths[1].Line != "2호선" || !summary.Paths[1].Transfer {
		t.Errorf("unexpected segments %+v", summary.Paths)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(error) bool
	}{
		{
			name:  "no body",
			body:  `<response><header><resultCode>00</resultCode></header></response>`,
			check: func(err error) bool { return errors.Is(err, ErrNoDocument) },
		},
		{
			name: "result code",
			body: `<response><header><resultCode>22</resultCode><resultMsg>LIMITED NUMBER OF SERVICE REQUESTS EXCEEDS ERROR.</resultMsg></header></response>`,
			check: func(err error) bool {
				var resultErr *upstream.ResultError
				return errors.As(err, &resultErr) && resultErr.Code == "22"
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.body)); !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}
