package route

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"barrierfree.app/internal/models"
	"barrierfree.app/internal/normalize"
	"barrierfree.app/internal/upstream"
	"barrierfree.app/internal/utils"
)

// FeedRoute is the shortest-path service feed.
const FeedRoute = "route"

var (
	// ErrNoDocument means the response carried no <body>. The service answers
	// this way for unknown station names and exhausted quotas alike.
	ErrNoDocument = errors.New("route response has no document body")
	ErrNoStation  = errors.New("departure and arrival stations are required")
)

// RawSource performs single upstream requests.
type RawSource interface {
	FetchRaw(ctx context.Context, name string, extra url.Values) ([]byte, error)
}

// Fetcher asks the shortest-path service for a route between two stations.
type Fetcher struct {
	Source RawSource
	Logger *slog.Logger
	// Candidates bounds how many routes the service computes; only the
	// first is returned.
	Candidates int
}

func NewFetcher(source RawSource, logger *slog.Logger) *Fetcher {
	return &Fetcher{Source: source, Logger: logger, Candidates: 5}
}

// ShortestRoute returns the primary route from dep to arr departing at at.
// Every failure is returned; there is no degraded route.
func (f *Fetcher) ShortestRoute(ctx context.Context, dep, arr string, at time.Time) (*models.RouteSummary, error) {
	dep, arr = strings.TrimSpace(dep), strings.TrimSpace(arr)
	if dep == "" || arr == "" {
		return nil, ErrNoStation
	}

	params := url.Values{}
	params.Set("dptreStnNm", dep)
	params.Set("arvlStnNm", arr)
	params.Set("searchDt", utils.InKST(at).Format(utils.DateTimeLayout))
	params.Set("searchType", "duration")
	params.Set("numOfRows", strconv.Itoa(max(f.Candidates, 1)))

	body, err := f.Source.FetchRaw(ctx, FeedRoute, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch route %s -> %s: %w", dep, arr, err)
	}

	summary, err := Parse(body)
	if err != nil {
		f.Logger.Error("route response rejected", "dep", dep, "arr", arr, "error", err)
		return nil, fmt.Errorf("failed to parse route %s -> %s: %w", dep, arr, err)
	}
	return summary, nil
}

var (
	departureNameKeys = []string{"dptreStn.stnNm", "dptreStnNm", "startStn.stnNm", "from"}
	departureLineKeys = []string{"dptreStn.lineNm", "dptreLineNm", "lineNm", "line"}
	arrivalNameKeys   = []string{"arvlStn.stnNm", "arvlStnNm", "endStn.stnNm", "to"}
	arrivalLineKeys   = []string{"arvlStn.lineNm", "arvlLineNm"}
	segmentTimeKeys   = []string{"reqHr", "travelTime", "time"}
	segmentDistKeys   = []string{"stnSctnDstc", "dstc", "distance"}
	transferKeys      = []string{"trsitYn", "transferYn", "transfer"}
)

// Parse reads a shortest-path response. Times are reported in seconds and
// returned in minutes; distances are passed through in meters.
func Parse(body []byte) (*models.RouteSummary, error) {
	code, _ := normalize.LeafValue(body, "resultCode")
	if code != "" && code != upstream.CodePortalOK && code != upstream.CodeOK {
		msg, _ := normalize.LeafValue(body, "resultMsg")
		return nil, &upstream.ResultError{Feed: FeedRoute, Code: code, Message: msg}
	}
	if !normalize.HasElement(body, "body") {
		return nil, ErrNoDocument
	}

	summary := &models.RouteSummary{Paths: []models.PathSegment{}}

	var legs []normalize.Record
	if blocks := normalize.Blocks(body, "paths"); len(blocks) > 0 {
		recs, err := normalize.NewXMLParser("item").Parse([]byte(blocks[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", upstream.ErrMalformedResponse, err)
		}
		legs = recs
	}

	var sumSeconds, sumDistance float64
	transfers := 0
	for _, leg := range legs {
		seconds := number(leg.Lookup(segmentTimeKeys...))
		distance := number(leg.Lookup(segmentDistKeys...))
		seg := models.PathSegment{
			From:     normalize.CleanStationName(leg.Lookup(departureNameKeys...)),
			To:       normalize.CleanStationName(leg.Lookup(arrivalNameKeys...)),
			Line:     utils.FirstNonEmpty(leg.Lookup(departureLineKeys...), leg.Lookup(arrivalLineKeys...)),
			Time:     minutes(seconds),
			Distance: distance,
			Transfer: strings.EqualFold(leg.Lookup(transferKeys...), "Y"),
		}
		if seg.Transfer {
			transfers++
		}
		sumSeconds += seconds
		sumDistance += distance
		summary.Paths = append(summary.Paths, seg)
	}

	summary.TotalTime = minutes(sumSeconds)
	if v, ok := normalize.LeafValue(body, "totalreqHr"); ok && v != "" {
		summary.TotalTime = minutes(number(v))
	}
	summary.TotalDistance = sumDistance
	if v, ok := normalize.LeafValue(body, "totalDstc"); ok && v != "" {
		summary.TotalDistance = number(v)
	}
	summary.Transfers = transfers
	if v, ok := normalize.LeafValue(body, "trsitNmtm"); ok && v != "" {
		summary.Transfers = int(number(v))
	}
	return summary, nil
}

func number(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func minutes(seconds float64) int {
	return int(math.Round(seconds / 60))
}
