package facility

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"barrierfree.app/internal/metrics"
	"barrierfree.app/internal/models"
	"barrierfree.app/internal/normalize"
	"barrierfree.app/internal/station"
	"barrierfree.app/internal/upstream"
)

// Feed names for the datasets that are not facility types.
const (
	FeedNotice    = "notice"
	FeedQuickExit = "quick_exit"
)

// Source is the paginated fetcher as seen by the aggregators.
type Source interface {
	FetchAll(ctx context.Context, name, station string) (upstream.Batch, error)
}

// Query selects rows for one station.
type Query struct {
	StationName string
	StationCode string
	// Kind keeps only one sub-type of a mixed feed, e.g. "EV" or "ES".
	Kind string
	// Line drops rows whose line is known and differs.
	Line string
}

// Service runs the facility aggregators.
type Service struct {
	Source    Source
	Local     *LocalStore
	Directory *station.Directory
	Logger    *slog.Logger
	Now       func() time.Time
}

func NewService(source Source, local *LocalStore, dir *station.Directory, logger *slog.Logger) *Service {
	return &Service{
		Source:    source,
		Local:     local,
		Directory: dir,
		Logger:    logger,
		Now:       time.Now,
	}
}

func (s *Service) Elevators(ctx context.Context, q Query) Result[models.FacilityRow] {
	return s.Facilities(ctx, models.FacilityElevator, q)
}

func (s *Service) Toilets(ctx context.Context, q Query) Result[models.FacilityRow] {
	return s.Facilities(ctx, models.FacilityToilet, q)
}

func (s *Service) DisabledToilets(ctx context.Context, q Query) Result[models.FacilityRow] {
	return s.Facilities(ctx, models.FacilityDisabledToilet, q)
}

func (s *Service) WheelchairChargers(ctx context.Context, q Query) Result[models.FacilityRow] {
	return s.Facilities(ctx, models.FacilityWheelchairCharger, q)
}

// Facilities returns the rows of type t at the queried station: local rows
// when the bundle has any for the station, otherwise the remote feed,
// normalized, matched by station and filtered.
func (s *Service) Facilities(ctx context.Context, t models.FacilityType, q Query) Result[models.FacilityRow] {
	d, found := normalize.DescriptorFor(t)
	if !found {
		return failed[models.FacilityRow](upstream.ErrUnknownFeed)
	}
	if q.StationCode == "" {
		q.StationCode = s.Directory.CodeFor(q.StationName, q.Line)
	}
	m := station.NewMatcher(q.StationName, station.Strict)

	if local, exists := s.Local.Get(t); exists {
		if rows := s.filter(t, local, m, q); len(rows) > 0 {
			return ok(rows)
		}
	}

	batch, err := s.Source.FetchAll(ctx, string(t), q.StationName)
	if err != nil {
		return failed[models.FacilityRow](err)
	}
	if batch.Truncated != nil {
		if len(batch.Records) == 0 {
			return failed[models.FacilityRow](batch.Truncated)
		}
		s.Logger.Warn("using partial feed", "feed", t, "station", q.StationName, "rows", len(batch.Records), "error", batch.Truncated)
	}

	rows := normalize.Rows(batch.Records, d)
	metrics.RowsNormalized.WithLabelValues(string(t)).Add(float64(len(rows)))
	return ok(s.filter(t, rows, m, q))
}

// filter applies station, kind, line and content filters and numbers the
// surviving rows. It copies; rows is left untouched.
func (s *Service) filter(t models.FacilityType, rows []models.FacilityRow, m *station.Matcher, q Query) []models.FacilityRow {
	kind := strings.ToUpper(strings.TrimSpace(q.Kind))
	out := make([]models.FacilityRow, 0, len(rows))
	for _, row := range rows {
		if !m.Empty() && !s.matchesStation(m, row, q.StationCode) {
			continue
		}
		if kind != "" && row.Kind != kind {
			continue
		}
		if q.Line != "" && row.Line != "" && !station.SameLine(row.Line, q.Line) {
			continue
		}
		if t == models.FacilityDisabledToilet && !accessibleToilet(row) {
			continue
		}
		row.Type = t
		out = append(out, row)
	}
	normalize.AssignIDs(out)
	return out
}

// matchesStation accepts a row by code, by its own names, or by the
// directory names of its code. Some feeds spell the station in English or
// put a facility label in the name column; the code still identifies it.
func (s *Service) matchesStation(m *station.Matcher, row models.FacilityRow, code string) bool {
	if code != "" && row.StationCode == code {
		return true
	}
	if m.Match(row.StationName) || (row.StationNameRaw != "" && m.Match(row.StationNameRaw)) {
		return true
	}
	if row.StationCode == "" {
		return false
	}
	entry, ok := s.Directory.ByCode(row.StationCode)
	return ok && (m.Match(entry.Name) || (entry.NameEn != "" && m.Match(entry.NameEn)))
}

// accessibilityMarkers flag an accessible toilet in the facility name.
var accessibilityMarkers = []string{"장애인", "교통약자", "휠체어"}

func accessibleToilet(row models.FacilityRow) bool {
	if row.Accessible == "Y" {
		return true
	}
	for _, marker := range accessibilityMarkers {
		if strings.Contains(row.FacilityName, marker) {
			return true
		}
	}
	return false
}
