package facility

import (
	"context"

	"barrierfree.app/internal/metrics"
	"barrierfree.app/internal/models"
	"barrierfree.app/internal/normalize"
	"barrierfree.app/internal/station"
)

// QuickExit returns car and door guidance for a station, one entry per
// station code and door number. The feed repeats entries; the last one seen
// supplies the values while the first one seen fixes the position.
func (s *Service) QuickExit(ctx context.Context, stationName string) Result[models.QuickExitEntry] {
	batch, err := s.Source.FetchAll(ctx, FeedQuickExit, stationName)
	if err != nil {
		return failed[models.QuickExitEntry](err)
	}
	if batch.Truncated != nil && len(batch.Records) == 0 {
		return failed[models.QuickExitEntry](batch.Truncated)
	}

	entries := make([]models.QuickExitEntry, 0, len(batch.Records))
	for _, rec := range batch.Records {
		entries = append(entries, normalize.QuickExit(rec))
	}
	metrics.RowsNormalized.WithLabelValues(FeedQuickExit).Add(float64(len(entries)))

	m := station.NewMatcher(stationName, station.Lenient)
	if !m.Empty() {
		entries = station.Select(m, entries, func(e models.QuickExitEntry) []string {
			return []string{e.StationName}
		})
	}
	return ok(Dedup(entries))
}

// Dedup collapses entries sharing a DedupKey.
func Dedup(entries []models.QuickExitEntry) []models.QuickExitEntry {
	index := make(map[string]int, len(entries))
	out := make([]models.QuickExitEntry, 0, len(entries))
	for _, e := range entries {
		key := e.DedupKey()
		if i, seen := index[key]; seen {
			out[i] = e
			continue
		}
		index[key] = len(out)
		out = append(out, e)
	}
	return out
}
