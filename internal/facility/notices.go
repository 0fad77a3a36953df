package facility

import (
	"context"

	"barrierfree.app/internal/metrics"
	"barrierfree.app/internal/models"
	"barrierfree.app/internal/normalize"
	"barrierfree.app/internal/utils"
)

// Notices returns today's station notices, newest feed order preserved.
// "Today" is the KST calendar day; notices with an unreadable date are
// dropped. limit <= 0 means no limit.
func (s *Service) Notices(ctx context.Context, limit int) Result[models.Notice] {
	batch, err := s.Source.FetchAll(ctx, FeedNotice, "")
	if err != nil {
		return failed[models.Notice](err)
	}
	if batch.Truncated != nil && len(batch.Records) == 0 {
		return failed[models.Notice](batch.Truncated)
	}
	metrics.RowsNormalized.WithLabelValues(FeedNotice).Add(float64(len(batch.Records)))

	now := s.Now()
	out := make([]models.Notice, 0)
	for _, rec := range batch.Records {
		n := normalize.Notice(rec)
		occurred, parsed := utils.ParseServiceDate(n.OccurredAt)
		if !parsed || !utils.SameServiceDay(occurred, now) {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return ok(out)
}
