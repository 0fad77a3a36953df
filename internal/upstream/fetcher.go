package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"barrierfree.app/internal/metrics"
	"barrierfree.app/internal/normalize"
	"barrierfree.app/internal/report"
)

// maxBodySize caps a single page read.
const maxBodySize = 16 << 20

// Settings resolves feeds by name. Resolved feeds carry the effective base
// URL and API key.
type Settings interface {
	Feed(name string) (Feed, bool)
	Timeout() time.Duration
}

// StaticSettings is a fixed Settings value.
type StaticSettings struct {
	Feeds       map[string]Feed
	CallTimeout time.Duration
}

func (s StaticSettings) Feed(name string) (Feed, bool) {
	f, ok := s.Feeds[name]
	if !ok {
		return Feed{}, false
	}
	f.Name = name
	return f.WithDefaults(), true
}

func (s StaticSettings) Timeout() time.Duration {
	if s.CallTimeout <= 0 {
		return DefaultTimeout
	}
	return s.CallTimeout
}

// Batch is the outcome of a paginated fetch.
type Batch struct {
	Records []normalize.Record
	Pages   int
	// Truncated is set when a page came back malformed or timed out. Records
	// then holds what was collected before it.
	Truncated error
}

// Fetcher pulls complete result sets from the open-data feeds.
type Fetcher struct {
	Client   *http.Client
	Settings Settings
	Logger   *slog.Logger
	Parser   normalize.RecordParser
	// Backoff is optional; nil disables cooldown even for feeds that ask
	// for it.
	Backoff *BackoffStore
}

func NewFetcher(client *http.Client, settings Settings, logger *slog.Logger, backoff *BackoffStore) *Fetcher {
	return &Fetcher{
		Client:   client,
		Settings: settings,
		Logger:   logger,
		Parser:   normalize.NewXMLParser(),
		Backoff:  backoff,
	}
}

// page is one parsed window.
type page struct {
	records []normalize.Record
	total   int
	empty   bool
}

// Resolve returns the named feed, failing fast when it is unknown or has no key.
func (f *Fetcher) Resolve(name string) (Feed, error) {
	feed, ok := f.Settings.Feed(name)
	if !ok {
		return Feed{}, fmt.Errorf("%w: %s", ErrUnknownFeed, name)
	}
	if feed.APIKey == "" {
		return Feed{}, fmt.Errorf("feed %s: %w", name, ErrMissingAPIKey)
	}
	return feed, nil
}

// FetchAll retrieves every row of the named feed, optionally filtered
// upstream by station. Sequential feeds page until a short page, the row cap
// or the reported total; windowed feeds fetch their fixed windows at once.
//
// A malformed page or a per-call timeout ends the fetch early without an
// error: the collected records come back with Batch.Truncated set. Transport,
// status and result-code failures are returned as errors.
func (f *Fetcher) FetchAll(ctx context.Context, name, station string) (Batch, error) {
	feed, err := f.Resolve(name)
	if err != nil {
		f.fail(ctx, name, station, err, false)
		return Batch{}, err
	}
	if f.cooling(feed) {
		err := fmt.Errorf("feed %s: %w", name, ErrFeedCoolingDown)
		metrics.FeedFailures.WithLabelValues(name, metrics.FailureCooldown).Inc()
		return Batch{}, err
	}

	ctx = WithFeed(ctx, name)
	var batch Batch
	if feed.Windows > 0 {
		batch, err = f.fetchWindows(ctx, feed, station)
	} else {
		batch, err = f.fetchSequential(ctx, feed, station)
	}

	switch {
	case err != nil:
		f.fail(ctx, name, station, err, feed.Cooldown)
	case batch.Truncated != nil:
		// the feed answered; a partial batch never cools it down
		f.fail(ctx, name, station, batch.Truncated, false)
	default:
		f.succeed(name)
	}
	return batch, err
}

func (f *Fetcher) fetchSequential(ctx context.Context, feed Feed, station string) (Batch, error) {
	var batch Batch
	for start := 1; start <= feed.MaxRows; start += feed.PageSize {
		end := min(start+feed.PageSize-1, feed.MaxRows)
		p, err := f.fetchPage(ctx, feed, station, start, end)
		if err != nil {
			if f.soft(ctx, err) {
				batch.Truncated = err
				return batch, nil
			}
			return batch, err
		}
		batch.Pages++
		batch.Records = append(batch.Records, p.records...)

		if p.empty || len(p.records) < end-start+1 {
			break
		}
		if p.total >= 0 && len(batch.Records) >= p.total {
			break
		}
	}
	if len(batch.Records) > feed.MaxRows {
		batch.Records = batch.Records[:feed.MaxRows]
	}
	return batch, nil
}

// fetchWindows issues a fixed set of page windows concurrently and joins them
// in window order, stopping at the first malformed or short window.
func (f *Fetcher) fetchWindows(ctx context.Context, feed Feed, station string) (Batch, error) {
	pages := make([]page, feed.Windows)
	errs := make([]error, feed.Windows)

	g, gctx := errgroup.WithContext(ctx)
	for i := range feed.Windows {
		start := i*feed.PageSize + 1
		end := start + feed.PageSize - 1
		if start > feed.MaxRows {
			pages[i].empty = true
			continue
		}
		g.Go(func() error {
			p, err := f.fetchPage(gctx, feed, station, start, min(end, feed.MaxRows))
			if err != nil {
				if f.soft(gctx, err) {
					errs[i] = err
					return nil
				}
				return err
			}
			pages[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, err
	}

	var batch Batch
	for i, p := range pages {
		if errs[i] != nil {
			batch.Truncated = errs[i]
			break
		}
		if p.empty {
			break
		}
		batch.Pages++
		batch.Records = append(batch.Records, p.records...)
		if len(p.records) < feed.PageSize {
			break
		}
	}
	if len(batch.Records) > feed.MaxRows {
		batch.Records = batch.Records[:feed.MaxRows]
	}
	return batch, nil
}

// soft reports whether err ends a fetch early instead of failing it. A
// timeout only counts when the caller's own context is still alive.
func (f *Fetcher) soft(ctx context.Context, err error) bool {
	if errors.Is(err, ErrMalformedResponse) {
		return true
	}
	return IsTimeout(err) && ctx.Err() == nil
}

func (f *Fetcher) fetchPage(ctx context.Context, feed Feed, station string, start, end int) (page, error) {
	body, err := f.get(ctx, feed, station, start, end, nil)
	if err != nil {
		return page{}, err
	}
	metrics.PagesFetched.WithLabelValues(feed.Name).Inc()

	p, err := f.parse(feed, body)
	if err != nil {
		return page{}, &PageError{Feed: feed.Name, Start: start, End: end, Err: err}
	}
	return p, nil
}

// FetchRaw performs one request against the named feed and returns the body
// after the status and malformed checks. extra is added to the query of
// query-style feeds and replaces the paging defaults it names.
//
// Callers treat a raw failure as final for their request, so FetchRaw
// ignores cooldown both ways: it never skips the call and never starts one.
func (f *Fetcher) FetchRaw(ctx context.Context, name string, extra url.Values) ([]byte, error) {
	feed, err := f.Resolve(name)
	if err != nil {
		f.fail(ctx, name, "", err, false)
		return nil, err
	}

	body, err := f.get(WithFeed(ctx, name), feed, "", 1, feed.PageSize, extra)
	if err != nil {
		f.fail(ctx, name, "", err, false)
		return nil, err
	}
	metrics.PagesFetched.WithLabelValues(name).Inc()
	f.succeed(name)
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, feed Feed, station string, start, end int, extra url.Values) ([]byte, error) {
	pageErr := func(err error) error {
		return &PageError{Feed: feed.Name, Start: start, End: end, Err: err}
	}

	target, err := feed.PageURL(start, end, station, extra)
	if err != nil {
		return nil, pageErr(err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.Settings.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, pageErr(redact(err))
	}
	req.Header.Set("Accept", acceptFor(feed.Format))

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, pageErr(redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, pageErr(redact(err))
	}

	if Malformed(body, feed.Format) {
		return nil, pageErr(ErrMalformedResponse)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pageErr(&StatusError{Feed: feed.Name, StatusCode: resp.StatusCode})
	}
	return body, nil
}

func (f *Fetcher) parse(feed Feed, body []byte) (page, error) {
	switch feed.Format {
	case FormatXML:
		code, _ := normalize.LeafValue(body, "CODE")
		if code == "" {
			code, _ = normalize.LeafValue(body, "resultCode")
		}
		msg, _ := normalize.LeafValue(body, "MESSAGE")
		if msg == "" {
			msg, _ = normalize.LeafValue(body, "resultMsg")
		}
		if err := checkResult(feed.Name, code, msg); err != nil {
			if errors.Is(err, errNoData) {
				return page{empty: true, total: 0}, nil
			}
			return page{}, err
		}
		records, err := f.Parser.Parse(body)
		if err != nil {
			return page{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return page{records: records, total: xmlTotal(body)}, nil
	default:
		env, err := normalize.ParseJSON(body, feed.Service)
		if err != nil {
			return page{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if err := checkResult(feed.Name, env.Code, env.Message); err != nil {
			if errors.Is(err, errNoData) {
				return page{empty: true, total: 0}, nil
			}
			return page{}, err
		}
		return page{records: env.Rows, total: env.Total}, nil
	}
}

var errNoData = errors.New("no data")

func checkResult(feed, code, msg string) error {
	switch {
	case resultEmpty(code):
		return errNoData
	case resultOK(code):
		return nil
	default:
		return &ResultError{Feed: feed, Code: code, Message: msg}
	}
}

func xmlTotal(body []byte) int {
	for _, tag := range []string{"list_total_count", "totalCount"} {
		if v, ok := normalize.LeafValue(body, tag); ok {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return -1
}

func acceptFor(format Format) string {
	if format == FormatXML {
		return "application/xml, text/xml"
	}
	return "application/json"
}

// redact drops the request URL from transport errors; path-style URLs carry
// the API key.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s request failed: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

func (f *Fetcher) cooling(feed Feed) bool {
	return feed.Cooldown && f.Backoff != nil && f.Backoff.CoolingDown(feed.Name)
}

// fail records a feed failure. A caller that gave up is not the feed's
// fault, so nothing is recorded for it beyond a debug line.
func (f *Fetcher) fail(ctx context.Context, feed, station string, err error, cool bool) {
	if ctx.Err() != nil {
		if f.Logger != nil {
			f.Logger.Debug("upstream fetch abandoned by caller", "feed", feed, "station", station, "error", err)
		}
		return
	}

	kind := FailureKind(err)
	metrics.FeedFailures.WithLabelValues(feed, kind).Inc()
	metrics.FeedStatus.WithLabelValues(feed).Set(0)
	if cool && f.Backoff != nil && kind != metrics.FailureConfig {
		f.Backoff.UpdateBackoff(feed)
	}
	if f.Logger != nil {
		f.Logger.Warn("upstream feed failed", "feed", feed, "station", station, "kind", kind, "error", err)
	}
	if kind != metrics.FailureConfig {
		report.FeedFailure(err, feed, station)
	}
}

func (f *Fetcher) succeed(feed string) {
	metrics.FeedStatus.WithLabelValues(feed).Set(1)
	if f.Backoff != nil {
		f.Backoff.ResetBackoff(feed)
	}
}
