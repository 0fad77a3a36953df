package upstream

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"barrierfree.app/internal/metrics"
)

type feedKey struct{}

// WithFeed tags ctx with the feed a request belongs to. The latency metric is
// labelled with it instead of the URL, since path-style URLs embed the API key.
func WithFeed(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, feedKey{}, name)
}

// FeedFromContext returns the feed name set by WithFeed, or "unknown".
func FeedFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(feedKey{}).(string); ok && name != "" {
		return name
	}
	return "unknown"
}

// latencyTrackingRoundTripper wraps another RoundTripper and records the
// latency of each outgoing request in metrics.OutgoingLatency.
type latencyTrackingRoundTripper struct {
	next http.RoundTripper
}

func (rt *latencyTrackingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	duration := time.Since(start).Seconds()

	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	metrics.OutgoingLatency.WithLabelValues(
		FeedFromContext(req.Context()),
		req.Method,
		status,
	).Observe(duration)

	return resp, err
}

// NewPooledClient returns the HTTP client shared by every feed.
//
// Most requests go to two hosts (openapi.seoul.go.kr and apis.data.go.kr) and
// a composed journey fans out to several feeds on the same host at once, so
// idle connections per host are kept generous. Per-call deadlines come from
// the request context; the client timeout is only a backstop for callers that
// forget one.
//
//   - MaxIdleConns: 100, MaxIdleConnsPerHost: 20
//   - IdleConnTimeout: 90s
//   - DialContext: 5s connect timeout, 30s keep-alive
//   - TLSHandshakeTimeout: 5s
//
// The transport is wrapped with latencyTrackingRoundTripper.
func NewPooledClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Transport: &latencyTrackingRoundTripper{next: transport},
		Timeout:   timeout + 5*time.Second,
	}
}
