package facility

import (
	"context"
	"sync"

	"barrierfree.app/internal/normalize"
	"barrierfree.app/internal/upstream"
)

// fakeSource serves canned batches by feed name and records calls.
type fakeSource struct {
	mu      sync.Mutex
	batches map[string]upstream.Batch
	errs    map[string]error
	calls   []string
}

func (f *fakeSource) FetchAll(_ context.Context, name, station string) (upstream.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name+"|"+station)
	if err := f.errs[name]; err != nil {
		return upstream.Batch{}, err
	}
	b := f.batches[name]
	records := make([]normalize.Record, len(b.Records))
	for i, r := range b.Records {
		cp := make(normalize.Record, len(r))
		for k, v := range r {
			cp[k] = v
		}
		records[i] = cp
	}
	b.Records = records
	return b, nil
}
