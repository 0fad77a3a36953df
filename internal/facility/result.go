package facility

// Result is the outcome of one aggregator call. Err set means the feed
// failed and Rows is empty; Err nil with no Rows means the station simply
// has none.
type Result[T any] struct {
	Rows []T
	Err  error
}

func ok[T any](rows []T) Result[T] {
	if rows == nil {
		rows = []T{}
	}
	return Result[T]{Rows: rows}
}

func failed[T any](err error) Result[T] {
	return Result[T]{Rows: []T{}, Err: err}
}
