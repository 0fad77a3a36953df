package normalize

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrNotJSON is returned when a JSON feed answers with something else.
var ErrNotJSON = errors.New("response body is not valid JSON")

// Envelope is the outer shape of a JSON feed response. Two families exist:
//
//	{"<Service>": {"list_total_count": n, "RESULT": {"CODE": "INFO-000"}, "row": [...]}}
//	{"response": {"header": {"resultCode": "00"}, "body": {"totalCount": n, "items": {"item": [...]}}}}
type Envelope struct {
	Total   int // -1 when the feed does not say
	Code    string
	Message string
	Rows    []Record
}

var (
	codePaths    = []string{"RESULT.CODE", "response.header.resultCode", "header.resultCode", "resultCode"}
	messagePaths = []string{"RESULT.MESSAGE", "response.header.resultMsg", "header.resultMsg", "resultMsg"}
	totalPaths   = []string{"list_total_count", "response.body.totalCount", "body.totalCount", "totalCount"}
	rowPaths     = []string{"row", "DATA", "data", "response.body.items.item", "body.items.item", "items.item", "items"}
)

// ParseJSON decodes a feed response. service names the envelope key of the
// Seoul family; when it is absent the first object holding rows is used.
func ParseJSON(body []byte, service string) (Envelope, error) {
	if !gjson.ValidBytes(body) {
		return Envelope{}, ErrNotJSON
	}
	root := gjson.ParseBytes(body)
	container := root
	if service != "" && root.Get(service).IsObject() {
		container = root.Get(service)
	} else if c, ok := findContainer(root); ok {
		container = c
	}

	env := Envelope{
		Total:   -1,
		Code:    firstString(codePaths, container, root),
		Message: firstString(messagePaths, container, root),
	}
	if total := first(totalPaths, container, root); total.Exists() {
		env.Total = int(total.Int())
	}

	rows := first(rowPaths, container, root)
	if !rows.Exists() && root.IsArray() {
		rows = root
	}
	switch {
	case rows.IsArray():
		for _, item := range rows.Array() {
			if item.IsObject() {
				env.Rows = append(env.Rows, recordFrom(item))
			}
		}
	case rows.IsObject():
		env.Rows = append(env.Rows, recordFrom(rows))
	}
	return env, nil
}

func findContainer(root gjson.Result) (gjson.Result, bool) {
	var found gjson.Result
	ok := false
	root.ForEach(func(_, value gjson.Result) bool {
		if value.IsObject() && (value.Get("row").Exists() || value.Get("RESULT").Exists()) {
			found, ok = value, true
			return false
		}
		return true
	})
	return found, ok
}

func first(paths []string, results ...gjson.Result) gjson.Result {
	for _, r := range results {
		for _, p := range paths {
			if v := r.Get(p); v.Exists() {
				return v
			}
		}
	}
	return gjson.Result{}
}

func firstString(paths []string, results ...gjson.Result) string {
	return first(paths, results...).String()
}

func recordFrom(obj gjson.Result) Record {
	rec := Record{}
	flatten(rec, "", obj)
	return rec
}

func flatten(rec Record, prefix string, obj gjson.Result) {
	obj.ForEach(func(key, value gjson.Result) bool {
		k := prefix + key.String()
		switch {
		case value.IsObject():
			flatten(rec, k+".", value)
		case value.Type == gjson.Null:
			rec[k] = ""
		default:
			rec[k] = value.String()
		}
		return true
	})
}
