package upstream

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Format is the body encoding requested from a feed.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// Style is how a feed takes its paging parameters.
type Style string

const (
	// StylePath is the Seoul open-data layout:
	// {base}/{key}/{format}/{service}/{start}/{end}[/{station}]
	StylePath Style = "path"
	// StyleQuery is the data.go.kr layout with serviceKey, pageNo and numOfRows.
	StyleQuery Style = "query"
)

// Feed describes one upstream dataset.
type Feed struct {
	Name    string `yaml:"-"`
	Service string `yaml:"service"`
	Format  Format `yaml:"format" validate:"omitempty,oneof=json xml"`
	Style   Style  `yaml:"style" validate:"omitempty,oneof=path query"`
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	APIKey  string `yaml:"api_key"`

	PageSize int `yaml:"page_size" validate:"gte=0,lte=1000"`
	MaxRows  int `yaml:"max_rows" validate:"gte=0"`
	// Windows > 0 fetches that many fixed page windows concurrently instead
	// of paging until a short page.
	Windows int `yaml:"windows" validate:"gte=0,lte=20"`

	// StationParam enables upstream filtering by station name. Path-style
	// feeds append the name as the last segment; query-style feeds send it
	// under this parameter name.
	StationParam string `yaml:"station_param"`

	// Cooldown skips the feed for a backoff window after it fails. Off by
	// default; FetchRaw never consults it.
	Cooldown bool `yaml:"cooldown"`
}

const (
	DefaultPageSize = 1000
	DefaultMaxRows  = 5000
	DefaultTimeout  = 12 * time.Second
)

// WithDefaults fills the zero fields.
func (f Feed) WithDefaults() Feed {
	if f.Format == "" {
		f.Format = FormatJSON
	}
	if f.Style == "" {
		f.Style = StylePath
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.MaxRows <= 0 {
		f.MaxRows = DefaultMaxRows
	}
	return f
}

// Rounds is the most sequential requests one full fetch can make. Windowed
// feeds issue all their windows at once.
func (f Feed) Rounds() int {
	f = f.WithDefaults()
	if f.Windows > 0 {
		return 1
	}
	return (f.MaxRows + f.PageSize - 1) / f.PageSize
}

// PageURL builds the URL of the window [start, end], 1-based and inclusive.
func (f Feed) PageURL(start, end int, station string, extra url.Values) (string, error) {
	switch f.Style {
	case StyleQuery:
		u, err := url.Parse(f.BaseURL)
		if err != nil {
			return "", fmt.Errorf("invalid base url for feed %s: %w", f.Name, err)
		}
		q := u.Query()
		q.Set("serviceKey", f.APIKey)
		size := f.PageSize
		if size <= 0 {
			size = end - start + 1
		}
		q.Set("pageNo", strconv.Itoa((start-1)/max(size, 1)+1))
		q.Set("numOfRows", strconv.Itoa(size))
		if f.Format == FormatJSON {
			q.Set("_type", "json")
		}
		if station != "" && f.StationParam != "" {
			q.Set(f.StationParam, station)
		}
		// extra values replace the paging defaults rather than repeat them
		for k, vs := range extra {
			q[k] = append([]string(nil), vs...)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	default:
		if f.Service == "" {
			return "", fmt.Errorf("feed %s has no service name", f.Name)
		}
		parts := []string{
			strings.TrimRight(f.BaseURL, "/"),
			url.PathEscape(f.APIKey),
			string(f.Format),
			url.PathEscape(f.Service),
			strconv.Itoa(start),
			strconv.Itoa(end),
		}
		if station != "" && f.StationParam != "" {
			parts = append(parts, url.PathEscape(station))
		}
		return strings.Join(parts, "/"), nil
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Malformed reports whether body cannot be a response in the given format:
// empty, an HTML page, or the wrong leading character.
func Malformed(body []byte, format Format) bool {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(body, utf8BOM))
	if len(trimmed) == 0 {
		return true
	}
	head := bytes.ToLower(trimmed[:min(len(trimmed), 16)])
	if bytes.HasPrefix(head, []byte("<!doctype")) || bytes.HasPrefix(head, []byte("<html")) {
		return true
	}
	switch format {
	case FormatJSON:
		return trimmed[0] != '{' && trimmed[0] != '['
	case FormatXML:
		return trimmed[0] != '<'
	}
	return false
}

// Result codes shared by both open-data API families.
const (
	CodeOK       = "INFO-000"
	CodeNoData   = "INFO-200"
	CodePortalOK = "00"
	CodeNoRows   = "03"
)

func resultOK(code string) bool {
	switch strings.TrimSpace(code) {
	case "", CodeOK, CodePortalOK, "0":
		return true
	}
	return false
}

func resultEmpty(code string) bool {
	switch strings.TrimSpace(code) {
	case CodeNoData, CodeNoRows:
		return true
	}
	return false
}
