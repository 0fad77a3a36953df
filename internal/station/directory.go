package station

import (
	"encoding/json"
	"fmt"
	"os"
)

// Entry is one station on one line.
type Entry struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	NameEn string `json:"name_en,omitempty"`
	Line   string `json:"line"`
}

// Directory is a read-only name and code index over every known station.
// It is built once at startup and shared; nothing mutates it afterwards.
// A nil *Directory is valid and knows no stations.
type Directory struct {
	entries []Entry
	byName  map[string][]Entry
	byCode  map[string]Entry
}

// NewDirectory indexes entries by normalized bare name and by code.
func NewDirectory(entries []Entry) *Directory {
	d := &Directory{
		entries: append([]Entry(nil), entries...),
		byName:  make(map[string][]Entry),
		byCode:  make(map[string]Entry),
	}
	for _, e := range d.entries {
		key := nameKey(e.Name)
		d.byName[key] = append(d.byName[key], e)
		if e.Code != "" {
			d.byCode[e.Code] = e
		}
	}
	return d
}

// LoadDirectory reads a JSON array of entries from path.
func LoadDirectory(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read station directory: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal station directory: %w", err)
	}
	return NewDirectory(entries), nil
}

func nameKey(name string) string {
	n := Normalize(name)
	if i := indexParen(n); i > 0 {
		n = n[:i]
	}
	return withoutStationSuffix(n)
}

func indexParen(s string) int {
	for i, r := range s {
		if r == '(' {
			return i
		}
	}
	return -1
}

// Len returns the number of entries.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Lookup returns every entry for a station name, across lines.
func (d *Directory) Lookup(name string) []Entry {
	if d == nil {
		return nil
	}
	return append([]Entry(nil), d.byName[nameKey(name)]...)
}

// ByCode returns the entry with the given station code.
func (d *Directory) ByCode(code string) (Entry, bool) {
	if d == nil {
		return Entry{}, false
	}
	e, ok := d.byCode[code]
	return e, ok
}

// CodeFor resolves a station name to a code. When line is set, the entry on
// that line wins; otherwise the first entry does.
func (d *Directory) CodeFor(name, line string) string {
	entries := d.Lookup(name)
	if len(entries) == 0 {
		return ""
	}
	if line != "" {
		for _, e := range entries {
			if SameLine(e.Line, line) {
				return e.Code
			}
		}
	}
	return entries[0].Code
}
