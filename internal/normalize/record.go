package normalize

import "strings"

// Record is one raw upstream row keyed the way the feed spelled it.
// Nested XML elements are flattened with dotted keys, e.g. "dptreStn.stnNm".
type Record map[string]string

// Lookup returns the first non-blank value among keys. Exact key matches win;
// otherwise keys are compared case-insensitively, because feeds change the
// casing of the same field between their XML and JSON variants.
func (r Record) Lookup(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	for _, k := range keys {
		for rk, rv := range r {
			if strings.EqualFold(rk, k) {
				if v := strings.TrimSpace(rv); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// LookupOr is Lookup with a default for when no candidate key is present.
func (r Record) LookupOr(def string, keys ...string) string {
	if v := r.Lookup(keys...); v != "" {
		return v
	}
	return def
}
