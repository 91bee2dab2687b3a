package listing

import (
	"net/url"
	"sort"
	"strings"
)

// SearchKey is the filter key of the free text search.
const SearchKey = "search"

// Value is a filter value: either a scalar (Eq) or an inclusive range (From, To).
// Either bound of a range may be left empty.
type Value struct {
	Eq   string `json:"eq,omitempty"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

func Eq(v string) Value            { return Value{Eq: v} }
func Range(from, to string) Value { return Value{From: from, To: to} }

func (v Value) IsEmpty() bool { return v.Eq == "" && v.From == "" && v.To == "" }
func (v Value) IsRange() bool { return v.Eq == "" && (v.From != "" || v.To != "") }

func (v Value) clean() Value {
	return Value{Eq: strings.TrimSpace(v.Eq), From: strings.TrimSpace(v.From), To: strings.TrimSpace(v.To)}
}

// Filters maps filter keys to their current value.
// An absent key, or an empty value, does not constrain the list.
type Filters map[string]Value

// Clean returns a copy of the filters without empty values.
func (f Filters) Clean() Filters {
	cleaned := make(Filters, len(f))
	for k, v := range f {
		v = v.clean()
		if k == "" || v.IsEmpty() {
			continue
		}
		cleaned[k] = v
	}
	return cleaned
}

// Search returns the free text search term, if any.
func (f Filters) Search() string {
	return f[SearchKey].clean().Eq
}

// Equal reports whether both filters constrain the list the same way.
func (f Filters) Equal(other Filters) bool {
	return f.Key() == other.Key()
}

// Key canonically encodes the non empty filters, sorted by key.
func (f Filters) Key() string {
	cleaned := f.Clean()
	keys := make([]string, 0, len(cleaned))
	for k := range cleaned {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := cleaned[k]
		if v.IsRange() {
			parts = append(parts, url.QueryEscape(k)+"=["+url.QueryEscape(v.From)+","+url.QueryEscape(v.To)+"]")
		} else {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v.Eq))
		}
	}
	return strings.Join(parts, "&")
}
