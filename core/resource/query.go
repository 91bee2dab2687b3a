package resource

import (
	"sort"
	"strings"
	"time"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
)

// Condition constrains one column, either to a value or to an inclusive range.
// A nil bound is open.
type Condition struct {
	Column Column
	Eq     interface{}
	From   interface{}
	To     interface{}
	Range  bool
}

// Criteria is a listing.Query checked against a Schema, with typed values.
type Criteria struct {
	Conditions []Condition
	Search     string
	Searchable []Column
	Ordering   []core.DBOrdering
	Offset     int
	Limit      int // 0 means no limit
}

// Criteria checks q against the schema.
// Unknown or non filterable keys, unparsable values and non sortable orderings are reported as a *core.ValidationError.
func (s *Schema) Criteria(q listing.Query) (Criteria, error) {
	var (
		crit    = Criteria{Offset: q.Offset(), Limit: q.PageSize}
		fldErrs []core.FieldError
	)

	filters := q.Filters.Clean()
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := filters[key]
		if key == listing.SearchKey {
			crit.Search = strings.ToLower(v.Eq)
			crit.Searchable = s.Searchable()
			continue
		}
		col, ok := s.Column(key)
		if !ok || !col.Filterable {
			fldErrs = append(fldErrs, core.FieldError{Field: key, Error: "unknown filter"})
			continue
		}
		cond, err := condition(col, v)
		if err != nil {
			fldErrs = append(fldErrs, core.FieldError{Field: key, Error: err.Error()})
			continue
		}
		crit.Conditions = append(crit.Conditions, cond)
	}

	orderings := q.Ordering
	if len(orderings) == 0 {
		orderings = s.DefaultOrdering
	}
	var hasID bool
	for _, ord := range orderings {
		col, ok := s.Column(ord.Field)
		if !ok || !(col.Sortable || col.Name == "id") {
			fldErrs = append(fldErrs, core.FieldError{Field: "ordering", Error: "cannot order by " + ord.Field})
			continue
		}
		hasID = hasID || ord.Field == "id"
		crit.Ordering = append(crit.Ordering, ord)
	}
	// stable pages
	if !hasID {
		crit.Ordering = append(crit.Ordering, core.DBOrdering{Field: "id", Ascending: true})
	}

	if len(fldErrs) > 0 {
		return Criteria{}, core.NewValidationError(nil, fldErrs...)
	}
	return crit, nil
}

func condition(col Column, v listing.Value) (Condition, error) {
	cond := Condition{Column: col}
	if !v.IsRange() {
		val, err := col.Parse(v.Eq)
		if err != nil {
			return cond, err
		}
		cond.Eq = val
		return cond, nil
	}

	cond.Range = true
	if v.From != "" {
		from, err := col.Parse(v.From)
		if err != nil {
			return cond, err
		}
		cond.From = from
	}
	if v.To != "" {
		to, err := col.Parse(v.To)
		if err != nil {
			return cond, err
		}
		// a date upper bound includes the whole day
		if t, ok := to.(time.Time); ok && col.Kind == KindTime && len(v.To) == len(DateLayout) {
			to = t.Add(24*time.Hour - time.Nanosecond)
		}
		cond.To = to
	}
	return cond, nil
}

// Match reports whether a driver value satisfies the condition.
func (c Condition) Match(v interface{}) bool {
	if !c.Range {
		return Compare(v, c.Eq) == 0
	}
	if c.From != nil && (v == nil || Compare(v, c.From) < 0) {
		return false
	}
	if c.To != nil && (v == nil || Compare(v, c.To) > 0) {
		return false
	}
	return true
}

// CleanPatch checks the patch of a bulk update against the schema and coerces its values.
func (s *Schema) CleanPatch(patch listing.Patch) (map[string]interface{}, error) {
	if len(patch) == 0 {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "patch", Error: "nothing to update"})
	}

	var fldErrs []core.FieldError
	cleaned := make(map[string]interface{}, len(patch))
	for key, v := range patch {
		col, ok := s.Column(key)
		if !ok || !col.Patchable {
			fldErrs = append(fldErrs, core.FieldError{Field: key, Error: "cannot be updated in bulk"})
			continue
		}
		val, err := col.Coerce(v)
		if err != nil {
			fldErrs = append(fldErrs, core.FieldError{Field: key, Error: err.Error()})
			continue
		}
		cleaned[key] = val
	}
	if len(fldErrs) > 0 {
		sort.Slice(fldErrs, func(i, j int) bool { return fldErrs[i].Field < fldErrs[j].Field })
		return nil, core.NewValidationError(nil, fldErrs...)
	}
	return cleaned, nil
}
