package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// Param returns the query param form of the ordering: "field" or "-field".
func (ord DBOrdering) Param() string {
	if ord.Ascending {
		return ord.Field
	}
	return "-" + ord.Field
}

// ParseOrdering parses a comma separated list of fields, "-" prefixed fields are descending.
// e.g. "-created_at,name"
func ParseOrdering(s string) []DBOrdering {
	var orderings []DBOrdering
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		orderings = append(orderings, DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}

// FormatOrdering is the inverse of ParseOrdering.
func FormatOrdering(orderings []DBOrdering) string {
	params := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		params = append(params, ord.Param())
	}
	return strings.Join(params, ",")
}
