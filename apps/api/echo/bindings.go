package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
	"github.com/trezcool/masomo-admin/core/resource"
)

// list query params, every other param filters the column it is named after
const (
	pageParam     = "page"
	pageSizeParam = "page_size"
	orderingParam = "ordering"

	rangeFromSuffix = "_from"
	rangeToSuffix   = "_to"
)

// bindFilters reads the filters from the query params.
// "col=v" filters col on v, "col_from=a&col_to=b" on the inclusive range [a, b].
func bindFilters(ctx echo.Context, schema *resource.Schema) listing.Filters {
	filters := make(listing.Filters)
	for key, vals := range ctx.QueryParams() {
		if len(vals) == 0 {
			continue
		}
		val := vals[0]
		switch key {
		case pageParam, pageSizeParam, orderingParam:
			continue
		}

		if _, ok := schema.Column(key); ok || key == listing.SearchKey {
			v := filters[key]
			v.Eq = val
			filters[key] = v
			continue
		}
		if name := strings.TrimSuffix(key, rangeFromSuffix); name != key {
			v := filters[name]
			v.From = val
			filters[name] = v
			continue
		}
		if name := strings.TrimSuffix(key, rangeToSuffix); name != key {
			v := filters[name]
			v.To = val
			filters[name] = v
			continue
		}
		filters[key] = listing.Eq(val) // rejected as an unknown filter
	}
	return filters
}

func bindOrdering(ctx echo.Context) []core.DBOrdering {
	return core.ParseOrdering(ctx.QueryParam(orderingParam))
}

// bindQuery reads a list query from the query params, page is 0-based.
func bindQuery(ctx echo.Context, schema *resource.Schema, defaultPageSize int) (listing.Query, error) {
	q := listing.Query{
		Filters:  bindFilters(ctx, schema),
		Ordering: bindOrdering(ctx),
		PageSize: defaultPageSize,
	}

	var fldErrs []core.FieldError
	if s := ctx.QueryParam(pageParam); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 0 {
			fldErrs = append(fldErrs, core.FieldError{Field: pageParam, Error: "must be a positive integer"})
		}
		q.Page = page
	}
	if s := ctx.QueryParam(pageSizeParam); s != "" {
		size, err := strconv.Atoi(s)
		if err != nil {
			fldErrs = append(fldErrs, core.FieldError{Field: pageSizeParam, Error: "must be an integer"})
		}
		q.PageSize = size
	}
	if len(fldErrs) > 0 {
		return listing.Query{}, core.NewValidationError(nil, fldErrs...)
	}
	return q, nil
}
