package client

import (
	"context"
	"strconv"

	"github.com/sendgrid/rest"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
)

// query params understood by the list endpoints
const (
	pageParam     = "page"
	pageSizeParam = "page_size"
	orderingParam = "ordering"

	rangeFromSuffix = "_from"
	rangeToSuffix   = "_to"
)

// Row is a resource row decoded without its entity type.
type Row map[string]interface{}

func (r Row) RecordID() string {
	id, _ := r["id"].(string)
	return id
}

// Clone copies the row so that editing the copy leaves r untouched.
func (r Row) Clone() Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Resource is a remote resource. It implements listing.DataSource.
type Resource[E listing.Record] struct {
	client *Client
	name   string
}

var _ listing.DataSource[Row] = (*Resource[Row])(nil)

func NewResource[E listing.Record](c *Client, name string) *Resource[E] {
	return &Resource[E]{client: c, name: name}
}

func (r *Resource[E]) Name() string { return r.name }

func (r *Resource[E]) path(id ...string) string {
	if len(id) > 0 {
		return "/" + r.name + "/" + id[0]
	}
	return "/" + r.name
}

func (r *Resource[E]) List(ctx context.Context, q listing.Query) (listing.Result[E], error) {
	params := filterParams(q.Filters, q.Ordering)
	params[pageParam] = strconv.Itoa(q.Page)
	if q.PageSize > 0 {
		params[pageSizeParam] = strconv.Itoa(q.PageSize)
	}

	var res listing.Result[E]
	if err := r.client.send(ctx, rest.Get, r.path(), params, nil, &res); err != nil {
		return listing.Result[E]{}, err
	}
	if res.Rows == nil {
		res.Rows = make([]E, 0)
	}
	return res, nil
}

func (r *Resource[E]) Get(ctx context.Context, id string) (E, error) {
	var e E
	err := r.client.send(ctx, rest.Get, r.path(id), nil, nil, &e)
	return e, err
}

func (r *Resource[E]) Create(ctx context.Context, e E) (E, error) {
	var created E
	err := r.client.send(ctx, rest.Post, r.path(), nil, e, &created)
	return created, err
}

func (r *Resource[E]) Update(ctx context.Context, id string, e E) (E, error) {
	var updated E
	err := r.client.send(ctx, rest.Put, r.path(id), nil, e, &updated)
	return updated, err
}

func (r *Resource[E]) Delete(ctx context.Context, id string) (bool, error) {
	var resp struct {
		Deleted bool `json:"deleted"`
	}
	err := r.client.send(ctx, rest.Delete, r.path(id), nil, nil, &resp)
	if core.IsNotFound(err) {
		return false, nil
	}
	return resp.Deleted, err
}

func (r *Resource[E]) BulkUpdate(ctx context.Context, ids []string, patch listing.Patch) (bool, error) {
	var resp struct {
		Updated bool `json:"updated"`
	}
	body := struct {
		IDs   []string      `json:"ids"`
		Patch listing.Patch `json:"patch"`
	}{ids, patch}
	err := r.client.send(ctx, rest.Patch, r.path(), nil, body, &resp)
	return resp.Updated, err
}

// Do runs the custom action on the row and returns the row as it now is.
func (r *Resource[E]) Do(ctx context.Context, action, id string, params listing.Patch) (E, error) {
	var e E
	var body interface{}
	if len(params) > 0 {
		body = params
	}
	err := r.client.send(ctx, rest.Post, r.path(id)+"/actions/"+action, nil, body, &e)
	return e, err
}

// Export returns every row matching the filters as CSV.
func (r *Resource[E]) Export(ctx context.Context, filters listing.Filters, ordering []core.DBOrdering) ([]byte, error) {
	resp, err := r.client.request(ctx, rest.Get, r.path()+"/export", filterParams(filters, ordering), nil)
	if err != nil {
		return nil, err
	}
	return []byte(resp.Body), nil
}

func filterParams(filters listing.Filters, ordering []core.DBOrdering) map[string]string {
	params := make(map[string]string)
	for key, v := range filters.Clean() {
		if v.IsRange() {
			if v.From != "" {
				params[key+rangeFromSuffix] = v.From
			}
			if v.To != "" {
				params[key+rangeToSuffix] = v.To
			}
			continue
		}
		params[key] = v.Eq
	}
	if len(ordering) > 0 {
		params[orderingParam] = core.FormatOrdering(ordering)
	}
	return params
}
