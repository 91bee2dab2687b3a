// Package listing implements the list management shared by every resource screen:
// a query coordinator owning filters, ordering and pagination, a row action dispatcher,
// and a dialog controller holding the draft of the record being created or edited.
package listing

import (
	"context"
	"strconv"
	"strings"

	"github.com/trezcool/masomo-admin/core"
)

// Record is implemented by every listed entity.
type Record interface {
	RecordID() string
}

// Query describes one page of a filtered and ordered list.
// Page is 0-based.
type Query struct {
	Filters  Filters
	Ordering []core.DBOrdering
	Page     int
	PageSize int
}

func (q Query) Offset() int { return q.Page * q.PageSize }

// Key canonically encodes the query, two queries with the same key return the same page.
func (q Query) Key() string {
	var b strings.Builder
	b.WriteString(q.Filters.Key())
	b.WriteString("|o=")
	b.WriteString(core.FormatOrdering(q.Ordering))
	b.WriteString("|p=")
	b.WriteString(strconv.Itoa(q.Page))
	b.WriteString("|s=")
	b.WriteString(strconv.Itoa(q.PageSize))
	return b.String()
}

// Result is one page of rows along with the total number of rows matching the filters.
type Result[E any] struct {
	Rows  []E `json:"rows"`
	Count int `json:"count"`
}

// Patch maps column names to their new values.
type Patch map[string]interface{}

// DataSource is the backend a list is managed against.
//
// Delete reports false when the record is already gone, it never fails for that reason.
// BulkUpdate reports false when none of the ids matched.
type DataSource[E Record] interface {
	List(ctx context.Context, q Query) (Result[E], error)
	Create(ctx context.Context, e E) (E, error)
	Update(ctx context.Context, id string, e E) (E, error)
	Delete(ctx context.Context, id string) (bool, error)
	BulkUpdate(ctx context.Context, ids []string, patch Patch) (bool, error)
}

// Invalidator marks listed data stale and fetches it again.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

func recordIDs[E Record](rows []E) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.RecordID())
	}
	return ids
}
