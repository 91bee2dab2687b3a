package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
	"github.com/trezcool/masomo-admin/core/resource"
)

type resourceRepository[E resource.Entity] struct {
	db     *table
	schema *resource.Schema
}

func NewResourceRepository[E resource.Entity](db *DB, schema *resource.Schema) resource.Repository[E] {
	return &resourceRepository[E]{db: db.table(schema.Name), schema: schema}
}

func (repo *resourceRepository[E]) query(tenantID string) []E {
	rows := make([]E, 0, len(repo.db.rows[tenantID]))
	for _, r := range repo.db.rows[tenantID] {
		rows = append(rows, r.(E))
	}
	return rows
}

func (repo *resourceRepository[E]) matches(e E, crit resource.Criteria) (bool, error) {
	for _, cond := range crit.Conditions {
		v, err := resource.FieldValue(e, cond.Column.Name)
		if err != nil {
			return false, err
		}
		if !cond.Match(v) {
			return false, nil
		}
	}
	if crit.Search == "" {
		return true, nil
	}
	// rows with search keyword matching any searchable column
	for _, col := range crit.Searchable {
		v, err := resource.FieldValue(e, col.Name)
		if err != nil {
			return false, err
		}
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), crit.Search) {
			return true, nil
		}
	}
	return false, nil
}

func (repo *resourceRepository[E]) List(_ context.Context, tenantID string, crit resource.Criteria) (listing.Result[E], error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	type sortable struct {
		row  E
		keys []interface{}
	}
	var matched []sortable
	for _, r := range repo.query(tenantID) {
		ok, err := repo.matches(r, crit)
		if err != nil {
			return listing.Result[E]{}, err
		}
		if !ok {
			continue
		}
		s := sortable{row: r, keys: make([]interface{}, 0, len(crit.Ordering))}
		for _, ord := range crit.Ordering {
			v, err := resource.FieldValue(r, ord.Field)
			if err != nil {
				return listing.Result[E]{}, err
			}
			s.keys = append(s.keys, v)
		}
		matched = append(matched, s)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		for k, ord := range crit.Ordering {
			c := resource.Compare(matched[i].keys[k], matched[j].keys[k])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})

	res := listing.Result[E]{Rows: []E{}, Count: len(matched)}
	start, end := crit.Offset, len(matched)
	if crit.Limit > 0 && start+crit.Limit < end {
		end = start + crit.Limit
	}
	for i := start; i < end; i++ {
		res.Rows = append(res.Rows, matched[i].row)
	}
	return res, nil
}

func (repo *resourceRepository[E]) Get(_ context.Context, tenantID, id string) (E, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.rows[tenantID][id]; ok {
		return r.(E), nil
	}
	var zero E
	return zero, core.ErrNotFound
}

func (repo *resourceRepository[E]) Insert(_ context.Context, e E) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	meta := e.Meta()
	rows, ok := repo.db.rows[meta.TenantID]
	if !ok {
		rows = make(map[string]interface{})
		repo.db.rows[meta.TenantID] = rows
	}
	if _, exists := rows[meta.ID]; exists {
		return errors.Errorf("duplicate %s id %s", repo.schema.Name, meta.ID)
	}
	rows[meta.ID] = e
	return nil
}

func (repo *resourceRepository[E]) Update(_ context.Context, e E) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	meta := e.Meta()
	rows := repo.db.rows[meta.TenantID]
	if _, ok := rows[meta.ID]; !ok {
		return core.ErrNotFound
	}
	rows[meta.ID] = e
	return nil
}

func (repo *resourceRepository[E]) Delete(_ context.Context, tenantID, id string) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rows := repo.db.rows[tenantID]
	if _, ok := rows[id]; !ok {
		return false, nil
	}
	delete(rows, id)
	return true, nil
}

func (repo *resourceRepository[E]) BulkUpdate(_ context.Context, tenantID string, ids []string, patch map[string]interface{}, updatedAt time.Time) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rows := repo.db.rows[tenantID]
	patched := make(map[string]E, len(ids))
	for _, id := range ids {
		r, ok := rows[id]
		if !ok {
			continue
		}
		e := r.(E)
		for col, v := range patch {
			if err := resource.SetField(&e, col, v); err != nil {
				return 0, err
			}
		}
		if err := resource.SetField(&e, "updated_at", updatedAt); err != nil {
			return 0, err
		}
		patched[id] = e
	}
	// all or nothing
	for id, e := range patched {
		rows[id] = e
	}
	return int64(len(patched)), nil
}
