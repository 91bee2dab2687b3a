package sqlxrepos

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
	"github.com/trezcool/masomo-admin/core/resource"
)

type resourceRepository[E resource.Entity] struct {
	exec    sqlx.ExtContext
	schema  *resource.Schema
	columns []string
}

// NewResourceRepository returns the repository of the schema's table.
// Column and table names come from the schema, values are always bound.
func NewResourceRepository[E resource.Entity](exec sqlx.ExtContext, schema *resource.Schema) resource.Repository[E] {
	columns := make([]string, 0, len(resource.BaseColumns)+len(schema.Columns))
	columns = append(columns, resource.BaseColumns...)
	columns = append(columns, schema.ColumnNames()...)
	return &resourceRepository[E]{exec: exec, schema: schema, columns: columns}
}

func (repo *resourceRepository[E]) selectFrom() string {
	return "SELECT " + strings.Join(repo.columns, ", ") + " FROM " + repo.schema.Name
}

// likeEscaper makes LIKE wildcards in search keywords match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (repo *resourceRepository[E]) where(tenantID string, crit resource.Criteria) (string, []interface{}) {
	clauses := []string{"tenant_id = ?"}
	args := []interface{}{tenantID}

	for _, cond := range crit.Conditions {
		col := cond.Column.Name
		switch {
		case !cond.Range && cond.Eq == nil:
			clauses = append(clauses, col+" IS NULL")
		case !cond.Range:
			clauses = append(clauses, col+" = ?")
			args = append(args, cond.Eq)
		default:
			if cond.From != nil {
				clauses = append(clauses, col+" >= ?")
				args = append(args, cond.From)
			}
			if cond.To != nil {
				clauses = append(clauses, col+" <= ?")
				args = append(args, cond.To)
			}
		}
	}

	// rows with search keyword matching any searchable column
	if crit.Search != "" && len(crit.Searchable) > 0 {
		ors := make([]string, 0, len(crit.Searchable))
		for _, col := range crit.Searchable {
			ors = append(ors, "LOWER("+col.Name+") LIKE ? ESCAPE '\\'")
			args = append(args, "%"+likeEscaper.Replace(crit.Search)+"%")
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderBy(orderings []core.DBOrdering) string {
	if len(orderings) == 0 {
		return ""
	}
	parts := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (repo *resourceRepository[E]) List(ctx context.Context, tenantID string, crit resource.Criteria) (listing.Result[E], error) {
	where, args := repo.where(tenantID, crit)

	var count int
	q := repo.exec.Rebind("SELECT COUNT(*) FROM " + repo.schema.Name + where)
	if err := sqlx.GetContext(ctx, repo.exec, &count, q, args...); err != nil {
		return listing.Result[E]{}, errors.Wrapf(err, "counting %s", repo.schema.Name)
	}

	q = repo.selectFrom() + where + orderBy(crit.Ordering)
	if crit.Limit > 0 {
		q += " LIMIT " + strconv.Itoa(crit.Limit) + " OFFSET " + strconv.Itoa(crit.Offset)
	}
	rows := make([]E, 0, crit.Limit)
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, repo.exec.Rebind(q), args...); err != nil {
		return listing.Result[E]{}, errors.Wrapf(err, "selecting %s", repo.schema.Name)
	}
	return listing.Result[E]{Rows: rows, Count: count}, nil
}

func (repo *resourceRepository[E]) Get(ctx context.Context, tenantID, id string) (E, error) {
	var e E
	q := repo.exec.Rebind(repo.selectFrom() + " WHERE tenant_id = ? AND id = ?")
	if err := sqlx.GetContext(ctx, repo.exec, &e, q, tenantID, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return e, core.ErrNotFound
		}
		return e, errors.Wrapf(err, "selecting %s", repo.schema.Name)
	}
	return e, nil
}

func (repo *resourceRepository[E]) Insert(ctx context.Context, e E) error {
	q := "INSERT INTO " + repo.schema.Name + " (" + strings.Join(repo.columns, ", ") + ") VALUES (:" +
		strings.Join(repo.columns, ", :") + ")"
	_, err := sqlx.NamedExecContext(ctx, repo.exec, q, e)
	return errors.Wrapf(err, "inserting into %s", repo.schema.Name)
}

func (repo *resourceRepository[E]) Update(ctx context.Context, e E) error {
	sets := make([]string, 0, len(repo.schema.Columns)+1)
	for _, col := range append(repo.schema.ColumnNames(), "updated_at") {
		sets = append(sets, col+" = :"+col)
	}
	q := "UPDATE " + repo.schema.Name + " SET " + strings.Join(sets, ", ") + " WHERE tenant_id = :tenant_id AND id = :id"

	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, e)
	if err != nil {
		return errors.Wrapf(err, "updating %s", repo.schema.Name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "getting affected rows")
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (repo *resourceRepository[E]) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	q := repo.exec.Rebind("DELETE FROM " + repo.schema.Name + " WHERE tenant_id = ? AND id = ?")
	res, err := repo.exec.ExecContext(ctx, q, tenantID, id)
	if err != nil {
		return false, errors.Wrapf(err, "deleting from %s", repo.schema.Name)
	}
	n, err := res.RowsAffected()
	return n > 0, errors.Wrap(err, "getting affected rows")
}

func (repo *resourceRepository[E]) BulkUpdate(ctx context.Context, tenantID string, ids []string, patch map[string]interface{}, updatedAt time.Time) (int64, error) {
	cols := make([]string, 0, len(patch))
	for col := range patch {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]interface{}, 0, len(cols)+3)
	for _, col := range cols {
		sets = append(sets, col+" = ?")
		args = append(args, patch[col])
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, updatedAt, tenantID, ids)

	q, args, err := sqlx.In("UPDATE "+repo.schema.Name+" SET "+strings.Join(sets, ", ")+" WHERE tenant_id = ? AND id IN (?)", args...)
	if err != nil {
		return 0, errors.Wrap(err, "expanding ids")
	}
	res, err := repo.exec.ExecContext(ctx, repo.exec.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrapf(err, "updating %s", repo.schema.Name)
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "getting affected rows")
}
