// Package resource describes the resources managed through the listing module:
// their entities, their column schema and the service exposing them as a listing.DataSource.
package resource

import (
	"fmt"
	"time"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
)

// Base holds the columns shared by every resource table.
type Base struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"` // UTC
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"` // UTC
}

func (b Base) RecordID() string { return b.ID }
func (b Base) Meta() Base       { return b }
func (b *Base) SetMeta(m Base)  { *b = m }

// BaseColumns are the names of the Base columns.
var BaseColumns = []string{"id", "tenant_id", "created_at", "updated_at"}

// Entity is implemented by structs embedding Base.
type Entity interface {
	listing.Record
	Meta() Base
}

// EntityPtr is the pointer type of an Entity, through which its Base gets set.
type EntityPtr[E any] interface {
	*E
	SetMeta(Base)
}

// Variant is the visual variant of a status badge.
type Variant int

const (
	VariantNeutral Variant = iota
	VariantInfo
	VariantSuccess
	VariantWarning
	VariantDanger
)

func (v Variant) String() string {
	switch v {
	case VariantNeutral:
		return "neutral"
	case VariantInfo:
		return "info"
	case VariantSuccess:
		return "success"
	case VariantWarning:
		return "warning"
	case VariantDanger:
		return "danger"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// Badged is implemented by status enums.
type Badged interface {
	~string
	Variant() Variant
}

// ParseEnum returns the value of values equal to s.
func ParseEnum[S ~string](s string, values ...S) (S, error) {
	for _, v := range values {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid value %q", s)
}

// EnumValues returns the string form of values.
func EnumValues[S ~string](values ...S) []string {
	strs := make([]string, 0, len(values))
	for _, v := range values {
		strs = append(strs, string(v))
	}
	return strs
}

// Schema describes the table of a resource.
type Schema struct {
	Name            string // table name, also used in URLs and cache keys
	Title           string
	Columns         []Column
	DefaultOrdering []core.DBOrdering
	WriteRoles      []string // roles allowed to mutate the resource, any role may read it
}

// Column returns the column named name.
func (s *Schema) Column(name string) (Column, bool) {
	for _, col := range s.Columns {
		if col.Name == name {
			return col, true
		}
	}
	switch name {
	case "id", "tenant_id":
		return Column{Name: name, Kind: KindString}, true
	case "created_at", "updated_at":
		return Column{Name: name, Kind: KindTime, Filterable: true, Sortable: true}, true
	}
	return Column{}, false
}

// ColumnNames returns the names of the data columns, Base columns excluded.
func (s *Schema) ColumnNames() []string {
	names := make([]string, 0, len(s.Columns))
	for _, col := range s.Columns {
		names = append(names, col.Name)
	}
	return names
}

// Searchable returns the columns matched by the free text search.
func (s *Schema) Searchable() []Column {
	var cols []Column
	for _, col := range s.Columns {
		if col.Searchable {
			cols = append(cols, col)
		}
	}
	return cols
}

// Descriptor parameterizes the listing of one resource.
type Descriptor[E Entity] struct {
	Schema

	// New returns the blank draft of the create dialog.
	New func() E
}
