package resource

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
)

// Endpoint is a Service with its entity type erased, for the transports serving every resource alike.
// Entities are decoded from JSON and returned as interface{}.
type Endpoint interface {
	Schema() *Schema
	Columns() []ColumnInfo
	List(ctx context.Context, q listing.Query) (interface{}, error)
	Get(ctx context.Context, id string) (interface{}, error)
	Create(ctx context.Context, body []byte) (interface{}, error)
	Update(ctx context.Context, id string, body []byte) (interface{}, error)
	Delete(ctx context.Context, id string) (bool, error)
	BulkUpdate(ctx context.Context, ids []string, patch listing.Patch) (bool, error)
	Export(ctx context.Context, filters listing.Filters, ordering []core.DBOrdering, w io.Writer) error
	Actions() []string
	Do(ctx context.Context, name, id string, params listing.Patch) (interface{}, error)
}

// ColumnInfo describes a column to clients.
type ColumnInfo struct {
	Name       string            `json:"name"`
	Kind       string            `json:"kind"`
	Nullable   bool              `json:"nullable,omitempty"`
	Filterable bool              `json:"filterable,omitempty"`
	Searchable bool              `json:"searchable,omitempty"`
	Sortable   bool              `json:"sortable,omitempty"`
	Patchable  bool              `json:"patchable,omitempty"`
	Enum       []string          `json:"enum,omitempty"`
	Variants   map[string]string `json:"variants,omitempty"` // enum value: badge variant
}

type endpoint[E Entity, P EntityPtr[E]] struct {
	*Service[E, P]
}

func NewEndpoint[E Entity, P EntityPtr[E]](svc *Service[E, P]) Endpoint {
	return endpoint[E, P]{svc}
}

func (ep endpoint[E, P]) Schema() *Schema { return &ep.desc.Schema }

func (ep endpoint[E, P]) Columns() []ColumnInfo {
	infos := make([]ColumnInfo, 0, len(ep.desc.Columns))
	for _, col := range ep.desc.Columns {
		info := ColumnInfo{
			Name:       col.Name,
			Kind:       col.Kind.String(),
			Nullable:   col.Nullable,
			Filterable: col.Filterable,
			Searchable: col.Searchable,
			Sortable:   col.Sortable,
			Patchable:  col.Patchable,
			Enum:       col.Enum,
		}
		if len(col.Enum) > 0 {
			info.Variants = make(map[string]string, len(col.Enum))
			for _, v := range col.Enum {
				if variant, ok := col.Variant(v); ok {
					info.Variants[v] = variant.String()
				}
			}
		}
		infos = append(infos, info)
	}
	return infos
}

func (ep endpoint[E, P]) List(ctx context.Context, q listing.Query) (interface{}, error) {
	return ep.Service.List(ctx, q)
}

func (ep endpoint[E, P]) Get(ctx context.Context, id string) (interface{}, error) {
	return ep.Service.Get(ctx, id)
}

func (ep endpoint[E, P]) Create(ctx context.Context, body []byte) (interface{}, error) {
	var e E
	if ep.desc.New != nil {
		e = ep.desc.New()
	}
	if err := decode(body, &e); err != nil {
		return nil, err
	}
	return ep.Service.Create(ctx, e)
}

// Update decodes body over the current entity, omitted fields keep their value.
func (ep endpoint[E, P]) Update(ctx context.Context, id string, body []byte) (interface{}, error) {
	e, err := ep.Service.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = decode(body, &e); err != nil {
		return nil, err
	}
	return ep.Service.Update(ctx, id, e)
}

func (ep endpoint[E, P]) Do(ctx context.Context, name, id string, params listing.Patch) (interface{}, error) {
	return ep.Service.Do(ctx, name, id, params)
}

func decode(body []byte, dst interface{}) error {
	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return core.NewValidationError(err, core.FieldError{Field: typeErr.Field, Error: "invalid value"})
		}
		return core.NewValidationError(errors.Wrap(err, "decoding body"))
	}
	return nil
}
