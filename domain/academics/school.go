// Package academics holds the schools of a tenant, their sections and their exams.
package academics

import (
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/user"
)

type SchoolStatus string

const (
	SchoolActive    SchoolStatus = "active"
	SchoolInactive  SchoolStatus = "inactive"
	SchoolSuspended SchoolStatus = "suspended"
)

var SchoolStatuses = []SchoolStatus{SchoolActive, SchoolInactive, SchoolSuspended}

func (s SchoolStatus) Variant() resource.Variant {
	switch s {
	case SchoolActive:
		return resource.VariantSuccess
	case SchoolInactive:
		return resource.VariantNeutral
	case SchoolSuspended:
		return resource.VariantDanger
	}
	panic(fmt.Sprintf("unknown school status %q", string(s)))
}

func (s *SchoolStatus) UnmarshalText(text []byte) error {
	v, err := resource.ParseEnum(string(text), SchoolStatuses...)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type School struct {
	resource.Base
	Name         string       `db:"name" json:"name" validate:"required,notblank"`
	Code         string       `db:"code" json:"code" validate:"required,alphanum_,max=16"`
	City         string       `db:"city" json:"city"`
	Email        null.String  `db:"email" json:"email" validate:"omitempty,email"`
	Phone        null.String  `db:"phone" json:"phone"`
	StudentCount int          `db:"student_count" json:"student_count" validate:"min=0"`
	Status       SchoolStatus `db:"status" json:"status" validate:"required"`
}

var Schools = &resource.Descriptor[School]{
	Schema: resource.Schema{
		Name:  "schools",
		Title: "Schools",
		Columns: []resource.Column{
			{Name: "name", Kind: resource.KindString, Searchable: true, Sortable: true},
			{Name: "code", Kind: resource.KindString, Filterable: true, Searchable: true, Sortable: true},
			{Name: "city", Kind: resource.KindString, Filterable: true, Searchable: true, Sortable: true, Patchable: true},
			{Name: "email", Kind: resource.KindString, Nullable: true, Searchable: true},
			{Name: "phone", Kind: resource.KindString, Nullable: true},
			{Name: "student_count", Kind: resource.KindInt, Filterable: true, Sortable: true},
			resource.EnumColumn("status", SchoolStatuses...),
		},
		DefaultOrdering: []core.DBOrdering{{Field: "name", Ascending: true}},
		WriteRoles:      user.AdminRoles,
	},
	New: func() School { return School{Status: SchoolActive} },
}
