package academics

import (
	"fmt"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/user"
)

type SectionStatus string

const (
	SectionOpen   SectionStatus = "open"
	SectionClosed SectionStatus = "closed"
)

var SectionStatuses = []SectionStatus{SectionOpen, SectionClosed}

func (s SectionStatus) Variant() resource.Variant {
	switch s {
	case SectionOpen:
		return resource.VariantSuccess
	case SectionClosed:
		return resource.VariantNeutral
	}
	panic(fmt.Sprintf("unknown section status %q", string(s)))
}

func (s *SectionStatus) UnmarshalText(text []byte) error {
	v, err := resource.ParseEnum(string(text), SectionStatuses...)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Section is a class of a school for one grade, e.g. "4B".
type Section struct {
	resource.Base
	SchoolID string        `db:"school_id" json:"school_id" validate:"required,uuid"`
	Name     string        `db:"name" json:"name" validate:"required,notblank,max=32"`
	Grade    int           `db:"grade" json:"grade" validate:"min=1,max=13"`
	Capacity int           `db:"capacity" json:"capacity" validate:"min=1"`
	Status   SectionStatus `db:"status" json:"status" validate:"required"`
}

var Sections = &resource.Descriptor[Section]{
	Schema: resource.Schema{
		Name:  "sections",
		Title: "Sections",
		Columns: []resource.Column{
			{Name: "school_id", Kind: resource.KindString, Filterable: true},
			{Name: "name", Kind: resource.KindString, Searchable: true, Sortable: true},
			{Name: "grade", Kind: resource.KindInt, Filterable: true, Sortable: true},
			{Name: "capacity", Kind: resource.KindInt, Filterable: true, Sortable: true, Patchable: true},
			resource.EnumColumn("status", SectionStatuses...),
		},
		DefaultOrdering: []core.DBOrdering{{Field: "grade", Ascending: true}, {Field: "name", Ascending: true}},
		WriteRoles:      user.AdminRoles,
	},
	New: func() Section { return Section{Grade: 1, Capacity: 30, Status: SectionOpen} },
}
