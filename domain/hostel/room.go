// Package hostel holds the boarding rooms of a tenant.
package hostel

import (
	"fmt"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/user"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomMaintenance RoomStatus = "maintenance"
)

var RoomStatuses = []RoomStatus{RoomAvailable, RoomOccupied, RoomMaintenance}

func (s RoomStatus) Variant() resource.Variant {
	switch s {
	case RoomAvailable:
		return resource.VariantSuccess
	case RoomOccupied:
		return resource.VariantInfo
	case RoomMaintenance:
		return resource.VariantWarning
	}
	panic(fmt.Sprintf("unknown room status %q", string(s)))
}

func (s *RoomStatus) UnmarshalText(text []byte) error {
	v, err := resource.ParseEnum(string(text), RoomStatuses...)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type Room struct {
	resource.Base
	Building  string     `db:"building" json:"building" validate:"required,notblank"`
	Number    string     `db:"number" json:"number" validate:"required,notblank,max=8"`
	Floor     int        `db:"floor" json:"floor" validate:"min=0"`
	Capacity  int        `db:"capacity" json:"capacity" validate:"min=1"`
	Occupants int        `db:"occupants" json:"occupants" validate:"min=0,ltefield=Capacity"`
	Status    RoomStatus `db:"status" json:"status" validate:"required"`
}

var Rooms = &resource.Descriptor[Room]{
	Schema: resource.Schema{
		Name:  "rooms",
		Title: "Hostel rooms",
		Columns: []resource.Column{
			{Name: "building", Kind: resource.KindString, Filterable: true, Searchable: true, Sortable: true},
			{Name: "number", Kind: resource.KindString, Searchable: true, Sortable: true},
			{Name: "floor", Kind: resource.KindInt, Filterable: true, Sortable: true},
			{Name: "capacity", Kind: resource.KindInt, Filterable: true, Sortable: true},
			{Name: "occupants", Kind: resource.KindInt, Filterable: true, Sortable: true},
			resource.EnumColumn("status", RoomStatuses...),
		},
		DefaultOrdering: []core.DBOrdering{{Field: "building", Ascending: true}, {Field: "number", Ascending: true}},
		WriteRoles:      user.AdminRoles,
	},
	New: func() Room { return Room{Capacity: 2, Status: RoomAvailable} },
}
