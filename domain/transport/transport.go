// Package transport holds the school buses of a tenant and the routes they serve.
package transport

import (
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/user"
)

type VehicleStatus string

const (
	VehicleActive      VehicleStatus = "active"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleRetired     VehicleStatus = "retired"
)

var VehicleStatuses = []VehicleStatus{VehicleActive, VehicleMaintenance, VehicleRetired}

func (s VehicleStatus) Variant() resource.Variant {
	switch s {
	case VehicleActive:
		return resource.VariantSuccess
	case VehicleMaintenance:
		return resource.VariantWarning
	case VehicleRetired:
		return resource.VariantNeutral
	}
	panic(fmt.Sprintf("unknown vehicle status %q", string(s)))
}

func (s *VehicleStatus) UnmarshalText(text []byte) error {
	v, err := resource.ParseEnum(string(text), VehicleStatuses...)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type Vehicle struct {
	resource.Base
	Registration string        `db:"registration" json:"registration" validate:"required,notblank,max=16"`
	Model        string        `db:"model" json:"model"`
	Capacity     int           `db:"capacity" json:"capacity" validate:"min=1"`
	Driver       null.String   `db:"driver" json:"driver"`
	Status       VehicleStatus `db:"status" json:"status" validate:"required"`
}

var Vehicles = &resource.Descriptor[Vehicle]{
	Schema: resource.Schema{
		Name:  "vehicles",
		Title: "Vehicles",
		Columns: []resource.Column{
			{Name: "registration", Kind: resource.KindString, Searchable: true, Sortable: true},
			{Name: "model", Kind: resource.KindString, Filterable: true, Searchable: true},
			{Name: "capacity", Kind: resource.KindInt, Filterable: true, Sortable: true},
			{Name: "driver", Kind: resource.KindString, Nullable: true, Searchable: true, Patchable: true},
			resource.EnumColumn("status", VehicleStatuses...),
		},
		DefaultOrdering: []core.DBOrdering{{Field: "registration", Ascending: true}},
		WriteRoles:      user.AdminRoles,
	},
	New: func() Vehicle { return Vehicle{Capacity: 30, Status: VehicleActive} },
}

type RouteStatus string

const (
	RouteActive   RouteStatus = "active"
	RouteInactive RouteStatus = "inactive"
)

var RouteStatuses = []RouteStatus{RouteActive, RouteInactive}

func (s RouteStatus) Variant() resource.Variant {
	switch s {
	case RouteActive:
		return resource.VariantSuccess
	case RouteInactive:
		return resource.VariantNeutral
	}
	panic(fmt.Sprintf("unknown route status %q", string(s)))
}

func (s *RouteStatus) UnmarshalText(text []byte) error {
	v, err := resource.ParseEnum(string(text), RouteStatuses...)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type Route struct {
	resource.Base
	Name       string      `db:"name" json:"name" validate:"required,notblank"`
	VehicleID  null.String `db:"vehicle_id" json:"vehicle_id" validate:"omitempty,uuid"`
	Stops      int         `db:"stops" json:"stops" validate:"min=1"`
	DistanceKm float64     `db:"distance_km" json:"distance_km" validate:"gte=0"`
	Status     RouteStatus `db:"status" json:"status" validate:"required"`
}

var Routes = &resource.Descriptor[Route]{
	Schema: resource.Schema{
		Name:  "routes",
		Title: "Routes",
		Columns: []resource.Column{
			{Name: "name", Kind: resource.KindString, Searchable: true, Sortable: true},
			{Name: "vehicle_id", Kind: resource.KindString, Nullable: true, Filterable: true, Patchable: true},
			{Name: "stops", Kind: resource.KindInt, Sortable: true},
			{Name: "distance_km", Kind: resource.KindFloat, Filterable: true, Sortable: true},
			resource.EnumColumn("status", RouteStatuses...),
		},
		DefaultOrdering: []core.DBOrdering{{Field: "name", Ascending: true}},
		WriteRoles:      user.AdminRoles,
	},
	New: func() Route { return Route{Stops: 1, Status: RouteActive} },
}
