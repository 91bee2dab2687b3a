package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-admin/testutil"
)

func TestTransport(t *testing.T) {
	testutil.CheckEnum(t, VehicleStatuses...)
	testutil.CheckEnum(t, RouteStatuses...)
	testutil.CheckDescriptor(t, Vehicles)
	testutil.CheckDescriptor(t, Routes)

	validate, _ := testutil.Validator()
	r := Routes.New()
	r.Name = "Gombe - Limete"
	assert.NoError(t, validate.Struct(r))

	r.VehicleID = null.StringFrom("bus-1")
	assert.Error(t, validate.Struct(r))
}
