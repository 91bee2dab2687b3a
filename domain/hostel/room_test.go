package hostel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-admin/testutil"
)

func TestRooms(t *testing.T) {
	testutil.CheckEnum(t, RoomStatuses...)
	testutil.CheckDescriptor(t, Rooms)

	validate, _ := testutil.Validator()
	r := Rooms.New()
	r.Building, r.Number = "B", "12"
	assert.NoError(t, validate.Struct(r))

	r.Occupants = 3 // over capacity
	assert.Error(t, validate.Struct(r))
}
