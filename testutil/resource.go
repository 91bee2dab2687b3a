package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-admin/core/resource"
)

// CheckEnum checks that every value has a badge variant and parses back,
// and that an unknown value is rejected by UnmarshalText and has no variant.
func CheckEnum[S resource.Badged, P interface {
	*S
	UnmarshalText([]byte) error
}](t *testing.T, values ...S) {
	t.Helper()
	require.NotEmpty(t, values)
	for _, v := range values {
		assert.NotPanics(t, func() { _ = v.Variant() }, "variant of %q", string(v))

		var parsed S
		require.NoError(t, P(&parsed).UnmarshalText([]byte(v)))
		assert.Equal(t, v, parsed)
	}

	var unknown S
	assert.Error(t, P(&unknown).UnmarshalText([]byte("unknown")))
	assert.Panics(t, func() { _ = S("unknown").Variant() })
}

// CheckDescriptor checks that every column of the descriptor maps to a field of its entity.
func CheckDescriptor[E resource.Entity](t *testing.T, desc *resource.Descriptor[E]) {
	t.Helper()
	require.NotNil(t, desc.New)
	e := desc.New()
	for _, col := range desc.ExportColumns() {
		_, err := resource.FieldValue(e, col.Name)
		assert.NoError(t, err, "%s.%s", desc.Name, col.Name)
		if len(col.Enum) > 0 {
			for _, v := range col.Enum {
				_, ok := col.Variant(v)
				assert.True(t, ok, "%s.%s variant of %q", desc.Name, col.Name, v)
			}
		}
	}
	assert.NotEmpty(t, desc.WriteRoles, desc.Name)
}
