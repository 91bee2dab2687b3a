package resource

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindString Kind = iota
	KindEnum
	KindInt
	KindFloat
	KindBool
	KindTime
	KindDate
)

var kindNames = [...]string{"string", "enum", "int", "float", "bool", "time", "date"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

const DateLayout = "2006-01-02"

// Column describes one column of a resource table.
// Values are handled in their driver form: string, int64, float64, bool, time.Time or nil.
type Column struct {
	Name       string
	Kind       Kind
	Nullable   bool
	Filterable bool
	Searchable bool
	Sortable   bool
	Patchable  bool // may be set by a bulk update
	Enum       []string

	variant func(string) Variant
}

// EnumColumn returns a filterable, sortable and patchable column holding one of values.
func EnumColumn[S Badged](name string, values ...S) Column {
	return Column{
		Name:       name,
		Kind:       KindEnum,
		Filterable: true,
		Sortable:   true,
		Patchable:  true,
		Enum:       EnumValues(values...),
		variant:    func(s string) Variant { return S(s).Variant() },
	}
}

// Variant returns the badge variant of an enum value.
func (c Column) Variant(value string) (Variant, bool) {
	if c.variant == nil || !c.hasEnumValue(value) {
		return VariantNeutral, false
	}
	return c.variant(value), true
}

func (c Column) hasEnumValue(s string) bool {
	for _, v := range c.Enum {
		if v == s {
			return true
		}
	}
	return false
}

func (c Column) invalid(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Parse converts a query string value into the column's driver value.
func (c Column) Parse(s string) (interface{}, error) {
	switch c.Kind {
	case KindString:
		return s, nil
	case KindEnum:
		if !c.hasEnumValue(s) {
			return nil, c.invalid("must be one of %s", strings.Join(c.Enum, ", "))
		}
		return s, nil
	case KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, c.invalid("must be an integer")
		}
		return n, nil
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, c.invalid("must be a number")
		}
		return f, nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, c.invalid("must be a boolean")
		}
		return b, nil
	case KindTime:
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC(), nil
		}
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, c.invalid("must be a RFC 3339 time or a date")
		}
		return t, nil
	case KindDate:
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, c.invalid("must be a date (YYYY-MM-DD)")
		}
		return t, nil
	}
	return nil, c.invalid("unsupported column kind %d", c.Kind)
}

// Coerce converts a decoded JSON value into the column's driver value.
func (c Column) Coerce(v interface{}) (interface{}, error) {
	if v == nil {
		if !c.Nullable {
			return nil, c.invalid("cannot be null")
		}
		return nil, nil
	}
	if s, ok := v.(string); ok {
		return c.Parse(s)
	}

	switch c.Kind {
	case KindInt:
		switch n := v.(type) {
		case float64:
			if n != math.Trunc(n) {
				return nil, c.invalid("must be an integer")
			}
			return int64(n), nil
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		}
	case KindFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindTime, KindDate:
		if t, ok := v.(time.Time); ok {
			return t.UTC(), nil
		}
	}
	return nil, c.invalid("invalid value %v", v)
}

// DriverValue normalizes a field value (enum types, null types, sized integers) into its driver form.
func DriverValue(v interface{}) (interface{}, error) {
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		if err != nil {
			return nil, errors.Wrap(err, "getting driver value")
		}
		v = dv
	}
	if v == nil {
		return nil, nil
	}
	if dv, err := driver.DefaultParameterConverter.ConvertValue(v); err == nil {
		v = dv
	}
	if b, ok := v.([]byte); ok {
		return string(b), nil
	}
	return v, nil
}

// Compare orders two driver values of the same column, nil first.
func Compare(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case int64:
		switch y := b.(type) {
		case int64:
			return compareOrdered(x, y)
		case float64:
			return compareOrdered(float64(x), y)
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return compareOrdered(x, y)
		case int64:
			return compareOrdered(x, float64(y))
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func compareOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
