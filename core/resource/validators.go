package resource

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
)

// InitValidators lets struct tags validate the nullable column types by their underlying value.
// A null value validates as nil, so "omitempty" and "required" behave as for pointers.
func InitValidators(validate *validator.Validate) {
	validate.RegisterCustomTypeFunc(nullValue,
		null.String{}, null.Int64{}, null.Int{}, null.Float64{}, null.Bool{}, null.Time{},
	)
}

func nullValue(field reflect.Value) interface{} {
	switch v := field.Interface().(type) {
	case null.String:
		if v.Valid {
			return v.String
		}
	case null.Int64:
		if v.Valid {
			return v.Int64
		}
	case null.Int:
		if v.Valid {
			return v.Int
		}
	case null.Float64:
		if v.Valid {
			return v.Float64
		}
	case null.Bool:
		if v.Valid {
			return v.Bool
		}
	case null.Time:
		if v.Valid {
			return v.Time
		}
	}
	return nil
}
