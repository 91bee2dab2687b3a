package resource

import (
	"database/sql"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx/reflectx"
	"github.com/pkg/errors"
)

// mapper resolves columns to struct fields through their db tags, the way sqlx does.
var mapper = reflectx.NewMapperFunc("db", strings.ToLower)

// FieldValue returns the driver value of the column of e, e being a struct or a pointer to one.
func FieldValue(e interface{}, column string) (interface{}, error) {
	v := reflect.Indirect(reflect.ValueOf(e))
	if _, ok := mapper.TypeMap(v.Type()).Names[column]; !ok {
		return nil, errors.Errorf("no field for column %q in %s", column, v.Type())
	}
	return DriverValue(mapper.FieldByName(v, column).Interface())
}

// SetField sets the column of the struct pointed to by e from a driver value.
func SetField(e interface{}, column string, value interface{}) error {
	v := reflect.ValueOf(e)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return errors.New("setting field of a non pointer")
	}
	v = v.Elem()
	if _, ok := mapper.TypeMap(v.Type()).Names[column]; !ok {
		return errors.Errorf("no field for column %q in %s", column, v.Type())
	}

	fld := mapper.FieldByName(v, column)
	if scanner, ok := fld.Addr().Interface().(sql.Scanner); ok {
		return errors.Wrapf(scanner.Scan(value), "scanning %s", column)
	}
	if value == nil {
		fld.Set(reflect.Zero(fld.Type()))
		return nil
	}
	val := reflect.ValueOf(value)
	if !val.Type().ConvertibleTo(fld.Type()) {
		return errors.Errorf("cannot set %s (%s) from %T", column, fld.Type(), value)
	}
	fld.Set(val.Convert(fld.Type()))
	return nil
}
