package querybuilder

import (
	"fmt"
	"reflect"
)

// InsertModel builds an insert from a struct's db tags. Fields tagged
// db:"-" or without a db tag are skipped.
func InsertModel(table string, model any) (*InsertBuilder, error) {
	v := reflect.ValueOf(model)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("insert model is nil")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("insert model must be a struct, got %s", v.Kind())
	}

	t := v.Type()
	columns := make([]string, 0, t.NumField())
	values := make([]any, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		columns = append(columns, tag)
		values = append(values, v.Field(i).Interface())
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("insert model has no db-tagged fields")
	}

	return InsertInto(table).Columns(columns...).Values(values...), nil
}
