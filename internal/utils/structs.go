package utils

import (
	"fmt"
	"reflect"
)

var ColumnTag = "db"

// eachColumn calls fn for every exported field carrying a ColumnTag other
// than "-", in declaration order.
func eachColumn(input any, fn func(column string, value reflect.Value)) {
	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		column := field.Tag.Get(ColumnTag)
		if column == "" || column == "-" {
			continue
		}

		fn(column, v.Field(i))
	}
}

// StructTagValues lists the column names of a struct, for SELECT and INSERT
// column lists.
func StructTagValues(input any) []string {
	result := make([]string, 0)
	eachColumn(input, func(column string, _ reflect.Value) {
		result = append(result, column)
	})
	return result
}

// StructToMap maps column names to field values, for squirrel SetMap.
func StructToMap(input any) map[string]any {
	result := make(map[string]any)
	eachColumn(input, func(column string, value reflect.Value) {
		result[column] = value.Interface()
	})
	return result
}

func ErrorWrapOrNil(err error, msg string) error {
	if err == nil {
		return nil
	}

	if msg == "" {
		return err
	}

	return fmt.Errorf("%s: %w", msg, err)
}
