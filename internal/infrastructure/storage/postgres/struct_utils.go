package postgres

import (
	"reflect"
	"sync"
)

// columnField maps one db-tagged struct field to its column. The index
// path reaches through embedded structs, so lookups never recurse.
type columnField struct {
	path []int
	name string
}

// columnCache holds the per-type field lists. Reflection runs once per
// type; every later call reuses the cached paths.
var columnCache sync.Map // reflect.Type -> []columnField

func columnFields(t reflect.Type) []columnField {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]columnField)
	}

	var fields []columnField
	if t.Kind() == reflect.Struct {
		fields = collectColumnFields(t, nil)
	}
	columnCache.Store(t, fields)
	return fields
}

// collectColumnFields walks t depth-first, flattening embedded structs
// into index paths rooted at the outermost type.
func collectColumnFields(t reflect.Type, prefix []int) []columnField {
	var out []columnField
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		path := append(append([]int(nil), prefix...), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			out = append(out, collectColumnFields(field.Type, path)...)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		out = append(out, columnField{path: path, name: tag})
	}
	return out
}

// ExtractDBColumns lists the column names a struct's db tags declare,
// embedded structs included. Repositories call it once to build their
// SELECT column lists.
func ExtractDBColumns[T any]() []string {
	var zero T
	fields := columnFields(reflect.TypeOf(zero))
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.name
	}
	return cols
}

// StructToMap flattens a struct into column name to value pairs using
// its db tags. Fields without a tag, or tagged "-", are skipped.
// Returns nil for non-struct input.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	fields := columnFields(rv.Type())
	res := make(map[string]any, len(fields))
	for _, f := range fields {
		res[f.name] = rv.FieldByIndex(f.path).Interface()
	}
	return res
}
