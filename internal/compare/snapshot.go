package compare

import "reflect"

// Snapshot returns a deep copy of v, so later mutation of the original is
// not observable through the copy.
//
// Funcs and channels are copied by reference (they have no value form).
// Unexported struct fields are carried over by whole-value assignment, so
// any references they hold stay shared. Shared substructure in the input
// stays shared in the copy, which also makes cyclic inputs safe to
// snapshot.
func Snapshot(v any) any {
	if v == nil {
		return nil
	}
	out := snapshotValue(reflect.ValueOf(v), make(map[ref]reflect.Value))
	if !out.IsValid() {
		return nil
	}
	return out.Interface()
}

func snapshotValue(rv reflect.Value, seen map[ref]reflect.Value) reflect.Value {
	if !rv.IsValid() {
		return rv
	}
	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return rv
		}
		elem := snapshotValue(rv.Elem(), seen)
		out := reflect.New(rv.Type()).Elem()
		out.Set(elem)
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return rv
		}
		r := ref{kind: reflect.Pointer, ptr: rv.Pointer()}
		if prev, ok := seen[r]; ok {
			return prev
		}
		out := reflect.New(rv.Type().Elem())
		seen[r] = out
		out.Elem().Set(snapshotValue(rv.Elem(), seen))
		return out
	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		r := ref{kind: reflect.Slice, ptr: rv.Pointer()}
		if prev, ok := seen[r]; ok {
			return prev
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		seen[r] = out
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(snapshotValue(rv.Index(i), seen))
		}
		return out
	case reflect.Array:
		out := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(snapshotValue(rv.Index(i), seen))
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return rv
		}
		r := ref{kind: reflect.Map, ptr: rv.Pointer()}
		if prev, ok := seen[r]; ok {
			return prev
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		seen[r] = out
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(snapshotValue(iter.Key(), seen), snapshotValue(iter.Value(), seen))
		}
		return out
	case reflect.Struct:
		// Whole-value assignment first so unexported fields carry over,
		// then deep-copy the settable (exported) fields on top.
		out := reflect.New(rv.Type()).Elem()
		out.Set(rv)
		t := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			out.Field(i).Set(snapshotValue(rv.Field(i), seen))
		}
		return out
	default:
		return rv
	}
}
