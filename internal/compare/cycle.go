package compare

import "reflect"

// ref identifies a traversable container by its referent, independent of
// the reflect.Value wrapper. Two values share a ref iff mutating one is
// observable through the other.
type ref struct {
	kind reflect.Kind
	ptr  uintptr
}

// checkCircular walks a value and fails if any container is reachable from
// itself. The on-path set is unwound on backtrack, so a value that merely
// appears twice (diamond sharing) is not a cycle.
//
// The walk shares the comparison depth bound: a non-cyclic structure deeper
// than MaxDepth fails here with MaxDepthError before equality ever runs.
func checkCircular(v any) error {
	return walkCycle(reflect.ValueOf(v), nil, make(map[ref]bool), 0)
}

func walkCycle(rv reflect.Value, path Path, onPath map[ref]bool, depth int) error {
	if depth > MaxDepth {
		return &MaxDepthError{Depth: MaxDepth}
	}

	// Unwrap interfaces and pointers by hand: pointer referents must join
	// the on-path set before dereferencing loses their identity, or a
	// self-referential struct linked through a pointer walks forever.
	var marks []ref
	defer func() {
		for _, r := range marks {
			delete(onPath, r)
		}
	}()
	for rv.IsValid() && (rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer) {
		if rv.IsNil() {
			return nil
		}
		if rv.Kind() == reflect.Pointer {
			r := ref{kind: reflect.Pointer, ptr: rv.Pointer()}
			if onPath[r] {
				return &CircularReferenceError{Path: path}
			}
			onPath[r] = true
			marks = append(marks, r)
		}
		rv = rv.Elem()
	}
	rv = normalize(rv)
	if !rv.IsValid() {
		return nil
	}

	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		r := ref{kind: rv.Kind(), ptr: rv.Pointer()}
		if onPath[r] {
			return &CircularReferenceError{Path: path}
		}
		onPath[r] = true
		marks = append(marks, r)
	case reflect.Array, reflect.Struct:
		// Value containers: cycles can only close through a pointer, map
		// or slice inside them, so no identity to track here.
	default:
		return nil
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := walkCycle(rv.Index(i), path.index(i), onPath, depth+1); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			p := path.key(Format(iter.Key().Interface()))
			if err := walkCycle(iter.Key(), p, onPath, depth+1); err != nil {
				return err
			}
			if err := walkCycle(iter.Value(), p, onPath, depth+1); err != nil {
				return err
			}
		}
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if err := walkCycle(rv.Field(i), path.key(t.Field(i).Name), onPath, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
