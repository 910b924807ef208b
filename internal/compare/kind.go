package compare

import (
	"reflect"
	"regexp"
	"time"
)

// Kind is the closed set of comparison type tags.
//
// Every value is classified into exactly one Kind before comparison; a kind
// mismatch means the values are structurally unequal regardless of content.
// All integer and float widths share KindNumber, so int(1) and float64(1)
// compare equal by mathematical value.
type Kind string

const (
	KindNil    Kind = "nil"
	KindBool   Kind = "bool"
	KindNumber Kind = "number"
	KindString Kind = "string"
	KindSlice  Kind = "slice"
	KindMap    Kind = "map"
	KindSet    Kind = "set"
	KindStruct Kind = "struct"
	KindTime   Kind = "time"
	KindRegexp Kind = "regexp"
	KindFunc   Kind = "func"
	KindOther  Kind = "other"
)

var (
	timeType   = reflect.TypeOf(time.Time{})
	regexpType = reflect.TypeOf(regexp.Regexp{})
)

// KindOf classifies an arbitrary value.
//
// Pointers and interfaces are dereferenced first; a nil pointer classifies
// as KindNil. A map whose element type is struct{} classifies as KindSet:
// that is the conventional Go set representation, and sets must remain
// distinguishable from maps and slices in diff output.
func KindOf(v any) Kind {
	return kindOf(normalize(reflect.ValueOf(v)))
}

func kindOf(rv reflect.Value) Kind {
	if !rv.IsValid() {
		return KindNil
	}
	switch rv.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.String:
		return KindString
	case reflect.Slice, reflect.Array:
		return KindSlice
	case reflect.Map:
		if rv.IsNil() {
			return KindNil
		}
		if rv.Type().Elem() == reflect.TypeOf(struct{}{}) {
			return KindSet
		}
		return KindMap
	case reflect.Struct:
		if rv.Type() == timeType {
			return KindTime
		}
		if rv.Type() == regexpType {
			return KindRegexp
		}
		return KindStruct
	case reflect.Func:
		if rv.IsNil() {
			return KindNil
		}
		return KindFunc
	default:
		return KindOther
	}
}

// normalize dereferences pointer and interface chains so comparison sees
// the underlying value. Nil pointers/interfaces normalize to the invalid
// Value, which classifies as KindNil.
func normalize(rv reflect.Value) reflect.Value {
	for rv.IsValid() {
		switch rv.Kind() {
		case reflect.Interface, reflect.Pointer:
			if rv.IsNil() {
				return reflect.Value{}
			}
			rv = rv.Elem()
		case reflect.Slice:
			if rv.IsNil() {
				return reflect.Value{}
			}
			return rv
		default:
			return rv
		}
	}
	return rv
}
