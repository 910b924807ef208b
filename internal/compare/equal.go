package compare

import (
	"math"
	"reflect"
	"regexp"
	"time"
)

// Equal reports whether a and b are structurally equal.
//
// Rules:
//   - Identity short-circuits: the same referent, or identical primitives
//     (with NaN equal to NaN), are equal without traversal.
//   - A Kind mismatch means not equal.
//   - Slices are equal iff same length and pairwise-equal elements.
//   - Maps and structs are equal iff the same key/field set and
//     pairwise-equal values; key order and struct type identity are
//     irrelevant (a struct is compared as its exported field set).
//   - Sets are equal iff they contain the same elements.
//   - Times compare by instant, regexps by pattern source.
//   - Funcs and other opaque kinds compare by referent identity.
//
// If either side is circular the error is a *CircularReferenceError; if
// traversal exceeds MaxDepth the error is a *MaxDepthError.
func Equal(a, b any) (bool, error) {
	if Identical(a, b) {
		return true, nil
	}
	if err := checkCircular(a); err != nil {
		return false, err
	}
	if err := checkCircular(b); err != nil {
		return false, err
	}
	return equalValue(reflect.ValueOf(a), reflect.ValueOf(b), 0)
}

// Identical reports strict identity: same referent for reference kinds,
// same value for primitives. NaN is identical to NaN, mirroring the
// identity (not IEEE) notion of sameness.
func Identical(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if !av.IsValid() || !bv.IsValid() {
		return !av.IsValid() && !bv.IsValid()
	}
	if af, aok := asFloat(av); aok {
		if bf, bok := asFloat(bv); bok {
			if math.IsNaN(af) && math.IsNaN(bf) {
				return true
			}
			return af == bf && av.Kind() == bv.Kind()
		}
		return false
	}
	switch av.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func:
		if bv.Kind() != av.Kind() {
			return false
		}
		return av.Pointer() == bv.Pointer()
	}
	if av.Type() != bv.Type() || !av.Type().Comparable() {
		return false
	}
	return a == b
}

func asFloat(rv reflect.Value) (float64, bool) {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// AsNumber converts any numeric value to float64. It returns false for
// non-numeric kinds.
func AsNumber(v any) (float64, bool) {
	rv := normalize(reflect.ValueOf(v))
	if !rv.IsValid() {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func equalValue(av, bv reflect.Value, depth int) (bool, error) {
	if depth > MaxDepth {
		return false, &MaxDepthError{Depth: MaxDepth}
	}
	av, bv = normalize(av), normalize(bv)
	ak, bk := kindOf(av), kindOf(bv)
	if ak != bk {
		return false, nil
	}

	switch ak {
	case KindNil:
		return true, nil
	case KindBool:
		return av.Bool() == bv.Bool(), nil
	case KindNumber:
		return numericEqual(av, bv), nil
	case KindString:
		return av.String() == bv.String(), nil
	case KindTime:
		at := av.Interface().(time.Time)
		bt := bv.Interface().(time.Time)
		return at.Equal(bt), nil
	case KindRegexp:
		return regexpSource(av) == regexpSource(bv), nil
	case KindSlice:
		if av.Len() != bv.Len() {
			return false, nil
		}
		for i := 0; i < av.Len(); i++ {
			ok, err := equalValue(av.Index(i), bv.Index(i), depth+1)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case KindSet:
		return setEqual(av, bv, depth)
	case KindMap:
		return mapEqual(av, bv, depth)
	case KindStruct:
		return mapLikeEqual(fields(av), fields(bv), depth)
	case KindFunc:
		return av.Pointer() == bv.Pointer(), nil
	default:
		return reflect.DeepEqual(av.Interface(), bv.Interface()), nil
	}
}

func numericEqual(av, bv reflect.Value) bool {
	af, aIsFloat := asFloat(av)
	bf, bIsFloat := asFloat(bv)
	if aIsFloat || bIsFloat {
		if !aIsFloat {
			af, _ = AsNumber(av.Interface())
		}
		if !bIsFloat {
			bf, _ = AsNumber(bv.Interface())
		}
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		return af == bf
	}
	// Both integral: compare without float rounding.
	aNeg := isSignedNeg(av)
	bNeg := isSignedNeg(bv)
	if aNeg != bNeg {
		return false
	}
	if aNeg {
		return av.Int() == bv.Int()
	}
	return asUint(av) == asUint(bv)
}

func isSignedNeg(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() < 0
	}
	return false
}

func asUint(rv reflect.Value) uint64 {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(rv.Int())
	default:
		return rv.Uint()
	}
}

func regexpSource(rv reflect.Value) string {
	rx := rv.Interface().(regexp.Regexp)
	return (&rx).String()
}

// setEqual compares element collections. Most set members are directly
// addressable via the map index; members that are not (e.g. pointer keys
// to equal payloads) fall back to a structural scan.
func setEqual(av, bv reflect.Value, depth int) (bool, error) {
	if av.Len() != bv.Len() {
		return false, nil
	}
	iter := av.MapRange()
	for iter.Next() {
		k := iter.Key()
		if bv.MapIndex(k).IsValid() {
			continue
		}
		found := false
		bIter := bv.MapRange()
		for bIter.Next() {
			ok, err := equalValue(k, bIter.Key(), depth+1)
			if err != nil {
				return false, err
			}
			if ok {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}

func mapEqual(av, bv reflect.Value, depth int) (bool, error) {
	if av.Len() != bv.Len() {
		return false, nil
	}
	iter := av.MapRange()
	for iter.Next() {
		bVal := bv.MapIndex(iter.Key())
		if !bVal.IsValid() {
			// Key not directly addressable in b; fall back to a
			// structural scan (covers pointer-typed keys).
			bIter := bv.MapRange()
			for bIter.Next() {
				ok, err := equalValue(iter.Key(), bIter.Key(), depth+1)
				if err != nil {
					return false, err
				}
				if ok {
					bVal = bIter.Value()
					break
				}
			}
			if !bVal.IsValid() {
				return false, nil
			}
		}
		ok, err := equalValue(iter.Value(), bVal, depth+1)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

type field struct {
	name string
	val  reflect.Value
}

func fields(rv reflect.Value) []field {
	t := rv.Type()
	out := make([]field, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		if !t.Field(i).IsExported() {
			continue
		}
		out = append(out, field{name: t.Field(i).Name, val: rv.Field(i)})
	}
	return out
}

func mapLikeEqual(a, b []field, depth int) (bool, error) {
	if len(a) != len(b) {
		return false, nil
	}
	byName := make(map[string]reflect.Value, len(b))
	for _, f := range b {
		byName[f.name] = f.val
	}
	for _, f := range a {
		bVal, ok := byName[f.name]
		if !ok {
			return false, nil
		}
		eq, err := equalValue(f.val, bVal, depth+1)
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}
