package assertion

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/solo-fox/veve/internal/compare"
	"github.com/solo-fox/veve/internal/track"
)

// matcherKind is the closed enumeration of matchers. The string values
// appear in Failure.Matcher and in failure messages.
type matcherKind string

const (
	matcherDefined          matcherKind = "toBeDefined"
	matcherNil              matcherKind = "toBeNil"
	matcherTruthy           matcherKind = "toBeTruthy"
	matcherGreaterThan      matcherKind = "toBeGreaterThan"
	matcherGreaterOrEqual   matcherKind = "toBeGreaterThanOrEqual"
	matcherLessThan         matcherKind = "toBeLessThan"
	matcherLessOrEqual      matcherKind = "toBeLessThanOrEqual"
	matcherBetween          matcherKind = "toBeBetween"
	matcherBetweenInclusive matcherKind = "toBeBetweenInclusive"
	matcherAtLeast          matcherKind = "toBeAtLeast"
	matcherAtMost           matcherKind = "toBeAtMost"
	matcherNaN              matcherKind = "toBeNaN"
	matcherMatch            matcherKind = "toMatch"
	matcherIdentity         matcherKind = "toBe"
	matcherEqual            matcherKind = "toEqual"
	matcherContain          matcherKind = "toContain"
	matcherInstanceOf       matcherKind = "toBeInstanceOf"
	matcherCloseTo          matcherKind = "toBeCloseTo"
	matcherThrow            matcherKind = "toThrow"
	matcherLength           matcherKind = "toHaveLength"
	matcherProperty         matcherKind = "toHaveProperty"
	matcherCalled           matcherKind = "toHaveBeenCalled"
	matcherCalledTimes      matcherKind = "toHaveBeenCalledTimes"
	matcherCalledWith       matcherKind = "toHaveBeenCalledWith"
	matcherNthCalledWith    matcherKind = "toHaveBeenNthCalledWith"
	matcherLastCalledWith   matcherKind = "toHaveBeenLastCalledWith"
	matcherReturnedWith     matcherKind = "toHaveReturnedWith"
	matcherThrownWith       matcherKind = "toHaveThrownWith"
)

// verdict is one matcher evaluation outcome. desc completes the sentence
// "expected <received> [not] <desc>"; detail carries an optional
// multi-line payload (e.g. a diff). A non-nil err is a fault, not a
// mismatch, and propagates in both evaluation modes.
type verdict struct {
	pass   bool
	desc   string
	detail string
	err    error
}

type matcherFunc func(received any, args []any) verdict

var matchers = map[matcherKind]matcherFunc{
	matcherDefined: func(r any, _ []any) verdict {
		return verdict{pass: compare.KindOf(r) != compare.KindNil, desc: "to be defined"}
	},
	matcherNil: func(r any, _ []any) verdict {
		return verdict{pass: compare.KindOf(r) == compare.KindNil, desc: "to be nil"}
	},
	matcherTruthy: func(r any, _ []any) verdict {
		return verdict{pass: truthy(r), desc: "to be truthy"}
	},
	matcherGreaterThan:      numericMatcher("to be greater than", func(r, x, _ float64) bool { return r > x }),
	matcherGreaterOrEqual:   numericMatcher("to be greater than or equal to", func(r, x, _ float64) bool { return r >= x }),
	matcherLessThan:         numericMatcher("to be less than", func(r, x, _ float64) bool { return r < x }),
	matcherLessOrEqual:      numericMatcher("to be less than or equal to", func(r, x, _ float64) bool { return r <= x }),
	matcherBetween:          numericMatcher("to be strictly between", func(r, lo, hi float64) bool { return r > lo && r < hi }),
	matcherBetweenInclusive: numericMatcher("to be between", func(r, lo, hi float64) bool { return r >= lo && r <= hi }),
	matcherAtLeast:          numericMatcher("to be at least", func(r, min, _ float64) bool { return r >= min }),
	matcherAtMost:           numericMatcher("to be at most", func(r, max, _ float64) bool { return r <= max }),
	matcherNaN: func(r any, _ []any) verdict {
		f, ok := compare.AsNumber(r)
		return verdict{pass: ok && math.IsNaN(f), desc: "to be NaN"}
	},
	matcherMatch:      matchPattern,
	matcherIdentity:   matchIdentity,
	matcherEqual:      matchEqual,
	matcherContain:    matchContain,
	matcherInstanceOf: matchInstanceOf,
	matcherCloseTo:    matchCloseTo,
	matcherThrow:      matchThrow,
	matcherLength:     matchLength,
	matcherProperty:   matchProperty,

	matcherCalled: trackerMatcher(matcherCalled, func(tr *track.Tracker, _ []any) verdict {
		return verdict{pass: tr.WasCalled(), desc: "to have been called"}
	}),
	matcherCalledTimes: trackerMatcher(matcherCalledTimes, func(tr *track.Tracker, args []any) verdict {
		n := args[0].(int)
		return verdict{
			pass: tr.WasCalledTimes(n),
			desc: fmt.Sprintf("to have been called %d times, was called %d times", n, tr.Count()),
		}
	}),
	matcherCalledWith: trackerMatcher(matcherCalledWith, func(tr *track.Tracker, args []any) verdict {
		ok, err := tr.WasCalledWith(args...)
		return verdict{pass: ok, desc: "to have been called with " + compare.Format(args), err: err}
	}),
	matcherNthCalledWith: trackerMatcher(matcherNthCalledWith, func(tr *track.Tracker, args []any) verdict {
		n := args[0].(int)
		want := args[1:]
		desc := fmt.Sprintf("to have been called the %d%s time with %s", n, ordinalSuffix(n), compare.Format(want))
		got, ok := tr.NthArgs(n)
		if !ok {
			return verdict{desc: desc, detail: fmt.Sprintf("only %d calls were recorded", tr.Count())}
		}
		return equalArgs(got, want, desc)
	}),
	matcherLastCalledWith: trackerMatcher(matcherLastCalledWith, func(tr *track.Tracker, args []any) verdict {
		desc := "to have last been called with " + compare.Format(args)
		got, ok := tr.LastArgs()
		if !ok {
			return verdict{desc: desc, detail: "no calls were recorded"}
		}
		return equalArgs(got, args, desc)
	}),
	matcherReturnedWith: trackerMatcher(matcherReturnedWith, func(tr *track.Tracker, args []any) verdict {
		desc := "to have returned " + compare.Format(args[0])
		for _, v := range tr.ReturnValues() {
			ok, err := compare.Equal(v, args[0])
			if err != nil {
				return verdict{desc: desc, err: err}
			}
			if ok {
				return verdict{pass: true, desc: desc}
			}
		}
		return verdict{desc: desc}
	}),
	matcherThrownWith: trackerMatcher(matcherThrownWith, func(tr *track.Tracker, args []any) verdict {
		if len(args) == 0 {
			return verdict{pass: len(tr.Errors()) > 0, desc: "to have thrown"}
		}
		desc := "to have thrown " + compare.Format(args[0])
		for _, err := range tr.Errors() {
			if errorMatches(err, args[0]) {
				return verdict{pass: true, desc: desc}
			}
		}
		return verdict{desc: desc}
	}),
}

func numericMatcher(desc string, cmp func(r, a, b float64) bool) matcherFunc {
	return func(r any, args []any) verdict {
		d := desc + " " + formatArgs(args)
		rf, ok := compare.AsNumber(r)
		if !ok {
			return verdict{desc: d, detail: "received value is not a number"}
		}
		a, ok := compare.AsNumber(args[0])
		if !ok {
			return verdict{desc: d, detail: "expected bound is not a number"}
		}
		b := a
		if len(args) > 1 {
			if b, ok = compare.AsNumber(args[1]); !ok {
				return verdict{desc: d, detail: "expected bound is not a number"}
			}
		}
		return verdict{pass: cmp(rf, a, b), desc: d}
	}
}

func formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = compare.Format(a)
	}
	return strings.Join(parts, " and ")
}

func matchPattern(r any, args []any) verdict {
	s, ok := r.(string)
	if !ok {
		return verdict{desc: "to match a pattern", detail: "received value is not a string"}
	}
	switch p := args[0].(type) {
	case *regexp.Regexp:
		return verdict{pass: p.MatchString(s), desc: "to match /" + p.String() + "/"}
	case string:
		return verdict{pass: strings.Contains(s, p), desc: "to contain substring " + strconv.Quote(p)}
	default:
		return verdict{desc: "to match a pattern", detail: "pattern must be a string or *regexp.Regexp"}
	}
}

func matchIdentity(r any, args []any) verdict {
	return verdict{pass: compare.Identical(r, args[0]), desc: "to be " + compare.Format(args[0])}
}

func matchEqual(r any, args []any) verdict {
	res, err := compare.Diff(r, args[0])
	if err != nil {
		return verdict{desc: "to equal " + compare.Format(args[0]), err: err}
	}
	return verdict{
		pass:   !res.HasDifferences,
		desc:   "to equal " + compare.Format(args[0]),
		detail: res.Formatted,
	}
}

func equalArgs(got []any, want []any, desc string) verdict {
	res, err := compare.Diff(got, want)
	if err != nil {
		return verdict{desc: desc, err: err}
	}
	return verdict{pass: !res.HasDifferences, desc: desc, detail: res.Formatted}
}

func matchContain(r any, args []any) verdict {
	want := args[0]
	desc := "to contain " + compare.Format(want)

	if s, ok := r.(string); ok {
		sub, ok := want.(string)
		if !ok {
			return verdict{desc: desc, detail: "cannot search a string for a non-string"}
		}
		return verdict{pass: strings.Contains(s, sub), desc: desc}
	}

	rv := reflect.ValueOf(r)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			ok, err := compare.Equal(rv.Index(i).Interface(), want)
			if err != nil {
				return verdict{desc: desc, err: err}
			}
			if ok {
				return verdict{pass: true, desc: desc}
			}
		}
		return verdict{desc: desc}
	case reflect.Map:
		// Sets contain their members; maps contain their values.
		iter := rv.MapRange()
		for iter.Next() {
			probe := iter.Value().Interface()
			if compare.KindOf(r) == compare.KindSet {
				probe = iter.Key().Interface()
			}
			ok, err := compare.Equal(probe, want)
			if err != nil {
				return verdict{desc: desc, err: err}
			}
			if ok {
				return verdict{pass: true, desc: desc}
			}
		}
		return verdict{desc: desc}
	default:
		return verdict{desc: desc, detail: "received value is not a container"}
	}
}

// matchInstanceOf compares dynamic type names, not full type identity:
// two distinct types with the same name in different packages satisfy it.
func matchInstanceOf(r any, args []any) verdict {
	want := typeName(args[0])
	if s, ok := args[0].(string); ok {
		want = s
	}
	return verdict{
		pass: typeName(r) == want && want != "",
		desc: "to be an instance of " + want + " (got " + typeName(r) + ")",
	}
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

func matchCloseTo(r any, args []any) verdict {
	want, _ := compare.AsNumber(args[0])
	digits := args[1].(int)
	desc := fmt.Sprintf("to be close to %v (%d digits)", args[0], digits)
	rf, ok := compare.AsNumber(r)
	if !ok {
		return verdict{desc: desc, detail: "received value is not a number"}
	}
	scale := math.Pow(10, float64(digits))
	return verdict{pass: math.Round(rf*scale) == math.Round(want*scale), desc: desc}
}

func matchThrow(r any, args []any) verdict {
	desc := "to throw"
	if len(args) > 0 {
		desc = "to throw " + compare.Format(args[0])
	}

	thrown, invokable := invoke(r)
	if !invokable {
		return verdict{desc: desc, detail: "received value is not invokable without arguments"}
	}
	if thrown == nil {
		return verdict{desc: desc}
	}
	if len(args) == 0 {
		return verdict{pass: true, desc: desc}
	}
	return verdict{pass: errorMatches(thrown, args[0]), desc: desc, detail: "threw: " + thrown.Error()}
}

// invoke calls a no-argument function form and captures its failure, from
// either a panic or a returned error.
func invoke(r any) (thrown error, invokable bool) {
	var call func() error
	switch fn := r.(type) {
	case func():
		call = func() error { fn(); return nil }
	case func() error:
		call = fn
	case func() (any, error):
		call = func() error { _, err := fn(); return err }
	default:
		return nil, false
	}

	defer func() {
		if rec := recover(); rec != nil {
			if err, ok := rec.(error); ok {
				thrown = err
				return
			}
			thrown = fmt.Errorf("%v", rec)
		}
	}()
	return call(), true
}

func errorMatches(err error, want any) bool {
	switch w := want.(type) {
	case *regexp.Regexp:
		return w.MatchString(err.Error())
	case string:
		return strings.Contains(err.Error(), w)
	case error:
		return err == w || err.Error() == w.Error()
	default:
		return false
	}
}

func matchLength(r any, args []any) verdict {
	n := args[0].(int)
	desc := fmt.Sprintf("to have length %d", n)
	rv := reflect.ValueOf(r)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return verdict{pass: rv.Len() == n, desc: fmt.Sprintf("%s, got %d", desc, rv.Len())}
	default:
		return verdict{desc: desc, detail: "received value has no length"}
	}
}

func matchProperty(r any, args []any) verdict {
	path := args[0].(string)
	desc := "to have property " + strconv.Quote(path)

	val, found := traverse(r, path)
	if !found {
		return verdict{desc: desc}
	}
	if len(args) < 2 {
		return verdict{pass: true, desc: desc}
	}

	res, err := compare.Diff(val, args[1])
	if err != nil {
		return verdict{desc: desc, err: err}
	}
	return verdict{
		pass:   !res.HasDifferences,
		desc:   desc + " equal to " + compare.Format(args[1]),
		detail: res.Formatted,
	}
}

// traverse walks a dot path through maps with string keys, struct fields
// and slice indices.
func traverse(v any, path string) (any, bool) {
	cur := reflect.ValueOf(v)
	for _, seg := range strings.Split(path, ".") {
		for cur.IsValid() && (cur.Kind() == reflect.Pointer || cur.Kind() == reflect.Interface) {
			if cur.IsNil() {
				return nil, false
			}
			cur = cur.Elem()
		}
		if !cur.IsValid() {
			return nil, false
		}
		switch cur.Kind() {
		case reflect.Map:
			if cur.Type().Key().Kind() != reflect.String {
				return nil, false
			}
			next := cur.MapIndex(reflect.ValueOf(seg))
			if !next.IsValid() {
				return nil, false
			}
			cur = next
		case reflect.Struct:
			next := cur.FieldByName(seg)
			if !next.IsValid() {
				return nil, false
			}
			cur = next
		case reflect.Slice, reflect.Array:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= cur.Len() {
				return nil, false
			}
			cur = cur.Index(idx)
		default:
			return nil, false
		}
	}
	if !cur.IsValid() {
		return nil, false
	}
	return cur.Interface(), true
}

// trackerMatcher guards the tracked-only matcher surface: applying one to
// an untracked value raises unconditionally, regardless of mode.
func trackerMatcher(kind matcherKind, fn func(tr *track.Tracker, args []any) verdict) matcherFunc {
	return func(r any, args []any) verdict {
		tr, ok := r.(*track.Tracker)
		if !ok {
			panic(&UsageError{
				Matcher: string(kind),
				Message: fmt.Sprintf("received value of type %T is not a tracked function", r),
			})
		}
		return fn(tr, args)
	}
}

// truthy mirrors the source object model's notion of truthiness: nil,
// false, zero, NaN and the empty string are falsy; everything else,
// including empty containers, is truthy.
func truthy(v any) bool {
	switch compare.KindOf(v) {
	case compare.KindNil:
		return false
	case compare.KindBool:
		rv := reflect.ValueOf(v)
		for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
			rv = rv.Elem()
		}
		return rv.Bool()
	case compare.KindNumber:
		f, _ := compare.AsNumber(v)
		return f != 0 && !math.IsNaN(f)
	case compare.KindString:
		rv := reflect.ValueOf(v)
		for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
			rv = rv.Elem()
		}
		return rv.String() != ""
	default:
		return true
	}
}

func ordinalSuffix(n int) string {
	switch {
	case n%100 >= 11 && n%100 <= 13:
		return "th"
	case n%10 == 1:
		return "st"
	case n%10 == 2:
		return "nd"
	case n%10 == 3:
		return "rd"
	default:
		return "th"
	}
}
