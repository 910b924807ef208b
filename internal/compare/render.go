package compare

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Format renders a value as deterministic, indentation-stable text.
//
// Composite kinds carry a tag naming their kind (Map{...}, Set{...}, a
// struct's type name, bare brackets for slices) so diff output is never
// ambiguous about what kind of container changed. Unordered containers are
// rendered in sorted order. Traversal past MaxDepth is elided with "…".
func Format(v any) string {
	return strings.Join(formatLines(reflect.ValueOf(v), 0), "\n")
}

// formatLines renders a value as a block of lines. The first line carries
// no indentation; nested lines are indented relative to it by two spaces
// per level.
func formatLines(rv reflect.Value, depth int) []string {
	if depth > MaxDepth {
		return []string{"…"}
	}
	rv = normalize(rv)
	k := kindOf(rv)
	if isScalarKind(k) {
		return []string{formatScalar(rv, k)}
	}

	switch k {
	case KindSlice:
		if rv.Len() == 0 {
			return []string{"[]"}
		}
		lines := []string{"["}
		for i := 0; i < rv.Len(); i++ {
			lines = append(lines, indentBlock(formatLines(rv.Index(i), depth+1))...)
		}
		return append(lines, "]")
	case KindSet:
		if rv.Len() == 0 {
			return []string{"Set{}"}
		}
		elems := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			elems = append(elems, strings.Join(formatLines(iter.Key(), depth+1), "\n"))
		}
		sort.Strings(elems)
		lines := []string{"Set{"}
		for _, e := range elems {
			lines = append(lines, indentBlock(strings.Split(e, "\n"))...)
		}
		return append(lines, "}")
	case KindMap:
		if rv.Len() == 0 {
			return []string{"Map{}"}
		}
		keys := sortedMapKeys(rv)
		lines := []string{"Map{"}
		for _, mk := range keys {
			entry := entryLines(mk.label, formatLines(rv.MapIndex(mk.key), depth+1))
			lines = append(lines, indentBlock(entry)...)
		}
		return append(lines, "}")
	case KindStruct:
		tag := structTag(rv)
		fs := fields(rv)
		if len(fs) == 0 {
			return []string{tag + "{}"}
		}
		lines := []string{tag + "{"}
		for _, f := range fs {
			entry := entryLines(f.name, formatLines(f.val, depth+1))
			lines = append(lines, indentBlock(entry)...)
		}
		return append(lines, "}")
	default:
		return []string{fmt.Sprintf("%v", rv.Interface())}
	}
}

func isScalarKind(k Kind) bool {
	switch k {
	case KindNil, KindBool, KindNumber, KindString, KindTime, KindRegexp, KindFunc, KindOther:
		return true
	default:
		return false
	}
}

func formatScalar(rv reflect.Value, k Kind) string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(rv.Bool())
	case KindNumber:
		if f, ok := asFloat(rv); ok {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		if isSignedNeg(rv) {
			return strconv.FormatInt(rv.Int(), 10)
		}
		return strconv.FormatUint(asUint(rv), 10)
	case KindString:
		return strconv.Quote(rv.String())
	case KindTime:
		return "Time(" + rv.Interface().(time.Time).Format(time.RFC3339Nano) + ")"
	case KindRegexp:
		return "/" + regexpSource(rv) + "/"
	case KindFunc:
		return "func"
	default:
		return fmt.Sprintf("%v", rv.Interface())
	}
}

// structTag names the container kind for a struct value. Anonymous structs
// fall back to the generic tag.
func structTag(rv reflect.Value) string {
	if name := rv.Type().Name(); name != "" {
		return name
	}
	return "Struct"
}

// entryLines joins a label to a rendered value block: the label attaches to
// the block's first line, remaining lines are unchanged.
func entryLines(label string, value []string) []string {
	out := make([]string, len(value))
	out[0] = label + ": " + value[0]
	copy(out[1:], value[1:])
	return out
}

func indentBlock(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = "  " + l
	}
	return out
}

type mapKey struct {
	key   reflect.Value
	label string
}

// sortedMapKeys returns map keys in a deterministic order, sorted by their
// rendered representation.
func sortedMapKeys(rv reflect.Value) []mapKey {
	keys := make([]mapKey, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		keys = append(keys, mapKey{key: k, label: keyLabel(k)})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].label < keys[j].label })
	return keys
}

// keyLabel renders a map key for use as an entry label. String keys render
// bare (not quoted) so diff lines read naturally.
func keyLabel(k reflect.Value) string {
	nk := normalize(k)
	if nk.IsValid() && nk.Kind() == reflect.String {
		return nk.String()
	}
	return strings.Join(formatLines(k, 0), " ")
}
