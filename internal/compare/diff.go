package compare

import (
	"reflect"
	"sort"
	"strings"
)

// Op is the closed set of difference variants.
type Op string

const (
	// OpNew marks a key/element present only on the new side.
	OpNew Op = "new"
	// OpDeleted marks a key/element present only on the old side.
	OpDeleted Op = "deleted"
	// OpEdited marks a position whose value changed.
	OpEdited Op = "edited"
	// OpArrayAdd and OpArrayRemove mark index-level growth/shrinkage of a
	// sequence.
	OpArrayAdd    Op = "array-add"
	OpArrayRemove Op = "array-remove"
)

// Node is one unit of difference between two compared values, addressed by
// a structural path. Nodes exist only to build the formatted diff and the
// HasDifferences flag; they are never persisted beyond one evaluation.
type Node struct {
	Op   Op
	Path Path
	Old  any
	New  any
}

// Result is the outcome of a Diff call.
type Result struct {
	HasDifferences bool
	Nodes          []Node
	Formatted      string
}

// Diff computes every structural difference between a and b.
//
//   - If the two values' kinds differ, Formatted is a direct two-line
//     before/after rendering of both values.
//   - If both are the same composite kind, differences are computed
//     per-key/per-index and Formatted is an indented tree: added entries
//     prefixed "+", removed entries prefixed "-", changed scalar entries
//     rendered as a paired "- k: old" / "+ k: new", changed composite
//     entries as a nested diff, and unchanged entries rendered plain for
//     context.
//   - A root-level primitive mismatch renders as "-<old> +<new>".
//
// Diff and Equal always agree: HasDifferences is false iff Equal reports
// true. Circular values and values deeper than MaxDepth fail with the same
// errors Equal produces.
func Diff(a, b any) (*Result, error) {
	if err := checkCircular(a); err != nil {
		return nil, err
	}
	if err := checkCircular(b); err != nil {
		return nil, err
	}

	d := &differ{}
	lines, same, err := d.diff(nil, reflect.ValueOf(a), reflect.ValueOf(b), 0)
	if err != nil {
		return nil, err
	}
	if same {
		return &Result{}, nil
	}
	return &Result{
		HasDifferences: true,
		Nodes:          d.nodes,
		Formatted:      strings.Join(lines, "\n"),
	}, nil
}

type differ struct {
	nodes []Node
}

func (d *differ) record(op Op, path Path, old, new any) {
	d.nodes = append(d.nodes, Node{Op: op, Path: path, Old: old, New: new})
}

// diff returns the rendered diff block for av vs bv plus whether the two
// sides are equal. The block's first line carries no indentation.
func (d *differ) diff(path Path, av, bv reflect.Value, depth int) ([]string, bool, error) {
	if depth > MaxDepth {
		return nil, false, &MaxDepthError{Depth: MaxDepth}
	}
	av, bv = normalize(av), normalize(bv)
	ak, bk := kindOf(av), kindOf(bv)

	if ak != bk {
		d.record(OpEdited, path, iface(av), iface(bv))
		return beforeAfter(av, bv, depth), false, nil
	}

	switch ak {
	case KindSlice:
		return d.diffSlice(path, av, bv, depth)
	case KindMap:
		return d.diffEntries(path, "Map", mapEntries(av), mapEntries(bv), depth, keyMatch(depth+1))
	case KindStruct:
		return d.diffEntries(path, structTag(av), structEntries(av), structEntries(bv), depth, labelMatch)
	case KindSet:
		return d.diffSet(path, av, bv, depth)
	default:
		eq, err := equalValue(av, bv, depth)
		if err != nil {
			return nil, false, err
		}
		if eq {
			return formatLines(av, depth), true, nil
		}
		d.record(OpEdited, path, iface(av), iface(bv))
		return []string{"-" + scalarText(av, depth) + " +" + scalarText(bv, depth)}, false, nil
	}
}

// diffEntry renders the body lines for one labelled position present on
// both sides. label is empty for slice indices.
func (d *differ) diffEntry(path Path, label string, av, bv reflect.Value, depth int) ([]string, bool, error) {
	av, bv = normalize(av), normalize(bv)
	ak, bk := kindOf(av), kindOf(bv)

	// Same composite kind: nested diff keeps the entry on one annotated
	// context line with differences marked inside it.
	if ak == bk && !isScalarKind(ak) {
		block, eq, err := d.diff(path, av, bv, depth)
		if err != nil {
			return nil, false, err
		}
		return annotate(labelled(label, block), "  "), eq, nil
	}

	eq := false
	if ak == bk {
		var err error
		eq, err = equalValue(av, bv, depth)
		if err != nil {
			return nil, false, err
		}
	}
	if eq {
		return annotate(labelled(label, formatLines(av, depth)), "  "), true, nil
	}

	// Changed scalar (or kind mismatch below the root): paired removal and
	// addition lines.
	d.record(OpEdited, path, iface(av), iface(bv))
	out := annotate(labelled(label, formatLines(av, depth)), "- ")
	return append(out, annotate(labelled(label, formatLines(bv, depth)), "+ ")...), false, nil
}

func (d *differ) diffSlice(path Path, av, bv reflect.Value, depth int) ([]string, bool, error) {
	n := av.Len()
	if bv.Len() < n {
		n = bv.Len()
	}

	same := av.Len() == bv.Len()
	body := make([]string, 0, n)
	for i := 0; i < n; i++ {
		lines, eq, err := d.diffEntry(path.index(i), "", av.Index(i), bv.Index(i), depth+1)
		if err != nil {
			return nil, false, err
		}
		if !eq {
			same = false
		}
		body = append(body, lines...)
	}
	for i := n; i < av.Len(); i++ {
		d.record(OpArrayRemove, path.index(i), iface(normalize(av.Index(i))), nil)
		body = append(body, annotate(formatLines(av.Index(i), depth+1), "- ")...)
	}
	for i := n; i < bv.Len(); i++ {
		d.record(OpArrayAdd, path.index(i), nil, iface(normalize(bv.Index(i))))
		body = append(body, annotate(formatLines(bv.Index(i), depth+1), "+ ")...)
	}

	lines := append([]string{"["}, body...)
	return append(lines, "]"), same, nil
}

type entry struct {
	label string
	key   reflect.Value
	val   reflect.Value
}

func mapEntries(rv reflect.Value) []entry {
	out := make([]entry, 0, rv.Len())
	for _, mk := range sortedMapKeys(rv) {
		out = append(out, entry{label: mk.label, key: mk.key, val: rv.MapIndex(mk.key)})
	}
	return out
}

func structEntries(rv reflect.Value) []entry {
	fs := fields(rv)
	out := make([]entry, 0, len(fs))
	for _, f := range fs {
		out = append(out, entry{label: f.name, val: f.val})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].label < out[j].label })
	return out
}

// labelMatch pairs struct fields: field names are unique per side, so the
// rendered label is the identity.
func labelMatch(x, y entry) (bool, error) { return x.label == y.label, nil }

// keyMatch pairs map entries by structural key equality. Rendered labels
// are only a fast path: equal keys always render identically, but distinct
// keys of different kinds can collide on one label (1 and "1" both render
// "1"), and colliding entries must not be paired.
func keyMatch(depth int) func(x, y entry) (bool, error) {
	return func(x, y entry) (bool, error) {
		if x.label != y.label {
			return false, nil
		}
		return equalValue(normalize(x.key), normalize(y.key), depth)
	}
}

func (d *differ) diffEntries(path Path, tag string, a, b []entry, depth int, match func(x, y entry) (bool, error)) ([]string, bool, error) {
	used := make([]bool, len(b))

	same := true
	body := make([]string, 0, len(a)+len(b))
	for _, ae := range a {
		found := -1
		for j, be := range b {
			if used[j] {
				continue
			}
			ok, err := match(ae, be)
			if err != nil {
				return nil, false, err
			}
			if ok {
				found = j
				break
			}
		}
		if found < 0 {
			same = false
			d.record(OpDeleted, path.key(ae.label), iface(normalize(ae.val)), nil)
			body = append(body, annotate(labelled(ae.label, formatLines(ae.val, depth+1)), "- ")...)
			continue
		}
		used[found] = true
		lines, eq, err := d.diffEntry(path.key(ae.label), ae.label, ae.val, b[found].val, depth+1)
		if err != nil {
			return nil, false, err
		}
		if !eq {
			same = false
		}
		body = append(body, lines...)
	}
	for j, be := range b {
		if used[j] {
			continue
		}
		same = false
		d.record(OpNew, path.key(be.label), nil, iface(normalize(be.val)))
		body = append(body, annotate(labelled(be.label, formatLines(be.val, depth+1)), "+ ")...)
	}

	lines := append([]string{tag + "{"}, body...)
	return append(lines, "}"), same, nil
}

func (d *differ) diffSet(path Path, av, bv reflect.Value, depth int) ([]string, bool, error) {
	aElems := setElems(av)
	bElems := setElems(bv)
	match := keyMatch(depth + 1)
	used := make([]bool, len(bElems))

	same := true
	body := make([]string, 0, len(aElems)+len(bElems))
	for _, e := range aElems {
		found := -1
		for j, be := range bElems {
			if used[j] {
				continue
			}
			ok, err := match(e, be)
			if err != nil {
				return nil, false, err
			}
			if ok {
				found = j
				break
			}
		}
		if found >= 0 {
			used[found] = true
			body = append(body, annotate(formatLines(e.val, depth+1), "  ")...)
			continue
		}
		same = false
		d.record(OpDeleted, path, iface(normalize(e.val)), nil)
		body = append(body, annotate(formatLines(e.val, depth+1), "- ")...)
	}
	for j, e := range bElems {
		if used[j] {
			continue
		}
		same = false
		d.record(OpNew, path, nil, iface(normalize(e.val)))
		body = append(body, annotate(formatLines(e.val, depth+1), "+ ")...)
	}

	lines := append([]string{"Set{"}, body...)
	return append(lines, "}"), same, nil
}

func setElems(rv reflect.Value) []entry {
	out := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		out = append(out, entry{label: keyLabel(k), key: k, val: k})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].label < out[j].label })
	return out
}

// beforeAfter renders a kind mismatch as a direct two-line old/new view.
func beforeAfter(av, bv reflect.Value, depth int) []string {
	out := annotate(formatLines(av, depth), "- ")
	return append(out, annotate(formatLines(bv, depth), "+ ")...)
}

// labelled attaches an entry label to a rendered block; slice entries pass
// an empty label and keep the bare block.
func labelled(label string, block []string) []string {
	if label == "" {
		return block
	}
	return entryLines(label, block)
}

// annotate indents a block by one level and applies a diff prefix to every
// line, so multi-line values stay attributed to one side.
func annotate(block []string, prefix string) []string {
	out := make([]string, len(block))
	for i, l := range block {
		out[i] = prefix + l
	}
	return out
}

func scalarText(rv reflect.Value, depth int) string {
	return strings.Join(formatLines(rv, depth), " ")
}

func iface(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}
