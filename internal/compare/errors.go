package compare

import "fmt"

// CircularReferenceError reports that a value reaches itself through some
// chain of elements/fields, making structural comparison non-terminating.
// Cycles are rejected up front rather than diffed.
type CircularReferenceError struct {
	// Path is the traversal path at which the cycle closed.
	Path Path
}

func (e *CircularReferenceError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Path) == 0 {
		return "circular reference detected"
	}
	return fmt.Sprintf("circular reference detected at %s", e.Path)
}

// MaxDepthError reports that traversal exceeded MaxDepth nesting levels.
// It guards against pathologically deep structures that the cycle scan
// cannot catch (e.g. extremely long non-cyclic chains).
type MaxDepthError struct {
	Depth int
}

func (e *MaxDepthError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("maximum comparison depth exceeded (%d levels)", e.Depth)
}

// MaxDepth is the fixed bound on recursive traversal. A conservative
// default: real assertion payloads sit far below it, while malformed
// structures fail fast instead of exhausting the stack.
const MaxDepth = 100
