// Package assertion evaluates matchers against received values in two
// modes: a throwing mode whose failures abort the enclosing test body, and
// a boolean mode that reports mismatches as false without interrupting.
//
// Matchers are a closed enumeration dispatched through a table of pure
// evaluation functions, not open-ended reflection over matcher names.
package assertion

import "fmt"

// Failure is a structured assertion mismatch: which matcher failed and a
// human-readable message. In throwing mode it is raised via panic and
// recovered at the scheduler's attempt boundary, where it becomes the
// test's failure.
type Failure struct {
	Matcher string
	Message string
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", f.Matcher, f.Message)
}

// UsageError marks a test-authoring bug rather than a data mismatch: a
// matcher that requires a tracked value applied to an untracked one, or a
// projection applied to a non-awaitable value. It is raised in BOTH
// evaluation modes, since boolean mode must not silently absorb it.
type UsageError struct {
	Matcher string
	Message string
}

func (e *UsageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invalid use of %s: %s", e.Matcher, e.Message)
}
