package assertion

import (
	"github.com/solo-fox/veve/internal/compare"
)

// Assertion is one assertion expression: a received value plus an
// immutable evaluator configuration. Negation and mode are fixed when the
// expression is built and threaded through matcher calls; nothing toggles
// shared mutable state.
type Assertion struct {
	received any
	negate   bool
	throwing bool

	// fault is a projection failure (e.g. Resolves over a rejected
	// future) recorded before any matcher ran. In boolean mode the next
	// matcher call reports it as false.
	fault *Failure
}

// Expect starts a throwing-mode assertion: a mismatch panics with a
// *Failure, to be recovered at the test attempt boundary.
func Expect(v any) *Assertion {
	return &Assertion{received: v, throwing: true}
}

// Check starts a boolean-mode assertion: matchers return false on
// mismatch and never interrupt the test body. Comparator faults and usage
// errors still propagate — they are bugs, not mismatches.
func Check(v any) *Assertion {
	return &Assertion{received: v}
}

// Not returns a copy with inverted pass/fail polarity.
func (a *Assertion) Not() *Assertion {
	cp := *a
	cp.negate = !cp.negate
	return &cp
}

func (a *Assertion) with(received any) *Assertion {
	cp := *a
	cp.received = received
	cp.fault = nil
	return &cp
}

func (a *Assertion) withFault(f *Failure) *Assertion {
	cp := *a
	cp.fault = f
	return &cp
}

// run dispatches one matcher through the evaluation table and applies
// polarity and mode.
func (a *Assertion) run(kind matcherKind, args ...any) bool {
	if a.fault != nil {
		return a.fail(a.fault)
	}
	v := matchers[kind](a.received, args)
	if v.err != nil {
		// Comparator faults propagate in both modes: they are the test's
		// thrown error, not a mismatch.
		panic(v.err)
	}

	pass := v.pass
	if a.negate {
		pass = !pass
	}
	if pass {
		return true
	}
	return a.fail(&Failure{Matcher: string(kind), Message: a.message(v)})
}

func (a *Assertion) message(v verdict) string {
	polarity := " "
	if a.negate {
		polarity = " not "
	}
	msg := "expected " + compare.Format(a.received) + polarity + v.desc
	if !a.negate && v.detail != "" {
		msg += "\n" + v.detail
	}
	return msg
}

func (a *Assertion) fail(f *Failure) bool {
	if a.throwing {
		panic(f)
	}
	return false
}
