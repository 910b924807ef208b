package assertion

import (
	"context"

	"github.com/solo-fox/veve/internal/compare"
)

// Future is the awaitable shape the async projections operate on: a
// pending computation that settles with a value or an error.
type Future func(ctx context.Context) (any, error)

// asFuture widens the accepted function shapes so test bodies don't need
// to spell the exact signature.
func asFuture(v any) (Future, bool) {
	switch f := v.(type) {
	case Future:
		return f, true
	case func(ctx context.Context) (any, error):
		return f, true
	case func() (any, error):
		return func(context.Context) (any, error) { return f() }, true
	case func() error:
		return func(context.Context) (any, error) { return nil, f() }, true
	default:
		return nil, false
	}
}

// Resolves awaits the received value and returns an assertion over the
// fulfilled result. If the future rejects, the assertion fails: in
// throwing mode immediately, in boolean mode at the next matcher call.
//
// Awaiting is a suspension point: the future runs to completion (or
// context cancellation, if it honors ctx) before any matcher is applied.
func (a *Assertion) Resolves(ctx context.Context) *Assertion {
	f, ok := asFuture(a.received)
	if !ok {
		panic(&UsageError{Matcher: "resolves", Message: "received value is not awaitable"})
	}
	v, err := f(ctx)
	if err != nil {
		return a.projectionFailed(&Failure{
			Matcher: "resolves",
			Message: "expected the value to resolve, but it rejected with: " + err.Error(),
		})
	}
	return a.with(v)
}

// Rejects awaits the received value, asserts that it rejects, and returns
// an assertion over the rejection reason.
func (a *Assertion) Rejects(ctx context.Context) *Assertion {
	f, ok := asFuture(a.received)
	if !ok {
		panic(&UsageError{Matcher: "rejects", Message: "received value is not awaitable"})
	}
	v, err := f(ctx)
	if err == nil {
		return a.projectionFailed(&Failure{
			Matcher: "rejects",
			Message: "expected the value to reject, but it resolved with " + compare.Format(v),
		})
	}
	return a.with(err)
}

func (a *Assertion) projectionFailed(f *Failure) *Assertion {
	if a.throwing {
		panic(f)
	}
	return a.withFault(f)
}
