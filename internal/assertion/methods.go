package assertion

// Matcher surface. Every method evaluates one matcher against the
// assertion's working value and returns whether it passed; in throwing
// mode a false outcome never returns — it panics with a *Failure instead.

// ToBeDefined asserts the value is not nil.
func (a *Assertion) ToBeDefined() bool { return a.run(matcherDefined) }

// ToBeNil asserts the value is nil.
func (a *Assertion) ToBeNil() bool { return a.run(matcherNil) }

// ToBeTruthy asserts the value is truthy (see truthy for the exact rule).
func (a *Assertion) ToBeTruthy() bool { return a.run(matcherTruthy) }

// ToBe asserts strict identity: same referent or identical primitive.
func (a *Assertion) ToBe(expected any) bool { return a.run(matcherIdentity, expected) }

// ToEqual asserts structural equality; the failure message carries a
// formatted diff.
func (a *Assertion) ToEqual(expected any) bool { return a.run(matcherEqual, expected) }

func (a *Assertion) ToBeGreaterThan(n any) bool { return a.run(matcherGreaterThan, n) }

func (a *Assertion) ToBeGreaterThanOrEqual(n any) bool { return a.run(matcherGreaterOrEqual, n) }

func (a *Assertion) ToBeLessThan(n any) bool { return a.run(matcherLessThan, n) }

func (a *Assertion) ToBeLessThanOrEqual(n any) bool { return a.run(matcherLessOrEqual, n) }

// ToBeBetween asserts lo < value < hi (exclusive bounds).
func (a *Assertion) ToBeBetween(lo, hi any) bool { return a.run(matcherBetween, lo, hi) }

// ToBeBetweenInclusive asserts lo <= value <= hi.
func (a *Assertion) ToBeBetweenInclusive(lo, hi any) bool {
	return a.run(matcherBetweenInclusive, lo, hi)
}

func (a *Assertion) ToBeAtLeast(min any) bool { return a.run(matcherAtLeast, min) }

func (a *Assertion) ToBeAtMost(max any) bool { return a.run(matcherAtMost, max) }

func (a *Assertion) ToBeNaN() bool { return a.run(matcherNaN) }

// ToMatch asserts a string matches a *regexp.Regexp or contains a
// substring.
func (a *Assertion) ToMatch(pattern any) bool { return a.run(matcherMatch, pattern) }

// ToContain asserts substring presence for strings, element membership
// for slices and sets, value membership for maps.
func (a *Assertion) ToContain(v any) bool { return a.run(matcherContain, v) }

// ToBeInstanceOf compares dynamic type names, not full type identity —
// a documented limitation carried over from constructor-name matching.
func (a *Assertion) ToBeInstanceOf(proto any) bool { return a.run(matcherInstanceOf, proto) }

// ToBeCloseTo asserts numeric equality after rounding both sides to
// `digits` decimal digits.
func (a *Assertion) ToBeCloseTo(expected float64, digits int) bool {
	return a.run(matcherCloseTo, expected, digits)
}

// ToThrow invokes the received no-argument function and asserts it fails.
// With an argument, the failure must match it (error value, substring, or
// *regexp.Regexp).
func (a *Assertion) ToThrow(expected ...any) bool { return a.run(matcherThrow, expected...) }

func (a *Assertion) ToHaveLength(n int) bool { return a.run(matcherLength, n) }

// ToHaveProperty asserts a dot-path resolves inside the value; with a
// second argument, the resolved value must be structurally equal to it.
func (a *Assertion) ToHaveProperty(path string, expected ...any) bool {
	args := append([]any{path}, expected...)
	return a.run(matcherProperty, args...)
}

// Tracked-function matchers. All of these raise a *UsageError in both
// modes when the received value is not a *track.Tracker.

func (a *Assertion) ToHaveBeenCalled() bool { return a.run(matcherCalled) }

func (a *Assertion) ToHaveBeenCalledTimes(n int) bool { return a.run(matcherCalledTimes, n) }

func (a *Assertion) ToHaveBeenCalledWith(args ...any) bool {
	return a.run(matcherCalledWith, args...)
}

// ToHaveBeenNthCalledWith asserts on the nth call's arguments, 1-indexed.
func (a *Assertion) ToHaveBeenNthCalledWith(n int, args ...any) bool {
	return a.run(matcherNthCalledWith, append([]any{n}, args...)...)
}

func (a *Assertion) ToHaveBeenLastCalledWith(args ...any) bool {
	return a.run(matcherLastCalledWith, args...)
}

func (a *Assertion) ToHaveReturnedWith(v any) bool { return a.run(matcherReturnedWith, v) }

// ToHaveThrown asserts at least one recorded call failed; with an
// argument, some recorded failure must match it.
func (a *Assertion) ToHaveThrown(expected ...any) bool {
	return a.run(matcherThrownWith, expected...)
}
