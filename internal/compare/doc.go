// Package compare implements structural value comparison: deep,
// key-order-independent equality over arbitrary Go values, plus a diff
// engine that describes every difference between two unequal values in a
// form suitable for human-readable rendering.
//
// It is intentionally split into:
//   - Kind classification (kind.go): every value maps to exactly one
//     comparison kind; values of different kinds are never equal.
//   - Equality (equal.go): recursive structural equality with a fixed
//     depth bound and an up-front circular-reference scan.
//   - Diffing (diff.go): per-key/per-index difference nodes addressed by a
//     structural path.
//   - Rendering (render.go): deterministic, indentation-stable
//     pretty-printing of values and diff trees.
//
// Determinism constraints:
//   - Rendering over unordered containers (maps, sets, struct fields) is
//     always produced in a sorted total order, never map iteration order.
//   - No output depends on pointer identity or timing.
//
// Cycles are rejected (CircularReferenceError), not diffed. Traversal past
// MaxDepth fails with MaxDepthError.
package compare
