// Package broker wraps a Redis connection behind the thin set of
// primitives §6 requires of the message broker: publish/subscribe,
// atomic score-ordered set insert and pop-of-lowest-score, cardinality,
// range read, hash-map set/get with TTL, and delete.
//
// Redis is the concrete collaborator chosen in SPEC_FULL.md §2B: it is
// the one broker in the retrieval pack that provides both pub/sub and
// atomic ZPOPMIN in a single client, matching the original Python
// implementation's direct Redis usage.
package broker
