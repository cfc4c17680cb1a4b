// Package primitives provides the foundational data structures for the
// hierarchical state machine execution core: the dynamic value stand-in,
// the packed event-set algebra, and the compiled program descriptor that
// the executor in internal/core interprets.
//
// Everything here is data plus pure functions over that data. Nothing in
// this package owns a goroutine, a lock, or a channel — those belong to
// internal/core.
package primitives
