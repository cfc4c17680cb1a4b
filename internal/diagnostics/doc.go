// Package diagnostics renders a primitives.Program's static state graph as
// Graphviz DOT. Rather than snapshotting a running machine's active
// configuration, it walks the compiled program descriptor directly; this
// core does not persist or reconstruct live runtime state.
package diagnostics
