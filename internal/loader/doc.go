// Package loader assembles a primitives.Program from a declarative YAML
// description plus a host-supplied registry of named handler functions.
//
// The compiled program representation is an external collaborator,
// treated as immutable input — the core never builds one itself. This
// package produces a Program without hand-writing Go struct literals: a
// YAML blueprint names states, deferred events, actions, and transitions
// by string; the handler functions themselves (arbitrary Go closures) are
// looked up by name in a FuncRegistry the host builds ahead of time,
// since YAML cannot carry function pointers.
//
// This is a build-time/config concern, not a run-time persistence
// mechanism: it loads the static program table from a file, and carries
// no live machine state.
package loader
