// Package statechartx is the public entry point for a runtime that
// executes a compiled program of communicating, hierarchical (push-down)
// state machines: a process owns a set of machines sharing one program
// description, each machine a private variable block, event queue, and
// state stack, communicating only by asynchronous event send.
//
// A caller assembles a *primitives.Program (by hand, or via
// internal/loader from a YAML blueprint), builds a core.Process with
// NewProcess, and creates machines against it. See NewRuntime for a thin
// convenience wrapper over the two.
package statechartx
