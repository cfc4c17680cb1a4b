// Package benchmarks holds performance benchmarks for the dispatch loop
// and process registry, built against real primitives.Program values.
package benchmarks

import (
	"fmt"

	"github.com/comalice/statechartx/internal/primitives"
)

const evTick primitives.EventIndex = 2

// selfLoopProgram builds a single machine with one state that handles
// every tick with the action fn, without leaving the state — the minimal
// unit for measuring per-event dispatch overhead.
func selfLoopProgram(fn primitives.HandlerFunc) *primitives.Program {
	idle := primitives.NewStateDecl("idle", 3)
	idle.Actions[evTick] = fn
	return &primitives.Program{
		Events:   []primitives.EventDecl{{Name: "null"}, {Name: "halt"}, {Name: "tick"}},
		Machines: []primitives.MachineDecl{{Name: "loop", States: []primitives.StateDecl{idle}}},
	}
}

// pushPopProgram builds a machine depth states deep, each pushing to the
// next on tick and the last popping one frame on tick — exercising the
// push-down stack instead of a flat self-loop.
func pushPopProgram(depth int) *primitives.Program {
	if depth < 1 {
		depth = 1
	}
	states := make([]primitives.StateDecl, depth)
	for i := range states {
		sd := primitives.NewStateDecl(fmt.Sprintf("s%d", i), 3)
		if i < depth-1 {
			sd.Transitions[evTick] = primitives.TransitionDecl{Target: primitives.StateIndex(i + 1), Kind: primitives.Push}
		} else {
			sd.Actions[evTick] = func(h primitives.Handle, _ primitives.Value) { h.Pop() }
		}
		states[i] = sd
	}
	return &primitives.Program{
		Events:   []primitives.EventDecl{{Name: "null"}, {Name: "halt"}, {Name: "tick"}},
		Machines: []primitives.MachineDecl{{Name: "pushpop", States: states}},
	}
}
