package diagnostics

import (
	"bytes"
	"fmt"

	"github.com/comalice/statechartx/internal/primitives"
)

// ExportDOT renders machine machineIdx of prog as Graphviz DOT source: one
// digraph, one node per state, one labeled edge per transition. Other
// machines of prog are not rendered. activeStack, if
// non-nil, is highlighted as the current push-down stack of a running
// instance of machine machineIdx (bottom of stack first), matching how a
// caller would visualize primitives.Handle's live state after a dispatch.
func ExportDOT(prog *primitives.Program, machineIdx int, activeStack []primitives.StateIndex) (string, error) {
	if machineIdx < 0 || machineIdx >= len(prog.Machines) {
		return "", fmt.Errorf("diagnostics: machine index %d out of range", machineIdx)
	}
	decl := prog.Machines[machineIdx]

	active := make(map[primitives.StateIndex]bool, len(activeStack))
	for _, s := range activeStack {
		active[s] = true
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %s {\n", dotQuote(decl.Name))
	buf.WriteString("  rankdir=LR;\n  node [shape=box, fontsize=10, style=rounded];\n  edge [fontsize=9];\n")

	for i, st := range decl.States {
		style := ""
		if active[primitives.StateIndex(i)] {
			style = " style=\"rounded,filled\" fillcolor=lightgreen"
		}
		fmt.Fprintf(&buf, "  %q [label=%q%s];\n", st.Name, st.Name, style)
	}

	for i, st := range decl.States {
		for event, t := range st.Transitions {
			label := prog.EventName(event)
			if t.Kind == primitives.Push {
				label += " (push)"
			}
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", decl.States[i].Name, decl.States[t.Target].Name, label)
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func dotQuote(s string) string {
	if s == "" {
		return "machine"
	}
	return s
}
