// Command basic loads a single-machine switch program from a YAML
// blueprint, prints the program's state graph as Graphviz DOT, and then
// toggles the switch from Idle to Active and back — exercising
// internal/loader and internal/diagnostics together, the way a deployed
// tool would.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/comalice/statechartx"
	"github.com/comalice/statechartx/internal/diagnostics"
	"github.com/comalice/statechartx/internal/loader"
	"github.com/comalice/statechartx/internal/primitives"
)

const blueprintYAML = `
events:
  - name: eActivate
  - name: eDeactivate
machines:
  - name: Switch
    initState: Idle
    states:
      - name: Idle
        entry: logEnterIdle
        transitions:
          eActivate:
            target: Active
      - name: Active
        entry: logEnterActive
        transitions:
          eDeactivate:
            target: Idle
`

func main() {
	bp, err := loader.Parse([]byte(blueprintYAML))
	if err != nil {
		log.Fatalf("parse blueprint: %v", err)
	}

	funcs := loader.FuncRegistry{
		"logEnterIdle":   func(h primitives.Handle, _ primitives.Value) { fmt.Println("-> Idle") },
		"logEnterActive": func(h primitives.Handle, _ primitives.Value) { fmt.Println("-> Active") },
	}

	program, err := loader.Build(bp, funcs)
	if err != nil {
		log.Fatalf("build program: %v", err)
	}

	dot, err := diagnostics.ExportDOT(program, 0, []primitives.StateIndex{0})
	if err != nil {
		log.Fatalf("export dot: %v", err)
	}
	fmt.Println(dot)

	process := statechartx.NewRuntime(program)
	m, err := process.CreateMachine(0, primitives.NullValue())
	if err != nil {
		log.Fatalf("create machine: %v", err)
	}
	_ = process.Send(m.ID(), 2, primitives.NullValue())
	time.Sleep(50 * time.Millisecond)
	_ = process.Send(m.ID(), 3, primitives.NullValue())
	time.Sleep(50 * time.Millisecond)

	process.CleanupModel()
}
