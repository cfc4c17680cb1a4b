package loader

import (
	"fmt"
	"os"

	"github.com/comalice/statechartx/internal/primitives"
	"gopkg.in/yaml.v3"
)

// FuncRegistry resolves the handler-function names a Blueprint refers to.
// YAML cannot carry Go function values, so a Blueprint names its entry,
// exit, action, and transition functions as strings and the host registers
// the actual closures here before calling Build.
type FuncRegistry map[string]primitives.HandlerFunc

func (r FuncRegistry) lookup(name string) (primitives.HandlerFunc, error) {
	if name == "" {
		return nil, nil
	}
	fn, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("loader: no function registered for %q", name)
	}
	return fn, nil
}

// LoadFile reads and parses a Blueprint from a YAML file.
func LoadFile(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	var bp Blueprint
	if err := yaml.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("loader: parse %s: %w", path, err)
	}
	return &bp, nil
}

// Parse parses a Blueprint from an in-memory YAML document, for callers
// that already have the bytes (embedded fixtures, network fetches) rather
// than a file path.
func Parse(data []byte) (*Blueprint, error) {
	var bp Blueprint
	if err := yaml.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("loader: parse: %w", err)
	}
	return &bp, nil
}

// Build resolves a Blueprint into an immutable primitives.Program, looking
// up every named handler function in funcs. Event indices 0 and 1 are
// always NullEvent and HaltEvent; the blueprint's declared events are
// appended starting at index 2, so a blueprint must not declare events
// named at those reserved slots.
func Build(bp *Blueprint, funcs FuncRegistry) (*primitives.Program, error) {
	events := make([]primitives.EventDecl, 2, len(bp.Events)+2)
	events[primitives.NullEvent] = primitives.EventDecl{Name: "null"}
	events[primitives.HaltEvent] = primitives.EventDecl{Name: "halt"}

	eventIndex := map[string]primitives.EventIndex{
		"null": primitives.NullEvent,
		"halt": primitives.HaltEvent,
	}
	for _, eb := range bp.Events {
		if _, dup := eventIndex[eb.Name]; dup {
			return nil, fmt.Errorf("loader: duplicate event name %q", eb.Name)
		}
		idx := primitives.EventIndex(len(events))
		eventIndex[eb.Name] = idx
		events = append(events, primitives.EventDecl{
			Name:         eb.Name,
			PayloadKind:  parseKind(eb.PayloadKind),
			MaxInstances: eb.MaxInstances,
		})
	}

	prog := &primitives.Program{Events: events}

	for _, mb := range bp.Machines {
		decl, err := buildMachine(mb, eventIndex, funcs)
		if err != nil {
			return nil, fmt.Errorf("loader: machine %q: %w", mb.Name, err)
		}
		prog.Machines = append(prog.Machines, decl)
	}
	return prog, nil
}

func buildMachine(mb MachineBlueprint, eventIndex map[string]primitives.EventIndex, funcs FuncRegistry) (primitives.MachineDecl, error) {
	stateIndex := make(map[string]primitives.StateIndex, len(mb.States))
	for i, sb := range mb.States {
		if _, dup := stateIndex[sb.Name]; dup {
			return primitives.MachineDecl{}, fmt.Errorf("duplicate state name %q", sb.Name)
		}
		stateIndex[sb.Name] = primitives.StateIndex(i)
	}
	initIdx, ok := stateIndex[mb.InitState]
	if !ok {
		return primitives.MachineDecl{}, fmt.Errorf("initState %q not declared", mb.InitState)
	}

	varTypes := make([]primitives.Kind, len(mb.VarTypes))
	for i, vt := range mb.VarTypes {
		varTypes[i] = parseKind(vt)
	}

	numEvents := len(eventIndex)
	states := make([]primitives.StateDecl, len(mb.States))
	for i, sb := range mb.States {
		sd, err := buildState(sb, eventIndex, stateIndex, funcs, numEvents)
		if err != nil {
			return primitives.MachineDecl{}, fmt.Errorf("state %q: %w", sb.Name, err)
		}
		states[i] = sd
	}

	return primitives.MachineDecl{
		Name:           mb.Name,
		NumVars:        mb.NumVars,
		VarTypes:       varTypes,
		States:         states,
		InitStateIndex: initIdx,
	}, nil
}

func buildState(sb StateBlueprint, eventIndex map[string]primitives.EventIndex, stateIndex map[string]primitives.StateIndex, funcs FuncRegistry, numEvents int) (primitives.StateDecl, error) {
	entry, err := funcs.lookup(sb.Entry)
	if err != nil {
		return primitives.StateDecl{}, err
	}
	exit, err := funcs.lookup(sb.Exit)
	if err != nil {
		return primitives.StateDecl{}, err
	}

	deferred := primitives.NewPackedSet(numEvents)
	for _, name := range sb.Deferred {
		idx, ok := eventIndex[name]
		if !ok {
			return primitives.StateDecl{}, fmt.Errorf("deferred event %q not declared", name)
		}
		deferred.Add(idx)
	}

	actions := make(map[primitives.EventIndex]primitives.HandlerFunc, len(sb.Actions))
	for evName, funName := range sb.Actions {
		idx, ok := eventIndex[evName]
		if !ok {
			return primitives.StateDecl{}, fmt.Errorf("action event %q not declared", evName)
		}
		fn, err := funcs.lookup(funName)
		if err != nil {
			return primitives.StateDecl{}, err
		}
		actions[idx] = fn
	}

	transitions := make(map[primitives.EventIndex]primitives.TransitionDecl, len(sb.Transitions))
	for evName, tb := range sb.Transitions {
		idx, ok := eventIndex[evName]
		if !ok {
			return primitives.StateDecl{}, fmt.Errorf("transition event %q not declared", evName)
		}
		target, ok := stateIndex[tb.Target]
		if !ok {
			return primitives.StateDecl{}, fmt.Errorf("transition target %q not declared", tb.Target)
		}
		fn, err := funcs.lookup(tb.Fun)
		if err != nil {
			return primitives.StateDecl{}, err
		}
		kind := primitives.Goto
		if tb.Kind == "push" {
			kind = primitives.Push
		}
		transitions[idx] = primitives.TransitionDecl{Target: target, Kind: kind, Fun: fn}
	}

	return primitives.StateDecl{
		Name:        sb.Name,
		Entry:       entry,
		Exit:        exit,
		Deferred:    deferred,
		Actions:     actions,
		Transitions: transitions,
	}, nil
}
