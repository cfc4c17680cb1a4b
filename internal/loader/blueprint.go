package loader

import "github.com/comalice/statechartx/internal/primitives"

// EventBlueprint is the YAML shape of one EventDecl.
type EventBlueprint struct {
	Name         string `yaml:"name"`
	PayloadKind  string `yaml:"payloadKind,omitempty"`
	MaxInstances uint32 `yaml:"maxInstances,omitempty"`
}

// TransitionBlueprint is the YAML shape of one TransitionDecl, keyed by
// triggering event name in StateBlueprint.Transitions.
type TransitionBlueprint struct {
	Target string `yaml:"target"`
	Kind   string `yaml:"kind,omitempty"` // "goto" (default) or "push"
	Fun    string `yaml:"fun,omitempty"`
}

// StateBlueprint is the YAML shape of one StateDecl.
type StateBlueprint struct {
	Name        string                         `yaml:"name"`
	Entry       string                         `yaml:"entry,omitempty"`
	Exit        string                         `yaml:"exit,omitempty"`
	Deferred    []string                       `yaml:"deferred,omitempty"`
	Actions     map[string]string              `yaml:"actions,omitempty"`
	Transitions map[string]TransitionBlueprint `yaml:"transitions,omitempty"`
}

// MachineBlueprint is the YAML shape of one MachineDecl.
type MachineBlueprint struct {
	Name      string           `yaml:"name"`
	NumVars   int              `yaml:"numVars,omitempty"`
	VarTypes  []string         `yaml:"varTypes,omitempty"`
	InitState string           `yaml:"initState"`
	States    []StateBlueprint `yaml:"states"`
}

// Blueprint is the root YAML document: a declarative primitives.Program,
// with event and state references spelled as names instead of indices, and
// handler functions spelled as names to be resolved against a FuncRegistry
// at Build time.
type Blueprint struct {
	Events   []EventBlueprint   `yaml:"events"`
	Machines []MachineBlueprint `yaml:"machines"`
}

func parseKind(s string) primitives.Kind {
	switch s {
	case "event":
		return primitives.KindEventID
	case "bool":
		return primitives.KindBool
	case "int":
		return primitives.KindInt
	case "string":
		return primitives.KindString
	case "any":
		return primitives.KindAny
	default:
		return primitives.KindNull
	}
}
