package primitives

// EventIndex identifies a declared event within a Program's event table.
type EventIndex uint32

// StateIndex identifies a declared state within a MachineDecl's state list.
type StateIndex uint32

// Reserved event indices, fixed by convention. A real compiler front-end
// must always emit these two first.
const (
	NullEvent EventIndex = 0
	HaltEvent EventIndex = 1
)

// TransitionKind distinguishes a state-replacing goto from a
// stack-extending push.
type TransitionKind uint8

const (
	Goto TransitionKind = iota
	Push
)

// Handle is the interface a running machine presents to entry, exit,
// action, and transition functions. It is declared here (in primitives,
// the leaf package) and implemented by *core.MachineContext, so program
// authors can write HandlerFunc values without importing internal/core —
// the usual Go inversion for avoiding a dependency cycle between the
// descriptor and the engine that interprets it.
type Handle interface {
	// ID returns the running machine's identity.
	ID() ID

	// Var reads variable slot i.
	Var(i int) Value
	// SetVar writes variable slot i.
	SetVar(i int, v Value)

	// Raise preempts the queue with event/payload, to be handled before
	// the next dequeue. Valid only from inside a handler.
	Raise(event EventIndex, payload Value)
	// Push extends the state stack to stateIndex. Valid only from inside
	// a handler.
	Push(stateIndex StateIndex)
	// Pop contracts the state stack by one frame. Valid only from inside
	// a handler; fatal (InvalidPop) at the initial frame.
	Pop()

	// Send delivers event/payload to the machine identified by target.
	// This enqueues on the target's own queue and never runs the
	// target's dispatch loop on the caller's goroutine.
	Send(target ID, event EventIndex, payload Value) error
}

// HandlerFunc is the function-pointer type for entry, exit, action, and
// transition functions (PRT_SM_FUN in the original P runtime).
type HandlerFunc func(h Handle, payload Value)

// TransitionDecl describes one event-triggered transition out of a state.
type TransitionDecl struct {
	Target StateIndex
	Kind   TransitionKind
	Fun    HandlerFunc // optional
}

// StateDecl describes one state in a machine's ordered state list.
type StateDecl struct {
	Name  string
	Entry HandlerFunc
	Exit  HandlerFunc

	// Deferred is the state's own deferred-events set (not yet unioned
	// with any ancestor's).
	Deferred PackedSet

	// Actions maps event -> do-action function, installed directly on
	// this state (not inherited).
	Actions map[EventIndex]HandlerFunc

	// Transitions maps event -> transition descriptor for this state.
	Transitions map[EventIndex]TransitionDecl

	HasDefaultTransition bool
	HasDefaultAction     bool
}

// NewStateDecl builds a StateDecl with a correctly-sized, empty Deferred
// set and initialized Actions/Transitions maps, so hand-assembled
// programs (tests, benchmarks) don't have to know that a
// zero-value PackedSet is invalid — every StateDecl.Deferred must be
// sized to the program's declared event count for UnionInto/DifferenceInto
// to accept it in recomputeCurrentSets.
func NewStateDecl(name string, numEvents int) StateDecl {
	return StateDecl{
		Name:        name,
		Deferred:    NewPackedSet(numEvents),
		Actions:     make(map[EventIndex]HandlerFunc),
		Transitions: make(map[EventIndex]TransitionDecl),
	}
}

// Transition looks up a transition on e, returning ok=false if none.
func (s *StateDecl) Transition(e EventIndex) (TransitionDecl, bool) {
	t, ok := s.Transitions[e]
	return t, ok
}

// Action looks up a do-action function on e, returning ok=false if none.
func (s *StateDecl) Action(e EventIndex) (HandlerFunc, bool) {
	f, ok := s.Actions[e]
	return f, ok
}

// actionsSet derives the packed set of events this state installs an
// action for (used by the executor to compute currentActionsSet).
func (s *StateDecl) actionsSet(numEvents int) PackedSet {
	set := NewPackedSet(numEvents)
	for e := range s.Actions {
		set.Add(e)
	}
	return set
}

// ActionsSet exposes actionsSet to internal/core.
func (s *StateDecl) ActionsSet(numEvents int) PackedSet { return s.actionsSet(numEvents) }

// EventDecl describes one declared event.
type EventDecl struct {
	Name         string
	PayloadKind  Kind
	MaxInstances uint32 // 0 = unbounded
}

// MachineDecl describes one machine's static shape: its variable layout
// and ordered state list.
type MachineDecl struct {
	Name           string
	NumVars        int
	VarTypes       []Kind
	States         []StateDecl
	InitStateIndex StateIndex
}

// Program is the process-global, immutable compiled program description.
// The core only reads it.
type Program struct {
	Machines []MachineDecl
	Events   []EventDecl
}

// NumEvents returns the size of the declared event space, used to size
// every PackedSet the core allocates.
func (p *Program) NumEvents() int { return len(p.Events) }

// MaxInstances returns the queue-bound for e, or 0 (unbounded) if e is
// out of range.
func (p *Program) MaxInstances(e EventIndex) uint32 {
	if int(e) >= len(p.Events) {
		return 0
	}
	return p.Events[e].MaxInstances
}

// EventName returns the declared name for e, or "" if out of range.
func (p *Program) EventName(e EventIndex) string {
	if int(e) >= len(p.Events) {
		return ""
	}
	return p.Events[e].Name
}
