package core

import (
	"errors"
	"sync"

	"github.com/comalice/statechartx/internal/primitives"
)

// ErrHalted is returned by Send when the target machine has already
// halted; further sends to a halted machine are no-ops.
var ErrHalted = errors.New("core: machine has halted")

// ErrReservedEvent is returned when external code attempts to Send the
// reserved null event, which only the dispatch loop may synthesize.
var ErrReservedEvent = errors.New("core: cannot send the reserved null event")

// MachineContext is a single live machine: its identity, variable slots,
// event queue, and push-down state stack, plus the dispatch loop that
// drives it. It implements primitives.Handle, the interface program
// authors write entry/exit/action/transition functions against.
//
// Each MachineContext owns a dedicated goroutine running the dispatch
// loop, the message-passing discipline this core favors over a reentrant
// lock. Fields touched only by that goroutine (stack, currentState, the
// two current*Set caches, currentEvent, stateControl, lastOperation) are
// never read or written from any other goroutine. mu guards exactly the
// fields an external Send/Halted call needs: the queue and the halted
// flag.
type MachineContext struct {
	process    *Process
	declIndex  int
	id         primitives.ID
	vars       []primitives.Value
	maxStack   int
	numEvents  int

	mu     sync.Mutex
	queue  *eventQueue
	halted bool

	wake chan struct{}

	// Dispatch-goroutine-owned state.
	stack              []stackFrame
	currentState       primitives.StateIndex
	currentDeferredSet primitives.PackedSet
	currentActionsSet  primitives.PackedSet
	currentEvent       queueEntry
	stateControl       phase
	lastOperation      lastOp
	pendingRaise       queueEntry
	pendingPushTarget  primitives.StateIndex
	popRequestFatal    bool
}

// newMachineContext allocates and initializes a machine for declIndex,
// pushes its entry-state frame, and returns it unstarted (the caller
// starts the dispatch goroutine).
func newMachineContext(p *Process, id primitives.ID, declIndex int, ctorPayload primitives.Value) *MachineContext {
	decl := &p.program.Machines[declIndex]
	n := p.program.NumEvents()

	vars := make([]primitives.Value, decl.NumVars)
	for i := range vars {
		vars[i] = primitives.NullValue()
	}

	m := &MachineContext{
		process:   p,
		declIndex: declIndex,
		id:        id,
		vars:      vars,
		maxStack:  p.maxStackDepth,
		numEvents: n,
		queue:     newEventQueue(p.queueCapacity),
		wake:      make(chan struct{}, 1),
	}

	m.stack = []stackFrame{{
		stateIndex:        decl.InitStateIndex,
		currEvent:         queueEntry{event: primitives.NullEvent, payload: ctorPayload},
		inheritedDeferred: primitives.NewPackedSet(n),
		inheritedActions:  primitives.NewPackedSet(n),
	}}
	m.currentState = decl.InitStateIndex
	m.currentEvent = m.stack[0].currEvent
	m.stateControl = phaseEntry
	m.recomputeCurrentSets()

	return m
}

// ID returns the machine's registry identity.
func (m *MachineContext) ID() primitives.ID { return m.id }

// Halted reports whether the machine has reached a terminal state.
func (m *MachineContext) Halted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halted
}

// QueueLen reports the number of events currently queued.
func (m *MachineContext) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Len()
}

func (m *MachineContext) machineDecl() *primitives.MachineDecl {
	return &m.process.program.Machines[m.declIndex]
}

func (m *MachineContext) stateDecl(s primitives.StateIndex) *primitives.StateDecl {
	return &m.machineDecl().States[s]
}

func (m *MachineContext) currentStateDecl() *primitives.StateDecl {
	return m.stateDecl(m.currentState)
}

// --- primitives.Handle ---

func (m *MachineContext) Var(i int) primitives.Value { return m.vars[i] }

func (m *MachineContext) SetVar(i int, v primitives.Value) { m.vars[i] = v }

// Raise preempts the queue: the next phase transition will deliver this
// event before the next dequeue.
func (m *MachineContext) Raise(event primitives.EventIndex, payload primitives.Value) {
	m.lastOperation = opRaise
	m.pendingRaise = queueEntry{event: event, payload: payload}
}

// Push stashes a target state; the outer dispatch loop performs the
// actual stack push once the handler returns.
func (m *MachineContext) Push(stateIndex primitives.StateIndex) {
	m.lastOperation = opPush
	m.pendingPushTarget = stateIndex
}

// Pop requests that the current frame be popped. Popping the initial
// frame is a fatal underflow (InvalidPop).
func (m *MachineContext) Pop() {
	if len(m.stack) <= 1 {
		m.reportFault(primitives.StatusInvalidPop)
		m.popRequestFatal = true
		m.lastOperation = opReturn
		return
	}
	m.lastOperation = opPop
}

// Send delivers event/payload to the machine identified by target,
// resolved through this machine's owning process.
func (m *MachineContext) Send(target primitives.ID, event primitives.EventIndex, payload primitives.Value) error {
	return m.process.Send(target, event, payload)
}

// send enqueues event/payload onto this machine's own queue and wakes its
// dispatch goroutine if idle. It is the target-side half of Process.Send.
func (m *MachineContext) send(event primitives.EventIndex, payload primitives.Value) error {
	if event == primitives.NullEvent {
		payload.Free()
		return ErrReservedEvent
	}

	m.mu.Lock()
	if m.halted {
		m.mu.Unlock()
		payload.Free()
		return ErrHalted
	}
	err := m.queue.enqueue(event, payload, m.process.program.MaxInstances(event))
	m.mu.Unlock()

	if err != nil {
		// Reported from the caller's goroutine, not the dispatch goroutine,
		// so this must not touch currentState/currentEvent — those are
		// owned by the dispatch loop. event is this call's own parameter.
		m.reportFaultEvent(primitives.StatusQueueOverflow, "", event)
		return err
	}

	m.process.logStep(primitives.StepEnqueue, m, event)
	m.wakeUp()
	return nil
}

func (m *MachineContext) wakeUp() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// reportFault reports status against the dispatch loop's current state and
// event. Callable only from the dispatch goroutine, since it reads
// currentState/currentEvent.
func (m *MachineContext) reportFault(status primitives.Status) {
	var stateName string
	if int(m.currentState) < len(m.machineDecl().States) {
		stateName = m.currentStateDecl().Name
	}
	m.reportFaultEvent(status, stateName, m.currentEvent.event)
}

// reportFaultEvent reports status against an explicitly supplied state
// name and event, touching no dispatch-goroutine-owned field. Safe to
// call from any goroutine.
func (m *MachineContext) reportFaultEvent(status primitives.Status, stateName string, event primitives.EventIndex) {
	m.process.reportFault(&Fault{
		Status:    status,
		MachineID: m.id,
		State:     stateName,
		Event:     event,
	})
}

// requestHalt enqueues the reserved Halt event, used by Process.CleanupModel
// to tear machines down cooperatively.
func (m *MachineContext) requestHalt() {
	m.mu.Lock()
	if m.halted {
		m.mu.Unlock()
		return
	}
	_ = m.queue.enqueue(primitives.HaltEvent, primitives.NullValue(), 0)
	m.mu.Unlock()
	m.wakeUp()
}
