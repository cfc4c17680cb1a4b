package core

import "github.com/comalice/statechartx/internal/primitives"

// run is the machine's dispatch loop, launched on its own goroutine by
// Process.CreateMachine. It alternates between EntryPhase, ActionPhase,
// and DequeuePhase until the machine halts. When DequeuePhase finds
// nothing deliverable and the current state has no default handler, the
// loop blocks on wake rather than spinning — this is the goroutine's only
// suspension point.
func (m *MachineContext) run() {
	for {
		switch m.stateControl {
		case phaseEntry:
			m.runEntry()
		case phaseAction:
			m.runAction()
		case phaseDequeue:
			if !m.runDequeue() {
				<-m.wake
				continue
			}
		}
		if m.Halted() {
			return
		}
	}
}

func (m *MachineContext) runEntry() {
	decl := m.currentStateDecl()
	m.lastOperation = opReturn
	if decl.Entry != nil {
		m.process.logStep(primitives.StepEntry, m, m.currentEvent.event)
		decl.Entry(m, m.currentEvent.payload)
	}
	m.afterHandler()
}

func (m *MachineContext) runAction() {
	e := m.currentEvent.event

	if e == primitives.HaltEvent {
		m.haltMachine()
		return
	}

	decl := m.currentStateDecl()

	if t, ok := decl.Transition(e); ok {
		m.takeTransition(e, t)
		return
	}

	if m.currentActionsSet.Member(e) {
		fn := m.resolveAction(e)
		m.process.logStep(primitives.StepAction, m, e)
		m.lastOperation = opReturn
		if fn != nil {
			fn(m, m.currentEvent.payload)
		}
		m.afterHandler()
		return
	}

	m.process.logStep(primitives.StepUnhandled, m, e)
	m.reportFault(primitives.StatusUnhandledEvent)
	m.currentEvent.payload.Free()
	m.stateControl = phaseDequeue
}

func (m *MachineContext) runDequeue() bool {
	m.mu.Lock()
	idx, found := m.queue.findDeliverable(m.currentDeferredSet)
	if found {
		e, payload := m.queue.removeAt(idx)
		m.mu.Unlock()
		m.currentEvent = queueEntry{event: e, payload: payload}
		m.process.logStep(primitives.StepDequeue, m, e)
		m.stateControl = phaseAction
		return true
	}
	m.mu.Unlock()

	decl := m.currentStateDecl()
	if decl.HasDefaultTransition || decl.HasDefaultAction {
		m.currentEvent = queueEntry{event: primitives.NullEvent, payload: primitives.NullValue()}
		m.stateControl = phaseAction
		return true
	}
	return false
}

// afterHandler inspects lastOperation after an entry or action function
// has returned and advances the dispatch loop accordingly — the shared
// return handling both EntryPhase and ActionPhase funnel through.
func (m *MachineContext) afterHandler() {
	if m.popRequestFatal {
		m.popRequestFatal = false
		m.haltMachine()
		return
	}

	switch m.lastOperation {
	case opReturn:
		m.stateControl = phaseDequeue
	case opRaise:
		m.currentEvent = m.pendingRaise
		m.process.logStep(primitives.StepRaise, m, m.currentEvent.event)
		m.stateControl = phaseAction
	case opPush:
		m.pushState(m.pendingPushTarget)
	case opPop:
		m.popState()
	}
	m.lastOperation = opReturn
}

// takeTransition executes a matched transition: exit (goto only),
// transition function, then the stack update.
func (m *MachineContext) takeTransition(e primitives.EventIndex, t primitives.TransitionDecl) {
	decl := m.currentStateDecl()

	if t.Kind == primitives.Goto && decl.Exit != nil {
		m.process.logStep(primitives.StepExit, m, e)
		decl.Exit(m, m.currentEvent.payload)
	}
	if t.Fun != nil {
		t.Fun(m, m.currentEvent.payload)
	}

	switch t.Kind {
	case primitives.Goto:
		top := &m.stack[len(m.stack)-1]
		top.stateIndex = t.Target
		m.currentState = t.Target
		m.recomputeCurrentSets()
	case primitives.Push:
		m.pushState(t.Target)
	}
	m.stateControl = phaseEntry
}

// pushState extends the stack to target, snapshotting the current
// (post-inheritance) sets as the new frame's inherited sets, and
// preserving the triggering event on the frame being suspended so it can
// be redelivered on pop.
func (m *MachineContext) pushState(target primitives.StateIndex) {
	if len(m.stack) >= m.maxStack {
		m.reportFault(primitives.StatusStackOverflow)
		m.haltMachine()
		return
	}

	parent := &m.stack[len(m.stack)-1]
	parent.currEvent = queueEntry{event: m.currentEvent.event, payload: m.currentEvent.payload.Clone()}

	m.stack = append(m.stack, stackFrame{
		stateIndex:        target,
		inheritedDeferred: m.currentDeferredSet.Clone(),
		inheritedActions:  m.currentActionsSet.Clone(),
	})
	m.currentState = target
	m.recomputeCurrentSets()
	m.process.logStep(primitives.StepPush, m, m.currentEvent.event)
	m.stateControl = phaseEntry
}

// popState contracts the stack by one frame. Resuming the parent always
// re-enters ActionPhase with the parent's preserved currEvent — never
// EntryPhase — since the parent state was already entered before it was
// suspended by the push (PRT_STACKSTATE_INFO.returnTo).
func (m *MachineContext) popState() {
	popped := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	m.process.logStep(primitives.StepPop, m, popped.currEvent.event)

	if len(m.stack) == 0 {
		m.haltMachine()
		return
	}

	parent := &m.stack[len(m.stack)-1]
	m.currentState = parent.stateIndex
	m.currentEvent = parent.currEvent
	m.recomputeCurrentSets()
	m.stateControl = phaseAction
}

// resolveAction walks the stack from top to bottom for the nearest frame
// whose state installs an action for e.
func (m *MachineContext) resolveAction(e primitives.EventIndex) primitives.HandlerFunc {
	for i := len(m.stack) - 1; i >= 0; i-- {
		if fn, ok := m.stateDecl(m.stack[i].stateIndex).Action(e); ok {
			return fn
		}
	}
	return nil
}

// recomputeCurrentSets derives currentDeferredSet and currentActionsSet
// from the top frame's inherited sets and the current state's own sets:
// deferred is a plain union; actions is the union of inherited and own
// actions minus any event the state itself transitions on (transitions
// override inherited actions).
func (m *MachineContext) recomputeCurrentSets() {
	top := &m.stack[len(m.stack)-1]
	decl := m.currentStateDecl()

	m.currentDeferredSet = primitives.NewPackedSet(m.numEvents)
	primitives.UnionInto(m.currentDeferredSet, top.inheritedDeferred, decl.Deferred)

	ownActions := decl.ActionsSet(m.numEvents)
	unioned := primitives.NewPackedSet(m.numEvents)
	primitives.UnionInto(unioned, top.inheritedActions, ownActions)

	transitioned := primitives.NewPackedSet(m.numEvents)
	for e := range decl.Transitions {
		transitioned.Add(e)
	}

	m.currentActionsSet = primitives.NewPackedSet(m.numEvents)
	primitives.DifferenceInto(m.currentActionsSet, unioned, transitioned)
}

// haltMachine frees the machine's resources and marks it terminal.
// Idempotent.
func (m *MachineContext) haltMachine() {
	m.mu.Lock()
	if m.halted {
		m.mu.Unlock()
		return
	}
	m.halted = true
	m.queue.drainFree()
	m.mu.Unlock()

	m.stack = nil
	m.vars = nil
	m.process.logStep(primitives.StepHalt, m, primitives.HaltEvent)
}
