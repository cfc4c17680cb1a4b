package core

import "github.com/comalice/statechartx/internal/primitives"

// phase is the dispatch-loop phase a machine is in (PRT_STATECONTROL in
// the runtime this core is modeled on).
type phase uint8

const (
	phaseEntry phase = iota
	phaseAction
	phaseDequeue
)

// lastOp records which control-flow operator the most recently returned
// handler invoked (PRT_LASTOPERATION).
type lastOp uint8

const (
	opReturn lastOp = iota
	opRaise
	opPush
	opPop
)

// stackFrame is one entry on a machine's push-down state stack.
// inheritedDeferred/inheritedActions are snapshots taken at push time;
// currEvent is the event this frame was handling when it pushed a child
// frame (for the bottom frame, initially the constructor event),
// preserved so it can be redelivered when the frame is popped back to
// (PRT_STACKSTATE_INFO.returnTo: popping always resumes the parent in
// ActionPhase with this event, never EntryPhase).
type stackFrame struct {
	stateIndex        primitives.StateIndex
	currEvent         queueEntry
	inheritedDeferred primitives.PackedSet
	inheritedActions  primitives.PackedSet
}
