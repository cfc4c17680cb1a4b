package extensibility

import (
	"github.com/comalice/statechartx/internal/core"
	"github.com/comalice/statechartx/internal/primitives"
)

// DispatchEvent bundles a logged dispatch step with its machine and event
// identity for consumption off a ChannelLogHandler's channel.
type DispatchEvent struct {
	Step      primitives.Step
	MachineID primitives.ID
	Event     primitives.EventIndex
}

// ChannelLogHandler forwards every dispatch step to a Go channel instead of
// a logger, non-blocking with drop on backpressure so a slow or absent
// consumer never stalls a machine's dispatch loop.
type ChannelLogHandler struct {
	ch chan<- DispatchEvent
}

// NewChannelLogHandler builds a ChannelLogHandler writing to ch. The caller
// owns ch and is responsible for closing it once no Process can still log
// to it.
func NewChannelLogHandler(ch chan<- DispatchEvent) *ChannelLogHandler {
	return &ChannelLogHandler{ch: ch}
}

// Log implements core.LogHandler.
func (h *ChannelLogHandler) Log(step primitives.Step, machineID primitives.ID, event primitives.EventIndex) {
	select {
	case h.ch <- DispatchEvent{Step: step, MachineID: machineID, Event: event}:
	default:
	}
}

var _ core.LogHandler = (*ChannelLogHandler)(nil)
