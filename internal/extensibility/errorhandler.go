package extensibility

import (
	"github.com/comalice/statechartx/internal/core"
	"github.com/rs/zerolog"
)

// LoggingErrorHandler logs every fault at warn (recoverable) or error
// (fatal) level through a zerolog.Logger, then returns — the runtime
// treats a returning ErrorHandler as "discard and continue" where the
// fault's recovery semantics permit it.
type LoggingErrorHandler struct {
	logger zerolog.Logger
}

func NewLoggingErrorHandler(logger zerolog.Logger) *LoggingErrorHandler {
	return &LoggingErrorHandler{logger: logger}
}

// HandleError implements core.ErrorHandler.
func (h *LoggingErrorHandler) HandleError(fault *core.Fault) {
	event := h.logger.Warn()
	if fault.Fatal() {
		event = h.logger.Error()
	}
	event.
		Str("status", fault.Status.String()).
		Str("machine", fault.MachineID.String()).
		Str("state", fault.State).
		Uint32("event", uint32(fault.Event)).
		Bool("fatal", fault.Fatal()).
		Msg(fault.Error())
}

// PanicOnFatalErrorHandler wraps another ErrorHandler and panics on a
// fatal fault after delegating, for tests and tooling that want to fail
// loudly instead of silently halting a machine.
type PanicOnFatalErrorHandler struct {
	Inner core.ErrorHandler
}

func (h *PanicOnFatalErrorHandler) HandleError(fault *core.Fault) {
	if h.Inner != nil {
		h.Inner.HandleError(fault)
	}
	if fault.Fatal() {
		panic(fault)
	}
}

var (
	_ core.ErrorHandler = (*LoggingErrorHandler)(nil)
	_ core.ErrorHandler = (*PanicOnFatalErrorHandler)(nil)
)
