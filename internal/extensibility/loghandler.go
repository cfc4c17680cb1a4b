// Package extensibility provides the default, pluggable ErrorHandler and
// LogHandler implementations for internal/core's Process. core only
// depends on the interfaces it declares itself (ErrorHandler, LogHandler);
// this package is the adapter tier that wires real logging and recovery
// policy on top of them.
package extensibility

import (
	"os"
	"time"

	"github.com/comalice/statechartx/internal/core"
	"github.com/comalice/statechartx/internal/primitives"
	"github.com/rs/zerolog"
)

// ZerologHandler implements core.LogHandler on top of zerolog, emitting
// one structured event per dispatch step: enqueue, dequeue, entry, exit,
// raise, push, pop, action, halt, unhandled.
type ZerologHandler struct {
	logger zerolog.Logger
}

// NewZerologHandler wraps an existing zerolog.Logger. Pass
// zerolog.New(os.Stderr).With().Timestamp().Logger() for a sane default.
func NewZerologHandler(logger zerolog.Logger) *ZerologHandler {
	return &ZerologHandler{logger: logger}
}

// NewDefaultZerologHandler builds a ZerologHandler writing human-readable
// console output to stderr, suitable for examples and local debugging.
func NewDefaultZerologHandler() *ZerologHandler {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return NewZerologHandler(zerolog.New(writer).With().Timestamp().Logger())
}

// Logger returns the underlying zerolog.Logger, so callers building other
// handlers (e.g. an ErrorHandler) can share the same sink and settings.
func (h *ZerologHandler) Logger() zerolog.Logger { return h.logger }

// Log implements core.LogHandler.
func (h *ZerologHandler) Log(step primitives.Step, machineID primitives.ID, event primitives.EventIndex) {
	h.logger.Debug().
		Str("step", step.String()).
		Str("machine", machineID.String()).
		Uint32("event", uint32(event)).
		Msg("dispatch step")
}

// NopLogHandler discards every step notification. Used where logging
// overhead isn't wanted (benchmarks, quiet tests) — an explicit no-op
// instead of a nil check scattered through core.
type NopLogHandler struct{}

func (NopLogHandler) Log(primitives.Step, primitives.ID, primitives.EventIndex) {}

var (
	_ core.LogHandler = (*ZerologHandler)(nil)
	_ core.LogHandler = NopLogHandler{}
)
