package statechartx

import (
	"github.com/comalice/statechartx/internal/core"
	"github.com/comalice/statechartx/internal/extensibility"
	"github.com/comalice/statechartx/internal/primitives"
)

// Re-exported so callers of this package rarely need to import
// internal/core or internal/primitives directly for the common path.
type (
	Process        = core.Process
	MachineContext = core.MachineContext
	Fault          = core.Fault
	Option         = core.Option
	Program        = primitives.Program
	Handle         = primitives.Handle
	Value          = primitives.Value
	ID             = primitives.ID
	EventIndex     = primitives.EventIndex
	StateIndex     = primitives.StateIndex
)

var (
	WithErrorHandler  = core.WithErrorHandler
	WithLogHandler    = core.WithLogHandler
	WithMaxStackDepth = core.WithMaxStackDepth
	WithQueueCapacity = core.WithQueueCapacity

	NullValue    = primitives.NullValue
	BoolValue    = primitives.BoolValue
	IntValue     = primitives.IntValue
	StringValue  = primitives.StringValue
	NewPayload   = primitives.NewPayload
	EventIDValue = primitives.EventIDValue
)

const (
	NullEvent = primitives.NullEvent
	HaltEvent = primitives.HaltEvent
)

// NewRuntime builds a Process wired with sensible production defaults: a
// zerolog-backed LogHandler and ErrorHandler writing to stderr. Callers
// wanting full control over handlers and limits should call
// core.NewProcess directly with their own Options instead.
func NewRuntime(program *Program, opts ...Option) *Process {
	logHandler := extensibility.NewDefaultZerologHandler()
	defaults := []Option{
		WithLogHandler(logHandler),
		WithErrorHandler(extensibility.NewLoggingErrorHandler(logHandler.Logger())),
	}
	return core.NewProcess(program, append(defaults, opts...)...)
}
