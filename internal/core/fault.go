package core

import (
	"fmt"

	"github.com/comalice/statechartx/internal/primitives"
)

// Fault is the error reported to the host's ErrorHandler. It implements
// the standard error interface so it composes with
// errors.Is/errors.As at call sites that also handle Go-native errors
// (e.g. Process.Send's return value).
type Fault struct {
	Status    primitives.Status
	MachineID primitives.ID
	State     string
	Event     primitives.EventIndex
}

func (f *Fault) Error() string {
	return fmt.Sprintf("core: %s in %s at state %q (event %d)", f.Status, f.MachineID, f.State, f.Event)
}

// Fatal reports whether this fault halts the owning machine.
func (f *Fault) Fatal() bool { return f.Status.Fatal() }
