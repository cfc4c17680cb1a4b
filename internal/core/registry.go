// Package core is the runtime core tier of the state machine engine: the
// event queue, the push-down state stack with inherited deferred/action
// sets, the three-phase dispatch loop, and the process-wide registry that
// resolves cross-machine sends.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/comalice/statechartx/internal/primitives"
	"golang.org/x/sync/errgroup"
)

// ErrorHandler receives faults the dispatch loop cannot recover from
// locally (the errorHandler callback a PRT_PROCESS installs).
type ErrorHandler interface {
	HandleError(fault *Fault)
}

// LogHandler receives a notification at each significant dispatch step
// (the logHandler callback a PRT_PROCESS installs).
type LogHandler interface {
	Log(step primitives.Step, machineID primitives.ID, event primitives.EventIndex)
}

var (
	// ErrUnknownMachine is returned when a send or cleanup targets an id
	// the registry has no record of.
	ErrUnknownMachine = errors.New("core: unknown machine id")
	// ErrStillRunning is returned by CleanupMachine when the target has
	// not yet halted.
	ErrStillRunning = errors.New("core: cannot clean up a machine that has not halted")
	// ErrBadDecl is returned by CreateMachine for an out-of-range machine
	// declaration index.
	ErrBadDecl = errors.New("core: machine declaration index out of range")
)

// maxCallDepth is the hard stack-depth limit (PRT_MAX_CALL_DEPTH).
const maxCallDepth = 16

// Process owns a collection of live machines sharing one compiled Program,
// plus the host-installed error and log handlers. It is process-scoped:
// there is no package-level singleton, so tests can construct independent
// processes freely.
type Process struct {
	program *primitives.Program

	mu       sync.RWMutex
	machines map[primitives.ID]*MachineContext
	nextID   uint64

	errorHandler  ErrorHandler
	logHandler    LogHandler
	maxStackDepth int
	queueCapacity int
}

// NewProcess constructs a Process bound to program. Options configure
// error/log handlers and resource limits; see WithErrorHandler et al.
func NewProcess(program *primitives.Program, opts ...Option) *Process {
	p := &Process{
		program:       program,
		machines:      make(map[primitives.ID]*MachineContext),
		maxStackDepth: maxCallDepth,
		queueCapacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CreateMachine allocates a machine for machines[declIndex], registers it,
// pushes its entry-state frame, and starts its dispatch goroutine in
// EntryPhase. It does not block for the entry chain to reach quiescence —
// creation is asynchronous, the same as every other cross-machine
// interaction.
func (p *Process) CreateMachine(declIndex int, ctorPayload primitives.Value) (*MachineContext, error) {
	if declIndex < 0 || declIndex >= len(p.program.Machines) {
		ctorPayload.Free()
		return nil, fmt.Errorf("%w: %d", ErrBadDecl, declIndex)
	}

	p.mu.Lock()
	p.nextID++
	id := primitives.NewID(p.nextID)
	m := newMachineContext(p, id, declIndex, ctorPayload)
	p.machines[id] = m
	p.mu.Unlock()

	go m.run()
	return m, nil
}

// CreateMany creates len(payloads) machines of declIndex concurrently,
// fanning out across goroutines with errgroup. Every creation runs to
// completion; if any failed, the first error is returned and the machines
// that were created stay registered but are not returned.
func (p *Process) CreateMany(ctx context.Context, declIndex int, payloads []primitives.Value) ([]*MachineContext, error) {
	out := make([]*MachineContext, len(payloads))
	g, _ := errgroup.WithContext(ctx)
	for i, payload := range payloads {
		i, payload := i, payload
		g.Go(func() error {
			m, err := p.CreateMachine(declIndex, payload)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Send resolves target to a live machine and enqueues event/payload on
// its queue.
func (p *Process) Send(target primitives.ID, event primitives.EventIndex, payload primitives.Value) error {
	p.mu.RLock()
	m, ok := p.machines[target]
	p.mu.RUnlock()
	if !ok {
		payload.Free()
		return fmt.Errorf("%w: %s", ErrUnknownMachine, target)
	}
	return m.send(event, payload)
}

// Broadcast sends a clone of payload to every id in targets concurrently,
// returning the first error encountered.
func (p *Process) Broadcast(ctx context.Context, targets []primitives.ID, event primitives.EventIndex, payload primitives.Value) error {
	g, _ := errgroup.WithContext(ctx)
	for _, id := range targets {
		id := id
		g.Go(func() error {
			return p.Send(id, event, payload.Clone())
		})
	}
	err := g.Wait()
	payload.Free()
	return err
}

// CleanupMachine removes a halted machine from the registry, freeing the
// registry's reference to it (PrtCleanupMachine). It is an error to clean
// up a machine that has not halted.
func (p *Process) CleanupMachine(id primitives.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.machines[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMachine, id)
	}
	if !m.Halted() {
		return ErrStillRunning
	}
	delete(p.machines, id)
	return nil
}

// CleanupModel requests halt on every live machine and removes the ones
// that stop promptly, mirroring PrtCleanupModel's whole-process teardown.
// Machines still finishing their current handler are left registered;
// call CleanupMachine once Halted() is true.
func (p *Process) CleanupModel() {
	p.mu.RLock()
	machines := make([]*MachineContext, 0, len(p.machines))
	for _, m := range p.machines {
		machines = append(machines, m)
	}
	p.mu.RUnlock()

	for _, m := range machines {
		m.requestHalt()
	}
	for _, m := range machines {
		if m.Halted() {
			_ = p.CleanupMachine(m.ID())
		}
	}
}

// MachineCount returns the number of machines currently registered
// (live or halted-but-not-cleaned-up).
func (p *Process) MachineCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.machines)
}

func (p *Process) reportFault(f *Fault) {
	if p.errorHandler != nil {
		p.errorHandler.HandleError(f)
	}
}

func (p *Process) logStep(step primitives.Step, m *MachineContext, event primitives.EventIndex) {
	if p.logHandler != nil {
		p.logHandler.Log(step, m.id, event)
	}
}
