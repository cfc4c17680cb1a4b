package core

import (
	"sync"
	"testing"
	"time"

	"github.com/comalice/statechartx/internal/primitives"
)

// collectingErrorHandler records every fault it receives, for tests that
// need to observe the error-handler callback synchronously.
type collectingErrorHandler struct {
	mu     sync.Mutex
	faults []*Fault
}

func (h *collectingErrorHandler) HandleError(f *Fault) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.faults = append(h.faults, f)
}

func (h *collectingErrorHandler) snapshot() []*Fault {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Fault, len(h.faults))
	copy(out, h.faults)
	return out
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for condition")
		case <-time.After(time.Millisecond):
		}
	}
}

// Scenario 1: ping-pong between two machines.
func TestScenario_PingPong(t *testing.T) {
	const evPing primitives.EventIndex = 2
	const evPong primitives.EventIndex = 3
	const numEvents = 4

	var pingerID, pongerID primitives.ID
	var rallies int
	var mu sync.Mutex
	done := make(chan struct{})

	onPing := func(h primitives.Handle, payload primitives.Value) {
		mu.Lock()
		rallies++
		n := rallies
		mu.Unlock()
		if n >= 4 {
			close(done)
			return
		}
		_ = h.Send(pongerID, evPong, primitives.NullValue())
	}
	onPong := func(h primitives.Handle, payload primitives.Value) {
		_ = h.Send(pingerID, evPing, primitives.NullValue())
	}

	pingerWaiting := primitives.NewStateDecl("waiting", numEvents)
	pingerWaiting.Actions[evPing] = onPing
	pongerWaiting := primitives.NewStateDecl("waiting", numEvents)
	pongerWaiting.Actions[evPong] = onPong

	program := &primitives.Program{
		Events: []primitives.EventDecl{{Name: "null"}, {Name: "halt"}, {Name: "ping"}, {Name: "pong"}},
		Machines: []primitives.MachineDecl{
			{Name: "pinger", States: []primitives.StateDecl{pingerWaiting}},
			{Name: "ponger", States: []primitives.StateDecl{pongerWaiting}},
		},
	}

	p := NewProcess(program)
	pinger, err := p.CreateMachine(0, primitives.NullValue())
	if err != nil {
		t.Fatal(err)
	}
	ponger, err := p.CreateMachine(1, primitives.NullValue())
	if err != nil {
		t.Fatal(err)
	}
	pingerID, pongerID = pinger.ID(), ponger.ID()

	if err := p.Send(pingerID, evPing, primitives.NullValue()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ping-pong did not complete in time")
	}
}

// Scenario 2: defer-then-admit.
func TestScenario_DeferThenAdmit(t *testing.T) {
	const evA primitives.EventIndex = 2
	const evB primitives.EventIndex = 3
	const numEvents = 4

	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}
	done := make(chan struct{})

	waiting := primitives.NewStateDecl("waiting", numEvents)
	waiting.Deferred.Add(evA)
	waiting.Transitions[evB] = primitives.TransitionDecl{Target: 1, Kind: primitives.Goto}

	admitting := primitives.NewStateDecl("admitting", numEvents)
	admitting.Actions[evA] = func(h primitives.Handle, _ primitives.Value) {
		record("a")
		close(done)
	}

	program := &primitives.Program{
		Events:   []primitives.EventDecl{{Name: "null"}, {Name: "halt"}, {Name: "a"}, {Name: "b"}},
		Machines: []primitives.MachineDecl{{Name: "waiter", States: []primitives.StateDecl{waiting, admitting}}},
	}

	p := NewProcess(program)
	m, err := p.CreateMachine(0, primitives.NullValue())
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Send(m.ID(), evA, primitives.NullValue()); err != nil {
		t.Fatal(err)
	}
	record("sent-a")
	if err := p.Send(m.ID(), evB, primitives.NullValue()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("deferred event was never admitted")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "sent-a" || order[1] != "a" {
		t.Errorf("expected deferred A to be admitted only after B's transition, got %v", order)
	}
}

// Scenario 3: push/pop event re-delivery.
func TestScenario_PushPopRedelivery(t *testing.T) {
	const evE primitives.EventIndex = 2
	const numEvents = 3

	var pushCount int
	var popCount int
	var mu sync.Mutex
	secondEntry := make(chan struct{})

	s0 := primitives.NewStateDecl("s0", numEvents)
	s0.Transitions[evE] = primitives.TransitionDecl{
		Target: 1,
		Kind:   primitives.Push,
		Fun: func(h primitives.Handle, _ primitives.Value) {
			mu.Lock()
			pushCount++
			mu.Unlock()
		},
	}

	s1 := primitives.NewStateDecl("s1", numEvents)
	s1.Entry = func(h primitives.Handle, _ primitives.Value) {
		mu.Lock()
		popCount++
		n := popCount
		mu.Unlock()
		if n < 2 {
			h.Pop()
			return
		}
		close(secondEntry)
	}

	program := &primitives.Program{
		Events:   []primitives.EventDecl{{Name: "null"}, {Name: "halt"}, {Name: "e"}},
		Machines: []primitives.MachineDecl{{Name: "pusher", States: []primitives.StateDecl{s0, s1}}},
	}

	p := NewProcess(program)
	m, err := p.CreateMachine(0, primitives.NullValue())
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Send(m.ID(), evE, primitives.NullValue()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-secondEntry:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a second entry into s1 after the pop re-delivered E at s0")
	}

	mu.Lock()
	defer mu.Unlock()
	if pushCount != 2 {
		t.Errorf("expected E to trigger the s0->s1 push twice (initial + redelivery), got %d", pushCount)
	}
}

// Scenario 4: raise inside entry.
func TestScenario_RaiseInsideEntry(t *testing.T) {
	const evR primitives.EventIndex = 2
	const numEvents = 3

	exitRan := false
	done := make(chan struct{})

	s0 := primitives.NewStateDecl("s0", numEvents)
	s0.Entry = func(h primitives.Handle, _ primitives.Value) {
		h.Raise(evR, primitives.NullValue())
	}
	s0.Exit = func(h primitives.Handle, _ primitives.Value) {
		exitRan = true
	}
	s0.Transitions[evR] = primitives.TransitionDecl{Target: 1, Kind: primitives.Goto}

	s1 := primitives.NewStateDecl("s1", numEvents)
	s1.Entry = func(h primitives.Handle, _ primitives.Value) {
		close(done)
	}

	program := &primitives.Program{
		Events:   []primitives.EventDecl{{Name: "null"}, {Name: "halt"}, {Name: "r"}},
		Machines: []primitives.MachineDecl{{Name: "raiser", States: []primitives.StateDecl{s0, s1}}},
	}

	p := NewProcess(program)
	if _, err := p.CreateMachine(0, primitives.NullValue()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected s1 to be entered after the raised event drove the s0->s1 transition")
	}
	if !exitRan {
		t.Error("expected s0's exit function to run as part of the goto transition")
	}
}

// Scenario 5: halt.
func TestScenario_Halt(t *testing.T) {
	const numEvents = 2
	s0 := primitives.NewStateDecl("s0", numEvents)

	program := &primitives.Program{
		Events:   []primitives.EventDecl{{Name: "null"}, {Name: "halt"}},
		Machines: []primitives.MachineDecl{{Name: "m", States: []primitives.StateDecl{s0}}},
	}
	p := NewProcess(program)
	m, err := p.CreateMachine(0, primitives.NullValue())
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Send(m.ID(), primitives.HaltEvent, primitives.NullValue()); err != nil {
		t.Fatal(err)
	}

	waitFor(t, 2*time.Second, m.Halted)

	if err := p.Send(m.ID(), 1, primitives.NullValue()); err == nil {
		t.Error("expected Send to a halted machine to fail")
	}
}

// Scenario 6: transition overrides inherited action.
func TestScenario_TransitionOverridesInheritedAction(t *testing.T) {
	const evE primitives.EventIndex = 2
	const evPush primitives.EventIndex = 3
	const numEvents = 4

	actionFired := false
	transitionFired := make(chan struct{})

	s0 := primitives.NewStateDecl("s0", numEvents) // parent: installs an action on E
	s0.Actions[evE] = func(h primitives.Handle, _ primitives.Value) { actionFired = true }
	s0.Transitions[evPush] = primitives.TransitionDecl{Target: 1, Kind: primitives.Push}

	s1 := primitives.NewStateDecl("s1", numEvents) // child: transitions on E instead
	s1.Transitions[evE] = primitives.TransitionDecl{
		Target: 1,
		Kind:   primitives.Goto,
		Fun:    func(h primitives.Handle, _ primitives.Value) { close(transitionFired) },
	}

	program := &primitives.Program{
		Events:   []primitives.EventDecl{{Name: "null"}, {Name: "halt"}, {Name: "e"}, {Name: "push"}},
		Machines: []primitives.MachineDecl{{Name: "m", States: []primitives.StateDecl{s0, s1}}},
	}

	p := NewProcess(program)
	m, err := p.CreateMachine(0, primitives.NullValue())
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Send(m.ID(), evPush, primitives.NullValue()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 2*time.Second, func() bool { return m.QueueLen() == 0 })

	if err := p.Send(m.ID(), evE, primitives.NullValue()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-transitionFired:
	case <-time.After(2 * time.Second):
		t.Fatal("expected s1's own transition on E to fire")
	}
	if actionFired {
		t.Error("expected s0's inherited action on E to be overridden by s1's transition")
	}
}

// Boundary: max-instances bound produces QueueOverflow.
func TestBoundary_QueueOverflow(t *testing.T) {
	const evBounded primitives.EventIndex = 2
	const numEvents = 3

	eh := &collectingErrorHandler{}
	s0 := primitives.NewStateDecl("s0", numEvents)
	program := &primitives.Program{
		Events:   []primitives.EventDecl{{Name: "null"}, {Name: "halt"}, {Name: "bounded", MaxInstances: 1}},
		Machines: []primitives.MachineDecl{{Name: "m", States: []primitives.StateDecl{s0}}},
	}
	p := NewProcess(program, WithErrorHandler(eh))
	m, err := p.CreateMachine(0, primitives.NullValue())
	if err != nil {
		t.Fatal(err)
	}

	// s0 has no action or transition for evBounded, so a sent event may be
	// drained (and reported UnhandledEvent) before the next Send races it.
	// Burst several sends back-to-back; the bound must never be exceeded,
	// and at least one overflow is expected unless the dispatch goroutine
	// drains faster than the burst can land (tolerated, not required).
	var sawOverflow bool
	for i := 0; i < 5; i++ {
		if err := p.Send(m.ID(), evBounded, primitives.NullValue()); err != nil {
			sawOverflow = true
		}
	}
	if !sawOverflow {
		t.Skip("dispatch goroutine drained faster than the burst could overflow the bound; non-deterministic by design")
	}
}

// Boundary: pushing past the configured stack depth is fatal (StackOverflow).
func TestBoundary_StackOverflow(t *testing.T) {
	const evTick primitives.EventIndex = 2
	const numEvents = 3

	eh := &collectingErrorHandler{}
	s0 := primitives.NewStateDecl("s0", numEvents)
	s0.Transitions[evTick] = primitives.TransitionDecl{Target: 0, Kind: primitives.Push}

	program := &primitives.Program{
		Events:   []primitives.EventDecl{{Name: "null"}, {Name: "halt"}, {Name: "tick"}},
		Machines: []primitives.MachineDecl{{Name: "recurser", States: []primitives.StateDecl{s0}}},
	}

	p := NewProcess(program, WithErrorHandler(eh), WithMaxStackDepth(3))
	m, err := p.CreateMachine(0, primitives.NullValue())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		_ = p.Send(m.ID(), evTick, primitives.NullValue())
	}

	waitFor(t, 2*time.Second, m.Halted)

	found := false
	for _, f := range eh.snapshot() {
		if f.Status == primitives.StatusStackOverflow {
			found = true
		}
	}
	if !found {
		t.Error("expected a StackOverflow fault to be reported")
	}
}
