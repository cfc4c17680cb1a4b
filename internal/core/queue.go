package core

import (
	"fmt"

	"github.com/comalice/statechartx/internal/primitives"
)

// defaultQueueCapacity is the initial ring buffer size (PRT_QUEUE_LEN_DEFAULT
// in the runtime this core is modeled on).
const defaultQueueCapacity = 64

type queueEntry struct {
	event   primitives.EventIndex
	payload primitives.Value
}

// eventQueue is a growable ring buffer of (event, payload) pairs, owned by
// exactly one MachineContext. It is not itself thread-safe; callers
// guard access with that context's mutex.
type eventQueue struct {
	entries []queueEntry
	head    int
	size    int
}

func newEventQueue(capacity int) *eventQueue {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &eventQueue{entries: make([]queueEntry, capacity)}
}

func (q *eventQueue) Len() int { return q.size }

// countInstances scans the current queue contents for occurrences of e.
func (q *eventQueue) countInstances(e primitives.EventIndex) int {
	n := 0
	cap := len(q.entries)
	for i := 0; i < q.size; i++ {
		if q.entries[(q.head+i)%cap].event == e {
			n++
		}
	}
	return n
}

// errQueueOverflow is returned when an event's max-instances bound is
// already met.
type errQueueOverflow struct {
	event primitives.EventIndex
}

func (e *errQueueOverflow) Error() string {
	return fmt.Sprintf("core: event %d exceeds its max-instances bound", e.event)
}

// enqueue appends (event, payload) at the tail, growing the buffer by
// doubling if full. If maxInstances is non-zero and already met, the
// payload is freed and errQueueOverflow is returned.
func (q *eventQueue) enqueue(e primitives.EventIndex, payload primitives.Value, maxInstances uint32) error {
	if maxInstances != 0 && uint32(q.countInstances(e)) >= maxInstances {
		payload.Free()
		return &errQueueOverflow{event: e}
	}
	if q.size == len(q.entries) {
		q.grow()
	}
	physical := (q.head + q.size) % len(q.entries)
	q.entries[physical] = queueEntry{event: e, payload: payload}
	q.size++
	return nil
}

// grow doubles capacity, copying the logical contents so head restarts at 0.
func (q *eventQueue) grow() {
	newCap := len(q.entries) * 2
	if newCap == 0 {
		newCap = defaultQueueCapacity
	}
	next := make([]queueEntry, newCap)
	for i := 0; i < q.size; i++ {
		next[i] = q.entries[(q.head+i)%len(q.entries)]
	}
	q.entries = next
	q.head = 0
}

// findDeliverable scans from head for the first event whose id is not a
// member of deferred, returning its logical offset from head. Deferred
// events are skipped in place, preserving FIFO order of the rest.
func (q *eventQueue) findDeliverable(deferred primitives.PackedSet) (int, bool) {
	cap := len(q.entries)
	for i := 0; i < q.size; i++ {
		if !deferred.Member(q.entries[(q.head+i)%cap].event) {
			return i, true
		}
	}
	return 0, false
}

// removeAt removes the entry at logical offset idx (relative to head) and
// shifts the tail region back by one, wrapping modulo capacity.
func (q *eventQueue) removeAt(idx int) (primitives.EventIndex, primitives.Value) {
	cap := len(q.entries)
	removed := q.entries[(q.head+idx)%cap]
	for j := idx; j < q.size-1; j++ {
		q.entries[(q.head+j)%cap] = q.entries[(q.head+j+1)%cap]
	}
	q.entries[(q.head+q.size-1)%cap] = queueEntry{}
	q.size--
	return removed.event, removed.payload
}

// drainFree discards and frees every remaining entry, used on halt.
func (q *eventQueue) drainFree() {
	for q.size > 0 {
		_, payload := q.removeAt(0)
		payload.Free()
	}
}
