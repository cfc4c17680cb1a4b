package primitives

// Kind tags the dynamic type of a Value without requiring the caller to
// know the concrete Go type backing it.
type Kind uint8

const (
	KindNull Kind = iota
	KindEventID
	KindBool
	KindInt
	KindString
	KindAny
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindEventID:
		return "event"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindAny:
		return "any"
	default:
		return "unknown"
	}
}

// Cloneable is implemented by payload data that needs explicit duplication
// on re-delivery (push/pop replay) instead of a shallow Go copy.
type Cloneable interface {
	Clone() any
}

// Releaser is implemented by payload data holding a resource (a
// reference-counted buffer, a file handle) that must be released when the
// owning Value is discarded by the queue.
type Releaser interface {
	Release()
}

// Value is the dynamic value ADT the core consumes. The core never
// constructs anything beyond NullValue and EventIDValue itself; everything
// else arrives as a host-supplied payload via NewPayload and is only
// cloned, read, or freed.
//
// Value is a value type, not a pointer — Go's garbage collector owns the
// backing memory. Clone/Free exist to model the external ADT's
// construct/clone/free contract from the host's point of view (ref-count
// bookkeeping on Data, not Go memory management).
type Value struct {
	kind    Kind
	eventID EventIndex
	b       bool
	i       int64
	s       string
	data    any
}

// NullValue is the zero value: the distinguished "no payload" value.
func NullValue() Value { return Value{kind: KindNull} }

// EventIDValue constructs a value carrying an event index, used when a
// handler needs to pass an event identity as data (e.g. re-raising by id).
func EventIDValue(e EventIndex) Value { return Value{kind: KindEventID, eventID: e} }

func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// NewPayload wraps an arbitrary host value. If v implements Cloneable,
// Value.Clone() calls it instead of performing a shallow copy.
func NewPayload(v any) Value { return Value{kind: KindAny, data: v} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Bool() bool { return v.b }

func (v Value) Int() int64 { return v.i }

func (v Value) String() string { return v.s }

func (v Value) EventID() EventIndex { return v.eventID }

// Data returns the wrapped payload for a KindAny value.
func (v Value) Data() any { return v.data }

// Clone duplicates a Value for re-delivery: the runtime clones a payload
// only when duplicating it (re-delivery after push/pop), never when
// simply moving it through the queue.
func (v Value) Clone() Value {
	if v.kind == KindAny && v.data != nil {
		if c, ok := v.data.(Cloneable); ok {
			return Value{kind: KindAny, data: c.Clone()}
		}
	}
	return v
}

// Free releases any resource the payload holds. Called when the queue
// discards an event: unhandled, halt, or overflow.
func (v Value) Free() {
	if v.kind == KindAny && v.data != nil {
		if r, ok := v.data.(Releaser); ok {
			r.Release()
		}
	}
}
