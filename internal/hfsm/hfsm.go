// Package hfsm implements the minimal hierarchical state machine and
// event-pipeline framework described in spec §4.6, restructured from the
// teacher toolchain's internal/runtime actor system: the same
// tagged-integer message-type convention (ActorSystem's reserved
// 0xFFFF0001-range SystemTerminated constant) becomes the reserved
// EventType ranges below, but the concurrency model is deliberately NOT
// carried over — this package is single-threaded and cooperative, never
// spawning a goroutine or taking a lock, per spec §5.
package hfsm

import (
	"fmt"
	"sync/atomic"
)

// EventType tags an Event. The low range is reserved for HFSM-lifecycle
// events common to every machine; higher ranges are reserved per domain
// so MQTT and RPC event types never collide with each other or with the
// lifecycle block.
type EventType uint32

const (
	EventNone EventType = iota
	EventEntry
	EventExit
	EventError
	EventTimeout
)

// MQTT transport event types, delivered to/from the (external) MQTT
// client adapter.
const (
	EventConnectRsp EventType = 0x1000 + iota
	EventSubAckRsp
	EventPubAckRsp
	EventPubRecvInd
	EventSubReq
	EventPubReq
)

// RPC command-server event types.
const (
	EventExecuteCommand EventType = 0x2000 + iota
	EventExecutionFinish
)

var eventNames = map[EventType]string{
	EventNone:            "NONE",
	EventEntry:           "ENTRY",
	EventExit:            "EXIT",
	EventError:           "ERROR",
	EventTimeout:         "TIMEOUT",
	EventConnectRsp:      "CONNECT_RSP",
	EventSubAckRsp:       "SUBACK_RSP",
	EventPubAckRsp:       "PUBACK_RSP",
	EventPubRecvInd:      "PUBRECV_IND",
	EventSubReq:          "SUB_REQ",
	EventPubReq:          "PUB_REQ",
	EventExecuteCommand:  "EXECUTE_COMMAND",
	EventExecutionFinish: "EXECUTION_FINISH",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EVENT(0x%x)", uint32(t))
}

// Event is the tagged union of event kinds the spec calls for: a type
// tag plus an opaque payload, matching spec §4.6's "tagged record with a
// type and an opaque data pointer" — Go's `any` stands in for the void*,
// with each EventType's Data documented alongside its producer (e.g.
// EventPubRecvInd's Data is an rpcserver.PubRecvData).
type Event struct {
	Type EventType
	Data any
}

// Result is what a State handler returns: whether it consumed the event
// itself, or wants it to bubble to the parent state.
type Result int

const (
	// Unhandled means the event should bubble to the state's parent.
	Unhandled Result = iota
	// Handled means the event was fully processed; dispatch stops here.
	Handled
)

func (r Result) String() string {
	if r == Handled {
		return "HANDLED"
	}
	return "UNHANDLED"
}

// Handler is a single state's event-processing function.
type Handler func(m *Machine, e Event) Result

// State is a named node in the hierarchy. Two States are the same state
// iff their Names are equal; Name therefore doubles as the state
// identity used for transition bookkeeping and as the trace hook's
// "state" argument.
type State struct {
	Name   string
	Handle Handler
}

// ParentOf is the static parent-lookup function every Machine is built
// with. It returns the parent of s and true, or the zero State and false
// when s is the root (root has no parent).
type ParentOf func(s State) (parent State, ok bool)

// Machine is one running HFSM instance: its current leaf state, the
// parent-lookup function, and an outbound event queue used by handlers
// that need to emit without re-entering Dispatch (spec §5: "outbound
// emission enqueues instead" of dispatching recursively).
type Machine struct {
	current     State
	parentOf    ParentOf
	dispatching bool
	outbound    []Event
}

// NewMachine constructs a Machine with the given parent-lookup function.
// Call Enter to move it into its initial state before dispatching any
// events.
func NewMachine(parentOf ParentOf) *Machine {
	return &Machine{parentOf: parentOf}
}

// Current returns the machine's current leaf state.
func (m *Machine) Current() State { return m.current }

// Enter runs Entry actions from the root down to initial and sets it as
// the current leaf. Call this exactly once, before any Dispatch.
func (m *Machine) Enter(initial State) {
	chain := m.ancestorChain(initial)
	for i := len(chain) - 1; i >= 0; i-- {
		chain[i].Handle(m, Event{Type: EventEntry})
	}
	m.current = initial
}

// Dispatch delivers e to the current leaf state, bubbling to successive
// parents until a handler returns Handled or the root returns Unhandled.
// Dispatch is not re-entrant: calling it from within a running handler
// is a usage error and panics, matching spec §5's "dispatching a new
// event from within a handler is forbidden."
func (m *Machine) Dispatch(e Event) Result {
	if m.dispatching {
		panic("hfsm: Dispatch called re-entrantly; use Post to enqueue instead")
	}
	m.dispatching = true
	defer func() { m.dispatching = false }()

	s := m.current
	for {
		if hook := loadTrace(); hook != nil {
			hook(e, s.Name)
		}
		if s.Handle(m, e) == Handled {
			return Handled
		}
		parent, ok := m.parentOf(s)
		if !ok {
			return Unhandled
		}
		s = parent
	}
}

// TransitionTo runs Exit actions from the current leaf up to the lowest
// common ancestor with target, then Entry actions down from there to
// target, and makes target the new current leaf. Handlers call this
// directly (it is not a re-entrant Dispatch); it must only be called
// from within a Dispatch in progress or from Enter/test setup.
func (m *Machine) TransitionTo(target State) {
	curChain := m.ancestorChain(m.current)
	tgtChain := m.ancestorChain(target)
	lca, hasLCA := lowestCommonAncestor(curChain, tgtChain)

	for _, s := range curChain {
		if hasLCA && s.Name == lca.Name {
			break
		}
		s.Handle(m, Event{Type: EventExit})
	}

	var entryPath []State
	for _, s := range tgtChain {
		if hasLCA && s.Name == lca.Name {
			break
		}
		entryPath = append(entryPath, s)
	}
	for i := len(entryPath) - 1; i >= 0; i-- {
		entryPath[i].Handle(m, Event{Type: EventEntry})
	}

	m.current = target
}

// Post enqueues e on the machine's outbound queue rather than dispatching
// it immediately, the mechanism state handlers use to emit without
// re-entering Dispatch.
func (m *Machine) Post(e Event) {
	m.outbound = append(m.outbound, e)
}

// DrainOutbound returns and clears the events queued by Post since the
// last call.
func (m *Machine) DrainOutbound() []Event {
	out := m.outbound
	m.outbound = nil
	return out
}

// ancestorChain returns [s, parent(s), grandparent(s), ..., root].
func (m *Machine) ancestorChain(s State) []State {
	chain := []State{s}
	cur := s
	for {
		p, ok := m.parentOf(cur)
		if !ok {
			return chain
		}
		chain = append(chain, p)
		cur = p
	}
}

func lowestCommonAncestor(a, b []State) (State, bool) {
	inB := make(map[string]bool, len(b))
	for _, s := range b {
		inB[s.Name] = true
	}
	for _, s := range a {
		if inB[s.Name] {
			return s, true
		}
	}
	return State{}, false
}

// traceHook is the process-wide, atomically-swapped trace sink described
// in spec §9 ("Global, mutable logging state" -> "process-wide state
// object installed via an atomic swap"). It receives every event
// delivered to every state during Dispatch, the Go equivalent of the
// original's _az_LOG_WRITE call at the top of each state function.
var traceHook atomic.Pointer[func(Event, string)]

// SetTraceHook installs (or, with nil, removes) a process-wide hook
// invoked once per state visited during Dispatch. It is safe to call
// concurrently with running machines; the swap is lock-free.
func SetTraceHook(hook func(e Event, state string)) {
	if hook == nil {
		traceHook.Store(nil)
		return
	}
	traceHook.Store(&hook)
}

func loadTrace() func(Event, string) {
	p := traceHook.Load()
	if p == nil {
		return nil
	}
	return *p
}
