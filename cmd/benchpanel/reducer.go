package main

import (
	"errors"
	"fmt"
	"time"

	"opticsbench/panel"
)

// This file implements the reducer-style architecture building blocks:
//
//   - Events: inputs to the reducer (pointer gestures, resets, ticks, reloads)
//   - Commands: side effects requested by the reducer (snapshot delivery)
//   - Broadcasts: state changes published to WebSocket clients
//   - Reduce(): routes events into the panel and collects its changes,
//     without performing I/O
//
// The daemon loop is the only goroutine that touches DaemonState.

// ==============================
// Events
// ==============================

// Event is the input to the reducer.
type Event interface {
	eventMarker()
}

// TimedEvent stamps a payload event with its arrival time. The daemon loop
// wraps every external event so payload types stay clean.
type TimedEvent struct {
	Event Event
	At    time.Time
}

func (TimedEvent) eventMarker() {}

// Tick is emitted by the daemon loop at a fixed cadence and expires idle
// gestures.
type Tick struct {
	Now time.Time
}

func (Tick) eventMarker() {}

// PanelReloaded carries a validated panel configuration from the watcher.
type PanelReloaded struct {
	Config panel.Config
}

func (PanelReloaded) eventMarker() {}

// RequestStateSnapshot asks the daemon loop for a coherent copy of the
// panel state. The snapshot is delivered on Reply by the effects stage.
type RequestStateSnapshot struct {
	Reply chan<- StateSnapshot
}

func (RequestStateSnapshot) eventMarker() {}

// CommandFailed is emitted when executing a Command fails.
type CommandFailed struct {
	Command Command
	Err     error
	At      time.Time
}

func (CommandFailed) eventMarker() {}

// ==============================
// Commands (side effects)
// ==============================

// Command represents a side effect to be executed by the daemon loop.
type Command interface {
	commandMarker()
	String() string
}

// CmdPublishStateSnapshot delivers a snapshot to a waiting requester.
type CmdPublishStateSnapshot struct {
	Reply    chan<- StateSnapshot
	Snapshot StateSnapshot
}

func (CmdPublishStateSnapshot) commandMarker() {}
func (c CmdPublishStateSnapshot) String() string {
	return fmt.Sprintf("CmdPublishStateSnapshot(dials=%d)", len(c.Snapshot.Dials))
}

// ==============================
// Broadcasts
// ==============================

// StateBroadcast is a reducer-emitted change for WebSocket clients.
type StateBroadcast interface {
	broadcastMarker()
}

type BroadcastDialValue struct {
	Change panel.ValueChange
	At     time.Time
}

func (BroadcastDialValue) broadcastMarker() {}

type BroadcastDialIndicator struct {
	Change panel.IndicatorChange
	At     time.Time
}

func (BroadcastDialIndicator) broadcastMarker() {}

// BroadcastDialGrabbed reports that a pointer captured a dial.
type BroadcastDialGrabbed struct {
	Dial    string
	Pointer int
	At      time.Time
}

func (BroadcastDialGrabbed) broadcastMarker() {}

// BroadcastDialReleased reports the end of a gesture. Cancelled is set when
// the gesture ended without a final sample.
type BroadcastDialReleased struct {
	Dial      string
	Pointer   int
	Cancelled bool
	At        time.Time
}

func (BroadcastDialReleased) broadcastMarker() {}

// BroadcastPointerRejected reports a press that did not capture a dial.
type BroadcastPointerRejected struct {
	Pointer int
	Dial    string
	Reason  string
	At      time.Time
}

func (BroadcastPointerRejected) broadcastMarker() {}

// BroadcastPanelReset precedes the value updates of a reset. An empty Dial
// means every dial.
type BroadcastPanelReset struct {
	Dial string
	At   time.Time
}

func (BroadcastPanelReset) broadcastMarker() {}

// BroadcastPanelReloaded carries the full state after a configuration
// reload; clients should treat it like state_init.
type BroadcastPanelReloaded struct {
	Snapshot StateSnapshot
}

func (BroadcastPanelReloaded) broadcastMarker() {}

// errMissedIndicator is reported when a press lands on a dial but too far
// from its indicator to grab it.
var errMissedIndicator = errors.New("press outside grab tolerance")

// ==============================
// Reducer input/output
// ==============================

// ReduceResult is the output of Reduce(): next state, Commands to execute
// and Broadcasts to publish, in the order the panel produced them.
type ReduceResult struct {
	State      *DaemonState
	Commands   []Command
	Broadcasts []StateBroadcast
}

// Reduce applies one event to the daemon state.
//
// Rules:
// - Must not perform I/O
// - Must not block
// - Panel hooks fired while handling e become Broadcasts of this result
func Reduce(s *DaemonState, e Event) ReduceResult {
	if s == nil || s.Panel == nil {
		return ReduceResult{State: s}
	}

	at := s.now
	if te, ok := e.(TimedEvent); ok {
		at = te.At
		e = te.Event
	}
	s.now = at

	var cmds []Command

	switch ev := e.(type) {
	case PointerPress:
		name, armed, err := s.Panel.Press(ev.Pointer, ev.Dial, ev.X, ev.Y)
		switch {
		case err != nil:
			s.emit(BroadcastPointerRejected{Pointer: ev.Pointer, Dial: name, Reason: err.Error(), At: at})
		case !armed:
			s.emit(BroadcastPointerRejected{Pointer: ev.Pointer, Dial: name, Reason: errMissedIndicator.Error(), At: at})
		default:
			s.Gestures[ev.Pointer] = at
			s.emit(BroadcastDialGrabbed{Dial: name, Pointer: ev.Pointer, At: at})
		}

	case PointerDrag:
		if s.Panel.Drag(ev.Pointer, ev.X, ev.Y) {
			s.Gestures[ev.Pointer] = at
		}

	case PointerRelease:
		name, held := s.Panel.Captured(ev.Pointer)
		if !held {
			break
		}
		s.Panel.Release(ev.Pointer, ev.X, ev.Y)
		delete(s.Gestures, ev.Pointer)
		s.emit(BroadcastDialReleased{Dial: name, Pointer: ev.Pointer, At: at})

	case PointerCancel:
		s.cancelGesture(ev.Pointer, at)

	case Tick:
		if s.GestureTimeout <= 0 {
			break
		}
		for pointer, last := range s.Gestures {
			if ev.Now.Sub(last) > s.GestureTimeout {
				s.cancelGesture(pointer, ev.Now)
			}
		}

	case ResetDial:
		if _, ok := s.Panel.State(ev.Dial); !ok {
			s.emit(BroadcastPointerRejected{Pointer: -1, Dial: ev.Dial, Reason: panel.ErrUnknownDial.Error(), At: at})
			break
		}
		s.emit(BroadcastPanelReset{Dial: ev.Dial, At: at})
		s.cancelGesturesOn(ev.Dial, at)
		_ = s.Panel.Reset(ev.Dial)
		s.Resets++

	case ResetPanel:
		s.emit(BroadcastPanelReset{At: at})
		s.cancelGesturesOn("", at)
		s.Panel.ResetAll()
		s.Resets++

	case PanelReloaded:
		if err := s.loadPanel(ev.Config); err != nil {
			s.LastReloadError = err.Error()
			break
		}
		s.LastReloadError = ""
		s.emit(BroadcastPanelReloaded{Snapshot: s.Snapshot()})

	case RequestStateSnapshot:
		cmds = append(cmds, CmdPublishStateSnapshot{Reply: ev.Reply, Snapshot: s.Snapshot()})

	case CommandFailed:
		// Nothing to roll back; the effects stage already logged it.
		_ = ev

	default:
		// Unknown event type: no-op.
	}

	return ReduceResult{
		State:      s,
		Commands:   cmds,
		Broadcasts: s.drainBroadcasts(),
	}
}
