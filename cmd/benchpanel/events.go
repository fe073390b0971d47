package main

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// Input Events
// ============================================================================
// Pointer and reset events arrive from IPC, WebSocket clients and touch
// devices. They carry screen coordinates (pixels, y down); the panel maps
// them into each dial's frame.
// ============================================================================

// PointerPress starts a gesture. An empty Dial selects the dial under the
// pointer.
type PointerPress struct {
	Pointer int     `json:"pointer"`
	Dial    string  `json:"dial,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

func (PointerPress) eventMarker() {}

type PointerDrag struct {
	Pointer int     `json:"pointer"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

func (PointerDrag) eventMarker() {}

type PointerRelease struct {
	Pointer int     `json:"pointer"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

func (PointerRelease) eventMarker() {}

// PointerCancel abandons a gesture without a final sample.
type PointerCancel struct {
	Pointer int `json:"pointer"`
}

func (PointerCancel) eventMarker() {}

// ResetDial returns one dial to its initial position.
type ResetDial struct {
	Dial string `json:"dial"`
}

func (ResetDial) eventMarker() {}

// ResetPanel returns every dial to its initial position.
type ResetPanel struct{}

func (ResetPanel) eventMarker() {}

// pointerOf returns the pointer id of a pointer event.
func pointerOf(e Event) (int, bool) {
	switch ev := e.(type) {
	case PointerPress:
		return ev.Pointer, true
	case PointerDrag:
		return ev.Pointer, true
	case PointerRelease:
		return ev.Pointer, true
	case PointerCancel:
		return ev.Pointer, true
	}
	return 0, false
}

// withPointerOffset shifts the pointer id of pointer events by base so that
// several sources can share the panel without id collisions.
func withPointerOffset(e Event, base int) Event {
	switch ev := e.(type) {
	case PointerPress:
		ev.Pointer += base
		return ev
	case PointerDrag:
		ev.Pointer += base
		return ev
	case PointerRelease:
		ev.Pointer += base
		return ev
	case PointerCancel:
		ev.Pointer += base
		return ev
	default:
		return e
	}
}

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================

// EventEnvelope wraps an event with a type discriminator for JSON marshaling
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalEvent deserializes a JSON event envelope into a concrete Event
func UnmarshalEvent(data []byte) (Event, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "pointer_press":
		var e PointerPress
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal PointerPress: %w", err)
		}
		return e, nil

	case "pointer_drag":
		var e PointerDrag
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal PointerDrag: %w", err)
		}
		return e, nil

	case "pointer_release":
		var e PointerRelease
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal PointerRelease: %w", err)
		}
		return e, nil

	case "pointer_cancel":
		var e PointerCancel
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal PointerCancel: %w", err)
		}
		return e, nil

	case "reset_dial":
		var e ResetDial
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal ResetDial: %w", err)
		}
		if e.Dial == "" {
			return nil, fmt.Errorf("reset_dial: dial must not be empty")
		}
		return e, nil

	case "reset_panel":
		return ResetPanel{}, nil

	default:
		return nil, fmt.Errorf("unknown event type: %q", env.Type)
	}
}

// MarshalEvent serializes an Event into a JSON envelope with type discriminator
func MarshalEvent(e Event) ([]byte, error) {
	var env EventEnvelope

	var (
		payload any
		name    string
	)
	switch e := e.(type) {
	case PointerPress:
		env.Type, payload, name = "pointer_press", e, "PointerPress"
	case PointerDrag:
		env.Type, payload, name = "pointer_drag", e, "PointerDrag"
	case PointerRelease:
		env.Type, payload, name = "pointer_release", e, "PointerRelease"
	case PointerCancel:
		env.Type, payload, name = "pointer_cancel", e, "PointerCancel"
	case ResetDial:
		env.Type, payload, name = "reset_dial", e, "ResetDial"
	case ResetPanel:
		env.Type = "reset_panel"
	default:
		return nil, fmt.Errorf("unsupported event type: %T", e)
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", name, err)
		}
		env.Data = data
	}

	return json.Marshal(env)
}
