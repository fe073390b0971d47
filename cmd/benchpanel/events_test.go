package main

import (
	"strings"
	"testing"
)

func TestEventCodec_RoundTrip(t *testing.T) {
	cases := []Event{
		PointerPress{Pointer: 3, Dial: "amp", X: 10.5, Y: 20},
		PointerPress{Pointer: 0, X: 1, Y: 2},
		PointerDrag{Pointer: 3, X: 11, Y: 21},
		PointerRelease{Pointer: 3, X: 12, Y: 22},
		PointerCancel{Pointer: 3},
		ResetDial{Dial: "time_base"},
		ResetPanel{},
	}
	for _, ev := range cases {
		data, err := MarshalEvent(ev)
		if err != nil {
			t.Fatalf("MarshalEvent(%T) failed: %v", ev, err)
		}
		got, err := UnmarshalEvent(data)
		if err != nil {
			t.Fatalf("UnmarshalEvent(%s) failed: %v", data, err)
		}
		if got != ev {
			t.Errorf("expected %#v, got %#v", ev, got)
		}
	}
}

func TestUnmarshalEvent_Wire(t *testing.T) {
	ev, err := UnmarshalEvent([]byte(`{"type":"pointer_press","data":{"pointer":2,"x":100,"y":60}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := ev.(PointerPress)
	if !ok || p.Pointer != 2 || p.X != 100 || p.Y != 60 || p.Dial != "" {
		t.Fatalf("unexpected event: %#v", ev)
	}

	if ev, err := UnmarshalEvent([]byte(`{"type":"reset_panel"}`)); err != nil || ev != (ResetPanel{}) {
		t.Fatalf("expected ResetPanel, got %#v (%v)", ev, err)
	}
}

func TestUnmarshalEvent_Errors(t *testing.T) {
	cases := map[string]string{
		`not json`:                                   "unmarshal envelope",
		`{"type":"volume_step","data":{}}`:           "unknown event type",
		`{"type":"reset_dial","data":{}}`:            "dial must not be empty",
		`{"type":"pointer_drag","data":{"x":"a"}}`:   "unmarshal PointerDrag",
		`{"type":"pointer_press","data":[1,2]}`:      "unmarshal PointerPress",
		`{"type":"pointer_cancel","data":"oops"}`:    "unmarshal PointerCancel",
		`{"type":"pointer_release","data":{"y":{}}}`: "unmarshal PointerRelease",
	}
	for in, want := range cases {
		_, err := UnmarshalEvent([]byte(in))
		if err == nil {
			t.Errorf("%s: expected error", in)
			continue
		}
		if !strings.Contains(err.Error(), want) {
			t.Errorf("%s: expected error containing %q, got %v", in, want, err)
		}
	}
}

func TestMarshalEvent_Unsupported(t *testing.T) {
	if _, err := MarshalEvent(Tick{}); err == nil {
		t.Fatalf("expected error for internal event")
	}
}

func TestWithPointerOffset(t *testing.T) {
	ev := withPointerOffset(PointerDrag{Pointer: 2, X: 1}, 3000)
	if d, ok := ev.(PointerDrag); !ok || d.Pointer != 3002 || d.X != 1 {
		t.Fatalf("unexpected event: %#v", ev)
	}
	if ev := withPointerOffset(ResetDial{Dial: "a"}, 3000); ev != (ResetDial{Dial: "a"}) {
		t.Fatalf("expected non-pointer event to pass through, got %#v", ev)
	}
	if p, ok := pointerOf(PointerCancel{Pointer: 9}); !ok || p != 9 {
		t.Fatalf("expected pointer 9, got %d %v", p, ok)
	}
	if _, ok := pointerOf(ResetPanel{}); ok {
		t.Fatalf("expected no pointer for ResetPanel")
	}
}

func TestValidateIPCEvent(t *testing.T) {
	if err := validateIPCEvent(PointerPress{Pointer: touchPointerBase - 1}); err != nil {
		t.Errorf("expected pointer below touch range to be accepted: %v", err)
	}
	if err := validateIPCEvent(PointerPress{Pointer: touchPointerBase}); err == nil {
		t.Errorf("expected touch-range pointer to be rejected")
	}
	if err := validateIPCEvent(PointerDrag{Pointer: -1}); err == nil {
		t.Errorf("expected negative pointer to be rejected")
	}
	if err := validateIPCEvent(ResetPanel{}); err != nil {
		t.Errorf("expected reset to be accepted: %v", err)
	}
}
