package main

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseCommand(t *testing.T) {
	evs, err := parseCommand(4, []string{"press", "10", "20.5", "amp"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p, ok := evs[0].(PointerPress); len(evs) != 1 || !ok || p != (PointerPress{Pointer: 4, Dial: "amp", X: 10, Y: 20.5}) {
		t.Fatalf("unexpected events: %#v", evs)
	}

	if evs, _ := parseCommand(0, []string{"reset"}); evs[0] != (ResetPanel{}) {
		t.Fatalf("expected ResetPanel, got %#v", evs)
	}
	if evs, _ := parseCommand(0, []string{"reset", "div"}); evs[0] != (ResetDial{Dial: "div"}) {
		t.Fatalf("expected ResetDial, got %#v", evs)
	}

	for _, args := range [][]string{
		{"drag", "1"},
		{"release", "x", "1"},
		{"sweep", "1", "2", "3", "4", "5", "0"},
	} {
		if _, err := parseCommand(0, args); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
	if _, err := parseCommand(0, []string{"spin"}); err != errUsage {
		t.Errorf("expected errUsage, got %v", err)
	}
	if evs, err := parseCommand(0, []string{"help"}); evs != nil || err != nil {
		t.Errorf("expected help to return nothing, got %v %v", evs, err)
	}
}

func TestSweep(t *testing.T) {
	evs := sweep(1, 100, 100, 40, 0, 90, 3)
	if len(evs) != 5 {
		t.Fatalf("expected press, 3 drags and release, got %d events", len(evs))
	}
	p := evs[0].(PointerPress)
	if math.Abs(p.X-100) > 1e-9 || math.Abs(p.Y-60) > 1e-9 {
		t.Errorf("expected press at 12 o'clock (100,60), got (%v,%v)", p.X, p.Y)
	}
	r := evs[4].(PointerRelease)
	if math.Abs(r.X-140) > 1e-9 || math.Abs(r.Y-100) > 1e-9 {
		t.Errorf("expected release at 3 o'clock (140,100), got (%v,%v)", r.X, r.Y)
	}
}

func TestMarshalEvent(t *testing.T) {
	data, err := marshalEvent(PointerCancel{Pointer: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != "pointer_cancel" || string(env.Data) != `{"pointer":7}` {
		t.Errorf("unexpected envelope: %s", data)
	}

	data, _ = marshalEvent(ResetPanel{})
	if string(data) != `{"type":"reset_panel"}` {
		t.Errorf("unexpected reset envelope: %s", data)
	}
	if _, err := marshalEvent(struct{}{}); err == nil {
		t.Errorf("expected error for unknown event")
	}
}
