package main

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// deviceEvent tags an input event with the index of the device it came from.
type deviceEvent struct {
	Device int
	inputEvent
}

// decodeInputEvent parses one little-endian input_event record.
func decodeInputEvent(r *bytes.Reader, buf []byte) (inputEvent, error) {
	r.Reset(buf)
	var ev inputEvent
	err := binary.Read(r, binary.LittleEndian, &ev)
	return ev, err
}

// readInputEvents reads input events from a single device and sends them to a channel.
// This runs in a dedicated goroutine and blocks on read operations.
func readInputEvents(f *os.File, device int, events chan<- deviceEvent, readErr chan<- error) {
	buf := make([]byte, binary.Size(inputEvent{}))
	reader := bytes.NewReader(buf)

	for {
		if _, err := io.ReadFull(f, buf); err != nil {
			readErr <- err
			return
		}

		ev, err := decodeInputEvent(reader, buf)
		if err != nil {
			// Skip malformed events
			continue
		}

		events <- deviceEvent{Device: device, inputEvent: ev}
	}
}
