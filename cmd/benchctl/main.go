package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"net"
	"os"
	"strconv"
)

// ============================================================================
// benchctl - Command-line IPC Client
// ============================================================================
// This tool sends pointer and reset events to the benchpanel daemon via IPC.
//
// Usage:
//   benchctl press 100 60
//   benchctl drag 120 70
//   benchctl release 120 70
//   benchctl reset time_base
//   benchctl sweep 100 100 40 0 90
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/benchpanel.sock)
//   -pointer N      Pointer id, 0..499 (default: 0)
// ============================================================================

// Event types (duplicated from the daemon for a standalone binary)
type Event interface{}

type PointerPress struct {
	Pointer int     `json:"pointer"`
	Dial    string  `json:"dial,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type PointerDrag struct {
	Pointer int     `json:"pointer"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type PointerRelease struct {
	Pointer int     `json:"pointer"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type PointerCancel struct {
	Pointer int `json:"pointer"`
}

type ResetDial struct {
	Dial string `json:"dial"`
}

type ResetPanel struct{}

// EventEnvelope wraps events for JSON
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// IPCResponse represents the daemon's response
type IPCResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func main() {
	socketPath := flag.String("socket", "/tmp/benchpanel.sock", "Unix domain socket path")
	pointer := flag.Int("pointer", 0, "Pointer id (0..499)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	events, err := parseCommand(*pointer, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if err == errUsage {
			printUsage()
		}
		os.Exit(1)
	}
	if events == nil {
		printUsage()
		os.Exit(0)
	}

	if err := sendEvents(*socketPath, events); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("ok")
}

var errUsage = errors.New("invalid arguments")

// parseCommand turns command-line arguments into the events to send. A nil
// slice without error means help was requested.
func parseCommand(pointer int, args []string) ([]Event, error) {
	nums := func(want int) ([]float64, error) {
		if len(args)-1 < want {
			return nil, fmt.Errorf("%s requires %d numeric arguments", args[0], want)
		}
		out := make([]float64, want)
		for i := range out {
			v, err := strconv.ParseFloat(args[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q: %w", args[i+1], err)
			}
			out[i] = v
		}
		return out, nil
	}

	switch args[0] {
	case "press":
		xy, err := nums(2)
		if err != nil {
			return nil, err
		}
		ev := PointerPress{Pointer: pointer, X: xy[0], Y: xy[1]}
		if len(args) > 3 {
			ev.Dial = args[3]
		}
		return []Event{ev}, nil

	case "drag":
		xy, err := nums(2)
		if err != nil {
			return nil, err
		}
		return []Event{PointerDrag{Pointer: pointer, X: xy[0], Y: xy[1]}}, nil

	case "release":
		xy, err := nums(2)
		if err != nil {
			return nil, err
		}
		return []Event{PointerRelease{Pointer: pointer, X: xy[0], Y: xy[1]}}, nil

	case "cancel":
		return []Event{PointerCancel{Pointer: pointer}}, nil

	case "reset":
		if len(args) > 1 {
			return []Event{ResetDial{Dial: args[1]}}, nil
		}
		return []Event{ResetPanel{}}, nil

	case "sweep":
		v, err := nums(5)
		if err != nil {
			return nil, err
		}
		steps := 12
		if len(args) > 6 {
			n, err := strconv.Atoi(args[6])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid step count %q", args[6])
			}
			steps = n
		}
		return sweep(pointer, v[0], v[1], v[2], v[3], v[4], steps), nil

	case "help", "-h", "--help":
		return nil, nil

	default:
		return nil, errUsage
	}
}

// sweep builds a press on the dial face at angle from, drags to angle to in
// steps, and releases. Angles are degrees clockwise from 12 o'clock.
func sweep(pointer int, cx, cy, r, from, to float64, steps int) []Event {
	at := func(deg float64) (float64, float64) {
		a := deg * math.Pi / 180
		return cx + r*math.Sin(a), cy - r*math.Cos(a)
	}

	x, y := at(from)
	out := []Event{PointerPress{Pointer: pointer, X: x, Y: y}}
	for i := 1; i <= steps; i++ {
		x, y = at(from + (to-from)*float64(i)/float64(steps))
		out = append(out, PointerDrag{Pointer: pointer, X: x, Y: y})
	}
	return append(out, PointerRelease{Pointer: pointer, X: x, Y: y})
}

// sendEvents writes all events on one connection so that a gesture is
// delivered in order, and stops at the first daemon error.
func sendEvents(socketPath string, events []Event) error {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	decoder := json.NewDecoder(bufio.NewReader(conn))
	for _, ev := range events {
		data, err := marshalEvent(ev)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}

		// Line-delimited JSON
		if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
			return fmt.Errorf("send event: %w", err)
		}

		var response IPCResponse
		if err := decoder.Decode(&response); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if response.Status == "error" {
			return fmt.Errorf("daemon error: %s", response.Error)
		}
	}
	return nil
}

func marshalEvent(event Event) ([]byte, error) {
	var env EventEnvelope

	var payload any
	switch e := event.(type) {
	case PointerPress:
		env.Type, payload = "pointer_press", e
	case PointerDrag:
		env.Type, payload = "pointer_drag", e
	case PointerRelease:
		env.Type, payload = "pointer_release", e
	case PointerCancel:
		env.Type, payload = "pointer_cancel", e
	case ResetDial:
		env.Type, payload = "reset_dial", e
	case ResetPanel:
		env.Type = "reset_panel"
	default:
		return nil, fmt.Errorf("unknown event type: %T", event)
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", env.Type, err)
		}
		env.Data = data
	}

	return json.Marshal(env)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `benchctl - Drive the benchpanel daemon via IPC

Usage:
  benchctl [options] <command> [args]

Options:
  -socket PATH    Unix domain socket path (default: /tmp/benchpanel.sock)
  -pointer N      Pointer id, 0..499 (default: 0)

Commands:
  press X Y [DIAL]              Start a gesture at screen position X,Y
  drag X Y                      Move the pointer
  release X Y                   End the gesture
  cancel                        Abandon the gesture without a final sample
  reset [DIAL]                  Reset one dial, or the whole panel
  sweep CX CY R FROM TO [N]     Press on the face of the dial centred at
                                CX,CY at angle FROM, drag to TO in N steps
                                (default 12) and release
  help, -h, --help              Show this help message

Examples:
  benchctl press 100 60
  benchctl -pointer 2 sweep 100 100 40 0 270 24
  benchctl reset time_base
`)
}
