package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// ws_listen connects to the benchpanel state websocket and prints what the
// dials do. It is a debugging aid; it keeps no state beyond the last snapshot
// line it printed.

type envelope struct {
	Type string          `json:"type"`
	Ts   time.Time       `json:"ts"`
	Data json.RawMessage `json:"data"`
}

func main() {
	var (
		wsURL = flag.String("ws", "ws://127.0.0.1:8080/ws", "benchpanel websocket URL")
		raw   = flag.Bool("raw", false, "Print raw JSON frames")
		reset = flag.String("reset", "", "Send a reset for this dial after connecting ('*' resets the panel)")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected! (press Ctrl+C to exit)")

	// Mutex to protect concurrent writes to websocket
	var writeMu sync.Mutex

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	// The server pings every 20s; extend the deadline on those too.
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second))
	})

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	go func() {
		for range pingTicker.C {
			writeMu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				log.Printf("ping failed: %v", err)
				return
			}
		}
	}()

	if *reset != "" {
		sendReset(conn, &writeMu, *reset)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				return
			}

			switch messageType {
			case websocket.TextMessage:
				if *raw {
					fmt.Printf("%s\n", message)
					continue
				}
				handleTextMessage(message)
			case websocket.BinaryMessage:
				fmt.Printf("[BINARY] %d bytes\n", len(message))
			}
		}
	}()

	select {
	case <-sigc:
		log.Printf("shutting down...")
		writeMu.Lock()
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		if err != nil {
			log.Printf("error closing connection: %v", err)
		}
	case <-done:
		log.Printf("connection closed")
	}
}

// handleTextMessage prints one state frame as a single line.
func handleTextMessage(message []byte) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		fmt.Printf("[TEXT] %s\n", string(message))
		return
	}

	var data map[string]any
	_ = json.Unmarshal(env.Data, &data)
	ts := env.Ts.Local().Format("15:04:05.000")

	switch env.Type {
	case "state_init", "panel_reloaded":
		dials, _ := data["dials"].([]any)
		fmt.Printf("%s [%s] generation=%v dials=%d\n", ts, env.Type, data["generation"], len(dials))
		for _, d := range dials {
			if m, ok := d.(map[string]any); ok {
				fmt.Printf("    %-12v %v\n", m["name"], m["text"])
			}
		}

	case "dial_value":
		fmt.Printf("%s [VALUE] %v = %v (%v°)\n", ts, data["dial"], data["text"], data["degrees"])

	case "dial_indicator":
		fmt.Printf("%s [INDICATOR] %v at %.1f°\n", ts, data["dial"], data["angle"])

	case "dial_grabbed":
		fmt.Printf("%s [GRAB] %v by pointer %v\n", ts, data["dial"], data["pointer"])

	case "dial_released":
		how := "released"
		if c, _ := data["cancelled"].(bool); c {
			how = "cancelled"
		}
		fmt.Printf("%s [RELEASE] %v %s by pointer %v\n", ts, data["dial"], how, data["pointer"])

	case "pointer_rejected":
		fmt.Printf("%s [REJECT] pointer %v: %v\n", ts, data["pointer"], data["reason"])

	case "panel_reset":
		target := "panel"
		if d, ok := data["dial"].(string); ok && d != "" {
			target = d
		}
		fmt.Printf("%s [RESET] %s\n", ts, target)

	default:
		prettyJSON, _ := json.MarshalIndent(data, "", "  ")
		fmt.Printf("%s [%s]\n%s\n", ts, env.Type, string(prettyJSON))
	}
}

// sendReset asks the daemon to reset one dial, or the panel for "*".
func sendReset(conn *websocket.Conn, writeMu *sync.Mutex, dial string) {
	msg := map[string]any{"type": "reset_panel"}
	if dial != "*" {
		msg = map[string]any{"type": "reset_dial", "data": map[string]string{"dial": dial}}
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshaling reset: %v", err)
		return
	}

	writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, payload)
	writeMu.Unlock()

	if err != nil {
		log.Printf("error sending reset: %v", err)
	}
}
