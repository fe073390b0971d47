package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ============================================================================
// State WebSocket: hub + per-client pumps + broadcaster
// ============================================================================
//
// This file implements:
//   - A Hub that tracks connected WebSocket clients
//   - Per-client write pumps so one slow client doesn't block others
//   - Per-client read pumps that turn client pointer messages into Events
//   - A broadcaster loop that reads reducer-emitted state broadcasts and fans out
//
// Design constraints:
//   - DaemonState remains daemon-owned; never expose *DaemonState to other goroutines.
//   - Initial state snapshot on connect goes through the event loop.
//   - Slow clients are disconnected when their send buffer fills.
//   - A client that disconnects mid-gesture has its pointers cancelled.
//
// Messages are JSON text frames with an envelope: {type, ts, data}.
// The initial message on connect is "state_init" with StateSnapshot in data.
//
// ============================================================================

type wsDialGrabbedData struct {
	Dial    string `json:"dial"`
	Pointer int    `json:"pointer"`
}

type wsDialReleasedData struct {
	Dial      string `json:"dial"`
	Pointer   int    `json:"pointer"`
	Cancelled bool   `json:"cancelled"`
}

type wsPointerRejectedData struct {
	Pointer int    `json:"pointer"`
	Dial    string `json:"dial,omitempty"`
	Reason  string `json:"reason"`
}

type wsPanelResetData struct {
	Dial string `json:"dial,omitempty"`
}

type wsErrorData struct {
	Error string `json:"error"`
}

// wsOutboundEvent is a pre-typed, externally-consumable state event.
type wsOutboundEvent struct {
	Type string
	Data any
	At   time.Time // zero means "use now"

	// key identifies the coalescing slot; empty means "send immediately".
	key string
}

// envelope is the wire format envelope for WS messages.
type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

func marshalEnvelope(typ string, at time.Time, data any) ([]byte, error) {
	if at.IsZero() {
		at = time.Now()
	}
	ts := at.UTC()
	return json.Marshal(envelope{Type: typ, Ts: &ts, Data: data})
}

// ============================================================================
// Hub
// ============================================================================

type Hub struct {
	logger *slog.Logger

	// Buffered broadcast channel for already-serialized JSON frames.
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.Mutex
	clients map[*Client]struct{}

	nextID  atomic.Int64
	sendBuf int
}

type HubConfig struct {
	// SendBuf is the per-client outbound queue size.
	SendBuf int

	// BroadcastBuf is the hub inbound broadcast queue size.
	BroadcastBuf int
}

// NewHub constructs a hub. Call Run(ctx) to start it.
func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	sendBuf := cfg.SendBuf
	if sendBuf <= 0 {
		sendBuf = 64
	}
	bcastBuf := cfg.BroadcastBuf
	if bcastBuf <= 0 {
		bcastBuf = 256
	}

	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, bcastBuf),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		clients:    make(map[*Client]struct{}),
		sendBuf:    sendBuf,
	}
}

// Run processes hub events until ctx is canceled.
// It disconnects all clients on shutdown.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("ws hub starting")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("ws hub stopping (context canceled)")
			h.closeAllClients()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered", "remote_addr", c.remoteAddr, "client_id", c.id, "clients", n)

		case c := <-h.unregister:
			h.removeClient(c, "unregister")

		case msg := <-h.broadcast:
			// Collect slow clients first, then remove them after we unlock.
			var slow []*Client

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.removeClient(c, "slow_client")
			}
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		safeCloseChan(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) removeClient(c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		// Closing send signals writePump to exit.
		safeCloseChan(c.send)

		h.logger.Info("ws client disconnected", "remote_addr", c.remoteAddr, "client_id", c.id, "reason", reason, "clients", n)
	}
}

func safeCloseChan(ch chan []byte) {
	defer func() {
		_ = recover() // ignore "close of closed channel"
	}()
	close(ch)
}

// BroadcastBytes enqueues a pre-serialized JSON WS frame for broadcast.
// It never blocks; if the hub queue is full it drops the message.
func (h *Hub) BroadcastBytes(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws hub broadcast queue full, dropping message", "bytes", len(msg))
	}
}

// ============================================================================
// Client
// ============================================================================

type Client struct {
	hub *Hub
	id  int

	conn *websocket.Conn
	send chan []byte

	// events receives pointer events read from the client; nil makes the
	// client read-only.
	events chan<- Event

	// active holds client-local pointer ids with a gesture in progress.
	// Only readPump touches it.
	active map[int]struct{}

	remoteAddr string
	logger     *slog.Logger
}

// NewClient creates a client with a buffered send channel and a fresh id.
func NewClient(hub *Hub, conn *websocket.Conn, events chan<- Event, remoteAddr string, logger *slog.Logger) *Client {
	sendBuf := 64
	id := 1
	if hub != nil {
		if hub.sendBuf > 0 {
			sendBuf = hub.sendBuf
		}
		id = int(hub.nextID.Add(1))
	}
	return &Client{
		hub:        hub,
		id:         id,
		conn:       conn,
		send:       make(chan []byte, sendBuf),
		events:     events,
		active:     make(map[int]struct{}),
		remoteAddr: remoteAddr,
		logger:     logger,
	}
}

const (
	writeWait = 5 * time.Second

	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second

	// maxClientMessage bounds inbound client frames.
	maxClientMessage = 4096
)

// wsCoalesceWindow is the maximum time window during which bursty dial
// updates are coalesced (latest-wins per dial) before broadcasting.
const wsCoalesceWindow = 50 * time.Millisecond

// closeStatus extracts a human-readable websocket close code / text when possible.
func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

// writePump writes messages from the send queue to the websocket.
// It exits on write error or when send is closed.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	logExit := func(what string, err error) {
		if errors.Is(err, websocket.ErrCloseSent) {
			return
		}
		if code, text, ok := closeStatus(err); ok {
			c.logger.Info("ws writePump exiting (close)", "remote_addr", c.remoteAddr, "code", code, "reason", text)
			return
		}
		c.logger.Info("ws writePump exiting ("+what+" error)", "remote_addr", c.remoteAddr, "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed: hub is disconnecting us.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logExit("write", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logExit("ping", err)
				return
			}
		}
	}
}

// readPump reads pointer messages from the client until the connection
// fails, then cancels the client's open gestures and unregisters it.
func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxClientMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	defer func() {
		c.cancelActive(ctx)
		if c.hub != nil {
			c.hub.unregister <- c
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				if code, text, ok := closeStatus(err); ok {
					c.logger.Info("ws readPump exiting (close)", "remote_addr", c.remoteAddr, "code", code, "reason", text)
				} else {
					c.logger.Info("ws readPump exiting (read error)", "remote_addr", c.remoteAddr, "error", err)
				}
			}
			return
		}

		if err := c.handleMessage(data); err != nil {
			c.logger.Debug("ws client message rejected", "client_id", c.id, "error", err)
			c.reply("error", wsErrorData{Error: err.Error()})
		}
	}
}

// handleMessage decodes one client frame and forwards it to the daemon with
// the client's pointer ids moved into its own block.
func (c *Client) handleMessage(data []byte) error {
	if c.events == nil {
		return errors.New("client is read-only")
	}
	ev, err := UnmarshalEvent(data)
	if err != nil {
		return err
	}

	local, isPointer := pointerOf(ev)
	if isPointer {
		if local < 0 || local >= wsPointerStride {
			return fmt.Errorf("pointer %d out of range [0,%d)", local, wsPointerStride)
		}
		ev = withPointerOffset(ev, c.id*wsPointerStride)
	}

	select {
	case c.events <- ev:
	default:
		return errors.New("event queue full")
	}

	switch ev.(type) {
	case PointerPress:
		c.active[local] = struct{}{}
	case PointerRelease, PointerCancel:
		delete(c.active, local)
	}
	return nil
}

// cancelActive abandons the gestures the client left open.
func (c *Client) cancelActive(ctx context.Context) {
	if c.events == nil {
		return
	}
	for local := range c.active {
		ev := PointerCancel{Pointer: c.id*wsPointerStride + local}
		select {
		case c.events <- ev:
		case <-ctx.Done():
			return
		case <-time.After(writeWait):
			c.logger.Warn("ws could not cancel pointer", "client_id", c.id, "pointer", ev.Pointer)
		}
		delete(c.active, local)
	}
}

// reply queues a message for this client only.
func (c *Client) reply(typ string, data any) {
	msg, err := marshalEnvelope(typ, time.Time{}, data)
	if err != nil {
		return
	}
	defer func() { _ = recover() }() // send may already be closed by the hub
	select {
	case c.send <- msg:
	default:
	}
}

// ============================================================================
// HTTP Handler
// ============================================================================

type Server struct {
	logger *slog.Logger

	hub *Hub

	// Required for the initial snapshot and for client pointer events.
	events chan<- Event

	readOnly bool
}

type ServerConfig struct {
	Hub HubConfig

	// ReadOnly disables pointer input from WebSocket clients.
	ReadOnly bool
}

// NewServer constructs the WS state server components. Call Register on a mux,
// start hub.Run(ctx), and start the broadcaster loop.
func NewServer(logger *slog.Logger, events chan<- Event, cfg ServerConfig) *Server {
	return &Server{
		logger:   logger,
		hub:      NewHub(logger, cfg.Hub),
		events:   events,
		readOnly: cfg.ReadOnly,
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// Register registers the WS handler on the provided mux.
func (s *Server) Register(mux *http.ServeMux, path string) {
	if mux == nil {
		return
	}
	mux.HandleFunc(path, s.handleStateWS)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStateWS upgrades and registers a client, then sends state_init.
func (s *Server) handleStateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	input := s.events
	if s.readOnly {
		input = nil
	}
	client := NewClient(s.hub, conn, input, r.RemoteAddr, s.logger)

	// Register client first so broadcasts can reach it.
	s.hub.register <- client

	// Do not tie the pumps to the HTTP request context: net/http cancels it
	// when the handler returns. The hub and the socket errors end them.
	go client.writePump(context.Background())
	go client.readPump(context.Background())

	snap, err := requestSnapshot(r.Context(), s.events)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("ws snapshot request failed", "error", err)
		}
		return
	}

	initMsg, err := marshalEnvelope("state_init", time.Now(), snap)
	if err != nil {
		s.logger.Warn("ws state_init marshal failed", "error", err)
		return
	}
	select {
	case client.send <- initMsg:
		client.reply("client_hello", struct {
			ClientID    int `json:"client_id"`
			PointerBase int `json:"pointer_base"`
		}{client.id, client.id * wsPointerStride})
	default:
		s.hub.unregister <- client
	}
}

// requestSnapshot asks the daemon loop for a snapshot and waits up to one
// second unless ctx carries its own deadline.
func requestSnapshot(ctx context.Context, events chan<- Event) (StateSnapshot, error) {
	if events == nil {
		return StateSnapshot{}, errors.New("no event channel")
	}
	reply := make(chan StateSnapshot, 1)

	if _, has := ctx.Deadline(); !has {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 1*time.Second)
		defer cancel()
	}

	select {
	case <-ctx.Done():
		return StateSnapshot{}, ctx.Err()
	case events <- RequestStateSnapshot{Reply: reply}:
	}

	select {
	case <-ctx.Done():
		return StateSnapshot{}, ctx.Err()
	case snap := <-reply:
		return snap, nil
	}
}

// ============================================================================
// Broadcaster
// ============================================================================

// RunBroadcaster reads reducer-emitted StateBroadcast events, marshals them,
// and broadcasts them to all hub clients. Intended to run as a single goroutine.
//
// Dial value and indicator updates are coalesced per dial (latest wins) and
// flushed at most once per wsCoalesceWindow. Any other event flushes the
// pending updates first so clients see changes in order.
func RunBroadcaster(ctx context.Context, hub *Hub, src <-chan StateBroadcast, logger *slog.Logger) {
	if hub == nil || src == nil {
		return
	}

	pending := make(map[string]wsOutboundEvent)
	var order []string

	var timer *time.Timer
	var timerCh <-chan time.Time

	emit := func(ev wsOutboundEvent) {
		msg, err := marshalEnvelope(ev.Type, ev.At, ev.Data)
		if err != nil {
			logger.Warn("ws broadcaster marshal failed", "error", err, "type", ev.Type)
			return
		}
		hub.BroadcastBytes(msg)
	}

	flushPending := func() {
		for _, k := range order {
			emit(pending[k])
		}
		clear(pending)
		order = order[:0]
	}

	stopTimer := func() {
		if timer != nil && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer = nil
		timerCh = nil
	}

	startTimerIfNeeded := func() {
		if timer != nil {
			return
		}
		timer = time.NewTimer(wsCoalesceWindow)
		timerCh = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			flushPending()
			stopTimer()
			return

		case <-timerCh:
			timer = nil
			timerCh = nil
			if len(order) > 0 {
				flushPending()
				// Keep the cadence while updates keep arriving.
				startTimerIfNeeded()
			}

		case b, ok := <-src:
			if !ok {
				flushPending()
				stopTimer()
				logger.Info("ws broadcaster stopping (source ended)")
				return
			}

			ev, ok := convertBroadcast(b)
			if !ok {
				continue
			}

			if ev.key != "" {
				if _, seen := pending[ev.key]; !seen {
					order = append(order, ev.key)
				}
				pending[ev.key] = ev
				startTimerIfNeeded()
				continue
			}

			flushPending()
			stopTimer()
			emit(ev)
		}
	}
}

func convertBroadcast(b StateBroadcast) (wsOutboundEvent, bool) {
	switch ev := b.(type) {
	case BroadcastDialValue:
		return wsOutboundEvent{Type: "dial_value", Data: ev.Change, At: ev.At, key: "v/" + ev.Change.Dial}, true

	case BroadcastDialIndicator:
		return wsOutboundEvent{Type: "dial_indicator", Data: ev.Change, At: ev.At, key: "i/" + ev.Change.Dial}, true

	case BroadcastDialGrabbed:
		return wsOutboundEvent{Type: "dial_grabbed", Data: wsDialGrabbedData{Dial: ev.Dial, Pointer: ev.Pointer}, At: ev.At}, true

	case BroadcastDialReleased:
		return wsOutboundEvent{
			Type: "dial_released",
			Data: wsDialReleasedData{Dial: ev.Dial, Pointer: ev.Pointer, Cancelled: ev.Cancelled},
			At:   ev.At,
		}, true

	case BroadcastPointerRejected:
		return wsOutboundEvent{
			Type: "pointer_rejected",
			Data: wsPointerRejectedData{Pointer: ev.Pointer, Dial: ev.Dial, Reason: ev.Reason},
			At:   ev.At,
		}, true

	case BroadcastPanelReset:
		return wsOutboundEvent{Type: "panel_reset", Data: wsPanelResetData{Dial: ev.Dial}, At: ev.At}, true

	case BroadcastPanelReloaded:
		return wsOutboundEvent{Type: "panel_reloaded", Data: ev.Snapshot, At: ev.Snapshot.At}, true

	default:
		return wsOutboundEvent{}, false
	}
}

// broadcastType names a broadcast for logging.
func broadcastType(b StateBroadcast) string {
	if ev, ok := convertBroadcast(b); ok {
		return ev.Type
	}
	return fmt.Sprintf("%T", b)
}
