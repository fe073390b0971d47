package main

import (
	"log/slog"
	"time"

	"opticsbench/panel"
)

// DaemonState is the top-level, daemon-owned state container.
//
// The panel is owned here and only touched by Reduce(); its hooks append to
// pending so that every change produced while reducing an event is returned
// as part of that event's ReduceResult.
type DaemonState struct {
	Panel *panel.Panel

	// Generation counts successful panel builds. Clients use it to notice
	// that a reload replaced the dial set.
	Generation int

	// Resets counts reset events that reached the panel.
	Resets int

	// LastReloadError holds the error of the most recent rejected reload.
	LastReloadError string

	// GestureTimeout cancels gestures whose pointer has been silent for
	// longer. Zero disables the timeout.
	GestureTimeout time.Duration

	// Gestures maps active pointers to the time of their last accepted event.
	Gestures map[int]time.Time

	pending []StateBroadcast
	now     time.Time
	logger  *slog.Logger
}

// StateSnapshot is a coherent copy of the daemon state for clients.
type StateSnapshot struct {
	Generation int               `json:"generation"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Dials      []panel.DialState `json:"dials"`
	Captures   map[int]string    `json:"captures"`
	Resets     int               `json:"resets"`
	ReloadErr  string            `json:"reload_error,omitempty"`
	At         time.Time         `json:"at"`

	// Config is kept for rendering and is not part of the JSON view.
	Config panel.Config `json:"-"`
}

func newDaemonState(cfg panel.Config, gestureTimeout time.Duration, logger *slog.Logger) (*DaemonState, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DaemonState{
		GestureTimeout: gestureTimeout,
		Gestures:       make(map[int]time.Time),
		logger:         logger,
	}
	if err := s.loadPanel(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// loadPanel replaces the panel. Active gestures belong to the old dial set
// and are dropped.
func (s *DaemonState) loadPanel(cfg panel.Config) error {
	p, err := panel.New(cfg, panel.Hooks{
		OnValue: func(c panel.ValueChange) {
			s.emit(BroadcastDialValue{Change: c, At: s.now})
		},
		OnIndicator: func(c panel.IndicatorChange) {
			s.emit(BroadcastDialIndicator{Change: c, At: s.now})
		},
	}, s.logger)
	if err != nil {
		s.logger.Warn("Panel configuration rejected", "error", err)
		return err
	}
	s.Panel = p
	s.Generation++
	clear(s.Gestures)
	s.logger.Info("Panel loaded", "generation", s.Generation, "dials", len(cfg.Dials))
	return nil
}

func (s *DaemonState) cancelGesture(pointer int, at time.Time) {
	delete(s.Gestures, pointer)
	name, held := s.Panel.Captured(pointer)
	if !held || !s.Panel.Cancel(pointer) {
		return
	}
	s.emit(BroadcastDialReleased{Dial: name, Pointer: pointer, Cancelled: true, At: at})
}

// cancelGesturesOn cancels the gestures holding dial, or every gesture when
// dial is empty. A reset must not be followed by drags that started before it.
func (s *DaemonState) cancelGesturesOn(dial string, at time.Time) {
	for pointer, name := range s.Panel.Captures() {
		if dial == "" || name == dial {
			s.cancelGesture(pointer, at)
		}
	}
}

func (s *DaemonState) emit(b StateBroadcast) {
	s.pending = append(s.pending, b)
}

func (s *DaemonState) drainBroadcasts() []StateBroadcast {
	out := s.pending
	s.pending = nil
	return out
}

// Snapshot returns a copy of the observable state.
func (s *DaemonState) Snapshot() StateSnapshot {
	cfg := s.Panel.Config()
	return StateSnapshot{
		Generation: s.Generation,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Dials:      s.Panel.Snapshot(),
		Captures:   s.Panel.Captures(),
		Resets:     s.Resets,
		ReloadErr:  s.LastReloadError,
		At:         s.now,
		Config:     cfg,
	}
}
