package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gdamore/tcell/v2"

	"opticsbench/panel"
)

// benchtui runs the panel in a terminal. The mouse drives a single pointer;
// discrete dials click as they move between stops.

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file (panel section)")
		mute       = flag.Bool("mute", false, "Disable stop clicks")
		logPath    = flag.String("log", "", "Write debug log to this file")
	)
	flag.Parse()

	cfg := panel.DefaultConfig()
	if *configPath != "" {
		c, err := panel.LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		cfg = c
	}

	// The terminal is ours; log to a file or nowhere.
	var logOut io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var sound *clicker
	if !*mute {
		s, err := newClicker()
		if err != nil {
			// Non-fatal, the panel works without sound
			logger.Warn("Audio initialization failed", "error", err)
		} else {
			sound = s
			defer sound.close()
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	screen.EnableMouse()

	a, err := newApp(screen, cfg, sound, logger)
	if err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	a.run()
	screen.Fini()
}
