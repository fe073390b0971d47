package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("benchpanel v%s\n", version)
	fmt.Println("Optics bench instrument panel daemon")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  benchpanel [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Hosts the bench dials. Pointer gestures arrive from touchscreens,")
	fmt.Println("  WebSocket clients and the IPC socket; dial readings are published")
	fmt.Println("  over WebSocket and rendered at /panel.png.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        YAML config file (panel, http, ipc, input, watch, logging)")
	fmt.Println()
	fmt.Println("  -http-port int")
	fmt.Printf("        HTTP/WebSocket port, 0 disables (default %d)\n", defaultHTTPPort)
	fmt.Println()
	fmt.Println("  -read-only")
	fmt.Println("        Ignore pointer input from WebSocket clients")
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Printf("        Unix domain socket path for IPC (default %q)\n", defaultSocketPath)
	fmt.Println()
	fmt.Println("  -touch-device string")
	fmt.Println("        Comma-separated evdev touchscreen devices (e.g. /dev/input/event3)")
	fmt.Println()
	fmt.Println("  -gesture-timeout-ms int")
	fmt.Printf("        Cancel gestures silent for this long, 0 disables (default %d)\n", defaultGestureTimeoutMS)
	fmt.Println()
	fmt.Println("  -watch")
	fmt.Println("        Reload the panel section when the config file changes (default true)")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  benchpanel -config ~/.config/benchpanel.yaml")
	fmt.Println("  benchpanel -touch-device /dev/input/event3 -log-level debug")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Touch input requires read access to the device ('input' group)")
	fmt.Println()
}

func main() {
	var (
		configPath       = flag.String("config", "", "YAML config file")
		httpPort         = flag.Int("http-port", defaultHTTPPort, "HTTP/WebSocket port (0 disables)")
		readOnly         = flag.Bool("read-only", false, "Ignore pointer input from WebSocket clients")
		ipcSocketPath    = flag.String("ipc-socket", defaultSocketPath, "Unix domain socket path for IPC")
		touchDevices     = flag.String("touch-device", "", "Comma-separated evdev touchscreen devices")
		gestureTimeoutMS = flag.Int("gesture-timeout-ms", defaultGestureTimeoutMS, "Cancel gestures silent for this long (0 disables)")
		watch            = flag.Bool("watch", true, "Reload the panel when the config file changes")
		logLevelStr      = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		showVersion      = flag.Bool("version", false, "Print version and exit")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Only flags given on the command line override the file.
	var o FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "http-port":
			o.HTTPPort = httpPort
		case "read-only":
			o.HTTPReadOnly = readOnly
		case "ipc-socket":
			o.IPCSocketPath = ipcSocketPath
		case "touch-device":
			o.InputDevices = splitList(*touchDevices)
		case "gesture-timeout-ms":
			o.GestureTimeoutMS = gestureTimeoutMS
		case "watch":
			o.Watch = watch
		case "log-level":
			o.LogLevel = logLevelStr
		}
	})
	o.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logLevel, _ := parseLogLevel(cfg.Logging.Level)
	logger := setupLogger(logLevel)

	if err := run(cfg, *configPath, logger); err != nil {
		logger.Error("benchpanel stopped", "error", err)
		os.Exit(1)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func run(cfg Config, configPath string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state, err := newDaemonState(cfg.Panel, cfg.GestureTimeout(), logger)
	if err != nil {
		return fmt.Errorf("build panel: %w", err)
	}

	// Central event bus; every source feeds it, only runDaemon reads it.
	events := make(chan Event, 256)

	// Without HTTP nobody consumes broadcasts.
	var broadcasts chan StateBroadcast
	if cfg.HTTP.Port > 0 {
		broadcasts = make(chan StateBroadcast, 1024)
	}

	var wg sync.WaitGroup
	goFn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	goFn(func() { runDaemon(ctx, events, state, broadcasts, cfg.Input.TickHz, logger) })

	if cfg.HTTP.Port > 0 {
		ws := NewServer(logger, events, ServerConfig{ReadOnly: cfg.HTTP.ReadOnly})
		goFn(func() { ws.Hub().Run(ctx) })
		goFn(func() { RunBroadcaster(ctx, ws.Hub(), broadcasts, logger) })
		goFn(func() {
			if err := runHTTPServer(ctx, cfg.HTTP.Port, newHTTPMux(ws, events, logger), logger); err != nil {
				logger.Error("HTTP server error", "error", err)
				stop()
			}
		})
	}

	goFn(func() {
		if err := runIPCServer(ctx, cfg.IPC.SocketPath, events, logger); err != nil {
			logger.Error("IPC server error", "error", err)
			stop()
		}
	})

	if cfg.Watch.Enabled && configPath != "" {
		goFn(func() {
			if err := watchPanelConfig(ctx, ExpandPath(configPath), events, logger); err != nil {
				logger.Warn("config watcher disabled", "error", err)
			}
		})
	}

	logger.Info("listening",
		"http_port", cfg.HTTP.Port,
		"ipc", cfg.IPC.SocketPath,
		"touch_devices", len(cfg.Input.Devices),
		"dials", len(cfg.Panel.Dials))

	var runErr error
	if len(cfg.Input.Devices) > 0 {
		runErr = runTouchInput(ctx, cfg, events, logger)
	} else {
		<-ctx.Done()
	}

	stop()
	wg.Wait()
	logger.Info("shut down")
	return runErr
}

// runTouchInput opens the touch devices and translates their frames into
// pointer events until ctx is canceled or a device fails.
func runTouchInput(ctx context.Context, cfg Config, events chan<- Event, logger *slog.Logger) error {
	files := make([]*os.File, 0, len(cfg.Input.Devices))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, dev := range cfg.Input.Devices {
		f, err := os.Open(dev)
		if err != nil {
			logger.Error("failed to open input device", "device", dev, "error", err, "tip", "run as root or add user to 'input' group")
			return fmt.Errorf("open %s: %w", dev, err)
		}
		files = append(files, f)
	}

	raw := make(chan deviceEvent, 64)
	readErr := make(chan error, len(files))
	go readDevices(files, raw, readErr)

	axisX, axisY := cfg.TouchAxes()
	tr := newTouchTranslator(axisX, axisY, cfg.Panel.Width, cfg.Panel.Height)

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			return fmt.Errorf("input reader stopped: %w", err)

		case ev := <-raw:
			pe, ok := tr.translate(ev)
			if !ok {
				continue
			}
			select {
			case events <- pe:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
