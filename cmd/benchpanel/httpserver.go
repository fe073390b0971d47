package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"opticsbench/panel"
)

// ============================================================================
// HTTP Server
// ============================================================================
// Serves the state WebSocket and read-only views of the panel:
//   GET /ws         state stream (and pointer input unless read-only)
//   GET /state      StateSnapshot as JSON
//   GET /panel.png  rendered panel image
//   GET /healthz    liveness
// ============================================================================

func newHTTPMux(ws *Server, events chan<- Event, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	ws.Register(mux, "/ws")

	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := snapshotOrError(w, r, events, logger)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			logger.Warn("state encode failed", "error", err)
		}
	})

	mux.HandleFunc("/panel.png", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := snapshotOrError(w, r, events, logger)
		if !ok {
			return
		}
		// Render to a buffer so a drawing failure can still become a 500.
		var buf bytes.Buffer
		if err := panel.Render(&buf, snap.Config, snap.Dials); err != nil {
			logger.Warn("panel render failed", "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(buf.Bytes())
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return mux
}

func snapshotOrError(w http.ResponseWriter, r *http.Request, events chan<- Event, logger *slog.Logger) (StateSnapshot, bool) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return StateSnapshot{}, false
	}
	snap, err := requestSnapshot(r.Context(), events)
	if err != nil {
		logger.Warn("snapshot request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "daemon busy", http.StatusServiceUnavailable)
		return StateSnapshot{}, false
	}
	return snap, true
}

// runHTTPServer serves handler on port and shuts it down gracefully when ctx
// is canceled.
func runHTTPServer(ctx context.Context, port int, handler http.Handler, logger *slog.Logger) error {
	listenAddr := fmt.Sprintf(":%d", port)
	logger.Info("HTTP server listening", "port", port)

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		// ListenAndServe returns http.ErrServerClosed on Shutdown; treat that as clean exit.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		<-errCh
		return nil

	case err := <-errCh:
		return err
	}
}
