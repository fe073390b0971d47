package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const watchedPanel = `
panel:
  width: 400
  height: 200
  dials:
    - name: amp
      kind: continuous
      x: 100
      y: 100
      radius: 40
      range: [0, 50]
`

func TestWatchPanelConfig_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchpanel.yaml")
	if err := os.WriteFile(path, []byte(watchedPanel), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	events := make(chan Event, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchPanelConfig(ctx, path, events, testLogger()) }()
	defer func() {
		cancel()
		<-done
	}()

	// The watcher may not be registered yet; touch the file at intervals
	// longer than the debounce until a reload arrives.
	touch := time.NewTicker(3 * watchDebounce)
	defer touch.Stop()
	deadline := time.After(5 * time.Second)

	for reloaded := false; !reloaded; {
		select {
		case ev := <-events:
			r, ok := ev.(PanelReloaded)
			if !ok {
				t.Fatalf("expected PanelReloaded, got %#v", ev)
			}
			if len(r.Config.Dials) != 1 || r.Config.Dials[0].Name != "amp" {
				t.Fatalf("unexpected reloaded config: %+v", r.Config)
			}
			reloaded = true
		case <-touch.C:
			if err := os.WriteFile(path, []byte(watchedPanel), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
		case <-deadline:
			t.Fatalf("timeout waiting for reload")
		}
	}

	// An invalid file is logged and skipped; only earlier valid writes may
	// still be in flight.
	if err := os.WriteFile(path, []byte("panel:\n  dials: []\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	quiet := time.After(4 * watchDebounce)
	for {
		select {
		case ev := <-events:
			if r, ok := ev.(PanelReloaded); !ok || len(r.Config.Dials) == 0 {
				t.Fatalf("expected no reload for an invalid file, got %#v", ev)
			}
		case <-quiet:
			return
		}
	}
}
