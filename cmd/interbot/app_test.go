package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"interbot/pkg/config"
)

// constructorLog records which constructors fx ran while building the graph.
type constructorLog struct {
	mu    sync.Mutex
	names []string
	errs  []error
}

func (l *constructorLog) LogEvent(event fxevent.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch e := event.(type) {
	case *fxevent.Run:
		l.names = append(l.names, e.Name)
		if e.Err != nil {
			l.errs = append(l.errs, e.Err)
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			l.errs = append(l.errs, e.Err)
		}
	}
}

func (l *constructorLog) ran(fn string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, name := range l.names {
		if strings.Contains(name, fn) {
			return true
		}
	}
	return false
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Discord.Token = "test-token"
	cfg.Discord.SyncCommands = false
	cfg.Logger.OutputPath = filepath.Join(dir, "interbot.log")
	cfg.State.FilePath = filepath.Join(dir, "state.json")
	cfg.Status.Enabled = false
	cfg.Telemetry.Enabled = false

	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewApp_ConstructsGatewayAndDispatcher(t *testing.T) {
	original := configPath
	t.Cleanup(func() { configPath = original })
	configPath = ""
	t.Setenv(config.ConfigPathEnv, writeTestConfig(t))

	events := &constructorLog{}
	app := newApp(fx.WithLogger(func() fxevent.Logger { return events }))
	if err := app.Err(); err != nil {
		t.Fatalf("building app: %v", err)
	}
	if len(events.errs) > 0 {
		t.Fatalf("constructor errors: %v", events.errs)
	}

	for _, fn := range []string{
		"gateway.ProvideGateway",
		"slash.ProvideDispatcher",
		"workers.ProvidePool",
		"slash.ProvideRegistry",
	} {
		if !events.ran(fn) {
			t.Fatalf("expected %s to run while building the app", fn)
		}
	}
}
