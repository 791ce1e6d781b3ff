package builder

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/limitstore"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
	"github.com/segmentio/kafka-go"
)

type memWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

func (w *memWriter) events(t *testing.T) []types.RunEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]types.RunEvent, 0, len(w.msgs))
	for _, m := range w.msgs {
		var ev types.RunEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			t.Fatal(err)
		}
		out = append(out, ev)
	}
	return out
}

func testConfig(t *testing.T) Config {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Grid.Step = 0.05
	cfg.Margin = 30 * time.Millisecond
	cfg.LimitTablePath = filepath.Join(dir, "limits.parquet")
	cfg.SettingsPath = DefaultSettingsPath(dir)
	cfg.Seed = 7
	cfg.LogLevel = "error"
	return cfg
}

func TestTankMakeAndStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Channel = "Dev2/ao1"
	w := &memWriter{}
	dev := NewSimulatedDevice("Dev2/ao0", "Dev2/ao1")

	tank, err := NewTank(context.Background(), cfg, dev, nil, TankWithEventWriter(w))
	if err != nil {
		t.Fatalf("NewTank: %v", err)
	}
	if tank.Table.Len() != 91 {
		t.Fatalf("expected 91 table rows, got %d", tank.Table.Len())
	}

	syn, err := tank.Make(context.Background(), NewRegularSpec(0.1, 0.5))
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if syn.Clamp == nil || syn.Clamp.Clamped {
		t.Fatalf("small regular wave should pass the envelope: %+v", syn.Clamp)
	}

	deadline := time.Now().Add(5 * time.Second)
	for tank.Scheduler.Iterations() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tank.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := tank.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	saved, err := tank.Settings.Load()
	if err != nil {
		t.Fatal(err)
	}
	if saved.Channel != "Dev2/ao1" {
		t.Fatalf("expected remembered channel, got %q", saved.Channel)
	}

	var states []string
	for _, ev := range w.events(t) {
		if ev.Event == types.EventStateChange {
			states = append(states, ev.State)
		}
	}
	if len(states) == 0 || states[len(states)-1] != "stopped" {
		t.Fatalf("expected state events ending in stopped, got %v", states)
	}

	// A second tank reuses the cached table and the remembered channel.
	cfg.Channel = ""
	again, err := NewTank(context.Background(), cfg, dev, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := again.Make(context.Background(), NewRegularSpec(0.1, 0.5)); err != nil {
		t.Fatal(err)
	}
	if got := again.Scheduler.Channel(); got != "Dev2/ao1" {
		t.Fatalf("expected remembered channel, got %q", got)
	}
	if err := again.Close(ctx); err != nil {
		t.Fatal(err)
	}
}

type failingStore struct{}

func (failingStore) Load(context.Context) (*LimitTable, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) Save(context.Context, *LimitTable) error { return nil }

func TestNewTankErrors(t *testing.T) {
	cfg := testConfig(t)
	if _, err := NewTank(context.Background(), cfg, nil, nil); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration without a device, got %v", err)
	}
	if _, err := NewTank(context.Background(), cfg, NewSimulatedDevice(), nil, TankWithLimitStore(failingStore{})); err == nil {
		t.Fatal("expected limit store error")
	}
	bad := cfg
	bad.Synth.ChunkSize = 0
	if _, err := NewTank(context.Background(), bad, NewSimulatedDevice(), nil); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for a bad synth config, got %v", err)
	}
}

func TestTankRejectsOversizedSea(t *testing.T) {
	cfg := testConfig(t)
	tank, err := NewTank(context.Background(), cfg, NewSimulatedDevice(), nil,
		TankWithLimitStore(limitstore.NewFileStore(cfg.LimitTablePath)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tank.Make(context.Background(), NewBretschneiderSpec(1.0, 2.0, 1.0)); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected stroke guard rejection, got %v", err)
	}
	if tank.Scheduler.IsStarted() {
		t.Fatal("scheduler must not start after a rejected synthesis")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MAKEWAVES_CHANNEL", "Dev1/ao1")
	t.Setenv("MAKEWAVES_MARGIN", "150ms")
	t.Setenv("MAKEWAVES_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("MAKEWAVES_DEPTH", "2.0")
	t.Setenv("MAKEWAVES_S3_ENDPOINT", "http://localhost:4566")

	c := LoadConfig()
	if c.Channel != "Dev1/ao1" || c.Margin != 150*time.Millisecond {
		t.Fatalf("unexpected config %+v", c)
	}
	if len(c.KafkaBrokers) != 2 {
		t.Fatalf("unexpected brokers %v", c.KafkaBrokers)
	}
	if c.Safety.Depth != 2.0 || c.Synth.Depth != 2.0 {
		t.Fatalf("depth not applied to both solver and synth: %g %g", c.Safety.Depth, c.Synth.Depth)
	}
	if !c.S3PathStyle {
		t.Fatal("a custom endpoint should default to path-style addressing")
	}
}

func TestNewS3ClientStatic(t *testing.T) {
	cli, err := NewS3ClientStatic(context.Background(), "us-east-1", "test", "test", "", "http://localhost:4566", true)
	if err != nil {
		t.Fatal(err)
	}
	opts := cli.Options()
	if !opts.UsePathStyle || opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://localhost:4566" {
		t.Fatalf("unexpected client options: path=%v endpoint=%v", opts.UsePathStyle, opts.BaseEndpoint)
	}
	if opts.Region != "us-east-1" {
		t.Fatalf("unexpected region %q", opts.Region)
	}
}
