package simdevice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/simdevice"
	"github.com/joeydtaylor/makewaves/pkg/internal/types"
)

func openTask(t *testing.T, d *simdevice.Device) *simdevice.Task {
	t.Helper()
	task, err := d.Open(context.Background(), "Dev1/ao0", types.DefaultVoltageRange)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := task.ConfigureClock(1000, 200); err != nil {
		t.Fatalf("ConfigureClock: %v", err)
	}
	return task.(*simdevice.Task)
}

func TestEnumerateAndUnknownChannel(t *testing.T) {
	d := simdevice.New(simdevice.WithChannels("a", "b"))
	ch, err := d.EnumerateChannels(context.Background())
	if err != nil || len(ch) != 2 || ch[0] != "a" {
		t.Fatalf("EnumerateChannels = %v, %v", ch, err)
	}
	if _, err := d.Open(context.Background(), "c", types.DefaultVoltageRange); err == nil {
		t.Fatal("expected error for unknown channel")
	}
}

func TestBufferDrainsInRealTime(t *testing.T) {
	task := openTask(t, simdevice.New())
	if _, err := task.WriteChunk(make([]float64, 100)); err != nil {
		t.Fatal(err)
	}
	space, _ := task.AvailableWriteSpace()
	if space != 100 {
		t.Fatalf("space before start = %d, want 100", space)
	}
	if _, err := task.WriteChunk(make([]float64, 101)); !errors.Is(err, simdevice.ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}

	if err := task.Start(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	space, _ = task.AvailableWriteSpace()
	if space != 200 {
		t.Fatalf("buffer should have drained, space = %d", space)
	}
}

func TestUnderrunCounted(t *testing.T) {
	task := openTask(t, simdevice.New())
	_, _ = task.WriteChunk(make([]float64, 10))
	_ = task.Start()
	time.Sleep(50 * time.Millisecond)
	_, _ = task.WriteChunk(make([]float64, 10))
	if task.Underruns() != 1 {
		t.Fatalf("expected 1 underrun, got %d", task.Underruns())
	}
}

func TestRejectsOutOfRangeSamples(t *testing.T) {
	task := openTask(t, simdevice.New())
	if _, err := task.WriteChunk([]float64{0, 12}); err == nil {
		t.Fatal("expected range error")
	}
}

func TestFailureInjection(t *testing.T) {
	boom := errors.New("boom")
	d := simdevice.New(simdevice.FailOn(simdevice.OpWrite, 2, boom))
	task := openTask(t, d)
	if _, err := task.WriteChunk([]float64{0}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := task.WriteChunk([]float64{0}); !errors.Is(err, boom) {
		t.Fatalf("second write: expected injected error, got %v", err)
	}
	if _, err := task.WriteChunk([]float64{0}); err != nil {
		t.Fatalf("third write: %v", err)
	}
}

func TestClosedTask(t *testing.T) {
	task := openTask(t, simdevice.New())
	_ = task.Close()
	if _, err := task.WriteChunk([]float64{0}); !errors.Is(err, simdevice.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	_, _, closed := task.State()
	if !closed {
		t.Fatal("expected closed state")
	}
}
