package kafkaevents

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/types"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu      sync.Mutex
	batches [][]kafka.Message
	err     error
	closed  bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, append([]kafka.Message(nil), msgs...))
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeWriter) messages() []kafka.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []kafka.Message
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

func event(name string, iter int64) types.RunEvent {
	return types.RunEvent{RunID: "run-1", Event: name, State: "streaming", Iteration: iter, Time: time.Unix(1700000000, 0)}
}

func TestPublishFlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisher(w, WithBatch(100, time.Hour))
	p.Start(context.Background())

	for i := int64(0); i < 3; i++ {
		if err := p.Publish(context.Background(), event(types.EventStateChange, i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}

	msgs := w.messages()
	if len(msgs) != 3 || p.Sent() != 3 {
		t.Fatalf("expected 3 messages, got %d (sent=%d)", len(msgs), p.Sent())
	}
	if !w.closed {
		t.Fatal("writer should be closed")
	}
	if string(msgs[0].Key) != "run-1" {
		t.Fatalf("unexpected key %q", msgs[0].Key)
	}
	var got types.RunEvent
	if err := json.Unmarshal(msgs[2].Value, &got); err != nil {
		t.Fatal(err)
	}
	if got.Iteration != 2 || got.Event != types.EventStateChange {
		t.Fatalf("unexpected payload %+v", got)
	}
	headers := map[string]string{}
	for _, h := range msgs[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["schema"] != SchemaID || headers["event"] != types.EventStateChange {
		t.Fatalf("unexpected headers %v", headers)
	}
	if err := p.Publish(context.Background(), event("x", 0)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestBatchFlushOnSize(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisher(w, WithBatch(2, time.Hour))
	p.Start(context.Background())
	defer p.Close()

	_ = p.Publish(context.Background(), event("a", 0))
	_ = p.Publish(context.Background(), event("b", 1))

	deadline := time.Now().Add(time.Second)
	for len(w.messages()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if len(w.messages()) != 2 {
		t.Fatalf("expected a size-triggered flush, got %d messages", len(w.messages()))
	}
}

func TestBufferFullDrops(t *testing.T) {
	p := NewPublisher(&fakeWriter{}, WithBufferSize(1))
	if err := p.Publish(context.Background(), event("a", 0)); err != nil {
		t.Fatal(err)
	}
	if err := p.Publish(context.Background(), event("b", 0)); !errors.Is(err, ErrBufferFull) {
		t.Fatalf("expected ErrBufferFull, got %v", err)
	}
	if p.Dropped() != 1 {
		t.Fatalf("expected 1 dropped, got %d", p.Dropped())
	}
}

func TestWriterFailureCountsDrops(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := NewPublisher(w, WithBatch(1, time.Hour))
	p.Start(context.Background())
	_ = p.Publish(context.Background(), event("a", 0))
	_ = p.Close()
	if p.Sent() != 0 || p.Dropped() != 1 {
		t.Fatalf("sent=%d dropped=%d", p.Sent(), p.Dropped())
	}
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter([]string{"localhost:9092"}, "wave-runs")
	if w.Topic != "wave-runs" {
		t.Fatalf("unexpected topic %q", w.Topic)
	}
	p := NewPublisher(w)
	if p.topic != "wave-runs" {
		t.Fatalf("publisher should pick up the writer topic, got %q", p.topic)
	}
}
