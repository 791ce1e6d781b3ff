// Package kafkaevents publishes scheduler run events to a Kafka topic as
// JSON, batched off the streaming worker's path.
package kafkaevents

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeydtaylor/makewaves/pkg/internal/types"
	"github.com/segmentio/kafka-go"
)

// SchemaID is sent in the "schema" header of every message.
const SchemaID = "makewaves.run_event.v1"

// ErrBufferFull is returned by Publish when the queue is saturated. The
// event is dropped.
var ErrBufferFull = errors.New("kafkaevents: buffer full")

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("kafkaevents: publisher closed")

// MessageWriter is the subset of *kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements types.EventSink.
type Publisher struct {
	componentMetadata types.ComponentMetadata
	writer            MessageWriter
	topic             string
	bufferSize        int
	maxBatch          int
	maxAge            time.Duration
	writeTimeout      time.Duration

	in      chan types.RunEvent
	closed  int32
	started int32
	dropped uint64
	sent    uint64
	wg      sync.WaitGroup
	cancel  context.CancelFunc

	loggers     []types.Logger
	loggersLock sync.Mutex
}

// NewKafkaWriter returns a kafka-go writer keyed by run id so events of one
// run stay ordered on one partition.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Compression:  kafka.Snappy,
	}
}

// NewPublisher wraps w. Call Start before publishing.
func NewPublisher(w MessageWriter, options ...types.Option[*Publisher]) *Publisher {
	p := &Publisher{
		componentMetadata: types.ComponentMetadata{Type: "KAFKA_EVENTS"},
		writer:            w,
		bufferSize:        1024,
		maxBatch:          100,
		maxAge:            time.Second,
		writeTimeout:      5 * time.Second,
	}
	if kw, ok := w.(*kafka.Writer); ok {
		p.topic = kw.Topic
	}
	for _, opt := range options {
		opt(p)
	}
	p.in = make(chan types.RunEvent, p.bufferSize)
	return p
}

// Start launches the batching loop. It is a no-op when already started.
func (p *Publisher) Start(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&p.started, 0, 1) {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.loop(ctx)
	p.logKV(types.InfoLevel, "Kafka event publisher started",
		"event", "WriterStart",
		"result", "SUCCESS",
		"topic", p.topic,
	)
}

// Publish queues ev without blocking.
func (p *Publisher) Publish(_ context.Context, ev types.RunEvent) error {
	if atomic.LoadInt32(&p.closed) == 1 {
		return ErrClosed
	}
	select {
	case p.in <- ev:
		return nil
	default:
		atomic.AddUint64(&p.dropped, 1)
		return ErrBufferFull
	}
}

// Close flushes queued events and closes the writer.
func (p *Publisher) Close() error {
	if !atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		return nil
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	err := p.writer.Close()
	p.logKV(types.InfoLevel, "Kafka event publisher stopped",
		"event", "WriterStop",
		"result", "SUCCESS",
		"sent", atomic.LoadUint64(&p.sent),
		"dropped", atomic.LoadUint64(&p.dropped),
	)
	return err
}

// Sent returns the number of events written.
func (p *Publisher) Sent() uint64 { return atomic.LoadUint64(&p.sent) }

// Dropped returns the number of events discarded.
func (p *Publisher) Dropped() uint64 { return atomic.LoadUint64(&p.dropped) }

func (p *Publisher) loop(ctx context.Context) {
	defer p.wg.Done()

	pending := make([]kafka.Message, 0, p.maxBatch)
	tick := time.NewTicker(p.maxAge)
	defer tick.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		wctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
		err := p.writer.WriteMessages(wctx, pending...)
		cancel()
		if err != nil {
			atomic.AddUint64(&p.dropped, uint64(len(pending)))
			p.logKV(types.WarnLevel, "Kafka batch failed",
				"event", "BatchFlush",
				"result", "FAILURE",
				"records", len(pending),
				"error", err,
			)
		} else {
			atomic.AddUint64(&p.sent, uint64(len(pending)))
			p.logKV(types.DebugLevel, "Kafka batch flushed",
				"event", "BatchFlush",
				"result", "SUCCESS",
				"records", len(pending),
			)
		}
		pending = pending[:0]
	}

	add := func(ev types.RunEvent) {
		msg, err := encode(ev)
		if err != nil {
			atomic.AddUint64(&p.dropped, 1)
			p.logKV(types.WarnLevel, "Run event not encodable",
				"event", "Encode",
				"result", "FAILURE",
				"error", err,
			)
			return
		}
		pending = append(pending, msg)
		if len(pending) >= p.maxBatch {
			flush()
		}
	}

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case ev := <-p.in:
					add(ev)
				default:
					flush()
					return
				}
			}
		case <-tick.C:
			flush()
		case ev := <-p.in:
			add(ev)
		}
	}
}

func encode(ev types.RunEvent) (kafka.Message, error) {
	val, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(ev.RunID),
		Value: val,
		Time:  ev.Time,
		Headers: []kafka.Header{
			{Key: "schema", Value: []byte(SchemaID)},
			{Key: "event", Value: []byte(ev.Event)},
			{Key: "content-type", Value: []byte("application/json")},
		},
	}, nil
}
