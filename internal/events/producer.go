package events

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Producer publishes fulfillment events to kafka through a buffered
// inbox so webhook handling never blocks on the broker. A nil Producer
// is a no-op.
type Producer struct {
	w      *kafka.Writer
	inbox  chan kafka.Message
	closed chan struct{}
	logger *log.Logger
}

func NewProducer(brokers []string, logger *log.Logger) *Producer {
	if len(brokers) == 0 {
		return nil
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:  make(chan kafka.Message, 256),
		closed: make(chan struct{}),
		logger: logger,
	}
}

// Start runs the publish loop until ctx is cancelled, then drains the
// inbox best-effort and closes the writer.
func (p *Producer) Start(ctx context.Context) {
	if p == nil {
		return
	}
	go func() {
		defer close(p.closed)
		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case m := <-p.inbox:
						p.write(m)
					default:
						_ = p.w.Close()
						return
					}
				}
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(writeCtx, m); err != nil {
		p.logger.Printf("events: write topic=%s key=%s error=%v", m.Topic, m.Key, err)
	}
}

// Publish enqueues one event. Drops with a log line when the inbox is
// full; fulfillment events are observability, not source of truth.
func (p *Producer) Publish(topic, key string, payload interface{}) {
	if p == nil {
		return
	}
	env := Envelope{
		EventID:    uuid.NewString(),
		EventType:  topic,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	value, err := json.Marshal(env)
	if err != nil {
		p.logger.Printf("events: marshal topic=%s error=%v", topic, err)
		return
	}
	msg := kafka.Message{Topic: topic, Key: []byte(key), Value: value, Time: env.OccurredAt}
	select {
	case p.inbox <- msg:
	default:
		p.logger.Printf("events: inbox full, dropped topic=%s key=%s", topic, key)
	}
}

// Close waits for the publish loop to finish after Start's ctx ends.
func (p *Producer) Close() {
	if p == nil {
		return
	}
	<-p.closed
}
