// Package eventbus publishes and consumes domain events over NATS JetStream.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/richxcame/giftcards/pkg/logger"
	"go.uber.org/zap"
)

const defaultHandlerTimeout = 30 * time.Second

// Event is the envelope carried on every subject
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Data          json.RawMessage `json:"data"`
}

// Handler processes one event. A returned error asks for redelivery.
type Handler func(ctx context.Context, event *Event) error

// Config describes the connection and the stream that backs it
type Config struct {
	URL            string
	StreamName     string
	Subjects       []string
	HandlerTimeout time.Duration
}

// Bus wraps a NATS connection with a JetStream context
type Bus struct {
	conn           *nats.Conn
	js             nats.JetStreamContext
	handlerTimeout time.Duration

	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewEvent wraps data in an Event envelope
func NewEvent(ctx context.Context, eventType, source string, data interface{}) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		CorrelationID: logger.CorrelationIDFromContext(ctx),
		Timestamp:     time.Now().UTC(),
		Data:          raw,
	}, nil
}

// Decode unmarshals the event payload into v
func (e *Event) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return errors.New("event has no data")
	}
	return json.Unmarshal(e.Data, v)
}

// Connect dials NATS and makes sure the stream exists
func Connect(cfg Config) (*Bus, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("giftcards"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("eventbus: disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("eventbus: reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	if _, err := js.StreamInfo(cfg.StreamName); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			conn.Close()
			return nil, fmt.Errorf("stream info %s: %w", cfg.StreamName, err)
		}
		if _, err := js.AddStream(&nats.StreamConfig{
			Name:     cfg.StreamName,
			Subjects: cfg.Subjects,
			Storage:  nats.FileStorage,
		}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("create stream %s: %w", cfg.StreamName, err)
		}
		logger.Info("eventbus: stream created", zap.String("stream", cfg.StreamName))
	}

	timeout := cfg.HandlerTimeout
	if timeout <= 0 {
		timeout = defaultHandlerTimeout
	}

	return &Bus{conn: conn, js: js, handlerTimeout: timeout}, nil
}

// Publish sends event on subject and waits for the stream ack
func (b *Bus) Publish(ctx context.Context, subject string, event *Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := b.js.Publish(subject, raw, nats.Context(ctx), nats.MsgId(event.ID)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	logger.WithContext(ctx).Debug("eventbus: published",
		zap.String("subject", subject),
		zap.String("type", event.Type),
		zap.String("event_id", event.ID),
	)
	return nil
}

// Subscribe attaches a durable queue consumer named durable to subject
func (b *Bus) Subscribe(ctx context.Context, subject, durable string, handler Handler) error {
	sub, err := b.js.QueueSubscribe(subject, durable, func(msg *nats.Msg) {
		b.dispatch(msg, handler)
	}, nats.Durable(durable), nats.ManualAck(), nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return nil
}

func (b *Bus) dispatch(msg *nats.Msg, handler Handler) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("eventbus: dropping malformed event", zap.String("subject", msg.Subject), zap.Error(err))
		_ = msg.Term()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.handlerTimeout)
	defer cancel()
	if event.CorrelationID != "" {
		ctx = logger.ContextWithCorrelationID(ctx, event.CorrelationID)
	}

	if err := handler(ctx, &event); err != nil {
		logger.WithContext(ctx).Warn("eventbus: handler failed, requesting redelivery",
			zap.String("type", event.Type),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}

// Close drains subscriptions and closes the connection
func (b *Bus) Close() {
	b.mu.Lock()
	for _, sub := range b.subs {
		_ = sub.Drain()
	}
	b.subs = nil
	b.mu.Unlock()

	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}
