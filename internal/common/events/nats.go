// internal/common/events/nats.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"sponsorloop-workers/internal/common/config"
	"sponsorloop-workers/internal/common/logger"

	"github.com/nats-io/nats.go"
)

// NATSBus carries events over NATS subjects named <prefix><topic>.
type NATSBus struct {
	conn   *nats.Conn
	prefix string
	logger logger.Logger

	mu   sync.Mutex
	subs map[*nats.Subscription]struct{}
}

// NewNATSBus connects to cfg.URL.
func NewNATSBus(cfg config.NATSConfig, log logger.Logger) (*NATSBus, error) {
	log = log.WithFields(map[string]interface{}{"component": "nats-bus"})
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(config.GetDuration(cfg.ReconnectWait)),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", map[string]interface{}{"error": err})
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", map[string]interface{}{"url": nc.ConnectedUrl()})
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("nats connection closed", nil)
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	log.Info("nats connected", map[string]interface{}{"url": nc.ConnectedUrl()})

	return &NATSBus{
		conn:   nc,
		prefix: cfg.SubjectPrefix,
		logger: log,
		subs:   make(map[*nats.Subscription]struct{}),
	}, nil
}

func (b *NATSBus) subject(topic string) string {
	return b.prefix + topic
}

func (b *NATSBus) Publish(ctx context.Context, topic string, payload interface{}) (Event, error) {
	e, err := newEvent(topic, payload)
	if err != nil {
		return Event{}, err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return Event{}, fmt.Errorf("marshal event: %w", err)
	}
	if err := b.conn.Publish(b.subject(topic), data); err != nil {
		return Event{}, fmt.Errorf("nats publish %s: %w", topic, err)
	}
	return e, nil
}

func (b *NATSBus) Subscribe(topic string, h Handler) (func(), error) {
	if !ValidTopic(topic) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	sub, err := b.conn.Subscribe(b.subject(topic), func(msg *nats.Msg) {
		e, err := decodeEvent(msg.Data)
		if err != nil {
			b.logger.Warn("dropping malformed event", map[string]interface{}{
				"subject": msg.Subject,
				"error":   err,
			})
			return
		}
		h(context.Background(), e)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", topic, err)
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, sub)
			b.mu.Unlock()
			if err := sub.Unsubscribe(); err != nil {
				b.logger.Warn("nats unsubscribe failed", map[string]interface{}{"topic": topic, "error": err})
			}
		})
	}, nil
}

// Ping reports whether the connection is usable.
func (b *NATSBus) Ping(ctx context.Context) error {
	if !b.conn.IsConnected() {
		return fmt.Errorf("nats not connected: %s", b.conn.Status())
	}
	timeout := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
		if timeout <= 0 {
			return ctx.Err()
		}
	}
	return b.conn.FlushTimeout(timeout)
}

// Close drains subscriptions and the connection.
func (b *NATSBus) Close() error {
	b.mu.Lock()
	for sub := range b.subs {
		if err := sub.Drain(); err != nil {
			b.logger.Warn("nats drain failed", map[string]interface{}{"subject": sub.Subject, "error": err})
		}
	}
	b.subs = make(map[*nats.Subscription]struct{})
	b.mu.Unlock()

	return b.conn.Drain()
}

func decodeEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	if !ValidTopic(e.Topic) {
		return Event{}, fmt.Errorf("%w: %s", ErrUnknownTopic, e.Topic)
	}
	return e, nil
}
