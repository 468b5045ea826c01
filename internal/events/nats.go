package events

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fruitsalade/breadbox/internal/logging"
	"github.com/fruitsalade/breadbox/internal/metrics"
)

// NATSRelay mirrors broadcaster events onto NATS subjects so other services
// can follow state changes without holding an SSE connection.
type NATSRelay struct {
	conn        *nats.Conn
	prefix      string
	broadcaster *Broadcaster
	ch          chan Event
	done        chan struct{}
}

// NewNATSRelay connects to NATS. The connection retries in the background
// if the server is not reachable yet.
func NewNATSRelay(url, prefix string, b *Broadcaster) (*NATSRelay, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}

	return &NATSRelay{
		conn:        conn,
		prefix:      prefix,
		broadcaster: b,
		done:        make(chan struct{}),
	}, nil
}

// Start subscribes to the broadcaster and begins relaying.
func (r *NATSRelay) Start() {
	r.ch = r.broadcaster.Subscribe()
	go r.run()
	logging.Info("nats relay started", zap.String("prefix", r.prefix))
}

func (r *NATSRelay) run() {
	defer close(r.done)
	for ev := range r.ch {
		r.publish(ev)
	}
}

func (r *NATSRelay) publish(ev Event) {
	data, err := MarshalEvent(ev)
	if err != nil {
		return
	}
	subj := subject(r.prefix, ev.Store)
	if err := r.conn.Publish(subj, data); err != nil {
		metrics.RecordNATSPublish(false)
		logging.Warn("nats publish failed",
			zap.String("subject", subj),
			zap.Error(err))
		return
	}
	metrics.RecordNATSPublish(true)
}

// subject builds the per-store subject under the relay prefix.
func subject(prefix, store string) string {
	if store == "" {
		return prefix
	}
	return prefix + "." + store
}

// Close detaches from the broadcaster, flushes, and closes the connection.
func (r *NATSRelay) Close() {
	if r.ch != nil {
		r.broadcaster.Unsubscribe(r.ch)
		<-r.done
	}
	r.conn.Flush()
	r.conn.Close()
}
