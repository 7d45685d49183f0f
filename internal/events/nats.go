package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// SubjectScoresUpdated is the subject the score sync worker publishes on and
// the server subscribes to.
const SubjectScoresUpdated = "golfdraft.scores.updated"

// NATSPublisher relays bus events onto NATS so other processes (and future
// nodes) see the same stream the websocket clients do. Best effort: a publish
// failure is logged, never propagated back to the commit path.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

// ConnectNATS dials the NATS server with reconnect handling.
func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// NewNATSPublisher creates a publisher over an established connection.
// Events go to "<subjectPrefix>.<event type>".
func NewNATSPublisher(nc *nats.Conn, subjectPrefix string) *NATSPublisher {
	return &NATSPublisher{nc: nc, subject: subjectPrefix}
}

// Run consumes the bus until ctx is done.
func (p *NATSPublisher) Run(ctx context.Context, bus *Bus) {
	ch, cancel := bus.Subscribe(64)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(err).Str("type", string(ev.Type)).Msg("marshal event for NATS")
				continue
			}
			subject := fmt.Sprintf("%s.%s", p.subject, ev.Type)
			if err := p.nc.Publish(subject, b); err != nil {
				log.Error().Err(err).Str("subject", subject).Msg("publish event to NATS")
			}
		}
	}
}
