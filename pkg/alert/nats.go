package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Publisher is the part of *nats.Conn the notifier uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATS publishes notifications as JSON on a subject.
type NATS struct {
	pub     Publisher
	subject string
}

// NewNATS creates a notifier publishing on subject.
func NewNATS(pub Publisher, subject string) *NATS {
	return &NATS{pub: pub, subject: subject}
}

func (n *NATS) Name() string { return "nats" }

func (n *NATS) Send(ctx context.Context, note *Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal nats payload: %w", err)
	}
	if err := n.pub.Publish(n.subject, body); err != nil {
		return fmt.Errorf("publish %s: %w", n.subject, err)
	}
	return nil
}

// ConnectNATS dials a NATS server with reconnects logged.
func ConnectNATS(url string, logger zerolog.Logger) (*nats.Conn, error) {
	logger = logger.With().Str("component", "nats").Logger()
	nc, err := nats.Connect(url,
		nats.Name("redinsight"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Debug().Msg("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}
