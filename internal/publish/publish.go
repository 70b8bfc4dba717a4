// Package publish sends exported gateway records to NATS.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	milesight "github.com/corgan2222/milesight-gateway-api"
)

// Publisher is the part of [*nats.Conn] the sink uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type flusher interface {
	Flush() error
}

// Sink publishes records as JSON to <subject>.<kind>.
type Sink struct {
	pub     Publisher
	subject string
	logger  zerolog.Logger
}

// NewSink returns a sink publishing under subject.
func NewSink(pub Publisher, subject string, logger zerolog.Logger) *Sink {
	return &Sink{pub: pub, subject: subject, logger: logger}
}

// Connect opens a NATS connection that logs disconnects and reconnects.
func Connect(url, name string, logger zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(3),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("disconnected from NATS")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("reconnected to NATS")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error().Err(err).Msg("NATS error")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}

	return nc, nil
}

// Subject returns the subject records of kind are published to.
func (s *Sink) Subject(kind string) string {
	return s.subject + "." + kind
}

// Records publishes every record and flushes the connection when it
// supports it. It stops at the first failure and returns how many records
// were published.
func (s *Sink) Records(ctx context.Context, kind string, records []milesight.Record) (int, error) {
	subject := s.Subject(kind)

	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return i, err
		}

		if err := s.publish(subject, r); err != nil {
			s.logger.Error().Err(err).Str("subject", subject).Int("index", i).Msg("cannot publish record")
			return i, err
		}
	}

	if f, ok := s.pub.(flusher); ok {
		if err := f.Flush(); err != nil {
			return len(records), fmt.Errorf("flush: %w", err)
		}
	}

	s.logger.Info().Str("subject", subject).Int("count", len(records)).Msg("published records")
	return len(records), nil
}

// Document publishes a single document to <subject>.<kind>.
func (s *Sink) Document(kind string, doc any) error {
	subject := s.Subject(kind)
	if err := s.publish(subject, doc); err != nil {
		s.logger.Error().Err(err).Str("subject", subject).Msg("cannot publish document")
		return err
	}

	if f, ok := s.pub.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
	}

	return nil
}

func (s *Sink) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := s.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	return nil
}
