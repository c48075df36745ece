// Package queue wraps segmentio/kafka-go as the QueuePublisher: one
// partitioned topic per channel, keyed by notification id so every message
// for a given notification lands on the same partition.
package queue

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/notifyhub/notifyhub/internal/errs"
	"github.com/notifyhub/notifyhub/internal/models"
	kafka "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// Config configures the broker connection shared by the publisher and
// every channel's consumer pool.
type Config struct {
	Brokers     []string
	TopicPrefix string
	SASLUser    string
	SASLPass    string
	SASLEnabled bool
	TLSEnabled  bool
}

// Publisher is the QueuePublisher contract from SPEC_FULL.md §4.6.
type Publisher interface {
	Publish(ctx context.Context, channel models.Channel, notificationID uuid.UUID) error
	Close() error
}

type kafkaPublisher struct {
	cfg     Config
	mu      sync.Mutex
	writers map[models.Channel]*kafka.Writer
}

// NewKafkaPublisher builds a Publisher with one lazily-created writer per
// channel topic.
func NewKafkaPublisher(cfg Config) Publisher {
	return &kafkaPublisher{cfg: cfg, writers: make(map[models.Channel]*kafka.Writer)}
}

// TopicFor returns the full topic name for a channel, e.g.
// "notifications.email".
func (cfg Config) TopicFor(channel models.Channel) string {
	return fmt.Sprintf("%s.%s", cfg.TopicPrefix, channel)
}

// writerFor returns the channel's writer, creating it on first use. Guarded
// by mu since Publish runs concurrently from every HTTP-request goroutine.
func (p *kafkaPublisher) writerFor(channel models.Channel) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[channel]; ok {
		return w
	}
	transport := &kafka.Transport{}
	if p.cfg.SASLEnabled {
		transport.SASL = plain.Mechanism{Username: p.cfg.SASLUser, Password: p.cfg.SASLPass}
	}
	if p.cfg.TLSEnabled {
		transport.TLS = &tls.Config{}
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(p.cfg.Brokers...),
		Topic:                  p.cfg.TopicFor(channel),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
		Transport:              transport,
	}
	p.writers[channel] = w
	return w
}

// Publish writes (key=id, value=id) onto the channel's topic, using the
// notification id as both key and value so the message is self-contained
// and deterministically partitioned.
func (p *kafkaPublisher) Publish(ctx context.Context, channel models.Channel, notificationID uuid.UUID) error {
	idBytes := []byte(notificationID.String())
	err := p.writerFor(channel).WriteMessages(ctx, kafka.Message{
		Key:   idBytes,
		Value: idBytes,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrTransientInfra, err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
