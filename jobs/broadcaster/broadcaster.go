// Package broadcaster drains the event outbox to Kafka. Delivery is
// at-least-once: entries are marked SENT before publishing and ACKED
// only after the broker confirms, so a crash between the two results
// in redelivery rather than loss.
package broadcaster

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	log "github.com/inconshreveable/log15"

	"solstice/infra/outbox"
)

const defaultInterval = 250 * time.Millisecond

// maxPublishAttempts bounds redelivery: an entry that fails this many
// sends is marked FAILED and left in the outbox for inspection instead
// of cycling forever.
const maxPublishAttempts = 5

type Broadcaster struct {
	events   *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	logger   log.Logger
}

// New connects to the given brokers with full-acknowledgement
// producing and returns a broadcaster for the outbox.
func New(events *outbox.Outbox, brokers []string, topic string) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithProducer(events, producer, topic), nil
}

// NewWithProducer wires an existing producer; tests pass a mock.
func NewWithProducer(events *outbox.Outbox, producer sarama.SyncProducer, topic string) *Broadcaster {
	return &Broadcaster{
		events:   events,
		producer: producer,
		topic:    topic,
		interval: defaultInterval,
		logger:   log.New("module", "broadcaster"),
	}
}

// Run drains the outbox on a ticker until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	b.logger.Info("broadcaster started", "topic", b.topic, "interval", b.interval)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.DrainOnce()
		}
	}
}

// DrainOnce publishes every pending entry once. Broker errors leave
// the entry pending for the next pass until its retry budget runs out.
func (b *Broadcaster) DrainOnce() {
	err := b.events.ScanPending(func(e *outbox.Entry) error {
		if e.Retries >= maxPublishAttempts {
			b.logger.Error("event dead-lettered", "seq", e.Seq, "retries", e.Retries)
			return b.events.MarkFailed(e.Seq)
		}
		if err := b.events.MarkSent(e.Seq); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Value: sarama.ByteEncoder(e.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			b.logger.Warn("publish failed, will retry", "seq", e.Seq, "err", err)
			return nil
		}

		return b.events.MarkAcked(e.Seq)
	})
	if err != nil {
		b.logger.Error("outbox scan failed", "err", err)
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
