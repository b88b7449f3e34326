package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"rest-tracker/internal/ack"
	"rest-tracker/internal/logging"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer raises the acknowledgment flag for every message on its topic.
type Consumer struct {
	reader     messageReader
	flag       *ack.Flag
	logger     *logging.Logger
	retryDelay time.Duration
}

// NewConsumer constructs a Consumer reading topic as part of groupID.
func NewConsumer(brokers []string, topic, groupID string, flag *ack.Flag, logger *logging.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	return &Consumer{reader: r, flag: flag, logger: logger, retryDelay: time.Second}
}

// Start reads messages in a goroutine until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Infof("Kafka consumer started")
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					c.logger.Infof("Kafka consumer stopped")
					return
				}
				c.logger.Errorf("Read message failed: %v", err)
				select {
				case <-ctx.Done():
					c.logger.Infof("Kafka consumer stopped")
					return
				case <-time.After(c.retryDelay):
				}
				continue
			}
			c.handle(msg)
		}
	}()
}

// handle ignores the payload; any message is an acknowledgment.
func (c *Consumer) handle(msg kafka.Message) {
	c.flag.Set()
	c.logger.Infof("Acknowledgment received from Kafka: topic=%s partition=%d offset=%d", msg.Topic, msg.Partition, msg.Offset)
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
