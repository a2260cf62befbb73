package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"shiptrack-service/internal/logx"

	"github.com/IBM/sarama"
)

// HandleFunc processes a single LocationPing from Kafka.
type HandleFunc func(context.Context, LocationPing) error

// Consumer wraps a Sarama consumer group and dispatches location pings
// to a handler.
type Consumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler HandleFunc
	logger  logx.Logger
}

// NewConsumer creates a new Kafka consumer. Missing broker settings
// disable consumption and return a nil consumer.
func NewConsumer(brokers []string, groupID, topic string, h HandleFunc, logger logx.Logger) (*Consumer, error) {
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" || strings.TrimSpace(groupID) == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:   group,
		topic:   topic,
		handler: h,
		logger:  logger,
	}, nil
}

// Run starts the consumer and blocks until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		return nil
	}

	h := &groupHandler{c: c}

	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("kafka consume error", logx.Err(err))
			time.Sleep(time.Second)
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close shuts the consumer group down.
func (c *Consumer) Close() error {
	if c == nil {
		return nil
	}
	return c.group.Close()
}

type groupHandler struct{ c *Consumer }

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim dispatches pings in partition order. Malformed or
// unroutable messages are marked and skipped; handler failures leave
// the offset unmarked so the message redelivers.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var ping LocationPing
		if err := json.Unmarshal(msg.Value, &ping); err != nil {
			h.c.logger.Warn("kafka: bad json", logx.Err(err))
			sess.MarkMessage(msg, "")
			continue
		}
		if !ping.Valid() {
			h.c.logger.Warn("kafka: unroutable ping",
				logx.String("shipment_id", ping.ShipmentID))
			sess.MarkMessage(msg, "")
			continue
		}

		if err := h.c.handler(sess.Context(), ping); err != nil {
			h.c.logger.Error("kafka: handle failed, will retry",
				logx.String("shipment_id", ping.ShipmentID),
				logx.Err(err),
			)
			return err
		}

		sess.MarkMessage(msg, "")
	}
	return nil
}
