package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/charging-platform/cs-simulator/internal/logger"
)

// KafkaChannel adapts the broadcast command bus onto Kafka: one consumer
// group reads RequestEnvelopes off requestTopic, one async producer
// writes ResponseEnvelopes onto responseTopic. Every process in the
// fleet joins the same consumer group so a broadcast naming no hashId
// reaches exactly one process per partition, which is why hashId-based
// partition keys matter for routed (non-broadcast) commands.
type KafkaChannel struct {
	consumerGroup sarama.ConsumerGroup
	producer      sarama.AsyncProducer
	requestTopic  string
	responseTopic string
	log           *logger.Logger
}

// ProducerTuning and ConsumerTuning mirror internal/config's ProducerConfig
// and ConsumerConfig, kept separate so this package doesn't import
// internal/config for two scalar structs.
type ProducerTuning struct {
	RetryMax       int
	ReturnSuccess  bool
	FlushFrequency time.Duration
}

type ConsumerTuning struct {
	ReturnErrors   bool
	OffsetsInitial string
}

// NewKafkaChannel dials brokers and joins groupID, consuming requestTopic
// and publishing to responseTopic. producerTuning/consumerTuning tune
// retry, flush, and offset-reset behavior: a zero FlushFrequency falls
// back to 500ms and any OffsetsInitial other than "newest" starts from the
// oldest offset; the remaining fields are applied as given.
func NewKafkaChannel(brokers []string, groupID, requestTopic, responseTopic string, producerTuning ProducerTuning, consumerTuning ConsumerTuning, log *logger.Logger) (*KafkaChannel, error) {
	consumerCfg := sarama.NewConfig()
	consumerCfg.Consumer.Return.Errors = consumerTuning.ReturnErrors
	consumerCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	if consumerTuning.OffsetsInitial == "newest" {
		consumerCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	consumerCfg.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRange()
	consumerCfg.Consumer.Group.Session.Timeout = 10 * time.Second
	consumerCfg.Consumer.Group.Heartbeat.Interval = 3 * time.Second

	group, err := sarama.NewConsumerGroup(brokers, groupID, consumerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer group: %w", err)
	}

	flushFrequency := producerTuning.FlushFrequency
	if flushFrequency <= 0 {
		flushFrequency = 500 * time.Millisecond
	}
	producerCfg := sarama.NewConfig()
	producerCfg.Producer.RequiredAcks = sarama.WaitForLocal
	producerCfg.Producer.Compression = sarama.CompressionSnappy
	producerCfg.Producer.Flush.Frequency = flushFrequency
	producerCfg.Producer.Retry.Max = producerTuning.RetryMax
	producerCfg.Producer.Return.Successes = producerTuning.ReturnSuccess
	producerCfg.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokers, producerCfg)
	if err != nil {
		group.Close()
		return nil, fmt.Errorf("failed to create Kafka async producer: %w", err)
	}

	kc := &KafkaChannel{
		consumerGroup: group,
		producer:      producer,
		requestTopic:  requestTopic,
		responseTopic: responseTopic,
		log:           log,
	}

	go func() {
		for err := range group.Errors() {
			kc.logf("Kafka consumer group error: %v", err)
		}
	}()
	go kc.drainProducerAcks()

	return kc, nil
}

func (kc *KafkaChannel) drainProducerAcks() {
	for {
		select {
		case msg, ok := <-kc.producer.Successes():
			if !ok {
				return
			}
			kc.logf("published response to %s partition %d offset %d", msg.Topic, msg.Partition, msg.Offset)
		case err, ok := <-kc.producer.Errors():
			if !ok {
				return
			}
			kc.logf("failed to publish response: %v", err)
		}
	}
}

// Subscribe joins the consumer group and streams decoded RequestEnvelopes
// until ctx is cancelled. sarama's Consume call is re-entered in a loop
// since a rebalance or recoverable error ends a single Consume call
// without ending the session.
func (kc *KafkaChannel) Subscribe(ctx context.Context) (<-chan RequestEnvelope, error) {
	out := make(chan RequestEnvelope)
	handler := &consumerGroupHandler{out: out}

	go func() {
		defer close(out)
		for {
			if ctx.Err() != nil {
				return
			}
			if err := kc.consumerGroup.Consume(ctx, []string{kc.requestTopic}, handler); err != nil {
				kc.logf("Kafka consume error: %v", err)
				if ctx.Err() != nil {
					return
				}
				time.Sleep(time.Second)
			}
		}
	}()

	return out, nil
}

// Publish encodes resp as JSON and sends it to responseTopic, keyed by
// hashId so every response for one station lands in the same partition.
func (kc *KafkaChannel) Publish(ctx context.Context, resp ResponseEnvelope) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response envelope: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: kc.responseTopic,
		Key:   sarama.StringEncoder(resp.Payload.HashId),
		Value: sarama.ByteEncoder(data),
	}
	select {
	case kc.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the consumer group and producer.
func (kc *KafkaChannel) Close() error {
	cgErr := kc.consumerGroup.Close()
	prodErr := kc.producer.Close()
	if cgErr != nil {
		return cgErr
	}
	return prodErr
}

type consumerGroupHandler struct {
	out chan<- RequestEnvelope
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var req RequestEnvelope
		if err := json.Unmarshal(msg.Value, &req); err != nil {
			session.MarkMessage(msg, "")
			continue
		}
		select {
		case h.out <- req:
		case <-session.Context().Done():
			return nil
		}
		session.MarkMessage(msg, "")
	}
	return nil
}

func (kc *KafkaChannel) logf(format string, args ...interface{}) {
	if kc.log != nil {
		kc.log.Infof(format, args...)
	}
}
