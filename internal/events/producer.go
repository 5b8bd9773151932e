package events

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

const (
	TopicOrderCompleted = "printshop.orders.completed"
	TopicLeadCaptured   = "printshop.leads"
)

// Producer publishes order lifecycle events for downstream consumers
// (sales follow-up, analytics). Publishing is fire-and-forget: the
// conversation turn never waits on the broker.
type Producer struct {
	producer sarama.AsyncProducer
}

func NewProducer(brokers string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewAsyncProducer(strings.Split(brokers, ","), config)
	if err != nil {
		return nil, fmt.Errorf("failed to start Kafka producer: %w", err)
	}

	go func() {
		for err := range producer.Errors() {
			log.Printf("Failed to send Kafka message: %v", err)
		}
	}()

	return &Producer{producer: producer}, nil
}

func (p *Producer) Publish(topic string, message map[string]interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to encode Kafka message for %s: %v", topic, err)
		return
	}
	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(payload),
	}
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
