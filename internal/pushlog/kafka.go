package pushlog

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
)

// Kafka streams push events to a topic so downstream consumers (warehousing,
// alerting) can pick them up. One JSON message per entry, keyed by event
// name.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafka(brokers []string, topic string) (*Kafka, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return &Kafka{
		producer: producer,
		topic:    topic,
	}, nil
}

func (k *Kafka) Append(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(e.Event),
		Value: sarama.ByteEncoder(data),
	})

	return err
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}
