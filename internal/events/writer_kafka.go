package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// KafkaWriter ships events to the analytics pipeline.
type KafkaWriter struct {
	producer sarama.SyncProducer
}

// Make sure we conform to Writer interface
var _ Writer = (*KafkaWriter)(nil)

func NewKafkaWriter(brokers []string, clientID string, version string) (*KafkaWriter, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.Return.Successes = true
	if version != "" {
		v, err := sarama.ParseKafkaVersion(version)
		if err != nil {
			return nil, fmt.Errorf("invalid kafka version %q: %w", version, err)
		}
		cfg.Version = v
	}

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &KafkaWriter{producer: producer}, nil
}

func (k *KafkaWriter) Write(_ context.Context, topic string, e cloudevents.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(e.ID()),
		Value: sarama.ByteEncoder(data),
	})
	return err
}

func (k *KafkaWriter) Close(_ context.Context) error {
	return k.producer.Close()
}
