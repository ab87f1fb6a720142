package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"bloodlink/pkg/types"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes one record per recipient to a topic consumed by the
// external delivery layer. Records are keyed by recipient so a recipient's
// notifications stay ordered within a partition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Deliver(ctx context.Context, event types.Event) error {
	records, err := Records(k.topic, event)
	if err != nil {
		return err
	}
	return k.client.ProduceSync(ctx, records...).FirstErr()
}

func (k *KafkaSink) Close() {
	k.client.Close()
}

// Records encodes an event as one Kafka record per recipient.
func Records(topic string, event types.Event) ([]*kgo.Record, error) {
	records := make([]*kgo.Record, 0, len(event.RecipientIDs))
	for _, recipientID := range event.RecipientIDs {
		value, err := json.Marshal(Render(event, recipientID))
		if err != nil {
			return nil, fmt.Errorf("encode notification %s for %s: %w", event.ID, recipientID, err)
		}
		records = append(records, &kgo.Record{
			Topic: topic,
			Key:   []byte(recipientID),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "event_id", Value: []byte(event.ID)},
				{Key: "event_kind", Value: []byte(event.Kind)},
			},
		})
	}
	return records, nil
}
