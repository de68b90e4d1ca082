package kafka

import (
	"context"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer is the client surface the publisher needs, exposed for tests.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

func NewPublisherWithProducer(client Producer, topic string) *Publisher {
	return newPublisher(client, topic)
}
