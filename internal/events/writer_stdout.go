package events

import (
	"context"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"go.uber.org/zap"
)

// StdoutWriter logs plan events instead of delivering them. It is the writer
// of deployments with no event sink configured.
type StdoutWriter struct{}

func (s *StdoutWriter) Write(_ context.Context, topic string, e cloudevents.Event) error {
	zap.S().Named("plan_events").Infow("plan event",
		"topic", topic,
		"kind", e.Type(),
		"id", e.ID(),
		"source", e.Source(),
		"time", e.Time(),
		"payload", string(e.Data()),
	)
	return nil
}

func (s *StdoutWriter) Close(context.Context) error {
	return nil
}
