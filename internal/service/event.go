package service

import (
	"context"

	"github.com/kubev2v/migration-wave-planner/internal/events"
	"github.com/kubev2v/migration-wave-planner/pkg/log"
)

// publish queues a plan event. Events are best effort: a failure is logged and
// never fails the operation that produced it.
func publish(ctx context.Context, producer *events.EventProducer, logger *log.StructuredLogger, kind string, payload any) {
	if producer == nil {
		return
	}
	if err := producer.Publish(ctx, kind, payload); err != nil {
		logger.WithContext(ctx).Operation("publish_event").
			WithString("kind", kind).
			Build().
			Error(err).
			Log()
	}
}
