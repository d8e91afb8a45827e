package interfaces

import (
	"context"

	"infinite-pages/internal/models"
)

// ProgressPublisher emits generation lifecycle events to the progress queue.
type ProgressPublisher interface {
	Publish(ctx context.Context, event models.ProgressEvent) error
}
