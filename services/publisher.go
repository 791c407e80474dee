package services

import (
	"context"

	"github.com/yeremiapane/bar-order-app/live"
)

// Publisher receives lifecycle events after the change they describe has
// been committed. Implementations must not fail the caller.
type Publisher interface {
	Publish(ctx context.Context, e live.Event)
}
