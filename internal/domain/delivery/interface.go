package delivery

import (
	"context"

	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
)

// Adapter is the outbound port for one delivery channel. Implementations
// attempt delivery of already-rendered content and report success or failure;
// they never mutate outbox state.
type Adapter interface {
	// Channel returns the channel kind this adapter serves.
	Channel() notification.Channel

	// Send delivers the rendered content. The context carries the
	// per-channel dispatch timeout; a deadline hit is a delivery failure.
	Send(ctx context.Context, content notification.Content) error
}
