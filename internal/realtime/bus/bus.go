package bus

import (
	"context"

	"github.com/lumenlearn/guidance-backend/internal/realtime"
)

// Bus fans SSE messages out across server instances; a user's clients may
// be connected anywhere.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
