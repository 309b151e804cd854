package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
	"github.com/SeopE9611/sub010-backend/internal/renderer"
	"github.com/SeopE9611/sub010-backend/pkg/snowflake"
	"go.uber.org/zap"
)

// ErrNoChannels is returned when an enqueue request names no channel.
var ErrNoChannels = errors.New("at least one channel is required")

// EnqueueInput describes one logical notification to persist.
type EnqueueInput struct {
	EventType notification.EventType
	Payload   json.RawMessage
	Channels  []notification.Channel
	DedupeKey string
}

// EnqueueUseCase is the producer-facing entry point. Rendering happens here,
// once, so dispatch and retry always resend byte-identical content no matter
// how the domain state drifts afterwards.
type EnqueueUseCase struct {
	repo     notification.Repository
	renderer *renderer.Renderer
	node     *snowflake.Node
	logger   *zap.Logger
}

func NewEnqueueUseCase(repo notification.Repository, r *renderer.Renderer, node *snowflake.Node, logger *zap.Logger) *EnqueueUseCase {
	return &EnqueueUseCase{
		repo:     repo,
		renderer: r,
		node:     node,
		logger:   logger,
	}
}

// Execute enqueues a notification or reuses the live record holding the same
// dedupe key. reused=true means no new render or write happened.
func (uc *EnqueueUseCase) Execute(ctx context.Context, in EnqueueInput) (*notification.Record, bool, error) {
	if len(in.Channels) == 0 {
		return nil, false, ErrNoChannels
	}
	for _, ch := range in.Channels {
		if !notification.KnownChannel(ch) {
			return nil, false, &notification.RenderError{
				Reason:  notification.ReasonUnsupportedChannel,
				Event:   in.EventType,
				Channel: ch,
			}
		}
	}

	if in.DedupeKey != "" {
		existing, err := uc.repo.FindLiveByDedupeKey(ctx, in.DedupeKey)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, true, nil
		}
	}

	rendered, err := uc.renderer.Render(in.EventType, in.Payload, in.Channels)
	if err != nil {
		return nil, false, err
	}

	record := notification.NewRecord(uc.node.GenerateID(), in.EventType, in.Payload, in.Channels, rendered, in.DedupeKey)
	if err := uc.repo.Create(ctx, record); err != nil {
		if errors.Is(err, notification.ErrDuplicateKey) {
			// Lost the insert race to a concurrent enqueue with the same
			// key; the winner's record is the one to reuse.
			existing, findErr := uc.repo.FindLiveByDedupeKey(ctx, in.DedupeKey)
			if findErr != nil {
				return nil, false, findErr
			}
			if existing != nil {
				return existing, true, nil
			}
			return nil, false, fmt.Errorf("%w: dedupe key %q", notification.ErrConflict, in.DedupeKey)
		}
		return nil, false, err
	}

	uc.logger.Info("outbox_enqueued",
		zap.Int64("record_id", record.ID),
		zap.String("event_type", string(in.EventType)),
		zap.Int("channels", len(in.Channels)),
	)
	return record, false, nil
}
