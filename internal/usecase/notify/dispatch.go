package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/SeopE9611/sub010-backend/internal/domain/delivery"
	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
	"go.uber.org/zap"
)

// DispatchUseCase drives one outbox record through its status state machine:
// queued -> dispatching -> sent|failed. The conditional status update is the
// only mutual exclusion; at most one dispatch owns a record at a time.
type DispatchUseCase struct {
	repo     notification.Repository
	adapters map[notification.Channel]delivery.Adapter
	timeout  time.Duration
	logger   *zap.Logger
}

func NewDispatchUseCase(repo notification.Repository, adapters []delivery.Adapter, timeout time.Duration, logger *zap.Logger) *DispatchUseCase {
	byChannel := make(map[notification.Channel]delivery.Adapter, len(adapters))
	for _, a := range adapters {
		byChannel[a.Channel()] = a
	}
	return &DispatchUseCase{
		repo:     repo,
		adapters: byChannel,
		timeout:  timeout,
		logger:   logger,
	}
}

// Execute dispatches the record once. Delivery failures are folded into the
// record's error text and never returned as an error; only structural
// problems (unknown id, lost CAS, store down) surface to the caller.
func (uc *DispatchUseCase) Execute(ctx context.Context, id int64) (*notification.Record, error) {
	record, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Idempotent guard: a duplicate trigger on a sent record is a no-op.
	if record.Status == notification.StatusSent {
		return record, nil
	}

	if !record.HasRendered() {
		return nil, fmt.Errorf("%w: record %d", notification.ErrInvalidState, id)
	}

	claimed, err := uc.repo.CASStatus(ctx, id, notification.StatusQueued, notification.StatusDispatching, notification.StatusFields{})
	if err != nil {
		return nil, err
	}
	if !claimed {
		dispatchTotal.WithLabelValues("conflict").Inc()
		return nil, fmt.Errorf("%w: record %d", notification.ErrConflict, id)
	}

	// Once claimed, the dispatch must run to completion even if the
	// triggering request goes away; an aborted request must not leave the
	// record stuck in dispatching with no recorded outcome.
	detached := context.WithoutCancel(ctx)
	outcomes := uc.fanOut(detached, record)

	now := time.Now().UTC()
	failures := 0
	parts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil {
			failures++
			parts = append(parts, fmt.Sprintf("%s: %v", o.channel, o.err))
		} else {
			parts = append(parts, fmt.Sprintf("%s: ok", o.channel))
		}
	}

	if failures == 0 {
		ok, err := uc.repo.CASStatus(detached, id, notification.StatusDispatching, notification.StatusSent, notification.StatusFields{
			ClearError:  true,
			SentAt:      &now,
			LastTriedAt: &now,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			uc.logger.Warn("outbox_sent_cas_lost", zap.Int64("record_id", id))
		}
		dispatchTotal.WithLabelValues("sent").Inc()
		uc.logger.Info("outbox_dispatched",
			zap.Int64("record_id", id),
			zap.String("event_type", string(record.EventType)),
			zap.Int("channels", len(record.Channels)),
		)
	} else {
		aggregate := strings.Join(parts, "; ")
		ok, err := uc.repo.CASStatus(detached, id, notification.StatusDispatching, notification.StatusFailed, notification.StatusFields{
			LastError:   &aggregate,
			LastTriedAt: &now,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			uc.logger.Warn("outbox_failed_cas_lost", zap.Int64("record_id", id))
		}
		dispatchTotal.WithLabelValues("failed").Inc()
		uc.logger.Warn("outbox_dispatch_failed",
			zap.Int64("record_id", id),
			zap.String("event_type", string(record.EventType)),
			zap.String("error", aggregate),
		)
	}

	return uc.repo.Get(detached, id)
}

type channelOutcome struct {
	channel notification.Channel
	err     error
}

// fanOut sends to every requested channel concurrently, each under its own
// timeout, so a hung channel cannot delay or wedge the others. It returns
// once every channel finished or timed out.
func (uc *DispatchUseCase) fanOut(ctx context.Context, record *notification.Record) []channelOutcome {
	outcomes := make([]channelOutcome, len(record.Channels))
	var wg sync.WaitGroup

	for i, ch := range record.Channels {
		wg.Add(1)
		go func(i int, ch notification.Channel) {
			defer wg.Done()
			outcomes[i] = channelOutcome{channel: ch, err: uc.sendOne(ctx, ch, record.Rendered[ch])}
		}(i, ch)
	}

	wg.Wait()
	return outcomes
}

func (uc *DispatchUseCase) sendOne(ctx context.Context, ch notification.Channel, content notification.Content) error {
	adapter, ok := uc.adapters[ch]
	if !ok {
		channelSendSeconds.WithLabelValues(string(ch), "error").Observe(0)
		return fmt.Errorf("no adapter configured for channel %q", ch)
	}

	sendCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	// The send runs in its own goroutine so an adapter that ignores its
	// context still cannot hold the dispatch past the timeout.
	done := make(chan error, 1)
	start := time.Now()
	go func() {
		defer func() {
			// Adapter panics count as that channel's failure, never
			// as a crash of the whole dispatch.
			if r := recover(); r != nil {
				done <- fmt.Errorf("adapter panic: %v", r)
			}
		}()
		done <- adapter.Send(sendCtx, content)
	}()

	var err error
	select {
	case err = <-done:
	case <-sendCtx.Done():
		err = fmt.Errorf("send timed out after %s", uc.timeout)
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	channelSendSeconds.WithLabelValues(string(ch), result).Observe(time.Since(start).Seconds())
	return err
}
