package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
	"github.com/SeopE9611/sub010-backend/pkg/leaselock"
	"go.uber.org/zap"
)

const retryLeaseTTL = 30 * time.Second

// RetryUseCase re-arms a failed record and synchronously re-runs the
// dispatch. Sent records are terminal; re-notifying requires a fresh enqueue.
type RetryUseCase struct {
	repo     notification.Repository
	dispatch *DispatchUseCase
	locker   leaselock.Locker
	logger   *zap.Logger
}

func NewRetryUseCase(repo notification.Repository, dispatch *DispatchUseCase, locker leaselock.Locker, logger *zap.Logger) *RetryUseCase {
	return &RetryUseCase{
		repo:     repo,
		dispatch: dispatch,
		locker:   locker,
		logger:   logger,
	}
}

// Execute validates, increments retries, and re-dispatches. operator is the
// authenticated identity for the audit log; empty when token auth was used.
func (uc *RetryUseCase) Execute(ctx context.Context, id int64, operator string) (*notification.Record, error) {
	record, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if record.Status == notification.StatusSent {
		return nil, fmt.Errorf("%w: record %d", notification.ErrAlreadySent, id)
	}
	if !record.HasRendered() {
		return nil, fmt.Errorf("%w: record %d", notification.ErrInvalidState, id)
	}

	// Single-flight concurrent operator retries before they reach the CAS;
	// the lease expires on its own if this process dies mid-dispatch.
	handle, acquired, err := uc.locker.TryLock(ctx, fmt.Sprintf("outbox:retry:%d", id), retryLeaseTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("%w: retry in flight for record %d", notification.ErrConflict, id)
	}
	defer func() {
		if unlockErr := handle.Unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			uc.logger.Warn("outbox_retry_unlock_failed", zap.Int64("record_id", id), zap.Error(unlockErr))
		}
	}()

	requeued, err := uc.repo.Requeue(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requeued {
		// Neither queued nor failed anymore: another dispatch owns it.
		return nil, fmt.Errorf("%w: record %d", notification.ErrConflict, id)
	}

	retryTotal.Inc()
	uc.logger.Info("outbox_retry",
		zap.Int64("record_id", id),
		zap.Int("retries", record.Retries+1),
		zap.String("operator", operator),
	)

	return uc.dispatch.Execute(ctx, id)
}
