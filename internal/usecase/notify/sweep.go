package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
	"github.com/SeopE9611/sub010-backend/pkg/leaselock"
	"go.uber.org/zap"
)

const (
	sweepLeaseKey = "outbox:release-stuck"
	sweepLeaseTTL = time.Minute
	sweepReason   = "dispatch interrupted; released by operator sweep"
)

// SweepUseCase recovers records abandoned mid-dispatch. A dispatch that
// crashed after claiming its record leaves it in dispatching with no other
// way out; the sweep conditionally moves such records to failed so operators
// can retry them. The lease lock keeps the sweep single-flight across
// replicas.
type SweepUseCase struct {
	repo       notification.Repository
	locker     leaselock.Locker
	stuckAfter time.Duration
	logger     *zap.Logger
}

func NewSweepUseCase(repo notification.Repository, locker leaselock.Locker, stuckAfter time.Duration, logger *zap.Logger) *SweepUseCase {
	return &SweepUseCase{
		repo:       repo,
		locker:     locker,
		stuckAfter: stuckAfter,
		logger:     logger,
	}
}

// Execute releases stuck records and returns how many were moved to failed.
func (uc *SweepUseCase) Execute(ctx context.Context) (int64, error) {
	handle, acquired, err := uc.locker.TryLock(ctx, sweepLeaseKey, sweepLeaseTTL)
	if err != nil {
		return 0, err
	}
	if !acquired {
		return 0, fmt.Errorf("%w: sweep already running", notification.ErrConflict)
	}
	defer func() {
		if unlockErr := handle.Unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			uc.logger.Warn("outbox_sweep_unlock_failed", zap.Error(unlockErr))
		}
	}()

	released, err := uc.repo.ReleaseStuck(ctx, uc.stuckAfter, sweepReason)
	if err != nil {
		return 0, err
	}
	if released > 0 {
		uc.logger.Warn("outbox_stuck_released",
			zap.Int64("count", released),
			zap.Duration("stuck_after", uc.stuckAfter),
		)
	}
	return released, nil
}
