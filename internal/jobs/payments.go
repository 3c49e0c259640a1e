package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"collab-service/internal/observability"
)

// PaymentExpirer expires stale pending payments.
type PaymentExpirer interface {
	ExpireStale(ctx context.Context, before time.Time) (int64, error)
}

// ExpirePayments reverts cards whose checkout was never completed.
type ExpirePayments struct {
	payments PaymentExpirer
	maxAge   time.Duration
	now      func() time.Time
	log      *logrus.Entry
}

func NewExpirePayments(payments PaymentExpirer, maxAge time.Duration, logger *logrus.Logger) *ExpirePayments {
	return &ExpirePayments{
		payments: payments,
		maxAge:   maxAge,
		now:      time.Now,
		log:      logger.WithField("job", "expire_payments"),
	}
}

func (j *ExpirePayments) Name() string { return "expire_payments" }

func (j *ExpirePayments) Run(ctx context.Context) error {
	expired, err := j.payments.ExpireStale(ctx, j.now().Add(-j.maxAge))
	if err != nil {
		return err
	}
	if expired > 0 {
		observability.AddExpiredPayments(expired)
		j.log.WithField("count", expired).Info("expired pending payments")
	}
	return nil
}

// Pruner forgets idle per-client state.
type Pruner interface {
	Prune(idle time.Duration)
}

// PruneRateLimiter drops idle visitors from the login limiter.
type PruneRateLimiter struct {
	limiter Pruner
	idle    time.Duration
}

func NewPruneRateLimiter(limiter Pruner, idle time.Duration) *PruneRateLimiter {
	return &PruneRateLimiter{limiter: limiter, idle: idle}
}

func (j *PruneRateLimiter) Name() string { return "prune_rate_limiter" }

func (j *PruneRateLimiter) Run(context.Context) error {
	j.limiter.Prune(j.idle)
	return nil
}
