package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/domain"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/ports"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const claimPollInterval = 100 * time.Millisecond

// IdempotencyManagerImpl implements ports.IdempotencyManager with a Redis
// claim for in-flight serialization and a two-layer result lookup (Redis
// cache in front of the durable idempotency records).
type IdempotencyManagerImpl struct {
	repo      ports.IdempotencyRepository
	cache     ports.IdempotencyCache
	claims    ports.IdempotencyClaimStore
	retention time.Duration
	claimTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewIdempotencyManager creates a new IdempotencyManagerImpl. claimTTL must
// exceed the gateway timeout so an in-flight request never loses its claim
// before its transaction has been finalized.
func NewIdempotencyManager(
	repo ports.IdempotencyRepository,
	cache ports.IdempotencyCache,
	claims ports.IdempotencyClaimStore,
	retention time.Duration,
	claimTTL time.Duration,
	log zerolog.Logger,
) *IdempotencyManagerImpl {
	return &IdempotencyManagerImpl{
		repo:      repo,
		cache:     cache,
		claims:    claims,
		retention: retention,
		claimTTL:  claimTTL,
		log:       log,
		now:       time.Now,
	}
}

// Begin resolves the idempotency key. Exactly one concurrent caller per key
// receives Proceed; the rest wait for the first caller to commit or release
// and then receive the stored result or a retryable conflict error.
func (m *IdempotencyManagerImpl) Begin(ctx context.Context, key string) (*ports.IdempotencyDecision, error) {
	if rec, err := m.lookup(ctx, key); err != nil {
		return nil, err
	} else if rec != nil {
		return &ports.IdempotencyDecision{Replay: rec}, nil
	}

	acquired, err := m.claims.Acquire(ctx, key, m.claimTTL)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("acquire idempotency claim: %w", err))
	}
	if acquired {
		return &ports.IdempotencyDecision{Proceed: true}, nil
	}

	// Another caller holds the claim: wait until it commits or releases.
	return m.awaitResult(ctx, key)
}

// Commit persists the idempotency record inside the caller's ledger
// transaction so the stored result becomes durable together with the state
// change it describes.
func (m *IdempotencyManagerImpl) Commit(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) error {
	if rec.ExpiresAt.IsZero() {
		rec.ExpiresAt = rec.CreatedAt.Add(m.retention)
	}
	if err := m.repo.Create(ctx, tx, rec); err != nil {
		return fmt.Errorf("persist idempotency record: %w", err)
	}
	return nil
}

// Finish publishes the committed result to the cache and drops the in-flight
// claim. Both are best effort: the durable record is already in place.
func (m *IdempotencyManagerImpl) Finish(ctx context.Context, rec *domain.IdempotencyRecord) {
	ttl := rec.ExpiresAt.Sub(m.now())
	if ttl > 0 {
		if err := m.cache.Set(ctx, rec.Key, rec.ResponseJSON, ttl); err != nil {
			m.log.Warn().Err(err).Str("key", rec.Key).Msg("failed to cache idempotency result")
		}
	}
	if err := m.claims.Release(ctx, rec.Key); err != nil {
		m.log.Warn().Err(err).Str("key", rec.Key).Msg("failed to release idempotency claim")
	}
}

// Release frees the claim after a failure that happened before the gateway
// call, so a legitimate retry can proceed.
func (m *IdempotencyManagerImpl) Release(ctx context.Context, key string) error {
	if err := m.claims.Release(ctx, key); err != nil {
		return apperror.InternalError(fmt.Errorf("release idempotency claim: %w", err))
	}
	return nil
}

// lookup checks the fast path, then the durable records. Expired records are
// purged lazily and do not count as replays.
func (m *IdempotencyManagerImpl) lookup(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	cached, err := m.cache.Get(ctx, key)
	if err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("idempotency cache lookup failed, falling through to DB")
	}
	if cached != nil {
		return &domain.IdempotencyRecord{Key: key, ResponseJSON: cached}, nil
	}

	rec, err := m.repo.Get(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("idempotency record lookup: %w", err))
	}
	if rec == nil {
		return nil, nil
	}
	if rec.IsExpired(m.now()) {
		if _, err := m.repo.DeleteExpired(ctx, m.now()); err != nil {
			m.log.Warn().Err(err).Msg("lazy idempotency purge failed")
		}
		return nil, nil
	}
	return rec, nil
}

// awaitResult polls until the current claim holder commits or releases.
func (m *IdempotencyManagerImpl) awaitResult(ctx context.Context, key string) (*ports.IdempotencyDecision, error) {
	deadline := time.NewTimer(m.claimTTL)
	defer deadline.Stop()
	ticker := time.NewTicker(claimPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, apperror.InternalError(fmt.Errorf("waiting for idempotency claim: %w", ctx.Err()))
		case <-deadline.C:
			return nil, apperror.ErrIdempotencyInFlight()
		case <-ticker.C:
			held, err := m.claims.Exists(ctx, key)
			if err != nil {
				return nil, apperror.InternalError(fmt.Errorf("poll idempotency claim: %w", err))
			}
			if held {
				continue
			}
			rec, err := m.lookup(ctx, key)
			if err != nil {
				return nil, err
			}
			if rec != nil {
				return &ports.IdempotencyDecision{Replay: rec}, nil
			}
			// First caller released without committing: the operation never
			// reached the gateway, so a retry is safe.
			return nil, apperror.ErrIdempotencyInFlight()
		}
	}
}
