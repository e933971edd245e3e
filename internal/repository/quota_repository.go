package repository

import (
	"context"
	"errors"
	"time"

	redis_v9 "github.com/redis/go-redis/v9"
)

const quotaCooldownKey = "llm:quota:cooldown"

// QuotaRepository remembers, across requests and instances, that the
// language model refused a call for lack of quota.
type QuotaRepository struct {
	client *redis_v9.Client
}

func NewQuotaRepository(client *redis_v9.Client) *QuotaRepository {
	return &QuotaRepository{client: client}
}

// Trip opens the cooldown window for ttl.
func (r *QuotaRepository) Trip(ctx context.Context, ttl time.Duration) error {
	if err := r.client.Set(ctx, quotaCooldownKey, time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return persistence("failed to store quota cooldown", err)
	}
	return nil
}

// CoolingDown reports whether a previous call tripped the cooldown and the
// window has not expired yet.
func (r *QuotaRepository) CoolingDown(ctx context.Context) (bool, error) {
	err := r.client.Get(ctx, quotaCooldownKey).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redis_v9.Nil) {
		return false, nil
	}
	return false, persistence("failed to read quota cooldown", err)
}
