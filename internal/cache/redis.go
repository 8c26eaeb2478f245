package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateCounter : compteurs à fenêtre fixe stockés dans Redis.
type RateCounter struct {
	client *redis.Client
}

func NewRateCounter(client *redis.Client) *RateCounter {
	return &RateCounter{client: client}
}

// IncrementRateLimit incrémente le compteur de key et renvoie sa nouvelle valeur
// ainsi que le temps restant avant sa remise à zéro.
func (r *RateCounter) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	// La fenêtre démarre avec la première requête
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		return count, window, nil
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		// clé sans expiration (EXPIRE perdu) : on la rattache à une fenêtre
		r.client.Expire(ctx, key, window)
		ttl = window
	}
	return count, ttl, nil
}

// GetRateLimit récupère le compteur de rate limit
func (r *RateCounter) GetRateLimit(ctx context.Context, key string) (int64, error) {
	val, err := r.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}
