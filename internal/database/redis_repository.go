package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"codpage_back_end/internal/apperrors"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stocke chaque enregistrement en JSON sous "<prefix>:<id>"
// et l'ordre d'insertion dans la liste "<prefix>:ids" (doublée du set "<prefix>:idset").
type RedisRepository[T Record[T]] struct {
	client   *redis.Client
	prefix   string
	resource string
}

func NewRedisRepository[T Record[T]](client *redis.Client, prefix, resource string) *RedisRepository[T] {
	return &RedisRepository[T]{client: client, prefix: prefix, resource: resource}
}

func (r *RedisRepository[T]) key(id string) string { return r.prefix + ":" + id }

func (r *RedisRepository[T]) idsKey() string { return r.prefix + ":ids" }

func (r *RedisRepository[T]) setKey() string { return r.prefix + ":idset" }

func (r *RedisRepository[T]) List(ctx context.Context) ([]T, error) {
	ids, err := r.client.LRange(ctx, r.idsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange %s: %w", r.prefix, err)
	}
	if len(ids) == 0 {
		return []T{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget %s: %w", r.prefix, err)
	}

	out := make([]T, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// clé expirée ou supprimée hors de ce dépôt
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("décodage %s %s: %w", r.resource, ids[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *RedisRepository[T]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return rec, apperrors.NotFound(r.resource, id)
	}
	if err != nil {
		return rec, fmt.Errorf("redis get %s: %w", r.key(id), err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("décodage %s %s: %w", r.resource, id, err)
	}
	return rec, nil
}

func (r *RedisRepository[T]) Put(ctx context.Context, rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encodage %s: %w", r.resource, err)
	}

	id := rec.GetID()
	if err := r.client.Set(ctx, r.key(id), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key(id), err)
	}
	// SADD renvoie 1 uniquement pour un nouvel id : l'ordre d'insertion n'est ajouté qu'une fois
	added, err := r.client.SAdd(ctx, r.setKey(), id).Result()
	if err != nil {
		return fmt.Errorf("redis sadd %s: %w", r.setKey(), err)
	}
	if added == 1 {
		if err := r.client.RPush(ctx, r.idsKey(), id).Err(); err != nil {
			return fmt.Errorf("redis rpush %s: %w", r.idsKey(), err)
		}
	}
	return nil
}

func (r *RedisRepository[T]) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, r.key(id))
	pipe.SRem(ctx, r.setKey(), id)
	pipe.LRem(ctx, r.idsKey(), 0, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete %s: %w", r.key(id), err)
	}
	if del.Val() == 0 {
		return apperrors.NotFound(r.resource, id)
	}
	return nil
}
