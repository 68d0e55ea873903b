package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisRepo implements Repository using Redis. Records are stored as JSON
// under "<prefix><db>/<id>"; writes use WATCH/MULTI so a concurrent change
// between the revision check and the write surfaces as ErrConflict.
type RedisRepo struct {
	client *redis.Client
	prefix string
}

// NewRedisRepo creates a Redis-backed repository. Prefix may be empty.
func NewRedisRepo(client *redis.Client, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = "doc:"
	}
	return &RedisRepo{client: client, prefix: prefix}
}

func (r *RedisRepo) key(db, id string) string {
	return r.prefix + db + "/" + id
}

func (r *RedisRepo) Get(ctx context.Context, db, id string) (*Record, error) {
	return r.load(ctx, r.client, r.key(db, id))
}

func (r *RedisRepo) load(ctx context.Context, c redis.Cmdable, key string) (*Record, error) {
	b, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RedisRepo) Put(ctx context.Context, rec *Record, prevRev string) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := r.key(rec.DB, rec.ID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := r.load(ctx, tx, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := CheckRev(cur, prevRev); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, 0)
			return nil
		})
		return err
	}, key)
	if err == redis.TxFailedErr {
		return ErrConflict
	}
	return err
}
