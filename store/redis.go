package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fogfish/opts"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "loom:transcript:"

// Redis archives transcripts in a Redis instance: one key per transcript
// plus a sorted set indexing run ids by save time. With a TTL set, archives
// expire and List lazily prunes their index entries.
type Redis struct {
	client   *redis.Client
	prefix   string
	ttl      time.Duration
	password string
	db       int
}

var _ Store = (*Redis)(nil)

var (
	// WithPrefix overrides the key prefix shared archives use to avoid
	// colliding in one Redis database.
	WithPrefix = opts.ForName[Redis, string]("prefix")
	// WithTTL expires archived transcripts after the given duration. Zero,
	// the default, keeps them forever.
	WithTTL = opts.ForName[Redis, time.Duration]("ttl")
	// WithPassword authenticates the connection NewRedis opens. Ignored by
	// NewRedisFromClient.
	WithPassword = opts.ForName[Redis, string]("password")
	// WithDB selects the Redis database NewRedis connects to. Ignored by
	// NewRedisFromClient.
	WithDB = opts.ForName[Redis, int]("db")
)

// NewRedis connects to the Redis instance at addr.
func NewRedis(addr string, options ...opts.Option[Redis]) (*Redis, error) {
	r := &Redis{prefix: defaultRedisPrefix}
	if err := opts.Apply(r, options); err != nil {
		return nil, err
	}
	r.client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: r.password,
		DB:       r.db,
	})
	return r, nil
}

// NewRedisFromClient wraps an existing client. The caller keeps ownership of
// connection configuration; Close still closes the client.
func NewRedisFromClient(client *redis.Client, options ...opts.Option[Redis]) (*Redis, error) {
	r := &Redis{client: client, prefix: defaultRedisPrefix}
	if err := opts.Apply(r, options); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Redis) key(runID string) string { return r.prefix + runID }

func (r *Redis) indexKey() string { return r.prefix + "index" }

func (r *Redis) Save(ctx context.Context, tr Transcript) error {
	tr, err := prepare(tr)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("marshal transcript %s: %w", tr.RunID, err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key(tr.RunID), payload, r.ttl)
	pipe.ZAdd(ctx, r.indexKey(), redis.Z{
		Score:  float64(time.Time(tr.SavedAt).UnixMilli()),
		Member: tr.RunID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save transcript %s: %w", tr.RunID, err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, runID string) (Transcript, error) {
	payload, err := r.client.Get(ctx, r.key(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Transcript{}, ErrNotFound
	}
	if err != nil {
		return Transcript{}, fmt.Errorf("load transcript %s: %w", runID, err)
	}

	var tr Transcript
	if err := json.Unmarshal(payload, &tr); err != nil {
		return Transcript{}, fmt.Errorf("unmarshal transcript %s: %w", runID, err)
	}
	return tr, nil
}

func (r *Redis) List(ctx context.Context) ([]string, error) {
	if r.ttl > 0 {
		// Keys expire on their own; their index entries do not. Anything
		// saved more than one TTL ago is gone, drop it from the index.
		cutoff := float64(time.Now().Add(-r.ttl).UnixMilli())
		err := r.client.ZRemRangeByScore(ctx, r.indexKey(), "-inf", fmt.Sprintf("%f", cutoff)).Err()
		if err != nil {
			return nil, fmt.Errorf("prune expired transcripts: %w", err)
		}
	}
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	return ids, nil
}

func (r *Redis) Delete(ctx context.Context, runID string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.key(runID))
	pipe.ZRem(ctx, r.indexKey(), runID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) Close() error { return r.client.Close() }
