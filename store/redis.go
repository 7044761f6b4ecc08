package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recflow/recflow/core"
)

// RedisStore 是 Redis 实现的 KeyValueStore，事件日志的默认后端。
// 连接池为进程级共享且有界：池耗尽时新获取排队至多 PoolTimeout，
// 超过后以 UNAVAILABLE 失败而不是无限阻塞。
type RedisStore struct {
	client *redis.Client
}

// RedisOptions 是 RedisStore 的连接配置。
type RedisOptions struct {
	Addr        string
	DB          int
	PoolSize    int           // 0 表示使用 go-redis 默认值
	PoolTimeout time.Duration // 池耗尽后的排队上限
}

func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		PoolTimeout: opts.PoolTimeout,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, wrapErr(err)
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Name() string { return "redis" }

// wrapErr 将连接池耗尽与连接级失败统一映射为 UNAVAILABLE，
// 调用方据此走降级路径。
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.ErrPoolTimeout) || errors.Is(err, redis.ErrClosed) {
		return core.ErrStoreUnavailable
	}
	return err
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, core.ErrStoreNotFound
	}
	return val, wrapErr(err)
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	var expiration time.Duration
	if len(ttl) > 0 && ttl[0] > 0 {
		expiration = time.Duration(ttl[0]) * time.Second
	}
	return wrapErr(r.client.Set(ctx, key, value, expiration).Err())
}

func (r *RedisStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return wrapErr(r.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err())
}

func (r *RedisStore) ZRevRangeByScore(ctx context.Context, key string, min, max float64) ([]string, error) {
	members, err := r.client.ZRevRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatFloat(min, 'f', -1, 64),
		Max: strconv.FormatFloat(max, 'f', -1, 64),
	}).Result()
	return members, wrapErr(err)
}

func (r *RedisStore) SAdd(ctx context.Context, key string, member string) error {
	return wrapErr(r.client.SAdd(ctx, key, member).Err())
}

func (r *RedisStore) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := r.client.SMembers(ctx, key).Result()
	return members, wrapErr(err)
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// 确保 RedisStore 实现了 core.Store 和 core.KeyValueStore 接口
var _ core.Store = (*RedisStore)(nil)
var _ core.KeyValueStore = (*RedisStore)(nil)
