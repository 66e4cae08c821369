package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"planet-permission-service/internal/permission"
	"planet-permission-service/internal/rolebitset"
)

const (
	keyPrefix     = "planet-permissions:"
	generationKey = keyPrefix + "generation"
)

// RedisCache is shared by every instance, so writes invalidate it directly.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Generation(ctx context.Context) (uint64, error) {
	generation, err := c.client.Get(ctx, generationKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("redis get failed: %w", err)
	}
	return generation, nil
}

// fill sets key only while the generation is unchanged. Losing the WATCH to
// a concurrent invalidation drops the write.
func (c *RedisCache) fill(ctx context.Context, generation uint64, key string, value string) error {
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, c.ttl)
			return nil
		})
		return err
	}, generationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (c *RedisCache) invalidate(ctx context.Context, key string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, key)
		return nil
	})
	return err
}

func (c *RedisCache) GetNode(ctx context.Context, key permission.NodeKey) (permission.Node, error) {
	data, err := c.client.Get(ctx, keyPrefix+nodeKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return permission.Node{}, ErrCacheMiss
	} else if err != nil {
		return permission.Node{}, fmt.Errorf("redis get failed: %w", err)
	}

	words, err := parseWords(data, 2)
	if err != nil {
		c.client.Del(ctx, keyPrefix+nodeKey(key))
		return permission.Node{}, fmt.Errorf("failed to parse node: %w", err)
	}
	return permission.Node{Code: words[0], Mask: words[1], TargetType: key.TargetType}, nil
}

func (c *RedisCache) SetNode(ctx context.Context, key permission.NodeKey, node permission.Node) error {
	return c.client.Set(ctx, keyPrefix+nodeKey(key), formatWords(node.Code, node.Mask), c.ttl).Err()
}

func (c *RedisCache) FillNode(ctx context.Context, generation uint64, key permission.NodeKey, node permission.Node) error {
	return c.fill(ctx, generation, keyPrefix+nodeKey(key), formatWords(node.Code, node.Mask))
}

func (c *RedisCache) InvalidateNode(ctx context.Context, key permission.NodeKey) error {
	return c.invalidate(ctx, keyPrefix+nodeKey(key))
}

func (c *RedisCache) GetMemberRoles(ctx context.Context, planetId uuid.UUID, userId uuid.UUID) (rolebitset.RoleBitset, error) {
	key := keyPrefix + memberKey(planetId, userId)

	data, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return rolebitset.RoleBitset{}, ErrCacheMiss
	} else if err != nil {
		return rolebitset.RoleBitset{}, fmt.Errorf("redis get failed: %w", err)
	}

	words, err := parseWords(data, rolebitset.WordCount)
	if err != nil {
		c.client.Del(ctx, key)
		return rolebitset.RoleBitset{}, fmt.Errorf("failed to parse member roles: %w", err)
	}
	return rolebitset.RoleBitset([rolebitset.WordCount]uint64(words)), nil
}

func (c *RedisCache) SetMemberRoles(ctx context.Context, planetId uuid.UUID, userId uuid.UUID, roles rolebitset.RoleBitset) error {
	return c.client.Set(ctx, keyPrefix+memberKey(planetId, userId), formatWords(roles[:]...), c.ttl).Err()
}

func (c *RedisCache) FillMemberRoles(ctx context.Context, generation uint64, planetId uuid.UUID, userId uuid.UUID,
	roles rolebitset.RoleBitset) error {

	return c.fill(ctx, generation, keyPrefix+memberKey(planetId, userId), formatWords(roles[:]...))
}

func (c *RedisCache) InvalidateMemberRoles(ctx context.Context, planetId uuid.UUID, userId uuid.UUID) error {
	return c.invalidate(ctx, keyPrefix+memberKey(planetId, userId))
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func formatWords(words ...uint64) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = strconv.FormatUint(w, 16)
	}
	return strings.Join(parts, ":")
}

func parseWords(data string, count int) ([]uint64, error) {
	parts := strings.Split(data, ":")
	if len(parts) != count {
		return nil, fmt.Errorf("expected %d words, got %d", count, len(parts))
	}

	words := make([]uint64, count)
	for i, part := range parts {
		w, err := strconv.ParseUint(part, 16, 64)
		if err != nil {
			return nil, err
		}
		words[i] = w
	}
	return words, nil
}
