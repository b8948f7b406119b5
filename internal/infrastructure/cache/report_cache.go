package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	reportSegment = "report:"
	genSegment    = "report_gen"
)

// ReportCache 结算报表缓存
//
// key 中带有代数，Invalidate 先递增代数再按前缀清除旧 key。
// 计算开始前读取的代数在写入前发生变化时，调用方不应再写入，旧代数的 key 也不会再被读取。
type ReportCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, prefix string, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, prefix: prefix, ttl: ttl}
}

// Generation 当前缓存代数，从未失效过时为 0
func (c *ReportCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.prefix+genSegment).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Key 报表 key：<prefix>report:<gen>:<start>:<end>，未指定的边界写作 -
func (c *ReportCache) Key(gen int64, start, end *time.Time) string {
	return c.prefix + reportSegment + strconv.FormatInt(gen, 10) + ":" + bound(start) + ":" + bound(end)
}

func bound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

// Get 命中时反序列化到 dst 并返回 true
func (c *ReportCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dst); err != nil {
		// 结构变更后的旧数据直接丢弃
		c.client.Del(ctx, key)
		return false, nil
	}
	return true, nil
}

func (c *ReportCache) Set(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate 递增代数并清除全部报表缓存，返回删除的 key 数量
func (c *ReportCache) Invalidate(ctx context.Context) (int, error) {
	if err := c.client.Incr(ctx, c.prefix+genSegment).Err(); err != nil {
		return 0, err
	}

	var cursor uint64
	deleted := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+reportSegment+"*", 100).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, err
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}
