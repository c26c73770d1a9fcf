// Package queue implements the Distributed Queue (SPEC_FULL.md §7.2): a
// Redis-backed work list that lets multiple latchkey processes share one
// scan without duplicating probes, adapted from the
// dequeueRunningTask/worker loop pattern.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spaolacci/murmur3"

	"latchkey/scanner/target"
)

// pollInterval is how long a worker sleeps between empty dequeues, the
// same backoff the teacher's task executor worker loop uses.
const pollInterval = 1 * time.Second

// Queue is a Redis-backed FIFO of target.Probe work items, sharded across
// ShardCount lists by murmur3(probe.URL) so a large scan spreads evenly
// across whatever workers are draining it.
type Queue struct {
	rdb        *redis.Client
	keyPrefix  string
	shardCount int
	dedupKey   string
}

// Config configures the queue.
type Config struct {
	Addr       string
	Password   string
	DB         int
	KeyPrefix  string // default "latchkey:queue"
	ShardCount int    // default 8
}

// New returns a Queue backed by a Redis client for cfg.Addr. The client
// connects lazily, on the first command it sends.
func New(cfg Config) *Queue {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "latchkey:queue"
	}
	shards := cfg.ShardCount
	if shards <= 0 {
		shards = 8
	}

	return &Queue{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		keyPrefix:  prefix,
		shardCount: shards,
		dedupKey:   prefix + ":seen",
	}
}

// shardKey returns the sharded list key a probe's URL hashes to.
func (q *Queue) shardKey(url string) string {
	shard := murmur3.Sum32([]byte(url)) % uint32(q.shardCount)
	return fmt.Sprintf("%s:%d", q.keyPrefix, shard)
}

// Enqueue pushes probe onto its shard's list, skipping it (and returning
// nil) if the same URL is already in the seen set (SADD returns 0 for a
// duplicate member), so a restarted producer doesn't push a URL twice. The
// seen set is one set per key prefix and is never cleared, so a URL pushed
// in any earlier run under the same prefix is skipped as well.
func (q *Queue) Enqueue(ctx context.Context, probe target.Probe) error {
	added, err := q.rdb.SAdd(ctx, q.dedupKey, probe.URL).Result()
	if err != nil {
		return err
	}
	if added == 0 {
		return nil
	}

	payload, err := json.Marshal(probeWire{URL: probe.URL, Target: probe.Target, Path: probe.Path, ProfileName: probeName(probe)})
	if err != nil {
		return err
	}
	return q.rdb.RPush(ctx, q.shardKey(probe.URL), payload).Err()
}

func probeName(p target.Probe) string {
	if p.Profile == nil {
		return ""
	}
	return p.Profile.Name
}

// probeWire is the JSON-serializable projection of a target.Probe that
// crosses the Redis boundary; the full *catalog.Profile is re-attached by
// the dequeuing worker from its own loaded catalogue, keyed on ProfileName.
type probeWire struct {
	URL         string `json:"url"`
	Target      string `json:"target"`
	Path        string `json:"path"`
	ProfileName string `json:"profile_name"`
}

// Dequeue pops one item from shard without blocking, returning empty
// strings and a nil error if the shard was empty — callers loop on that
// and sleep for PollInterval between empty passes, the same way the task
// executor's worker loop backs off on an empty queue.
func (q *Queue) Dequeue(ctx context.Context, shard int) (url, profileName string, err error) {
	key := fmt.Sprintf("%s:%d", q.keyPrefix, shard)

	result, err := q.rdb.LPop(ctx, key).Result()
	if err == redis.Nil {
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}

	var wire probeWire
	if err := json.Unmarshal([]byte(result), &wire); err != nil {
		return "", "", err
	}
	return wire.URL, wire.ProfileName, nil
}

// ShardCount returns the number of shards work is spread across.
func (q *Queue) ShardCount() int { return q.shardCount }

// PollInterval is exported so cmd/latchkey's queue worker loop can reuse the
// same backoff constant rather than redeclaring it.
func PollInterval() time.Duration { return pollInterval }

// Close releases the underlying Redis connection.
func (q *Queue) Close() error { return q.rdb.Close() }
