package redis

import (
	"context"
	"errors"
	"fmt"
)

// ErrDisabled is returned by helpers that cannot degrade to a no-op
var ErrDisabled = errors.New("redis is disabled")

// Sequence hands out monotonically increasing numbers per key with INCR.
// Counters live under "{prefix}:seq:{key}" and expire TTLSequence after their last use.
type Sequence struct {
	client *Client
	prefix string
}

func NewSequence(client *Client, prefix string) *Sequence {
	return &Sequence{client: client, prefix: prefix}
}

// Next increments the counter of key and returns the new value (1 for a fresh key)
func (s *Sequence) Next(ctx context.Context, key string) (int64, error) {
	if !s.client.Enabled() {
		return 0, ErrDisabled
	}

	full := fmt.Sprintf("%s:seq:%s", s.prefix, key)

	pipe := s.client.Redis().TxPipeline()
	incr := pipe.Incr(ctx, full)
	pipe.Expire(ctx, full, TTLSequence)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("sequence %s: %w", key, err)
	}

	return incr.Val(), nil
}
