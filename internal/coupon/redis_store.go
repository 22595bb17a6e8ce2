package coupon

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore reads coupons from hashes at <Prefix><CODE> with fields kind,
// value, min_spend and expires_at (unix seconds). Lookups that miss fall
// through to Fallback when set.
type RedisStore struct {
	Client   redis.UniversalClient
	Prefix   string
	Fallback Store
}

func (s RedisStore) key(code string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "coupon:"
	}
	return prefix + NormalizeCode(code)
}

// Get implements Store.
func (s RedisStore) Get(ctx context.Context, code string) (Rule, error) {
	fields, err := s.Client.HGetAll(ctx, s.key(code)).Result()
	if err != nil {
		return Rule{}, fmt.Errorf("load coupon: %w", err)
	}
	if len(fields) == 0 {
		if s.Fallback != nil {
			return s.Fallback.Get(ctx, code)
		}
		return Rule{}, ErrNotFound
	}
	r := Rule{Code: NormalizeCode(code), Kind: strings.ToLower(strings.TrimSpace(fields["kind"]))}
	if r.Kind != KindPercent && r.Kind != KindFixed {
		return Rule{}, fmt.Errorf("coupon %s: unknown kind %q", r.Code, fields["kind"])
	}
	if r.Value, err = strconv.ParseInt(fields["value"], 10, 64); err != nil {
		return Rule{}, fmt.Errorf("coupon %s: invalid value: %w", r.Code, err)
	}
	if v := fields["min_spend"]; v != "" {
		if r.MinSpend, err = strconv.ParseInt(v, 10, 64); err != nil {
			return Rule{}, fmt.Errorf("coupon %s: invalid min_spend: %w", r.Code, err)
		}
	}
	if v := fields["expires_at"]; v != "" {
		unix, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Rule{}, fmt.Errorf("coupon %s: invalid expires_at: %w", r.Code, err)
		}
		expires := time.Unix(unix, 0)
		r.ExpiresAt = &expires
	}
	return r, nil
}

// Save writes r as a hash, with the key expiring alongside the coupon.
func (s RedisStore) Save(ctx context.Context, r Rule) error {
	key := s.key(r.Code)
	values := map[string]any{
		"kind":      r.Kind,
		"value":     r.Value,
		"min_spend": r.MinSpend,
	}
	pipe := s.Client.TxPipeline()
	pipe.Del(ctx, key)
	if r.ExpiresAt != nil {
		values["expires_at"] = r.ExpiresAt.Unix()
		pipe.HSet(ctx, key, values)
		pipe.ExpireAt(ctx, key, *r.ExpiresAt)
	} else {
		pipe.HSet(ctx, key, values)
	}
	_, err := pipe.Exec(ctx)
	return err
}
