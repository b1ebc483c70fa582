package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cachePrefix = "accounts:code:"

// missMarker caches a negative lookup so unknown codes do not hit the DB.
const missMarker = "-"

// Directory resolves account codes, caching results in Redis.
type Directory struct {
	repo   Repository
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewDirectory constructs the directory. A nil client disables caching.
func NewDirectory(repo Repository, client *redis.Client, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Directory{repo: repo, client: client, ttl: ttl}
}

// Lookup returns the account for code. found is false when the code is
// unknown; that is not an error.
func (d *Directory) Lookup(ctx context.Context, code string) (Account, bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Account{}, false, nil
	}
	if acc, found, ok := d.fromCache(ctx, code); ok {
		return acc, found, nil
	}
	res, err, _ := d.group.Do(code, func() (interface{}, error) {
		acc, err := d.repo.FindByCode(ctx, code)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		found := err == nil
		d.store(ctx, code, acc, found)
		return lookupResult{acc: acc, found: found}, nil
	})
	if err != nil {
		return Account{}, false, fmt.Errorf("accounts: lookup %s: %w", code, err)
	}
	out := res.(lookupResult)
	return out.acc, out.found, nil
}

// Labels resolves several codes at once. Unknown codes map to themselves.
func (d *Directory) Labels(ctx context.Context, codes []string) map[string]string {
	labels := make(map[string]string, len(codes))
	for _, code := range codes {
		if _, done := labels[code]; done || code == "" {
			continue
		}
		acc, found, err := d.Lookup(ctx, code)
		if err != nil || !found {
			labels[code] = code
			continue
		}
		labels[code] = acc.Label()
	}
	return labels
}

// Search returns active accounts matching the prefix.
func (d *Directory) Search(ctx context.Context, prefix string, limit int) ([]Account, error) {
	return d.repo.Search(ctx, strings.TrimSpace(prefix), limit)
}

// Invalidate drops a cached code.
func (d *Directory) Invalidate(ctx context.Context, code string) error {
	if d.client == nil {
		return nil
	}
	return d.client.Del(ctx, cachePrefix+code).Err()
}

type lookupResult struct {
	acc   Account
	found bool
}

func (d *Directory) fromCache(ctx context.Context, code string) (Account, bool, bool) {
	if d.client == nil {
		return Account{}, false, false
	}
	payload, err := d.client.Get(ctx, cachePrefix+code).Result()
	if err != nil {
		return Account{}, false, false
	}
	if payload == missMarker {
		return Account{}, false, true
	}
	var acc Account
	if err := json.Unmarshal([]byte(payload), &acc); err != nil {
		return Account{}, false, false
	}
	return acc, true, true
}

func (d *Directory) store(ctx context.Context, code string, acc Account, found bool) {
	if d.client == nil {
		return
	}
	value := missMarker
	if found {
		raw, err := json.Marshal(acc)
		if err != nil {
			return
		}
		value = string(raw)
	}
	_ = d.client.Set(ctx, cachePrefix+code, value, d.ttl).Err()
}
