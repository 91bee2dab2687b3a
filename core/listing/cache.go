package listing

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Store is the key/value backend of a QueryCache.
// Incr atomically increments the integer stored at key (0 when missing) and returns the new value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// QueryCache caches list results keyed by tenant, resource and query.
//
// Entries are never deleted: every key embeds the generation of its tenant and of its resource,
// invalidating a resource bumps the resource generation and resetting a tenant bumps the tenant one,
// so stale entries simply stop being addressed and expire.
type QueryCache struct {
	store  Store
	ttl    time.Duration
	prefix string
}

func NewQueryCache(store Store, ttl time.Duration) *QueryCache {
	return &QueryCache{store: store, ttl: ttl, prefix: "listing:"}
}

func (c *QueryCache) tenantGenKey(tenantID string) string {
	return c.prefix + "gen:" + tenantID
}

func (c *QueryCache) resourceGenKey(tenantID, resource string) string {
	return c.prefix + "gen:" + tenantID + ":" + resource
}

func (c *QueryCache) generation(ctx context.Context, key string) (int64, error) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	gen, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing generation %q", key)
	}
	return gen, nil
}

// Key returns the cache key of q in its current generation.
func (c *QueryCache) Key(ctx context.Context, tenantID, resource string, q Query) (string, error) {
	tGen, err := c.generation(ctx, c.tenantGenKey(tenantID))
	if err != nil {
		return "", errors.Wrap(err, "getting tenant generation")
	}
	rGen, err := c.generation(ctx, c.resourceGenKey(tenantID, resource))
	if err != nil {
		return "", errors.Wrap(err, "getting resource generation")
	}
	return c.prefix + "q:" + tenantID + ":" + strconv.FormatInt(tGen, 10) + ":" +
		resource + ":" + strconv.FormatInt(rGen, 10) + ":" + q.Key(), nil
}

// Load decodes the entry at key into dst, it reports false on a miss.
func (c *QueryCache) Load(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err = json.Unmarshal(data, dst); err != nil {
		return false, errors.Wrap(err, "decoding cached result")
	}
	return true, nil
}

func (c *QueryCache) Save(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding result")
	}
	return c.store.Set(ctx, key, data, c.ttl)
}

// Invalidate marks every cached page of the tenant's resource stale.
func (c *QueryCache) Invalidate(ctx context.Context, tenantID, resource string) error {
	_, err := c.store.Incr(ctx, c.resourceGenKey(tenantID, resource))
	return errors.Wrap(err, "bumping resource generation")
}

// Reset marks every cached page of the tenant stale, on logout or tenant switch.
func (c *QueryCache) Reset(ctx context.Context, tenantID string) error {
	_, err := c.store.Incr(ctx, c.tenantGenKey(tenantID))
	return errors.Wrap(err, "bumping tenant generation")
}
