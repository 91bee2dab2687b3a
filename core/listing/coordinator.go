package listing

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/tenant"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

type Options[E Record] struct {
	Resource string
	PageSize int
	Filters  Filters
	Ordering []core.DBOrdering
	Cache    *QueryCache // optional
	Logger   core.Logger // optional

	// OnApply is called, with the coordinator locked, whenever a fetched page replaces the current rows.
	OnApply func(prev, next []E)
}

// Snapshot is a consistent view of the coordinator state.
type Snapshot[E Record] struct {
	Rows       []E
	Pagination Pagination
	Filters    Filters
	Ordering   []core.DBOrdering
	Status     Status
	Err        error // set when Status is StatusFailed
}

// Coordinator produces the current page of a resource list.
//
// Every filter or ordering change resets the page index to 0. Responses are applied
// last-request-wins: a response is dropped when the coordinator's query changed while it
// was in flight, or when a newer response for the same query was already applied.
// Identical concurrent fetches share a single data source call.
type Coordinator[E Record] struct {
	src      DataSource[E]
	resource string
	cache    *QueryCache
	logger   core.Logger
	onApply  func(prev, next []E)
	flights  singleflight.Group

	mu         sync.Mutex
	filters    Filters
	ordering   []core.DBOrdering
	page       Pagination
	rows       []E
	status     Status
	err        error
	seq        uint64 // last issued request
	applied    uint64 // last applied request
	appliedKey string
	gen        uint64 // bumped by Invalidate
	pending    int
}

func NewCoordinator[E Record](src DataSource[E], opts Options[E]) *Coordinator[E] {
	return &Coordinator[E]{
		src:      src,
		resource: opts.Resource,
		cache:    opts.Cache,
		logger:   opts.Logger,
		onApply:  opts.OnApply,
		filters:  opts.Filters.Clean(),
		ordering: opts.Ordering,
		page:     Pagination{PageSize: opts.PageSize},
	}
}

func (c *Coordinator[E]) Resource() string { return c.resource }

// query must be called with c.mu held.
func (c *Coordinator[E]) query() Query {
	return Query{
		Filters:  c.filters,
		Ordering: c.ordering,
		Page:     c.page.PageIndex,
		PageSize: c.page.PageSize,
	}
}

func (c *Coordinator[E]) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query()
}

func (c *Coordinator[E]) Pagination() Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

func (c *Coordinator[E]) Rows() []E {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]E(nil), c.rows...)
}

func (c *Coordinator[E]) Snapshot() Snapshot[E] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot[E]{
		Rows:       append([]E(nil), c.rows...),
		Pagination: c.page,
		Filters:    c.filters.Clean(),
		Ordering:   append([]core.DBOrdering(nil), c.ordering...),
		Status:     c.status,
		Err:        c.err,
	}
}

// setFilters must be called with c.mu held.
func (c *Coordinator[E]) setFilters(f Filters) {
	f = f.Clean()
	if f.Key() != c.filters.Key() {
		c.page.PageIndex = 0
	}
	c.filters = f
}

// SetFilter sets (or, with an empty value, removes) one filter.
func (c *Coordinator[E]) SetFilter(key string, v Value) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := make(Filters, len(c.filters)+1)
	for k, val := range c.filters {
		f[k] = val
	}
	f[key] = v
	c.setFilters(f)
}

// SetFilters replaces all filters.
func (c *Coordinator[E]) SetFilters(f Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setFilters(f)
}

func (c *Coordinator[E]) ClearFilters() {
	c.SetFilters(nil)
}

func (c *Coordinator[E]) SetOrdering(orderings ...core.DBOrdering) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if core.FormatOrdering(orderings) != core.FormatOrdering(c.ordering) {
		c.page.PageIndex = 0
	}
	c.ordering = orderings
}

func (c *Coordinator[E]) SetPageSize(size int) error {
	if size <= 0 {
		return ErrInvalidPageSize
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if size != c.page.PageSize {
		c.page.PageIndex = 0
	}
	c.page.PageSize = size
	return nil
}

func (c *Coordinator[E]) SetPage(index int) error {
	if index < 0 {
		return fmt.Errorf("invalid page index %d", index)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page.PageIndex = index
	return nil
}

// Fetch lists the current page and applies it unless it got superseded, in which case ErrSuperseded is returned.
// A failed fetch puts the coordinator in StatusFailed and returns a *FetchError.
func (c *Coordinator[E]) Fetch(ctx context.Context) (Result[E], error) {
	c.mu.Lock()
	q := c.query()
	if q.PageSize <= 0 {
		c.mu.Unlock()
		return Result[E]{}, ErrInvalidPageSize
	}
	key := q.Key()
	c.seq++
	seq := c.seq
	gen := c.gen
	c.pending++
	c.status = StatusLoading
	c.mu.Unlock()

	res, err := c.load(ctx, q, gen)

	c.mu.Lock()
	c.pending--
	if key != c.query().Key() || (key == c.appliedKey && seq < c.applied) {
		if c.pending == 0 && c.status == StatusLoading {
			c.status = StatusIdle
		}
		c.mu.Unlock()
		return Result[E]{}, ErrSuperseded
	}
	c.applied = seq
	c.appliedKey = key

	if err != nil {
		prev := c.rows
		c.rows = nil
		c.status = StatusFailed
		if c.onApply != nil {
			c.onApply(prev, nil)
		}
		c.err = &FetchError{Resource: c.resource, Query: q, Err: err}
		fErr := c.err
		c.mu.Unlock()
		return Result[E]{}, fErr
	}

	prev := c.rows
	c.rows = res.Rows
	c.page.TotalCount = res.Count
	c.status = StatusReady
	c.err = nil
	if c.onApply != nil {
		c.onApply(prev, res.Rows)
	}

	// the list shrank under the current page (e.g. rows deleted): move to the last page
	refetch := false
	if !c.page.InRange() {
		last := c.page.PageCount() - 1
		if last < 0 {
			last = 0
		}
		c.page.PageIndex = last
		refetch = true
	}
	c.mu.Unlock()

	if refetch {
		return c.Fetch(ctx)
	}
	return res, nil
}

func (c *Coordinator[E]) load(ctx context.Context, q Query, gen uint64) (Result[E], error) {
	tenantID := tenant.FromContext(ctx)
	flightKey := tenantID + "/" + c.resource + "/" + strconv.FormatUint(gen, 10) + "/" + q.Key()

	var cacheKey string
	if c.cache != nil {
		key, err := c.cache.Key(ctx, tenantID, c.resource, q)
		if err != nil {
			c.warn("building cache key", err)
		} else {
			cacheKey = key
			var cached Result[E]
			if ok, err := c.cache.Load(ctx, key, &cached); err != nil {
				c.warn("loading cached result", err)
			} else if ok {
				return cached, nil
			}
			flightKey = key + "/" + strconv.FormatUint(gen, 10)
		}
	}

	v, err, _ := c.flights.Do(flightKey, func() (interface{}, error) {
		res, err := c.src.List(ctx, q)
		if err != nil {
			return nil, err
		}
		if cacheKey != "" {
			if err := c.cache.Save(ctx, cacheKey, res); err != nil {
				c.warn("caching result", err)
			}
		}
		return res, nil
	})
	if err != nil {
		return Result[E]{}, err
	}
	return v.(Result[E]), nil
}

// Invalidate marks the cached pages of the resource stale and fetches the current page again.
func (c *Coordinator[E]) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.Invalidate(ctx, tenant.FromContext(ctx), c.resource); err != nil {
			c.warn("invalidating cache", err)
		}
	}
	if _, err := c.Fetch(ctx); err != nil && err != ErrSuperseded {
		return err
	}
	return nil
}

func (c *Coordinator[E]) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(fmt.Sprintf("%s %s: %v", c.resource, msg, err), err)
	}
}
