package resource

import (
	"context"
	"io"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
	"github.com/trezcool/masomo-admin/core/tenant"
)

// nowFunc is mocked in tests.
var nowFunc = core.Now

type (
	// Repository stores the entities of one resource, scoped by tenant.
	// Get and Update return core.ErrNotFound when the entity does not exist in the tenant.
	Repository[E Entity] interface {
		List(ctx context.Context, tenantID string, crit Criteria) (listing.Result[E], error)
		Get(ctx context.Context, tenantID, id string) (E, error)
		Insert(ctx context.Context, e E) error
		Update(ctx context.Context, e E) error
		Delete(ctx context.Context, tenantID, id string) (bool, error)
		BulkUpdate(ctx context.Context, tenantID string, ids []string, patch map[string]interface{}, updatedAt time.Time) (int64, error)
	}

	Metrics interface {
		ObserveList(resource string, cached bool, d time.Duration)
		CountMutation(resource, op string, err error)
	}

	// ActionFunc runs a custom action on e. When changed is true the returned entity is saved.
	ActionFunc[E Entity] func(ctx context.Context, e E, params listing.Patch) (out E, changed bool, err error)

	// CommitFunc runs once the result of an action is stored, e is the stored entity.
	CommitFunc[E Entity] func(ctx context.Context, e E, params listing.Patch)

	// Action is a custom action. Side effects leaving the app (emails, ...) belong in Commit,
	// which is skipped when Run or the save fails.
	Action[E Entity] struct {
		Run    ActionFunc[E]
		Commit CommitFunc[E] // optional
	}

	Options struct {
		Validate    *validator.Validate
		Translator  ut.Translator
		Cache       *listing.QueryCache
		Metrics     Metrics
		Logger      core.Logger
		MaxPageSize int
	}
)

// Service exposes a resource repository as a listing.DataSource.
type Service[E Entity, P EntityPtr[E]] struct {
	desc    *Descriptor[E]
	repo    Repository[E]
	opts    Options
	flights singleflight.Group
	gen     atomic.Uint64

	mu      sync.RWMutex
	actions map[string]Action[E]
}

var _ listing.DataSource[Base] = (*Service[Base, *Base])(nil)

func NewService[E Entity, P EntityPtr[E]](desc *Descriptor[E], repo Repository[E], opts Options) *Service[E, P] {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.StringNotEmpty(desc.Name, "desc.Name"),
	).CheckAndPanic()

	return &Service[E, P]{
		desc:    desc,
		repo:    repo,
		opts:    opts,
		actions: make(map[string]Action[E]),
	}
}

func (svc *Service[E, P]) Descriptor() *Descriptor[E] { return svc.desc }

func (svc *Service[E, P]) Validate(e E) error {
	if svc.opts.Validate == nil {
		return nil
	}
	return core.TranslateErrors(svc.opts.Validate.Struct(e), svc.opts.Translator)
}

func (svc *Service[E, P]) List(ctx context.Context, q listing.Query) (listing.Result[E], error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return listing.Result[E]{}, err
	}
	if q.PageSize <= 0 {
		return listing.Result[E]{}, listing.ErrInvalidPageSize
	}
	if max := svc.opts.MaxPageSize; max > 0 && q.PageSize > max {
		return listing.Result[E]{}, core.NewValidationError(nil, core.FieldError{
			Field: "page_size",
			Error: "must be at most " + strconv.Itoa(max),
		})
	}
	crit, err := svc.desc.Criteria(q)
	if err != nil {
		return listing.Result[E]{}, err
	}

	start := time.Now()
	flightKey := tenantID + "/" + strconv.FormatUint(svc.gen.Load(), 10) + "/" + q.Key()
	var cacheKey string
	if svc.opts.Cache != nil {
		if key, err := svc.opts.Cache.Key(ctx, tenantID, svc.desc.Name, q); err != nil {
			svc.warn("building cache key", err)
		} else {
			var cached listing.Result[E]
			if ok, err := svc.opts.Cache.Load(ctx, key, &cached); err != nil {
				svc.warn("loading cached page", err)
			} else if ok {
				svc.observeList(true, start)
				return cached, nil
			}
			cacheKey = key
			flightKey = key
		}
	}

	v, err, _ := svc.flights.Do(flightKey, func() (interface{}, error) {
		res, err := svc.repo.List(ctx, tenantID, crit)
		if err != nil {
			return nil, err
		}
		if res.Rows == nil {
			res.Rows = []E{}
		}
		if cacheKey != "" {
			if err := svc.opts.Cache.Save(ctx, cacheKey, res); err != nil {
				svc.warn("caching page", err)
			}
		}
		return res, nil
	})
	if err != nil {
		return listing.Result[E]{}, errors.Wrapf(err, "listing %s", svc.desc.Name)
	}
	svc.observeList(false, start)
	return v.(listing.Result[E]), nil
}

func (svc *Service[E, P]) Get(ctx context.Context, id string) (E, error) {
	var zero E
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return zero, err
	}
	e, err := svc.repo.Get(ctx, tenantID, id)
	if err != nil {
		return zero, errors.Wrapf(err, "getting %s %s", svc.desc.Name, id)
	}
	return e, nil
}

func (svc *Service[E, P]) Create(ctx context.Context, e E) (E, error) {
	var zero E
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return zero, err
	}
	if err = svc.Validate(e); err != nil {
		return zero, err
	}

	now := nowFunc()
	P(&e).SetMeta(Base{ID: uuid.NewString(), TenantID: tenantID, CreatedAt: now, UpdatedAt: now})
	err = svc.repo.Insert(ctx, e)
	svc.mutated(ctx, tenantID, "create", err)
	if err != nil {
		return zero, errors.Wrapf(err, "inserting %s", svc.desc.Name)
	}
	return e, nil
}

// Update replaces the entity id with e, keeping its Base.
func (svc *Service[E, P]) Update(ctx context.Context, id string, e E) (E, error) {
	var zero E
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return zero, err
	}
	orig, err := svc.repo.Get(ctx, tenantID, id)
	if err != nil {
		return zero, errors.Wrapf(err, "getting %s %s", svc.desc.Name, id)
	}
	if err = svc.Validate(e); err != nil {
		return zero, err
	}
	return svc.save(ctx, orig.Meta(), e, "update")
}

func (svc *Service[E, P]) save(ctx context.Context, meta Base, e E, op string) (E, error) {
	var zero E
	meta.UpdatedAt = nowFunc()
	P(&e).SetMeta(meta)
	err := svc.repo.Update(ctx, e)
	svc.mutated(ctx, meta.TenantID, op, err)
	if err != nil {
		return zero, errors.Wrapf(err, "updating %s %s", svc.desc.Name, meta.ID)
	}
	return e, nil
}

// Delete reports false when the entity does not exist.
func (svc *Service[E, P]) Delete(ctx context.Context, id string) (bool, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return false, err
	}
	ok, err := svc.repo.Delete(ctx, tenantID, id)
	if err != nil {
		svc.count("delete", err)
		return false, errors.Wrapf(err, "deleting %s %s", svc.desc.Name, id)
	}
	if ok {
		svc.mutated(ctx, tenantID, "delete", nil)
	}
	return ok, nil
}

// BulkUpdate applies patch to the entities ids, it reports false when none of them exists.
func (svc *Service[E, P]) BulkUpdate(ctx context.Context, ids []string, patch listing.Patch) (bool, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return false, err
	}
	if len(ids) == 0 {
		return false, nil
	}
	cleaned, err := svc.desc.CleanPatch(patch)
	if err != nil {
		return false, err
	}

	n, err := svc.repo.BulkUpdate(ctx, tenantID, uniqueIDs(ids), cleaned, nowFunc())
	if err != nil {
		svc.count("bulk_update", err)
		return false, errors.Wrapf(err, "updating %s in bulk", svc.desc.Name)
	}
	if n > 0 {
		svc.mutated(ctx, tenantID, "bulk_update", nil)
	}
	return n > 0, nil
}

// Export writes every entity matching filters as CSV.
func (svc *Service[E, P]) Export(ctx context.Context, filters listing.Filters, ordering []core.DBOrdering, w io.Writer) error {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return err
	}
	crit, err := svc.desc.Criteria(listing.Query{Filters: filters, Ordering: ordering})
	if err != nil {
		return err
	}
	res, err := svc.repo.List(ctx, tenantID, crit)
	if err != nil {
		return errors.Wrapf(err, "listing %s", svc.desc.Name)
	}
	return WriteCSV(w, &svc.desc.Schema, res.Rows)
}

// RegisterAction makes a custom action available through Do.
func (svc *Service[E, P]) RegisterAction(name string, action Action[E]) {
	vala.BeginValidation().Validate(
		vala.StringNotEmpty(name, "name"),
		vala.IsNotNil(action.Run, "action.Run"),
	).CheckAndPanic()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.actions[name] = action
}

// Actions returns the names of the custom actions, sorted.
func (svc *Service[E, P]) Actions() []string {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	names := make([]string, 0, len(svc.actions))
	for name := range svc.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Do runs the custom action name on the entity id.
func (svc *Service[E, P]) Do(ctx context.Context, name, id string, params listing.Patch) (E, error) {
	var zero E
	svc.mu.RLock()
	action, ok := svc.actions[name]
	svc.mu.RUnlock()
	if !ok {
		return zero, listing.ErrUnknownAction
	}

	e, err := svc.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	out, changed, err := action.Run(ctx, e, params)
	if err != nil {
		return zero, errors.Wrapf(err, "running %s %s", svc.desc.Name, name)
	}
	if changed {
		if err = svc.Validate(out); err != nil {
			return zero, err
		}
		if out, err = svc.save(ctx, e.Meta(), out, name); err != nil {
			return zero, err
		}
	}
	if action.Commit != nil {
		action.Commit(ctx, out, params)
	}
	return out, nil
}

func (svc *Service[E, P]) mutated(ctx context.Context, tenantID, op string, err error) {
	svc.count(op, err)
	if err != nil {
		return
	}
	svc.gen.Add(1)
	if svc.opts.Cache != nil {
		if err := svc.opts.Cache.Invalidate(ctx, tenantID, svc.desc.Name); err != nil {
			svc.warn("invalidating cache", err)
		}
	}
}

func (svc *Service[E, P]) count(op string, err error) {
	if svc.opts.Metrics != nil {
		svc.opts.Metrics.CountMutation(svc.desc.Name, op, err)
	}
}

func (svc *Service[E, P]) observeList(cached bool, start time.Time) {
	if svc.opts.Metrics != nil {
		svc.opts.Metrics.ObserveList(svc.desc.Name, cached, time.Since(start))
	}
}

func (svc *Service[E, P]) warn(msg string, err error) {
	if svc.opts.Logger != nil {
		svc.opts.Logger.Warn(svc.desc.Name+" "+msg+": "+err.Error(), err)
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	return unique
}
