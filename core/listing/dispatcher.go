package listing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
)

var (
	ErrCancelled            = errors.New("action cancelled")
	ErrConfirmationRequired = errors.New("action requires a confirmer")
	ErrActionInProgress     = errors.New("action already in progress")
)

type ActionKind int

const (
	ActionEdit ActionKind = iota
	ActionDelete
	ActionPatch
	ActionCustom
)

// Action is a gesture on a row or on the selected rows.
type Action struct {
	Kind        ActionKind
	Name        string
	Patch       Patch // ActionPatch only
	Confirm     bool  // ask the Confirmer first
	Destructive bool  // clear the selection after a bulk run
}

var (
	EditAction   = Action{Kind: ActionEdit, Name: "edit"}
	DeleteAction = Action{Kind: ActionDelete, Name: "delete", Confirm: true, Destructive: true}
)

// PatchAction sets the patched columns on every target row, e.g. a bulk status change.
func PatchAction(name string, patch Patch) Action {
	return Action{Kind: ActionPatch, Name: name, Patch: patch, Confirm: true}
}

func CustomAction(name string) Action {
	return Action{Kind: ActionCustom, Name: name}
}

// CustomFunc runs a page supplied action. It reports whether backend state was changed.
type CustomFunc[E Record] func(ctx context.Context, rows []E) (mutated bool, err error)

// Confirmer guards irreversible actions.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Notifier surfaces action outcomes to the user.
type Notifier interface {
	Success(msg string)
	Failure(err error)
}

type selector[E Record] interface {
	SelectedRows() []E
	ClearSelection()
}

type DispatcherOptions[E Record] struct {
	Resource  string
	Confirmer Confirmer
	Notifier  Notifier
	Custom    map[string]CustomFunc[E]
}

// Dispatcher turns a row action into exactly one effect.
// Every action that changes backend state ends with one invalidation of the list,
// failed mutations leave the list untouched unless their target vanished.
// A gesture repeated while it runs (same action on the same rows) returns ErrActionInProgress.
type Dispatcher[E Record] struct {
	src       DataSource[E]
	inv       Invalidator
	dialog    *Dialog[E]
	sel       selector[E]
	resource  string
	confirmer Confirmer
	notifier  Notifier
	custom    map[string]CustomFunc[E]

	mu      sync.Mutex
	running map[string]struct{}
}

func NewDispatcher[E Record](src DataSource[E], inv Invalidator, dialog *Dialog[E], sel selector[E], opts DispatcherOptions[E]) *Dispatcher[E] {
	return &Dispatcher[E]{
		src:       src,
		inv:       inv,
		dialog:    dialog,
		sel:       sel,
		resource:  opts.Resource,
		confirmer: opts.Confirmer,
		notifier:  opts.Notifier,
		custom:    opts.Custom,
		running:   make(map[string]struct{}),
	}
}

// begin marks the gesture running, it returns false when it already is.
func (d *Dispatcher[E]) begin(action Action, rows []E) (string, bool) {
	ids := recordIDs(rows)
	sort.Strings(ids)
	key := fmt.Sprintf("%d:%s:%s", action.Kind, action.Name, strings.Join(ids, ","))

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.running[key]; ok {
		return key, false
	}
	d.running[key] = struct{}{}
	return key, true
}

func (d *Dispatcher[E]) end(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.running, key)
}

// Single runs action on one row. ActionEdit opens the dialog seeded with a copy of row.
func (d *Dispatcher[E]) Single(ctx context.Context, action Action, row E) error {
	if action.Kind == ActionEdit {
		if d.dialog == nil {
			return ErrUnknownAction
		}
		return d.dialog.Open(ModeEdit, row)
	}

	key, ok := d.begin(action, []E{row})
	if !ok {
		return ErrActionInProgress
	}
	defer d.end(key)

	switch action.Kind {
	case ActionDelete:
		return d.delete(ctx, action, []E{row})
	case ActionPatch:
		return d.patch(ctx, action, []E{row})
	case ActionCustom:
		return d.runCustom(ctx, action, []E{row})
	}
	return ErrUnknownAction
}

// Bulk runs action on the selected rows. Nothing happens when the selection is empty.
// The selection is cleared after a destructive action ran, whatever its outcome.
func (d *Dispatcher[E]) Bulk(ctx context.Context, action Action) error {
	if d.sel == nil || action.Kind == ActionEdit {
		return ErrUnknownAction
	}
	rows := d.sel.SelectedRows()
	if len(rows) == 0 {
		return nil
	}
	key, ok := d.begin(action, rows)
	if !ok {
		return ErrActionInProgress
	}
	defer d.end(key)

	var err error
	switch action.Kind {
	case ActionDelete:
		err = d.delete(ctx, action, rows)
	case ActionPatch:
		err = d.patch(ctx, action, rows)
	case ActionCustom:
		err = d.runCustom(ctx, action, rows)
	default:
		return ErrUnknownAction
	}
	if err == ErrCancelled || err == ErrConfirmationRequired || err == ErrUnknownAction {
		return err
	}
	if action.Destructive {
		d.sel.ClearSelection()
	}
	return err
}

func (d *Dispatcher[E]) confirm(ctx context.Context, action Action, n int) error {
	if !action.Confirm {
		return nil
	}
	if d.confirmer == nil {
		return ErrConfirmationRequired
	}
	var noun string
	if n == 1 {
		noun = "1 row of " + d.resource
	} else {
		noun = fmt.Sprintf("%d rows of %s", n, d.resource)
	}
	ok, err := d.confirmer.Confirm(ctx, fmt.Sprintf("%s %s?", action.Name, noun))
	if err != nil {
		return errors.Wrap(err, "confirming "+action.Name)
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

func (d *Dispatcher[E]) delete(ctx context.Context, action Action, rows []E) error {
	if err := d.confirm(ctx, action, len(rows)); err != nil {
		return err
	}

	var (
		notFound, failed []string
		firstErr         error
		deleted          int
	)
	for _, id := range recordIDs(rows) {
		ok, err := d.src.Delete(ctx, id)
		switch {
		case err != nil && core.IsNotFound(err):
			notFound = append(notFound, id)
		case err != nil:
			failed = append(failed, id)
			if firstErr == nil {
				firstErr = err
			}
		case !ok:
			notFound = append(notFound, id)
		default:
			deleted++
		}
	}

	if deleted > 0 || len(notFound) > 0 {
		d.invalidate(ctx)
	}
	if len(failed) > 0 {
		return d.fail(&MutationError{Op: action.Name, Resource: d.resource, IDs: failed, Err: firstErr})
	}
	if len(notFound) > 0 {
		return d.fail(&MutationError{Op: action.Name, Resource: d.resource, IDs: notFound, NotFound: true})
	}
	d.succeed(fmt.Sprintf("%d %s deleted", deleted, d.resource))
	return nil
}

func (d *Dispatcher[E]) patch(ctx context.Context, action Action, rows []E) error {
	if err := d.confirm(ctx, action, len(rows)); err != nil {
		return err
	}

	ids := recordIDs(rows)
	ok, err := d.src.BulkUpdate(ctx, ids, action.Patch)
	switch {
	case err != nil && core.IsNotFound(err), err == nil && !ok:
		d.invalidate(ctx)
		return d.fail(&MutationError{Op: action.Name, Resource: d.resource, IDs: ids, NotFound: true})
	case err != nil:
		return d.fail(&MutationError{Op: action.Name, Resource: d.resource, IDs: ids, Err: err})
	}
	d.invalidate(ctx)
	d.succeed(fmt.Sprintf("%s: %d %s updated", action.Name, len(ids), d.resource))
	return nil
}

func (d *Dispatcher[E]) runCustom(ctx context.Context, action Action, rows []E) error {
	fn, ok := d.custom[action.Name]
	if !ok {
		return ErrUnknownAction
	}
	if err := d.confirm(ctx, action, len(rows)); err != nil {
		return err
	}

	mutated, err := fn(ctx, rows)
	notFound := err != nil && core.IsNotFound(err)
	if mutated || notFound {
		d.invalidate(ctx)
	}
	if err != nil {
		return d.fail(&MutationError{Op: action.Name, Resource: d.resource, IDs: recordIDs(rows), NotFound: notFound, Err: err})
	}
	d.succeed(fmt.Sprintf("%s: done", action.Name))
	return nil
}

func (d *Dispatcher[E]) invalidate(ctx context.Context) {
	if d.inv == nil {
		return
	}
	if err := d.inv.Invalidate(ctx); err != nil && d.notifier != nil {
		d.notifier.Failure(err)
	}
}

func (d *Dispatcher[E]) succeed(msg string) {
	if d.notifier != nil {
		d.notifier.Success(msg)
	}
}

func (d *Dispatcher[E]) fail(err error) error {
	if d.notifier != nil {
		d.notifier.Failure(err)
	}
	return err
}
