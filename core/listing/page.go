package listing

import (
	"context"
	"sync"

	"github.com/trezcool/masomo-admin/core"
)

type PageOptions[E Record] struct {
	Resource  string
	PageSize  int
	Filters   Filters
	Ordering  []core.DBOrdering
	Cache     *QueryCache
	Logger    core.Logger
	New       func() E
	Validate  func(E) error
	Confirmer Confirmer
	Notifier  Notifier
	Custom    map[string]CustomFunc[E]
}

// Page composes the list management of one resource screen:
// the coordinator, the selection, the dispatcher and the dialog.
//
// The selection is cleared whenever a fetch changes the row set, so it only ever holds IDs of the current rows.
type Page[E Record] struct {
	*Coordinator[E]
	Dispatcher *Dispatcher[E]
	Dialog     *Dialog[E]

	mu  sync.Mutex
	sel Selection
}

func NewPage[E Record](src DataSource[E], opts PageOptions[E]) *Page[E] {
	p := new(Page[E])
	p.Coordinator = NewCoordinator(src, Options[E]{
		Resource: opts.Resource,
		PageSize: opts.PageSize,
		Filters:  opts.Filters,
		Ordering: opts.Ordering,
		Cache:    opts.Cache,
		Logger:   opts.Logger,
		OnApply:  p.rowsChanged,
	})
	p.Dialog = NewDialog(src, p.Coordinator, DialogOptions[E]{
		Resource: opts.Resource,
		New:      opts.New,
		Validate: opts.Validate,
		Notifier: opts.Notifier,
	})
	p.Dispatcher = NewDispatcher(src, p.Coordinator, p.Dialog, p, DispatcherOptions[E]{
		Resource:  opts.Resource,
		Confirmer: opts.Confirmer,
		Notifier:  opts.Notifier,
		Custom:    opts.Custom,
	})
	return p
}

// rowsChanged runs with the coordinator locked.
func (p *Page[E]) rowsChanged(prev, next []E) {
	if sameIDs(recordIDs(prev), recordIDs(next)) {
		return
	}
	p.ClearSelection()
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Select checks the row with the given id, which must be one of the current rows.
func (p *Page[E]) Select(ids ...string) error {
	rows := p.Rows()
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range ids {
		if !containsID(rows, id) {
			return ErrNotInRows
		}
	}
	for _, id := range ids {
		p.sel.Add(id)
	}
	return nil
}

// SelectAll checks every current row.
func (p *Page[E]) SelectAll() {
	rows := p.Rows()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range rows {
		p.sel.Add(r.RecordID())
	}
}

func (p *Page[E]) Deselect(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sel.Remove(id)
}

func (p *Page[E]) ClearSelection() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sel.Clear()
}

func (p *Page[E]) Selected() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sel.IDs()
}

// SelectedRows materializes the selection to the current rows.
func (p *Page[E]) SelectedRows() []E {
	rows := p.Rows()
	p.mu.Lock()
	defer p.mu.Unlock()

	selected := make([]E, 0, p.sel.Len())
	for _, r := range rows {
		if p.sel.Has(r.RecordID()) {
			selected = append(selected, r)
		}
	}
	return selected
}

// Filter sets one filter and fetches the first page.
func (p *Page[E]) Filter(ctx context.Context, key string, v Value) (Result[E], error) {
	p.SetFilter(key, v)
	return p.Fetch(ctx)
}

// Sort changes the ordering and fetches the first page.
func (p *Page[E]) Sort(ctx context.Context, orderings ...core.DBOrdering) (Result[E], error) {
	p.SetOrdering(orderings...)
	return p.Fetch(ctx)
}

// GoTo fetches the page at index.
func (p *Page[E]) GoTo(ctx context.Context, index int) (Result[E], error) {
	if err := p.SetPage(index); err != nil {
		return Result[E]{}, err
	}
	return p.Fetch(ctx)
}

func containsID[E Record](rows []E, id string) bool {
	for _, r := range rows {
		if r.RecordID() == id {
			return true
		}
	}
	return false
}
