package listing

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// DialogState: closed and open are stable, validating and submitting only last for a Submit call.
type DialogState int

const (
	DialogClosed DialogState = iota
	DialogOpen
	DialogValidating
	DialogSubmitting
)

func (s DialogState) String() string {
	switch s {
	case DialogClosed:
		return "closed"
	case DialogOpen:
		return "open"
	case DialogValidating:
		return "validating"
	case DialogSubmitting:
		return "submitting"
	}
	return "unknown"
}

// Cloner is implemented by records holding reference types (slices, maps, pointers)
// that a plain value copy would share with the original.
type Cloner[E any] interface {
	Clone() E
}

func copyRecord[E any](e E) E {
	if c, ok := any(e).(Cloner[E]); ok {
		return c.Clone()
	}
	return e
}

type DialogOptions[E Record] struct {
	Resource string
	New      func() E      // blank draft of the create mode
	Validate func(E) error // a *core.ValidationError annotates fields
	Notifier Notifier
}

// Dialog holds the draft of the record being created or edited and submits it once.
type Dialog[E Record] struct {
	src      DataSource[E]
	inv      Invalidator
	resource string
	blank    func() E
	validate func(E) error
	notifier Notifier

	mu        sync.Mutex
	state     DialogState
	mode      Mode
	draft     E
	seedID    string
	fieldErrs []core.FieldError
	err       error
}

func NewDialog[E Record](src DataSource[E], inv Invalidator, opts DialogOptions[E]) *Dialog[E] {
	return &Dialog[E]{
		src:      src,
		inv:      inv,
		resource: opts.Resource,
		blank:    opts.New,
		validate: opts.Validate,
		notifier: opts.Notifier,
	}
}

// Open starts a create (blank draft) or an edit (draft copied from seed).
func (d *Dialog[E]) Open(mode Mode, seed ...E) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != DialogClosed {
		return ErrDialogOpen
	}
	switch mode {
	case ModeEdit:
		if len(seed) == 0 {
			return ErrSeedRequired
		}
		d.draft = copyRecord(seed[0])
		d.seedID = seed[0].RecordID()
	default:
		var blank E
		if d.blank != nil {
			blank = d.blank()
		}
		d.draft = blank
		d.seedID = ""
	}
	d.mode = mode
	d.state = DialogOpen
	d.fieldErrs = nil
	d.err = nil
	return nil
}

func (d *Dialog[E]) State() DialogState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dialog[E]) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Draft returns a copy of the current draft.
func (d *Dialog[E]) Draft() E {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copyRecord(d.draft)
}

// FieldErrors returns the field errors of the last failed submission.
func (d *Dialog[E]) FieldErrors() []core.FieldError {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]core.FieldError(nil), d.fieldErrs...)
}

// Err returns the error of the last failed submission.
func (d *Dialog[E]) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Edit changes the draft of an open dialog.
func (d *Dialog[E]) Edit(fn func(draft *E)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case DialogClosed:
		return ErrDialogClosed
	case DialogValidating, DialogSubmitting:
		return ErrSubmitInProgress
	}
	fn(&d.draft)
	return nil
}

func (d *Dialog[E]) Validate(draft E) error {
	if d.validate == nil {
		return nil
	}
	return d.validate(draft)
}

// Submit validates the draft then creates or updates it.
// A Submit while another one is in flight is ignored and returns ErrSubmitInProgress.
// On success the dialog closes and the list is invalidated, on failure it stays open with its draft.
func (d *Dialog[E]) Submit(ctx context.Context) (E, error) {
	var zero E

	d.mu.Lock()
	switch d.state {
	case DialogClosed:
		d.mu.Unlock()
		return zero, ErrDialogClosed
	case DialogValidating, DialogSubmitting:
		d.mu.Unlock()
		return zero, ErrSubmitInProgress
	}
	d.state = DialogValidating
	draft := copyRecord(d.draft)
	mode, seedID := d.mode, d.seedID
	d.mu.Unlock()

	if err := d.Validate(draft); err != nil {
		d.reopen(err)
		return zero, err
	}

	d.mu.Lock()
	d.state = DialogSubmitting
	d.mu.Unlock()

	var (
		saved E
		err   error
		op    = "create"
	)
	if mode == ModeEdit {
		op = "update"
		saved, err = d.src.Update(ctx, seedID, draft)
	} else {
		saved, err = d.src.Create(ctx, draft)
	}

	if err != nil {
		mErr := &MutationError{Op: op, Resource: d.resource, Err: err, NotFound: core.IsNotFound(err)}
		if seedID != "" {
			mErr.IDs = []string{seedID}
		}
		d.reopen(mErr)
		if mErr.NotFound && d.inv != nil {
			if iErr := d.inv.Invalidate(ctx); iErr != nil && d.notifier != nil {
				d.notifier.Failure(iErr)
			}
		}
		if d.notifier != nil {
			d.notifier.Failure(mErr)
		}
		return zero, mErr
	}

	d.mu.Lock()
	d.state = DialogClosed
	d.draft = zero
	d.seedID = ""
	d.fieldErrs = nil
	d.err = nil
	d.mu.Unlock()

	if d.inv != nil {
		if err := d.inv.Invalidate(ctx); err != nil && d.notifier != nil {
			d.notifier.Failure(err)
		}
	}
	if d.notifier != nil {
		d.notifier.Success(d.resource + " saved")
	}
	return saved, nil
}

// reopen goes back to the open state, annotating the draft with err.
func (d *Dialog[E]) reopen(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.state = DialogOpen
	d.err = err
	d.fieldErrs = nil
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		d.fieldErrs = append(d.fieldErrs, vErr.Fields...)
	}
}

// Close discards the draft. A dialog cannot be closed while submitting.
func (d *Dialog[E]) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == DialogValidating || d.state == DialogSubmitting {
		return ErrSubmitInProgress
	}
	var zero E
	d.state = DialogClosed
	d.draft = zero
	d.seedID = ""
	d.fieldErrs = nil
	d.err = nil
	return nil
}
