package listing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-admin/core"
)

func validateRow(r row) error {
	if r.Status == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "this field is required"})
	}
	return nil
}

func newTestDialog(src *fakeSource) (*Dialog[row], *countingInvalidator, *recordingNotifier) {
	inv := new(countingInvalidator)
	notifier := new(recordingNotifier)
	d := NewDialog[row](src, inv, DialogOptions[row]{
		Resource: "invoices",
		New:      func() row { return row{Status: "draft"} },
		Validate: validateRow,
		Notifier: notifier,
	})
	return d, inv, notifier
}

func TestDialog_createLifecycle(t *testing.T) {
	src := newFakeSource()
	d, inv, notifier := newTestDialog(src)
	assert.Equal(t, DialogClosed, d.State())

	_, err := d.Submit(context.Background())
	assert.Equal(t, ErrDialogClosed, err)

	require.NoError(t, d.Open(ModeCreate))
	assert.Equal(t, DialogOpen, d.State())
	assert.Equal(t, row{Status: "draft"}, d.Draft())
	assert.Equal(t, ErrDialogOpen, d.Open(ModeCreate))

	require.NoError(t, d.Edit(func(r *row) { r.Tags = []string{"term-1"} }))
	saved, err := d.Submit(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	assert.Equal(t, DialogClosed, d.State())
	assert.Equal(t, row{}, d.Draft(), "draft is destroyed on close")
	assert.Equal(t, 1, src.count("create"))
	assert.Equal(t, 1, inv.count())
	assert.Len(t, notifier.successes, 1)
}

func TestDialog_validationFailure(t *testing.T) {
	src := newFakeSource()
	d, inv, _ := newTestDialog(src)

	require.NoError(t, d.Open(ModeCreate))
	require.NoError(t, d.Edit(func(r *row) {
		r.Status = ""
		r.Tags = []string{"kept"}
	}))
	_, err := d.Submit(context.Background())
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)

	assert.Equal(t, 0, src.count("create"), "a known invalid draft is never sent")
	assert.Equal(t, 0, inv.count())
	assert.Equal(t, DialogOpen, d.State())
	assert.Equal(t, []core.FieldError{{Field: "status", Error: "this field is required"}}, d.FieldErrors())
	assert.Equal(t, []string{"kept"}, d.Draft().Tags, "draft is preserved")

	// correct then resubmit
	require.NoError(t, d.Edit(func(r *row) { r.Status = "pending" }))
	_, err = d.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.count("create"))
	assert.Empty(t, d.FieldErrors())
}

func TestDialog_submitFailureKeepsDraft(t *testing.T) {
	src := newFakeSource()
	src.mutErr = core.NewValidationError(nil, core.FieldError{Field: "number", Error: "already exists"})
	d, inv, notifier := newTestDialog(src)

	require.NoError(t, d.Open(ModeCreate))
	_, err := d.Submit(context.Background())
	var mErr *MutationError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "create", mErr.Op)

	assert.Equal(t, DialogOpen, d.State())
	assert.Equal(t, row{Status: "draft"}, d.Draft())
	assert.Equal(t, []core.FieldError{{Field: "number", Error: "already exists"}}, d.FieldErrors())
	assert.Equal(t, err, d.Err())
	assert.Equal(t, 0, inv.count())
	assert.Len(t, notifier.failures, 1)
}

func TestDialog_doubleSubmit(t *testing.T) {
	src := newFakeSource()
	d, inv, _ := newTestDialog(src)
	require.NoError(t, d.Open(ModeCreate))

	gate := src.gate("create")
	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = d.Submit(context.Background())
	}()
	require.Eventually(t, func() bool { return d.State() == DialogSubmitting }, time.Second, time.Millisecond)

	_, err := d.Submit(context.Background())
	assert.Equal(t, ErrSubmitInProgress, err)
	assert.Equal(t, ErrSubmitInProgress, d.Close())
	assert.Equal(t, ErrSubmitInProgress, d.Edit(func(*row) {}))

	close(gate)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, 1, src.count("create"))
	assert.Equal(t, 1, inv.count())
	assert.Equal(t, DialogClosed, d.State())
}

func TestDialog_noopEditRoundTrip(t *testing.T) {
	seed := row{ID: "4", Status: "pending", Tags: []string{"a", "b"}}
	src := newFakeSource(seed.Clone())
	d, inv, _ := newTestDialog(src)

	require.NoError(t, d.Open(ModeEdit, seed))
	saved, err := d.Submit(context.Background())
	require.NoError(t, err)

	require.Len(t, src.updates, 1)
	assert.Equal(t, seed, src.updates[0])
	assert.Equal(t, seed, saved)
	assert.Equal(t, 1, inv.count())
}

func TestDialog_editTargetVanished(t *testing.T) {
	src := newFakeSource()
	d, inv, _ := newTestDialog(src)

	assert.Equal(t, ErrSeedRequired, d.Open(ModeEdit))
	require.NoError(t, d.Open(ModeEdit, row{ID: "7", Status: "pending"}))
	_, err := d.Submit(context.Background())
	assert.True(t, IsNotFound(err))
	assert.Equal(t, 1, inv.count(), "a vanished target invalidates the list")
	assert.Equal(t, DialogOpen, d.State())

	require.NoError(t, d.Close())
	assert.Equal(t, DialogClosed, d.State())
	assert.Equal(t, row{}, d.Draft())
}
