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

func newTestPage(t *testing.T, src *fakeSource, confirm bool, custom map[string]CustomFunc[row]) (*Page[row], *recordingNotifier) {
	t.Helper()
	notifier := new(recordingNotifier)
	p := NewPage[row](src, PageOptions[row]{
		Resource:  "invoices",
		PageSize:  10,
		Confirmer: &staticConfirmer{answer: confirm},
		Notifier:  notifier,
		Custom:    custom,
		New:       func() row { return row{Status: "draft"} },
	})
	_, err := p.Fetch(context.Background())
	require.NoError(t, err)
	return p, notifier
}

func TestDispatcher_bulkEmptySelectionIsNoop(t *testing.T) {
	src := newFakeSource(makeRows(5, "pending")...)
	p, notifier := newTestPage(t, src, true, nil)
	listCalls := src.count("list")

	for _, action := range []Action{DeleteAction, PatchAction("activate", Patch{"status": "active"}), CustomAction("print")} {
		assert.NoError(t, p.Dispatcher.Bulk(context.Background(), action))
	}
	assert.Equal(t, 0, src.count("delete"))
	assert.Equal(t, 0, src.count("bulk"))
	assert.Equal(t, listCalls, src.count("list"))
	assert.Empty(t, notifier.successes)
	assert.Empty(t, notifier.failures)
}

func TestDispatcher_deleteNotFound(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(makeRows(8, "pending")...)
	p, notifier := newTestPage(t, src, true, nil)

	var row7 row
	for _, r := range p.Rows() {
		if r.ID == "7" {
			row7 = r
		}
	}
	require.Equal(t, "7", row7.ID)

	// deleted by another actor in the meantime
	src.remove("7")

	err := p.Dispatcher.Single(ctx, DeleteAction, row7)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	var mErr *MutationError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, []string{"7"}, mErr.IDs)

	assert.NotContains(t, recordIDs(p.Rows()), "7", "the list got invalidated")
	assert.Equal(t, 7, p.Pagination().TotalCount)
	assert.Empty(t, notifier.successes, "not a silent success")
	assert.Len(t, notifier.failures, 1)
}

func TestDispatcher_deleteCancelled(t *testing.T) {
	src := newFakeSource(makeRows(3, "pending")...)
	p, notifier := newTestPage(t, src, false, nil)
	listCalls := src.count("list")

	require.NoError(t, p.Select("1", "2"))
	err := p.Dispatcher.Bulk(context.Background(), DeleteAction)
	assert.Equal(t, ErrCancelled, err)
	assert.Equal(t, 0, src.count("delete"))
	assert.Equal(t, listCalls, src.count("list"))
	assert.Equal(t, []string{"1", "2"}, p.Selected(), "selection is kept when nothing ran")
	assert.Empty(t, notifier.failures)
}

func TestDispatcher_confirmationRequired(t *testing.T) {
	src := newFakeSource(makeRows(1, "pending")...)
	inv := new(countingInvalidator)
	d := NewDispatcher[row](src, inv, nil, nil, DispatcherOptions[row]{Resource: "invoices"})

	err := d.Single(context.Background(), DeleteAction, row{ID: "1"})
	assert.Equal(t, ErrConfirmationRequired, err)
	assert.Equal(t, 0, src.count("delete"))
	assert.Equal(t, 0, inv.count())
}

func TestDispatcher_invalidatesOncePerMutation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		run  func(d *Dispatcher[row]) error
	}{
		{name: "delete", run: func(d *Dispatcher[row]) error { return d.Single(ctx, DeleteAction, row{ID: "1"}) }},
		{name: "patch", run: func(d *Dispatcher[row]) error {
			return d.Single(ctx, PatchAction("pay", Patch{"status": "paid"}), row{ID: "1"})
		}},
		{name: "bulk delete", run: func(d *Dispatcher[row]) error { return d.Bulk(ctx, DeleteAction) }},
		{name: "bulk patch", run: func(d *Dispatcher[row]) error {
			return d.Bulk(ctx, PatchAction("pay", Patch{"status": "paid"}))
		}},
		{name: "custom mutation", run: func(d *Dispatcher[row]) error { return d.Single(ctx, CustomAction("assign"), row{ID: "1"}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource(makeRows(3, "pending")...)
			inv := new(countingInvalidator)
			sel := &staticSelector{rows: []row{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
			d := NewDispatcher[row](src, inv, nil, sel, DispatcherOptions[row]{
				Resource:  "invoices",
				Confirmer: &staticConfirmer{answer: true},
				Custom: map[string]CustomFunc[row]{
					"assign": func(context.Context, []row) (bool, error) { return true, nil },
				},
			})
			require.NoError(t, tt.run(d))
			assert.Equal(t, 1, inv.count())
		})
	}
}

func TestDispatcher_failedMutation(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(makeRows(3, "pending")...)
	p, notifier := newTestPage(t, src, true, nil)
	before := p.Rows()
	listCalls := src.count("list")

	src.mutErr = errBackend
	err := p.Dispatcher.Single(ctx, PatchAction("pay", Patch{"status": "paid"}), before[0])
	var mErr *MutationError
	require.ErrorAs(t, err, &mErr)
	assert.False(t, mErr.NotFound)
	assert.ErrorIs(t, err, errBackend)

	assert.Equal(t, before, p.Rows(), "rows are left as they were")
	assert.Equal(t, listCalls, src.count("list"), "no refetch after a failed mutation")
	assert.Equal(t, 1, src.count("bulk"), "no automatic retry")
	assert.Len(t, notifier.failures, 1)
}

func TestDispatcher_destructiveBulkClearsSelection(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(makeRows(5, "pending")...)
	p, _ := newTestPage(t, src, true, nil)

	require.NoError(t, p.Select("1", "2"))
	require.NoError(t, p.Dispatcher.Bulk(ctx, DeleteAction))
	assert.Empty(t, p.Selected())
	assert.Equal(t, []string{"3", "4", "5"}, recordIDs(p.Rows()))

	// a failing destructive action clears it as well
	require.NoError(t, p.Select("3"))
	src.mutErr = errBackend
	assert.Error(t, p.Dispatcher.Bulk(ctx, DeleteAction))
	assert.Empty(t, p.Selected())
	src.mutErr = nil

	// non destructive actions keep it while the row set is unchanged
	require.NoError(t, p.Select("3", "4"))
	require.NoError(t, p.Dispatcher.Bulk(ctx, PatchAction("pay", Patch{"status": "paid"})))
	assert.Equal(t, []string{"3", "4"}, p.Selected())
}

func TestDispatcher_overlappingBulkActions(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(makeRows(6, "inactive")...)
	p, _ := newTestPage(t, src, true, nil)
	activate := PatchAction("activate", Patch{"status": "active"})

	gate := src.gate("bulk")
	var wg sync.WaitGroup
	errs := make([]error, 2)

	require.NoError(t, p.Select("1", "2", "3"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = p.Dispatcher.Bulk(ctx, activate)
	}()
	require.Eventually(t, func() bool { return src.count("bulk") == 1 }, time.Second, time.Millisecond)

	p.ClearSelection()
	require.NoError(t, p.Select("3", "4", "5"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[1] = p.Dispatcher.Bulk(ctx, activate)
	}()
	require.Eventually(t, func() bool { return src.count("bulk") == 2 }, time.Second, time.Millisecond)

	close(gate)
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	assert.ElementsMatch(t, [][]string{{"1", "2", "3"}, {"3", "4", "5"}}, src.bulks)

	_, err := p.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, src.snapshot(), p.Rows(), "the list reflects the backend state")
	for _, r := range p.Rows() {
		if r.ID == "6" {
			assert.Equal(t, "inactive", r.Status)
		} else {
			assert.Equal(t, "active", r.Status)
		}
	}
}

func TestDispatcher_repeatedGestureWhileRunning(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(makeRows(4, "pending")...)
	p, _ := newTestPage(t, src, true, nil)
	rows := p.Rows()

	gate := src.gate("delete")
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = p.Dispatcher.Single(ctx, DeleteAction, rows[0])
	}()
	require.Eventually(t, func() bool { return src.count("delete") == 1 }, time.Second, time.Millisecond)

	assert.Equal(t, ErrActionInProgress, p.Dispatcher.Single(ctx, DeleteAction, rows[0]))

	// other rows are other gestures
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[1] = p.Dispatcher.Single(ctx, DeleteAction, rows[1])
	}()
	require.Eventually(t, func() bool { return src.count("delete") == 2 }, time.Second, time.Millisecond)

	close(gate)
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 2, src.count("delete"))

	// the same gesture runs again once done
	assert.True(t, IsNotFound(p.Dispatcher.Single(ctx, DeleteAction, rows[0])))
	assert.Equal(t, 3, src.count("delete"))

	t.Run("bulk", func(t *testing.T) {
		gate := src.gate("bulk")
		pay := PatchAction("pay", Patch{"status": "paid"})
		_, err := p.Fetch(ctx)
		require.NoError(t, err)
		require.NoError(t, p.Select("3", "4"))

		done := make(chan error)
		go func() { done <- p.Dispatcher.Bulk(ctx, pay) }()
		require.Eventually(t, func() bool { return src.count("bulk") == 1 }, time.Second, time.Millisecond)

		assert.Equal(t, ErrActionInProgress, p.Dispatcher.Bulk(ctx, pay))
		assert.Equal(t, 1, src.count("bulk"))

		close(gate)
		require.NoError(t, <-done)
	})
}

func TestDispatcher_custom(t *testing.T) {
	ctx := context.Background()
	var printed []string
	custom := map[string]CustomFunc[row]{
		"print": func(_ context.Context, rows []row) (bool, error) {
			printed = append(printed, recordIDs(rows)...)
			return false, nil
		},
		"remind": func(context.Context, []row) (bool, error) { return false, core.ErrNotFound },
	}
	src := newFakeSource(makeRows(3, "pending")...)
	p, notifier := newTestPage(t, src, true, custom)
	listCalls := src.count("list")

	require.NoError(t, p.Dispatcher.Single(ctx, CustomAction("print"), p.Rows()[0]))
	assert.Equal(t, []string{"1"}, printed)
	assert.Equal(t, listCalls, src.count("list"), "no mutation, no invalidation")
	assert.Len(t, notifier.successes, 1)

	err := p.Dispatcher.Single(ctx, CustomAction("remind"), p.Rows()[0])
	assert.True(t, IsNotFound(err))
	assert.Equal(t, listCalls+1, src.count("list"))

	assert.Equal(t, ErrUnknownAction, p.Dispatcher.Single(ctx, CustomAction("lol"), p.Rows()[0]))
	assert.Equal(t, ErrUnknownAction, p.Dispatcher.Bulk(ctx, EditAction))
}

func TestDispatcher_editOpensDialogWithCopy(t *testing.T) {
	src := newFakeSource(row{ID: "1", Status: "pending", Tags: []string{"a"}})
	p, _ := newTestPage(t, src, true, nil)
	seed := p.Rows()[0]

	require.NoError(t, p.Dispatcher.Single(context.Background(), EditAction, seed))
	assert.Equal(t, DialogOpen, p.Dialog.State())
	assert.Equal(t, ModeEdit, p.Dialog.Mode())

	require.NoError(t, p.Dialog.Edit(func(d *row) {
		d.Status = "paid"
		d.Tags[0] = "b"
	}))
	assert.Equal(t, "pending", p.Rows()[0].Status)
	assert.Equal(t, []string{"a"}, p.Rows()[0].Tags)
	assert.Equal(t, []string{"a"}, seed.Tags)
}

type staticSelector struct {
	rows    []row
	cleared bool
}

func (s *staticSelector) SelectedRows() []row { return s.rows }
func (s *staticSelector) ClearSelection()     { s.cleared = true }
