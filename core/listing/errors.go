package listing

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
)

var (
	ErrSuperseded       = errors.New("response superseded by a newer request")
	ErrInvalidPageSize  = errors.New("page size must be greater than 0")
	ErrNotInRows        = errors.New("row is not in the current page")
	ErrUnknownAction    = errors.New("unknown action")
	ErrDialogOpen       = errors.New("dialog is already open")
	ErrDialogClosed     = errors.New("dialog is closed")
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrSeedRequired     = errors.New("edit mode requires a seed")
)

// FetchError is returned when listing failed.
type FetchError struct {
	Resource string
	Query    Query
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MutationError is returned when the backend rejected a create, update, delete or bulk change.
// NotFound is set when the target vanished, in which case the list has been invalidated.
type MutationError struct {
	Op       string
	Resource string
	IDs      []string
	NotFound bool
	Err      error
}

func (e *MutationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(" ")
	b.WriteString(e.Resource)
	if len(e.IDs) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.IDs, ", "))
		b.WriteString("]")
	}
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else if e.NotFound {
		b.WriteString(core.ErrNotFound.Error())
	}
	return b.String()
}

func (e *MutationError) Unwrap() error {
	if e.Err == nil && e.NotFound {
		return core.ErrNotFound
	}
	return e.Err
}

// IsNotFound reports whether err is a MutationError whose target vanished.
func IsNotFound(err error) bool {
	var mErr *MutationError
	if errors.As(err, &mErr) {
		return mErr.NotFound
	}
	return core.IsNotFound(err)
}
