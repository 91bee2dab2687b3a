package library

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-admin/testutil"
)

func TestBooks(t *testing.T) {
	testutil.CheckEnum(t, BookStatuses...)
	testutil.CheckDescriptor(t, Books)

	validate, _ := testutil.Validator()
	b := Books.New()
	b.ISBN, b.Title, b.Author = "978-3-16-148410-0", "Things Fall Apart", "Chinua Achebe"
	assert.NoError(t, validate.Struct(b))

	b.ISBN = "123"
	assert.Error(t, validate.Struct(b))

	b.ISBN = "978-3-16-148410-0"
	b.Available = 2 // more than the copies
	assert.Error(t, validate.Struct(b))
}
