// Package library holds the books of the school libraries of a tenant.
package library

import (
	"fmt"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/user"
)

type BookStatus string

const (
	BookAvailable BookStatus = "available"
	BookBorrowed  BookStatus = "borrowed"
	BookLost      BookStatus = "lost"
)

var BookStatuses = []BookStatus{BookAvailable, BookBorrowed, BookLost}

func (s BookStatus) Variant() resource.Variant {
	switch s {
	case BookAvailable:
		return resource.VariantSuccess
	case BookBorrowed:
		return resource.VariantInfo
	case BookLost:
		return resource.VariantDanger
	}
	panic(fmt.Sprintf("unknown book status %q", string(s)))
}

func (s *BookStatus) UnmarshalText(text []byte) error {
	v, err := resource.ParseEnum(string(text), BookStatuses...)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type Book struct {
	resource.Base
	ISBN      string     `db:"isbn" json:"isbn" validate:"required,isbn"`
	Title     string     `db:"title" json:"title" validate:"required,notblank"`
	Author    string     `db:"author" json:"author" validate:"required,notblank"`
	Shelf     string     `db:"shelf" json:"shelf"`
	Copies    int        `db:"copies" json:"copies" validate:"min=1"`
	Available int        `db:"available" json:"available" validate:"min=0,ltefield=Copies"`
	Status    BookStatus `db:"status" json:"status" validate:"required"`
}

var Books = &resource.Descriptor[Book]{
	Schema: resource.Schema{
		Name:  "books",
		Title: "Library books",
		Columns: []resource.Column{
			{Name: "isbn", Kind: resource.KindString, Filterable: true, Searchable: true},
			{Name: "title", Kind: resource.KindString, Searchable: true, Sortable: true},
			{Name: "author", Kind: resource.KindString, Filterable: true, Searchable: true, Sortable: true},
			{Name: "shelf", Kind: resource.KindString, Filterable: true, Patchable: true},
			{Name: "copies", Kind: resource.KindInt, Sortable: true},
			{Name: "available", Kind: resource.KindInt, Filterable: true, Sortable: true},
			resource.EnumColumn("status", BookStatuses...),
		},
		DefaultOrdering: []core.DBOrdering{{Field: "title", Ascending: true}},
		WriteRoles:      append([]string{user.RoleLibrarian}, user.AdminRoles...),
	},
	New: func() Book { return Book{Copies: 1, Available: 1, Status: BookAvailable} },
}
