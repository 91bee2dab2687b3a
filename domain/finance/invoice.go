// Package finance holds the invoices billed to the payers of a tenant.
package finance

import (
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/user"
)

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

var InvoiceStatuses = []InvoiceStatus{InvoiceDraft, InvoicePending, InvoicePaid, InvoiceOverdue, InvoiceCancelled}

func (s InvoiceStatus) Variant() resource.Variant {
	switch s {
	case InvoiceDraft:
		return resource.VariantNeutral
	case InvoicePending:
		return resource.VariantInfo
	case InvoicePaid:
		return resource.VariantSuccess
	case InvoiceOverdue:
		return resource.VariantWarning
	case InvoiceCancelled:
		return resource.VariantDanger
	}
	panic(fmt.Sprintf("unknown invoice status %q", string(s)))
}

func (s *InvoiceStatus) UnmarshalText(text []byte) error {
	v, err := resource.ParseEnum(string(text), InvoiceStatuses...)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Payable reports whether the payer still owes the invoice.
func (s InvoiceStatus) Payable() bool {
	return s == InvoicePending || s == InvoiceOverdue
}

type Invoice struct {
	resource.Base
	Number     string        `db:"number" json:"number" validate:"required,alphanum_"`
	PayerName  string        `db:"payer_name" json:"payer_name" validate:"required,notblank"`
	PayerEmail string        `db:"payer_email" json:"payer_email" validate:"required,email"`
	Amount     float64       `db:"amount" json:"amount" validate:"gt=0"`
	Currency   string        `db:"currency" json:"currency" validate:"required,len=3,uppercase"`
	DueDate    time.Time     `db:"due_date" json:"due_date" validate:"required"`
	PaidAt     null.Time     `db:"paid_at" json:"paid_at"`
	RemindedAt null.Time     `db:"reminded_at" json:"reminded_at"`
	Status     InvoiceStatus `db:"status" json:"status" validate:"required"`
}

var Invoices = &resource.Descriptor[Invoice]{
	Schema: resource.Schema{
		Name:  "invoices",
		Title: "Invoices",
		Columns: []resource.Column{
			{Name: "number", Kind: resource.KindString, Searchable: true, Sortable: true},
			{Name: "payer_name", Kind: resource.KindString, Searchable: true, Sortable: true},
			{Name: "payer_email", Kind: resource.KindString, Filterable: true, Searchable: true},
			{Name: "amount", Kind: resource.KindFloat, Filterable: true, Sortable: true},
			{Name: "currency", Kind: resource.KindString, Filterable: true},
			{Name: "due_date", Kind: resource.KindDate, Filterable: true, Sortable: true, Patchable: true},
			{Name: "paid_at", Kind: resource.KindTime, Nullable: true, Filterable: true, Sortable: true, Patchable: true},
			{Name: "reminded_at", Kind: resource.KindTime, Nullable: true, Sortable: true},
			resource.EnumColumn("status", InvoiceStatuses...),
		},
		DefaultOrdering: []core.DBOrdering{{Field: "due_date", Ascending: false}},
		WriteRoles:      append([]string{user.RoleAccountant}, user.AdminRoles...),
	},
	New: func() Invoice { return Invoice{Currency: "USD", Status: InvoiceDraft} },
}
