// Package helpdesk holds the support tickets raised by the users of a tenant and the admission inquiries.
package helpdesk

import (
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/user"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

var TicketStatuses = []TicketStatus{TicketOpen, TicketInProgress, TicketResolved, TicketClosed}

func (s TicketStatus) Variant() resource.Variant {
	switch s {
	case TicketOpen:
		return resource.VariantInfo
	case TicketInProgress:
		return resource.VariantWarning
	case TicketResolved:
		return resource.VariantSuccess
	case TicketClosed:
		return resource.VariantNeutral
	}
	panic(fmt.Sprintf("unknown ticket status %q", string(s)))
}

func (s *TicketStatus) UnmarshalText(text []byte) error {
	v, err := resource.ParseEnum(string(text), TicketStatuses...)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var Priorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

func (p Priority) Variant() resource.Variant {
	switch p {
	case PriorityLow:
		return resource.VariantNeutral
	case PriorityNormal:
		return resource.VariantInfo
	case PriorityHigh:
		return resource.VariantWarning
	case PriorityUrgent:
		return resource.VariantDanger
	}
	panic(fmt.Sprintf("unknown priority %q", string(p)))
}

func (p *Priority) UnmarshalText(text []byte) error {
	v, err := resource.ParseEnum(string(text), Priorities...)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

type Ticket struct {
	resource.Base
	Subject     string       `db:"subject" json:"subject" validate:"required,notblank,max=200"`
	Description string       `db:"description" json:"description"`
	Requester   string       `db:"requester" json:"requester" validate:"required,notblank"`
	Priority    Priority     `db:"priority" json:"priority" validate:"required"`
	Assignee    null.String  `db:"assignee" json:"assignee"`
	Status      TicketStatus `db:"status" json:"status" validate:"required"`
}

var Tickets = &resource.Descriptor[Ticket]{
	Schema: resource.Schema{
		Name:  "tickets",
		Title: "Tickets",
		Columns: []resource.Column{
			{Name: "subject", Kind: resource.KindString, Searchable: true, Sortable: true},
			{Name: "description", Kind: resource.KindString, Searchable: true},
			{Name: "requester", Kind: resource.KindString, Filterable: true, Searchable: true, Sortable: true},
			resource.EnumColumn("priority", Priorities...),
			{Name: "assignee", Kind: resource.KindString, Nullable: true, Filterable: true, Sortable: true, Patchable: true},
			resource.EnumColumn("status", TicketStatuses...),
		},
		DefaultOrdering: []core.DBOrdering{{Field: "created_at", Ascending: false}},
		WriteRoles:      append([]string{user.RoleSupport}, user.AdminRoles...),
	},
	New: func() Ticket { return Ticket{Priority: PriorityNormal, Status: TicketOpen} },
}
