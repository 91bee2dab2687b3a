package helpdesk

import (
	"context"
	"net/mail"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
	"github.com/trezcool/masomo-admin/core/resource"
)

type assignedData struct {
	ID      string
	Subject string
}

// Assign returns the "assign" action. Its params are the "assignee" (required) and their "email",
// notified once the assignment is saved. An open ticket moves in progress.
func Assign(mailSvc core.EmailService) resource.Action[Ticket] {
	return resource.Action[Ticket]{
		Run: func(_ context.Context, t Ticket, params listing.Patch) (Ticket, bool, error) {
			assignee, _ := params["assignee"].(string)
			if assignee = core.CleanString(assignee); assignee == "" {
				return t, false, core.NewValidationError(nil, core.FieldError{Field: "assignee", Error: "this field is required"})
			}
			if t.Status == TicketResolved || t.Status == TicketClosed {
				return t, false, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "the ticket is " + string(t.Status)})
			}
			if _, err := assigneeAddress(params); err != nil {
				return t, false, core.NewValidationError(err, core.FieldError{Field: "email", Error: "invalid email"})
			}

			t.Assignee = null.StringFrom(assignee)
			if t.Status == TicketOpen {
				t.Status = TicketInProgress
			}
			return t, true, nil
		},
		Commit: func(_ context.Context, t Ticket, params listing.Patch) {
			addr, _ := assigneeAddress(params)
			if addr == nil {
				return
			}
			if addr.Name == "" {
				addr.Name = t.Assignee.String
			}
			mailSvc.SendMessages(&core.EmailMessage{
				To:           []mail.Address{*addr},
				Subject:      "Ticket assigned: " + t.Subject,
				TemplateName: "ticket_assigned",
				TemplateData: assignedData{ID: t.ID, Subject: t.Subject},
			})
		},
	}
}

// assigneeAddress returns nil when no email is given.
func assigneeAddress(params listing.Patch) (*mail.Address, error) {
	email, _ := params["email"].(string)
	if email == "" {
		return nil, nil
	}
	return mail.ParseAddress(email)
}
