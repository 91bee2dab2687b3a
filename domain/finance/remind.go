package finance

import (
	"bytes"
	"context"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
	"github.com/trezcool/masomo-admin/core/resource"
)

// nowFunc is mocked in tests.
var nowFunc = core.Now

var errNotPayable = core.NewValidationError(nil, core.FieldError{
	Field: "status",
	Error: "only pending or overdue invoices can be reminded",
})

type reminderData struct {
	ID       string
	Number   string
	Amount   string
	Currency string
	DueDate  string
}

// Remind returns the "remind" action: it stamps the invoice, then emails the payer
// a reminder with the invoice attached as CSV.
func Remind(mailSvc core.EmailService) resource.Action[Invoice] {
	return resource.Action[Invoice]{
		Run: func(_ context.Context, inv Invoice, _ listing.Patch) (Invoice, bool, error) {
			if !inv.Status.Payable() {
				return inv, false, errNotPayable
			}
			inv.RemindedAt = null.TimeFrom(nowFunc())
			return inv, true, nil
		},
		Commit: func(_ context.Context, inv Invoice, _ listing.Patch) {
			msg, err := reminderMessage(inv)
			if err != nil {
				return // WriteCSV only fails on unknown columns
			}
			mailSvc.SendMessages(msg)
		},
	}
}

func reminderMessage(inv Invoice) (*core.EmailMessage, error) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: inv.PayerName, Address: inv.PayerEmail}},
		Subject:      "Payment reminder: invoice " + inv.Number,
		TemplateName: "invoice_reminder",
		TemplateData: reminderData{
			ID:       inv.ID,
			Number:   inv.Number,
			Amount:   resource.FormatValue(resource.Column{Kind: resource.KindFloat}, inv.Amount),
			Currency: inv.Currency,
			DueDate:  inv.DueDate.Format(resource.DateLayout),
		},
	}

	var csv bytes.Buffer
	if err := resource.WriteCSV(&csv, &Invoices.Schema, []Invoice{inv}); err != nil {
		return nil, errors.Wrap(err, "exporting invoice")
	}
	if err := msg.Attach(&csv, "invoice-"+inv.Number+".csv", "text/csv"); err != nil {
		return nil, errors.Wrap(err, "attaching invoice")
	}
	return msg, nil
}
