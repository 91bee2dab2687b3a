package finance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/testutil"
)

func TestInvoiceStatuses(t *testing.T) {
	testutil.CheckEnum(t, InvoiceStatuses...)
	testutil.CheckDescriptor(t, Invoices)

	payable := map[InvoiceStatus]bool{InvoicePending: true, InvoiceOverdue: true}
	for _, s := range InvoiceStatuses {
		assert.Equal(t, payable[s], s.Payable(), string(s))
	}
}

func invoice(status InvoiceStatus) Invoice {
	inv := Invoices.New()
	inv.ID = "i1"
	inv.Number = "INV042"
	inv.PayerName = "Mama Tshala"
	inv.PayerEmail = "tshala@payer.cd"
	inv.Amount = 120.5
	inv.DueDate = time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	inv.Status = status
	return inv
}

func TestRemind(t *testing.T) {
	now := time.Date(2021, 2, 20, 10, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = core.Now }()

	mailSvc := testutil.EmailService()
	remind := Remind(mailSvc)

	t.Run("not payable", func(t *testing.T) {
		for _, s := range []InvoiceStatus{InvoiceDraft, InvoicePaid, InvoiceCancelled} {
			_, changed, err := remind.Run(context.Background(), invoice(s), nil)
			assert.Equal(t, errNotPayable, err, string(s))
			assert.False(t, changed)
		}
		assert.Empty(t, mailSvc.Sent())
	})

	t.Run("payable", func(t *testing.T) {
		inv, changed, err := remind.Run(context.Background(), invoice(InvoiceOverdue), nil)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, now, inv.RemindedAt.Time)
		assert.Empty(t, mailSvc.Sent(), "nothing is sent before the invoice is saved")

		remind.Commit(context.Background(), inv, nil)
		sent := mailSvc.Sent()
		require.Len(t, sent, 1)
		msg := sent[0]
		assert.Equal(t, "tshala@payer.cd", msg.To[0].Address)
		assert.Equal(t, "Payment reminder: invoice INV042", msg.Subject)
		assert.Contains(t, msg.TextContent, "invoice INV042 of 120.5 USD is due on 2021-03-01")
		assert.NotEmpty(t, msg.HTMLContent)
		require.Len(t, msg.Attachments, 1)
		assert.Equal(t, "invoice-INV042.csv", msg.Attachments[0].Filename)
		assert.Equal(t, "text/csv", msg.Attachments[0].ContentType)
	})
}

func TestInvoiceValidation(t *testing.T) {
	validate, translator := testutil.Validator()

	inv := invoice(InvoicePending)
	assert.NoError(t, validate.Struct(inv))

	inv.PayerEmail = "not-an-email"
	inv.Currency = "US"
	inv.Amount = -1
	err := core.TranslateErrors(validate.Struct(inv), translator)
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok)
	for _, field := range []string{"payer_email", "currency", "amount"} {
		assert.Contains(t, vErr.FieldMap(), field)
	}

	col, _ := Invoices.Column("status")
	v, _ := col.Variant(string(InvoiceOverdue))
	assert.Equal(t, resource.VariantWarning, v)
	assert.True(t, strings.HasPrefix(Invoices.Title, "Invoice"))
}
