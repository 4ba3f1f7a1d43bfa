package commands

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/alessandronigro/corsi-backoffice/internal/application/dto"
	"github.com/alessandronigro/corsi-backoffice/internal/application/interfaces"
	"github.com/alessandronigro/corsi-backoffice/internal/application/query"
	"github.com/alessandronigro/corsi-backoffice/internal/infra/mail"
)

// SendReminder dispatches the dunning mail for an order still awaiting
// payment, reusing the summary builder for the body.
type SendReminder struct {
	summary *query.OrderSummary
	mailer  interfaces.NotificationSender
}

func NewSendReminder(summary *query.OrderSummary, mailer interfaces.NotificationSender) *SendReminder {
	return &SendReminder{summary: summary, mailer: mailer}
}

var reminderTmpl = template.Must(template.New("reminder").Parse(`<p>Gentile {{if .BillingName}}{{.BillingName}}{{else}}Cliente{{end}},</p>
<p>le ricordiamo che l'ordine n. {{.OrderID}} risulta ancora in attesa di pagamento.
Di seguito il riepilogo.</p>
`))

func (c *SendReminder) Execute(ctx context.Context, orderID int64) (*dto.SendReminderResponse, error) {
	res, err := c.summary.BuildReminder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if res.Order.BillingEmail == "" {
		return nil, fmt.Errorf("order %d has no billing email, cannot send reminder", orderID)
	}

	data := mail.PaymentReminderData{
		OrderID:     orderID,
		BillingName: res.Order.BillingName,
		Subject:     res.Subject,
	}
	var intro bytes.Buffer
	if err := reminderTmpl.Execute(&intro, data); err != nil {
		return nil, fmt.Errorf("error rendering reminder for order %d, %v", orderID, err)
	}
	body := strings.Replace(res.HTML, "<body>", "<body>\n"+intro.String(), 1)
	if err := c.mailer.Send([]string{res.Order.BillingEmail}, nil, data.GetSubject(), body); err != nil {
		return nil, fmt.Errorf("error sending reminder for order %d, %v", orderID, err)
	}
	slog.Info("reminder sent", "orderID", orderID, "to", res.Order.BillingEmail)

	return &dto.SendReminderResponse{
		OrderID: orderID,
		Sent:    true,
		Subject: res.Subject,
	}, nil
}
