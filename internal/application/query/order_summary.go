package query

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"

	"github.com/alessandronigro/corsi-backoffice/internal/application/interfaces"
	"github.com/alessandronigro/corsi-backoffice/internal/domain/consts"
	"github.com/alessandronigro/corsi-backoffice/internal/domain/entity"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// OrderSummary renders the deterministic priced summary of one order.
// The same body serves the purchase confirmation and, prefixed with the
// dunning header, the payment reminder. Read-only over the shop schema.
type OrderSummary struct {
	repo interfaces.OrderRepo
}

func NewOrderSummary(repo interfaces.OrderRepo) *OrderSummary {
	return &OrderSummary{repo: repo}
}

type SummaryResult struct {
	Order   *entity.Order
	Courses []entity.CourseGroup
	Subject string
	HTML    string
}

type courseLine struct {
	Code     string
	Name     string
	Quantity int
	Price    string
}

type summaryData struct {
	Header       string
	OrderID      int64
	BillingName  string
	Municipality string
	Province     string
	Payment      string
	Courses      []courseLine
	Taxable      string
	Tax          string
	Total        string
	Discount     string
	DiscountCode string
	Fee          string
	ShowDiscount bool
	ShowFee      bool
}

var summaryTmpl = template.Must(template.New("summary").Parse(`<html><body>
{{if .Header}}<h2>{{.Header}}</h2>
{{end}}<h3>Riepilogo ordine n. {{.OrderID}}</h3>
<p>Intestatario: {{.BillingName}}{{if .Municipality}} - {{.Municipality}} ({{.Province}}){{end}}<br>
Metodo di pagamento: {{.Payment}}</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Codice</th><th>Corso</th><th>Partecipanti</th><th>Prezzo</th></tr>
{{range .Courses}}<tr><td>{{.Code}}</td><td>{{.Name}}</td><td>{{.Quantity}}</td><td>&euro; {{.Price}}</td></tr>
{{end}}</table>
<table cellpadding="4" cellspacing="0">
{{if .ShowDiscount}}<tr><td>Sconto ({{.DiscountCode}})</td><td>&euro; {{.Discount}}</td></tr>
{{end}}<tr><td>Imponibile</td><td>&euro; {{.Taxable}}</td></tr>
<tr><td>IVA 22%</td><td>&euro; {{.Tax}}</td></tr>
{{if .ShowFee}}<tr><td>Diritti di segreteria</td><td>&euro; {{.Fee}}</td></tr>
{{end}}<tr><td><b>Totale</b></td><td><b>&euro; {{.Total}}</b></td></tr>
</table>
</body></html>`))

var itPrinter = message.NewPrinter(language.Italian)

// Currency formats a monetary amount with it-IT separators, two
// decimals: 1234.5 renders as "1.234,50".
func Currency(v float64) string {
	return itPrinter.Sprintf("%.2f", v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Build renders the summary body and subject for one order.
func (q *OrderSummary) Build(ctx context.Context, orderID int64) (*SummaryResult, error) {
	return q.build(ctx, orderID, "")
}

// BuildReminder renders the same summary prefixed with the dunning
// header, for payment-reminder mails.
func (q *OrderSummary) BuildReminder(ctx context.Context, orderID int64) (*SummaryResult, error) {
	return q.build(ctx, orderID, consts.ReminderHeader)
}

func (q *OrderSummary) build(ctx context.Context, orderID int64, header string) (*SummaryResult, error) {
	order, err := q.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	groups, err := q.repo.GetCourseGroups(ctx, orderID)
	if err != nil {
		return nil, err
	}
	municipality, province, err := q.repo.GetMunicipality(ctx, order.BillingMunicipalityID)
	if err != nil {
		return nil, err
	}
	if province == "" {
		province = order.BillingProvince
	}

	data := summaryData{
		Header:       header,
		OrderID:      order.ID,
		BillingName:  order.BillingName,
		Municipality: municipality,
		Province:     province,
		Payment:      string(order.PaymentMethod),
	}

	for _, g := range groups {
		data.Courses = append(data.Courses, courseLine{
			Code:     g.CourseCode,
			Name:     g.CourseName,
			Quantity: g.Quantity,
			Price:    Currency(DisplayPrice(g, order.ExamSite)),
		})
	}

	if order.Discount > 0 {
		taxable := order.Taxable - order.Discount
		tax := round2(taxable * consts.VATRate)
		data.Taxable = Currency(taxable)
		data.Tax = Currency(tax)
		data.Total = Currency(taxable + tax)
		data.Discount = Currency(order.Discount)
		data.DiscountCode = order.DiscountCode
		data.ShowDiscount = true
	} else {
		data.Taxable = Currency(order.Taxable)
		data.Tax = Currency(order.Tax)
		data.Total = Currency(order.Total)
		data.Fee = Currency(order.Fee)
		data.ShowFee = order.PaymentMethod != consts.PaymentBankTransfer
	}

	var buf bytes.Buffer
	if err := summaryTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("error rendering order summary, %v", err)
	}

	return &SummaryResult{
		Order:   order,
		Courses: groups,
		Subject: Subject(order),
		HTML:    buf.String(),
	}, nil
}

// DisplayPrice is the per-course summary line price. For the RSPP
// refresher the exam fee encoded in the order's exam-site string is
// carved out of the stored price, but only past the threshold; every
// other course shows its stored price unmodified.
func DisplayPrice(g entity.CourseGroup, examSite string) float64 {
	if g.CourseCode != consts.ExamFeeCourseCode {
		return g.Price
	}
	fee := ExamFee(examSite)
	if fee > consts.ExamFeeThreshold {
		return g.Price - fee
	}
	return g.Price
}

// ExamFee extracts the trailing numeric token of the pipe-delimited
// exam-site string ("SEDE|ROMA|QUOTA=75" yields 75), sign stripped.
// Anything unparsable counts as no fee.
func ExamFee(examSite string) float64 {
	if examSite == "" {
		return 0
	}
	parts := strings.Split(examSite, "|")
	last := parts[len(parts)-1]
	if idx := strings.LastIndex(last, "="); idx >= 0 {
		last = last[idx+1:]
	}
	last = strings.TrimSpace(strings.TrimLeft(last, "-+"))
	fee, err := strconv.ParseFloat(last, 64)
	if err != nil {
		return 0
	}
	return fee
}

// Subject picks one of four literal templates depending on whether the
// order rides a convenzione and whether payment is the offline bank
// transfer still awaited.
func Subject(order *entity.Order) string {
	hasConv := order.ConvenzioneCode != ""
	transfer := order.PaymentMethod == consts.PaymentBankTransfer
	switch {
	case hasConv && transfer:
		return fmt.Sprintf("Ordine n. %d in convenzione - in attesa di %s - %s", order.ID, order.PaymentMethod, order.BillingName)
	case hasConv:
		return fmt.Sprintf("Conferma ordine n. %d in convenzione - %s - %s", order.ID, order.PaymentMethod, order.BillingName)
	case transfer:
		return fmt.Sprintf("Ordine n. %d - in attesa di %s - %s", order.ID, order.PaymentMethod, order.BillingName)
	default:
		return fmt.Sprintf("Conferma ordine n. %d - %s - %s", order.ID, order.PaymentMethod, order.BillingName)
	}
}
