package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/alessandronigro/corsi-backoffice/internal/application/errs"
	"github.com/alessandronigro/corsi-backoffice/internal/application/interfaces"
	"github.com/alessandronigro/corsi-backoffice/internal/domain/consts"
	"github.com/alessandronigro/corsi-backoffice/internal/domain/entity"
	"github.com/alessandronigro/corsi-backoffice/internal/infra/db"
	"github.com/alessandronigro/corsi-backoffice/internal/infra/mail"
)

// EnrollContext carries the batch-wide settings resolved before any row
// is touched: the physical target, the convenzione display name used as
// fallback, and the two feature flags.
type EnrollContext struct {
	Target          db.Target
	ConvenzioneName string
	SendEmail       bool
	CheckExisting   bool
	// Timeout bounds the whole batch; zero applies defaultBatchTimeout.
	Timeout time.Duration
}

const defaultBatchTimeout = 5 * time.Minute

// rowTimeout bounds every row's store calls so one hung query cannot
// stall the batch until the batch deadline.
const rowTimeout = 15 * time.Second

type Enroll struct {
	stores interfaces.StoreFactory
	mailer interfaces.NotificationSender
	orders interfaces.OrderStatusUpdater
}

func NewEnroll(stores interfaces.StoreFactory, mailer interfaces.NotificationSender, orders interfaces.OrderStatusUpdater) *Enroll {
	return &Enroll{stores: stores, mailer: mailer, orders: orders}
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<html><body>
<p>Gentile {{.FirstName}} {{.LastName}},</p>
<p>la sua iscrizione al corso <b>{{.CourseName}}</b>{{if .ConvenzioneName}} (convenzione {{.ConvenzioneName}}){{end}} &egrave; stata registrata.</p>
<p>Ricever&agrave; le credenziali di accesso alla piattaforma entro 24 ore.</p>
<p>La Segreteria</p>
</body></html>`))

// Execute runs the batch pipeline. One outcome per input row, always:
// a row's failure never aborts the batch, only an unusable target does.
func (c *Enroll) Execute(ctx context.Context, rows []entity.EnrollRow, ec EnrollContext) ([]entity.Outcome, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty batch, nothing to enroll")
	}
	if ec.Target.ConnKey == "" || ec.Target.Database == "" {
		return nil, errs.ConfigurationError{Key: "target"}
	}

	batchTimeout := ec.Timeout
	if batchTimeout <= 0 {
		batchTimeout = defaultBatchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	store, err := c.stores.StoreFor(ctx, string(ec.Target.ConnKey), ec.Target.Database)
	if err != nil {
		return nil, err
	}

	outcomes := make([]entity.Outcome, 0, len(rows))
	orderSeen := make(map[int64]bool)
	orderFailed := make(map[int64]bool)
	halted := false

	for i, row := range rows {
		if !halted && ctx.Err() != nil {
			halted = true
			slog.Warn("batch interrupted, skipping remaining rows", "reason", ctx.Err(), "processed", i, "total", len(rows))
		}

		var outcome entity.Outcome
		switch {
		case halted && errors.Is(ctx.Err(), context.DeadlineExceeded):
			outcome = entity.Failed(row, fmt.Errorf("batch timeout exceeded before row was processed"))
		case halted:
			outcome = entity.Failed(row, fmt.Errorf("batch cancelled before row was processed: %v", ctx.Err()))
		default:
			rowCtx, rowCancel := context.WithTimeout(ctx, rowTimeout)
			outcome = c.processRow(rowCtx, store, row, ec)
			rowCancel()
		}
		outcomes = append(outcomes, outcome)

		if row.OrderID != 0 {
			orderSeen[row.OrderID] = true
			if outcome.Status != consts.OutcomeOK {
				orderFailed[row.OrderID] = true
			}
		}
	}

	// Flip each order at most once, and only when every one of its rows
	// landed. Updater failures never retroactively fail committed rows.
	for orderID := range orderSeen {
		if orderFailed[orderID] || c.orders == nil {
			continue
		}
		if err := c.orders.MarkCompleted(ctx, orderID); err != nil {
			slog.Error("error completing order after enrollment", "orderID", orderID, "err", err)
		} else {
			slog.Info("order completed", "orderID", orderID)
		}
	}

	return outcomes, nil
}

func (c *Enroll) processRow(ctx context.Context, store interfaces.EnrollmentStore, row entity.EnrollRow, ec EnrollContext) entity.Outcome {
	if err := normalizeRow(&row); err != nil {
		return entity.Failed(row, err)
	}
	if row.CourseName == "" {
		row.CourseName = ec.ConvenzioneName
	}

	course, err := store.FindCourse(ctx, row.CourseCode)
	if err != nil {
		return entity.Failed(row, err)
	}

	var learnerID int64
	alreadyEnrolled := false
	if ec.CheckExisting {
		existing, err := store.FindLearner(ctx, row.FiscalCode, row.Email)
		if err != nil {
			return entity.Failed(row, errs.WriteError{Err: err})
		}
		if existing != nil {
			learnerID = existing.ID
			enrolled, err := store.IsEnrolled(ctx, learnerID, course.ID)
			if err != nil {
				return entity.Failed(row, errs.WriteError{Err: err})
			}
			alreadyEnrolled = enrolled
		}
	}

	if alreadyEnrolled {
		// Idempotent no-op: resubmitting the same sheet or order must not
		// duplicate enrollments or mails.
		slog.Info("learner already enrolled, skipping", "fiscalCode", row.FiscalCode, "course", course.Code)
		return entity.OK(row)
	}

	if learnerID == 0 {
		learnerID, err = store.CreateLearner(ctx, entity.Learner{
			FirstName:  row.FirstName,
			LastName:   row.LastName,
			Email:      row.Email,
			PEC:        row.PEC,
			FiscalCode: row.FiscalCode,
			Phone:      row.Phone,
		})
		if err != nil {
			return entity.Failed(row, errs.WriteError{Err: err})
		}
	}

	if err := store.Enroll(ctx, learnerID, course.ID, row.ExamSite); err != nil {
		return entity.Failed(row, errs.WriteError{Err: err})
	}

	outcome := entity.OK(row)
	if ec.SendEmail {
		if err := c.sendConfirmation(row, course, ec); err != nil {
			// Enrollment success is defined by the write, not the mail.
			slog.Warn("confirmation mail failed", "email", row.Email, "course", course.Code, "err", err)
			outcome.Warning = fmt.Sprintf("confirmation mail not sent: %v", err)
		}
	}
	return outcome
}

func (c *Enroll) sendConfirmation(row entity.EnrollRow, course *entity.Course, ec EnrollContext) error {
	if c.mailer == nil {
		return nil
	}
	data := mail.EnrollmentConfirmedData{
		FirstName:       row.FirstName,
		LastName:        row.LastName,
		CourseName:      course.Name,
		ConvenzioneName: ec.ConvenzioneName,
	}
	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("error rendering confirmation, %v", err)
	}
	to := []string{row.Email}
	if row.PEC != "" {
		to = append(to, row.PEC)
	}
	return c.mailer.Send(to, nil, data.GetSubject(), body.String())
}

// normalizeRow trims every text field, lower-cases the email and
// upper-cases the fiscal code, then enforces the required fields.
func normalizeRow(row *entity.EnrollRow) error {
	row.FirstName = strings.TrimSpace(row.FirstName)
	row.LastName = strings.TrimSpace(row.LastName)
	row.Email = strings.ToLower(strings.TrimSpace(row.Email))
	row.PEC = strings.ToLower(strings.TrimSpace(row.PEC))
	row.FiscalCode = strings.ToUpper(strings.TrimSpace(row.FiscalCode))
	row.Phone = strings.TrimSpace(row.Phone)
	row.CourseCode = strings.TrimSpace(row.CourseCode)
	row.CourseName = strings.TrimSpace(row.CourseName)
	row.ExamSite = strings.TrimSpace(row.ExamSite)

	switch {
	case row.FirstName == "":
		return errs.ValidationError{Field: "nome"}
	case row.LastName == "":
		return errs.ValidationError{Field: "cognome"}
	case row.Email == "":
		return errs.ValidationError{Field: "email"}
	case row.FiscalCode == "":
		return errs.ValidationError{Field: "codice fiscale"}
	case row.CourseCode == "":
		return errs.ValidationError{Field: "codice corso"}
	}
	return nil
}
