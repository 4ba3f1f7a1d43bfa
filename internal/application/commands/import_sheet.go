package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alessandronigro/corsi-backoffice/internal/application/dto"
	"github.com/alessandronigro/corsi-backoffice/internal/domain/consts"
	"github.com/alessandronigro/corsi-backoffice/internal/domain/entity"
	"github.com/alessandronigro/corsi-backoffice/internal/infra/db"
	"github.com/google/uuid"
)

// ImportSheet turns a manually uploaded spreadsheet batch into
// enrollment rows. Columns are positional: cognome, nome, email,
// codice fiscale, telefono (optional).
type ImportSheet struct {
	enroll *Enroll
}

func NewImportSheet(enroll *Enroll) *ImportSheet {
	return &ImportSheet{enroll: enroll}
}

func (c *ImportSheet) Execute(ctx context.Context, req dto.ImportSheetRequest) (*dto.ImportSheetResponse, error) {
	convRef, err := dto.ParseConvenzioneRef(req.Convenzione)
	if err != nil {
		return nil, err
	}
	courseRef, err := dto.ParseCourseRef(req.Corso)
	if err != nil {
		return nil, err
	}
	if len(req.Rows) == 0 {
		return nil, fmt.Errorf("empty sheet, no rows to import")
	}

	target, err := db.ResolvePlatform("", convRef.Host, convRef.Database)
	if err != nil {
		return nil, err
	}

	rows := make([]entity.EnrollRow, 0, len(req.Rows))
	for _, raw := range req.Rows {
		rows = append(rows, entity.EnrollRow{
			LastName:   col(raw, 0),
			FirstName:  col(raw, 1),
			Email:      col(raw, 2),
			FiscalCode: col(raw, 3),
			Phone:      col(raw, 4),
			CourseCode: courseRef.Code,
			CourseName: courseRef.Name,
		})
	}

	batchID := uuid.New()
	slog.Info("importing sheet", "batchID", batchID, "convenzione", convRef.Name, "course", courseRef.Code, "rows", len(rows))

	outcomes, err := c.enroll.Execute(ctx, rows, EnrollContext{
		Target:          target,
		ConvenzioneName: convRef.Name,
		SendEmail:       req.SendEmail,
		CheckExisting:   true,
	})
	if err != nil {
		return nil, err
	}

	ok, failed := countOutcomes(outcomes)
	return &dto.ImportSheetResponse{
		BatchID:  batchID.String(),
		Outcomes: outcomes,
		OK:       ok,
		Failed:   failed,
	}, nil
}

func col(raw []string, i int) string {
	if i < len(raw) {
		return raw[i]
	}
	return ""
}

func countOutcomes(outcomes []entity.Outcome) (ok, failed int) {
	for _, o := range outcomes {
		if o.Status == consts.OutcomeOK {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
