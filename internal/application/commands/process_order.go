package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alessandronigro/corsi-backoffice/internal/application/dto"
	"github.com/alessandronigro/corsi-backoffice/internal/application/interfaces"
	"github.com/alessandronigro/corsi-backoffice/internal/infra/db"
)

// ProcessOrder reconciles a paid web-shop order into the LMS of its
// convenzione. The engine flips the order to completed when every
// participant row lands.
type ProcessOrder struct {
	repo   interfaces.OrderRepo
	enroll *Enroll
}

func NewProcessOrder(repo interfaces.OrderRepo, enroll *Enroll) *ProcessOrder {
	return &ProcessOrder{repo: repo, enroll: enroll}
}

func (c *ProcessOrder) Execute(ctx context.Context, orderID int64, sendEmail bool) (*dto.ProcessOrderResponse, error) {
	order, err := c.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ConvenzioneCode == "" {
		return nil, fmt.Errorf("order %d has no convenzione, cannot resolve target platform", orderID)
	}
	conv, err := c.repo.GetConvenzione(ctx, order.ConvenzioneCode)
	if err != nil {
		return nil, err
	}

	target, err := db.ResolvePlatform(conv.Platform, conv.Host, "")
	if err != nil {
		return nil, err
	}

	rows, err := c.repo.GetParticipants(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("order %d has no participants", orderID)
	}
	for i := range rows {
		rows[i].ExamSite = order.ExamSite
	}

	slog.Info("processing order", "orderID", orderID, "convenzione", conv.Code, "target", target.ConnKey, "rows", len(rows))

	outcomes, err := c.enroll.Execute(ctx, rows, EnrollContext{
		Target:          target,
		ConvenzioneName: conv.Name,
		SendEmail:       sendEmail,
		CheckExisting:   true,
	})
	if err != nil {
		return nil, err
	}

	ok, failed := countOutcomes(outcomes)
	return &dto.ProcessOrderResponse{
		OrderID:   orderID,
		Completed: failed == 0,
		Outcomes:  outcomes,
		OK:        ok,
		Failed:    failed,
	}, nil
}
