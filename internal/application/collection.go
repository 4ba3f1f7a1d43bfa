package application

import (
	"github.com/alessandronigro/corsi-backoffice/internal/application/commands"
	"github.com/alessandronigro/corsi-backoffice/internal/application/query"
)

type Handlers struct {
	Enroll       *commands.Enroll
	ImportSheet  *commands.ImportSheet
	ProcessOrder *commands.ProcessOrder
	SendReminder *commands.SendReminder
	OrderSummary *query.OrderSummary
}
