package tasks

import (
	"listify_echo/internal/services"
)

// Mailer delivers email reminders
type Mailer interface {
	SendEmail(to []string, subject, body string) error
}

// Messenger delivers WhatsApp reminders
type Messenger interface {
	SendMessage(chatID, text string) error
}

// Deps are the services task handlers work with
type Deps struct {
	Payments *services.PaymentService
	Balances *services.BalanceService
	Items    *services.ItemService
	Mailer   Mailer
	WhatsApp Messenger
}

// DefineTasks registers all available tasks
func DefineTasks(r *Registry, deps Deps) {
	r.Register(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)
	r.Register(DebtReminderTask.TaskID(), DebtReminderTask.Handler(deps))
	r.Register(RecurringPaymentTask.TaskID(), RecurringPaymentTask.Handler(deps))
	r.Register(PurgeBoughtItemsTask.TaskID(), PurgeBoughtItemsTask.Handler(deps))
}
