package tasks

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"listify_echo/internal/models"
	"listify_echo/internal/services"
)

// RecurringPaymentArgs describes an expense booked on every run
type RecurringPaymentArgs struct {
	Title      string  `json:"title"`
	Amount     float64 `json:"amount"`
	PaidByID   uint    `json:"paid_by_id"`
	SharedWith []uint  `json:"shared_with"`
}

// RecurringPaymentTaskDef books rent, subscriptions and similar repeating expenses
type RecurringPaymentTaskDef struct{}

func (t *RecurringPaymentTaskDef) TaskID() string {
	return "recurring_payment"
}

// CreateTask builds a recurring task from an RRULE
func (t *RecurringPaymentTaskDef) CreateTask(args RecurringPaymentArgs, start time.Time, rule string) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, start, &rule, models.ScheduledTaskTypeRecurring, 1)
}

func (t *RecurringPaymentTaskDef) Handler(deps Deps) TaskHandler {
	return func(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
		if deps.Payments == nil {
			return nil, errors.New("payment service not available")
		}
		var args RecurringPaymentArgs
		if err := decodeArgs(task, &args); err != nil {
			return nil, err
		}

		payment, err := deps.Payments.Create(ctx, services.CreatePaymentInput{
			Title:      args.Title,
			Amount:     args.Amount,
			Date:       time.Now(),
			PaidByID:   args.PaidByID,
			SharedWith: args.SharedWith,
		})
		if err != nil {
			return nil, err
		}

		return map[string]interface{}{
			"status":     "success",
			"payment_id": payment.ID,
		}, nil
	}
}

// RecurringPaymentTask is the singleton instance of RecurringPaymentTaskDef
var RecurringPaymentTask = &RecurringPaymentTaskDef{}

// PurgeBoughtItemsArgs configures the cleanup of bought items
type PurgeBoughtItemsArgs struct {
	OlderThanDays int `json:"older_than_days"`
}

// PurgeBoughtItemsTaskDef removes items bought long ago
type PurgeBoughtItemsTaskDef struct{}

func (t *PurgeBoughtItemsTaskDef) TaskID() string {
	return "purge_bought_items"
}

func (t *PurgeBoughtItemsTaskDef) Handler(deps Deps) TaskHandler {
	return func(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
		if deps.Items == nil {
			return nil, errors.New("item service not available")
		}
		var args PurgeBoughtItemsArgs
		if err := decodeArgs(task, &args); err != nil {
			return nil, err
		}
		if args.OlderThanDays <= 0 {
			args.OlderThanDays = 30
		}

		removed, err := deps.Items.PurgeBought(ctx, args.OlderThanDays)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"status": "success", "removed": removed}, nil
	}
}

var PurgeBoughtItemsTask = &PurgeBoughtItemsTaskDef{}
