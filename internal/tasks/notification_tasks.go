package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"listify_echo/internal/models"
)

const defaultReminderTemplate = "Hi $name, you still owe $amount € in $group. Please settle up when you can."

// DebtReminderArgs defines the arguments for a debt reminder
type DebtReminderArgs struct {
	GroupID uint `json:"group_id"`
	// Members owing no more than this are skipped
	Threshold float64 `json:"threshold"`
	Subject   string  `json:"subject"`
	Template  string  `json:"template"`
	// UserIDs restricts a retry to the members that failed before
	UserIDs      []uint `json:"user_ids,omitempty"`
	AttemptCount int    `json:"attempt_count"`
}

// ReminderResult counts what happened to each member
type ReminderResult struct {
	Total   int
	Sent    int
	Skipped int
	Failed  []uint
	Errors  []string
}

func (r ReminderResult) toMap() map[string]interface{} {
	m := map[string]interface{}{
		"total":   r.Total,
		"success": r.Sent,
		"skipped": r.Skipped,
		"failure": len(r.Failed),
	}
	if len(r.Errors) > 0 {
		m["errors"] = r.Errors
	}
	return m
}

// DebtReminderTaskDef reminds members of a group about what they owe
type DebtReminderTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *DebtReminderTaskDef) TaskID() string {
	return "debt_reminder"
}

// CreateTask builds a ScheduledTask record for this task
func (t *DebtReminderTaskDef) CreateTask(args DebtReminderArgs, due time.Time, maxAttempt int) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, due, nil, models.ScheduledTaskTypeOneTime, maxAttempt)
}

// Handler binds the task to its dependencies. Members that could not be
// reached are rescheduled in a new task until the attempt budget is spent.
func (t *DebtReminderTaskDef) Handler(deps Deps) TaskHandler {
	return func(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
		var args DebtReminderArgs
		if err := decodeArgs(task, &args); err != nil {
			return nil, err
		}

		res, err := t.Remind(ctx, db, deps, args)
		if err != nil {
			return nil, err
		}
		result := res.toMap()
		if len(res.Failed) == 0 {
			return result, nil
		}

		if args.AttemptCount+1 >= task.MaxAttempt {
			slog.Warn("debt reminder gave up", "group", args.GroupID, "failed", len(res.Failed), "max_attempt", task.MaxAttempt)
			return result, Permanent(fmt.Errorf("max attempts reached, failed to deliver to %d users", len(res.Failed)))
		}

		retry := args
		retry.UserIDs = res.Failed
		retry.AttemptCount = args.AttemptCount + 1
		next, err := t.CreateTask(retry, time.Now().Add(5*time.Minute), task.MaxAttempt)
		if err != nil {
			return result, err
		}
		if err := db.WithContext(ctx).Create(next).Error; err != nil {
			return result, fmt.Errorf("failed to create retry task: %w", err)
		}
		slog.Info("debt reminder rescheduled", "group", args.GroupID, "users", len(res.Failed), "attempt", retry.AttemptCount+1, "task_id", next.ID)
		result["retry_task_id"] = next.ID
		return result, nil
	}
}

// Remind runs one reminder pass over the group
func (t *DebtReminderTaskDef) Remind(ctx context.Context, db *gorm.DB, deps Deps, args DebtReminderArgs) (ReminderResult, error) {
	var res ReminderResult
	if args.GroupID == 0 {
		return res, errors.New("group_id is required")
	}

	var group models.Group
	if err := db.WithContext(ctx).First(&group, args.GroupID).Error; err != nil {
		return res, fmt.Errorf("failed to fetch group %d: %w", args.GroupID, err)
	}

	q := db.WithContext(ctx).Where("group_id = ?", group.ID)
	if len(args.UserIDs) > 0 {
		q = q.Where("id IN ?", args.UserIDs)
	}
	var members []models.User
	if err := q.Order("id").Find(&members).Error; err != nil {
		return res, fmt.Errorf("failed to fetch members: %w", err)
	}

	res.Total = len(members)
	for _, member := range members {
		summary, err := deps.Balances.Summarize(ctx, member.ID)
		if err != nil {
			res.Failed = append(res.Failed, member.ID)
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", member.Username, err))
			continue
		}
		if summary.TotalYouOwe <= args.Threshold {
			res.Skipped++
			continue
		}

		var pref models.UserNotifPreference
		err = db.WithContext(ctx).Where("user_id = ?", member.ID).First(&pref).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			pref = models.DefaultNotifPreference(member.ID)
		} else if err != nil {
			res.Failed = append(res.Failed, member.ID)
			res.Errors = append(res.Errors, fmt.Sprintf("%s: db error", member.Username))
			continue
		}

		msg := renderReminder(args.Template, member, group, summary.TotalYouOwe)
		var sendErr error
		switch pref.Channel {
		case models.NotificationChannelEmail:
			sendErr = sendEmailReminder(deps.Mailer, member, args.Subject, msg)
		case models.NotificationChannelWhatsapp:
			sendErr = sendWhatsappReminder(deps.WhatsApp, member, pref, msg)
		default:
			slog.Debug("reminder disabled", "user", member.ID, "channel", pref.Channel)
			res.Skipped++
			continue
		}

		if sendErr != nil {
			slog.Warn("failed to send reminder", "user", member.ID, "channel", pref.Channel, "error", sendErr)
			res.Failed = append(res.Failed, member.ID)
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", member.Username, sendErr))
			continue
		}
		res.Sent++
	}
	return res, nil
}

// DebtReminderTask is the singleton instance of DebtReminderTaskDef
var DebtReminderTask = &DebtReminderTaskDef{}

func sendWhatsappReminder(messenger Messenger, user models.User, pref models.UserNotifPreference, msg string) error {
	if messenger == nil {
		return errors.New("whatsapp not configured")
	}

	var chatID string
	if pref.WhatsappTargetType == models.WhatsappTargetTypeGroup {
		chatID = pref.WhatsappGroupID
		if chatID == "" {
			return errors.New("group ID is empty")
		}
		if !strings.HasSuffix(chatID, "@g.us") {
			chatID += "@g.us"
		}
	} else {
		chatID = user.Phone
		if chatID == "" {
			return errors.New("phone number is empty")
		}
	}

	return messenger.SendMessage(chatID, msg)
}

func sendEmailReminder(mailer Mailer, user models.User, subject, msg string) error {
	if mailer == nil {
		return errors.New("email not configured")
	}
	if subject == "" {
		subject = "Payment reminder"
	}
	return mailer.SendEmail([]string{user.Email}, subject, msg)
}

func renderReminder(template string, user models.User, group models.Group, amount float64) string {
	if template == "" {
		template = defaultReminderTemplate
	}
	return strings.NewReplacer(
		"$name", user.Username,
		"$username", user.Username,
		"$email", user.Email,
		"$group", group.Name,
		"$amount", fmt.Sprintf("%.2f", amount),
	).Replace(template)
}
