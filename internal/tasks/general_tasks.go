package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"listify_echo/internal/models"
)

// LogInfoArgs is the payload of a log_info task. With a GroupID the log line
// also carries a snapshot of that group's open debts.
type LogInfoArgs struct {
	Message string `json:"message"`
	GroupID *uint  `json:"group_id,omitempty"`
}

type logInfoTask struct{}

// LogInfoTask writes a message, and optionally a ledger snapshot, to the log
var LogInfoTask = logInfoTask{}

func (logInfoTask) TaskID() string { return "log_info" }

func (logInfoTask) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var args LogInfoArgs
	if err := decodeArgs(task, &args); err != nil {
		return nil, Permanent(err)
	}
	if args.Message == "" {
		args.Message = "no message provided"
	}

	result := map[string]interface{}{
		"message":      args.Message,
		"max_attempts": task.MaxAttempt,
	}
	attrs := []any{"task_id", task.ID, "message", args.Message}

	if args.GroupID != nil {
		var snapshot struct {
			Debts int64
			Total float64
		}
		err := db.WithContext(ctx).Model(&models.Debt{}).
			Select("COUNT(*) AS debts, COALESCE(SUM(amount), 0) AS total").
			Where("group_id = ?", *args.GroupID).
			Scan(&snapshot).Error
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger snapshot: %w", err)
		}
		result["group_id"] = *args.GroupID
		result["open_debts"] = snapshot.Debts
		result["outstanding"] = snapshot.Total
		attrs = append(attrs, "group_id", *args.GroupID, "open_debts", snapshot.Debts, "outstanding", snapshot.Total)
	}

	slog.Info("log_info task", attrs...)
	return result, nil
}
