package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"listify_echo/internal/metrics"
	"listify_echo/internal/models"
)

type permanentError struct{ error }

func (e permanentError) Unwrap() error { return e.error }

// Permanent marks a handler error that must not be retried by the runner
func Permanent(err error) error {
	return permanentError{err}
}

// Runner executes due scheduled tasks and records their history
type Runner struct {
	db       *gorm.DB
	registry *Registry
	now      func() time.Time
}

func NewRunner(db *gorm.DB, registry *Registry) *Runner {
	return &Runner{db: db, registry: registry, now: time.Now}
}

// RunDue executes every active task whose due time has passed and returns how many ran
func (r *Runner) RunDue(ctx context.Context) (int, error) {
	var pending []models.ScheduledTask
	err := r.db.WithContext(ctx).
		Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, r.now()).
		Order("due, id").
		Find(&pending).Error
	if err != nil {
		return 0, fmt.Errorf("failed to fetch pending tasks: %w", err)
	}
	if len(pending) == 0 {
		slog.Debug("no pending tasks")
		return 0, nil
	}

	slog.Info("processing pending tasks", "count", len(pending))
	ran := 0
	for _, task := range pending {
		if ctx.Err() != nil {
			return ran, ctx.Err()
		}
		r.Execute(ctx, task)
		ran++
	}
	return ran, nil
}

// Execute runs one task, retrying immediately up to MaxAttempt times, and
// moves it to its next state
func (r *Runner) Execute(ctx context.Context, task models.ScheduledTask) {
	logger := slog.With("task", task.TaskName, "task_id", task.ID)

	if task.Arguments == nil {
		task.Arguments = make(map[string]interface{})
	}

	handler, found := r.registry.Get(task.TaskName)
	if !found {
		logger.Error("task handler not found")
		now := r.now()
		r.record(ctx, task, now, 0, models.TaskRunHandlerNotFound, 1, map[string]interface{}{"error": "Handler not found"})
		r.update(ctx, task, map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"last_run": &now,
		})
		return
	}

	maxAttempt := task.MaxAttempt
	if maxAttempt < 1 {
		maxAttempt = 1
	}

	var (
		startTime time.Time
		err       error
	)
	for attempt := 1; attempt <= maxAttempt; attempt++ {
		startTime = r.now()
		var result map[string]interface{}
		result, err = handler(ctx, r.db, task)
		runtime := int(time.Since(startTime).Milliseconds())

		status := models.TaskRunSuccess
		if err != nil {
			status = models.TaskRunFailure
			if result == nil {
				result = map[string]interface{}{}
			}
			result["error"] = err.Error()
			logger.Warn("task failed", "attempt", attempt, "error", err)
		} else {
			logger.Info("task completed", "attempt", attempt)
		}
		r.record(ctx, task, startTime, runtime, status, attempt, result)
		metrics.TaskRuns.WithLabelValues(task.TaskName, status).Inc()

		var perm permanentError
		if err == nil || errors.As(err, &perm) || ctx.Err() != nil {
			break
		}
	}

	updates := map[string]interface{}{"last_run": &startTime}
	switch {
	case err != nil:
		updates["status"] = models.ScheduledTaskStatusFailure
	case task.TaskType == models.ScheduledTaskTypeRecurring:
		next := task.NextDue(r.now())
		// a rule without future occurrences ends the task
		if next.After(task.Due) {
			updates["status"] = models.ScheduledTaskStatusActive
			updates["due"] = next
		} else {
			updates["status"] = models.ScheduledTaskStatusDone
		}
	default:
		updates["status"] = models.ScheduledTaskStatusDone
	}
	r.update(ctx, task, updates)
}

func (r *Runner) record(ctx context.Context, task models.ScheduledTask, runAt time.Time, runtime int, status string, attempt int, result map[string]interface{}) {
	history := models.ScheduledTaskHistory{
		ScheduledTaskID: task.ID,
		TaskName:        task.TaskName,
		RunAt:           runAt,
		Runtime:         runtime,
		Status:          status,
		AttemptNumber:   attempt,
		Arguments:       task.Arguments,
		Result:          result,
	}
	if err := r.db.WithContext(ctx).Create(&history).Error; err != nil {
		slog.Error("failed to record task history", "task_id", task.ID, "error", err)
	}
}

func (r *Runner) update(ctx context.Context, task models.ScheduledTask, updates map[string]interface{}) {
	if err := r.db.WithContext(ctx).Model(&task).Updates(updates).Error; err != nil {
		slog.Error("failed to update task", "task_id", task.ID, "error", err)
	}
}
