package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"listify_echo/internal/models"
)

// BuildScheduledTask is a helper to build ScheduledTask records generically
func BuildScheduledTask(taskName string, args interface{}, due time.Time, recurringInterval *string, taskType models.ScheduledTaskType, maxAttempt int) (*models.ScheduledTask, error) {
	if recurringInterval != nil {
		if err := models.ValidateRecurrence(*recurringInterval); err != nil {
			return nil, fmt.Errorf("invalid recurring interval: %w", err)
		}
	}
	if maxAttempt < 1 {
		maxAttempt = 1
	}

	argsBytes, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	var mapArgs map[string]interface{}
	if err := json.Unmarshal(argsBytes, &mapArgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into map: %w", err)
	}

	return &models.ScheduledTask{
		TaskName:          taskName,
		Arguments:         mapArgs,
		Due:               due,
		RecurringInterval: recurringInterval,
		Status:            models.ScheduledTaskStatusActive,
		TaskType:          taskType,
		MaxAttempt:        maxAttempt,
	}, nil
}

// decodeArgs converts the stored argument map into a typed struct
func decodeArgs(task models.ScheduledTask, dst interface{}) error {
	argsBytes, err := json.Marshal(task.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal args: %w", err)
	}
	if err := json.Unmarshal(argsBytes, dst); err != nil {
		return fmt.Errorf("failed to unmarshal args: %w", err)
	}
	return nil
}
