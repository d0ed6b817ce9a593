package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"listify_echo/internal/config"
	"listify_echo/internal/logging"
	"listify_echo/internal/models"
	"listify_echo/internal/services"
	"listify_echo/internal/tasks"
)

func main() {
	taskName := flag.String("task_name", "", "Name of the task (mandatory)")
	argsStr := flag.String("arguments", "{}", "JSON arguments for the task")
	dueStr := flag.String("due", "", "Due date (mandatory, format: 2006-01-02 15:04 or RFC3339)")
	taskType := flag.String("tasktype", "onetime", "Task type: onetime or recurring")
	recurring := flag.String("recurring", "", "RRULE for recurring tasks, e.g. FREQ=MONTHLY;BYMONTHDAY=1")
	maxAttempt := flag.Int("max_attempt", 3, "Max attempts")
	flag.Parse()

	logging.Setup()

	if *taskName == "" || *dueStr == "" {
		fmt.Println("Usage: schedule_task -task_name <name> -due <YYYY-MM-DD HH:MM> [-arguments <json>] [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// every known task name, without wiring real dependencies
	registry := tasks.NewRegistry()
	tasks.DefineTasks(registry, tasks.Deps{})
	if !slices.Contains(registry.Names(), *taskName) {
		fatal("unknown task", "task_name", *taskName, "known", registry.Names())
	}

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(*argsStr), &args); err != nil {
		fatal("invalid JSON arguments", "error", err)
	}

	due, err := time.Parse(time.RFC3339, *dueStr)
	if err != nil {
		due, err = time.ParseInLocation("2006-01-02 15:04", *dueStr, time.Local)
		if err != nil {
			fatal("invalid due date, use '2006-01-02 15:04' (local) or RFC3339", "error", err)
		}
	}

	kind := models.ScheduledTaskType(*taskType)
	var recurringPtr *string
	switch kind {
	case models.ScheduledTaskTypeOneTime:
	case models.ScheduledTaskTypeRecurring:
		if *recurring == "" {
			fatal("recurring tasks need -recurring")
		}
		recurringPtr = recurring
	default:
		fatal("unknown task type", "tasktype", *taskType)
	}

	task, err := tasks.BuildScheduledTask(*taskName, args, due, recurringPtr, kind, *maxAttempt)
	if err != nil {
		fatal("failed to build task", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config", "error", err)
	}
	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		fatal("failed to connect to database", "error", err)
	}
	if err := db.Create(task).Error; err != nil {
		fatal("failed to create task", "error", err)
	}

	fmt.Printf("Successfully created task ID: %d\n", task.ID)
	fmt.Printf("Task: %s\nDue: %s\nType: %s\n", task.TaskName, task.Due, task.TaskType)
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}
