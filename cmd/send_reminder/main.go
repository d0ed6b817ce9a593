package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"listify_echo/internal/config"
	"listify_echo/internal/logging"
	"listify_echo/internal/services"
	"listify_echo/internal/tasks"
)

// send_reminder runs one debt reminder pass for a group right away
func main() {
	groupID := flag.Uint("group", 0, "Group ID (mandatory)")
	threshold := flag.Float64("threshold", 0, "Only remind members owing more than this")
	subject := flag.String("subject", "", "Email subject")
	template := flag.String("template", "", "Message template ($name, $email, $amount, $group)")
	flag.Parse()

	logging.Setup()

	if *groupID == 0 {
		fmt.Println("Usage: send_reminder -group <id> [-threshold <amount>] [-subject <text>] [-template <text>]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	deps := tasks.Deps{
		Balances: services.NewBalanceService(db, nil, cfg.BalanceCacheTTL),
		Mailer:   services.NewEmailService(cfg.SMTP),
		WhatsApp: services.NewWahaService(cfg.Waha),
	}
	res, err := tasks.DebtReminderTask.Remind(context.Background(), db, deps, tasks.DebtReminderArgs{
		GroupID:   uint(*groupID),
		Threshold: *threshold,
		Subject:   *subject,
		Template:  *template,
	})
	if err != nil {
		slog.Error("reminder failed", "error", err)
		os.Exit(1)
	}

	slog.Info("reminder pass finished", "total", res.Total, "sent", res.Sent, "skipped", res.Skipped, "failed", len(res.Failed))
	for _, e := range res.Errors {
		slog.Warn("delivery failed", "detail", e)
	}
}
