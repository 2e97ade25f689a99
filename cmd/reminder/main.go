// Command reminder emails users who have not chatted in a while. Run it from cron.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"eq-coach-be/internal/config"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/pkg/mailer"
	"eq-coach-be/internal/repository/unitofwork"
	"eq-coach-be/internal/service"
	"eq-coach-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "overall batch timeout")
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer func() { _ = sysLogger.Sync() }()

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	reminders := service.NewReminderService(unitofwork.NewRepositoryFactory(db), emailService, cfg.Reminder, sysLogger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	color.Cyan("🚀 Running reminder batch")
	report, err := reminders.RunBatch(ctx, time.Now())
	if err != nil {
		color.Red("Batch aborted: %v", err)
	}

	color.Green("Scanned: %d", report.Scanned)
	color.Green("Sent:    %d", report.Sent)
	color.Yellow("Skipped: %d", report.Skipped)
	if report.Failed > 0 {
		color.Red("Failed:  %d", report.Failed)
	}

	if err != nil || report.Failed > 0 {
		os.Exit(1)
	}
}
