package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/edconsult/commitdb/pkg/aggregation"
	"github.com/edconsult/commitdb/pkg/domain"
	"github.com/edconsult/commitdb/pkg/models"
	"github.com/edconsult/commitdb/pkg/week"
)

// CronManager manages scheduled jobs.
type CronManager struct {
	cron        *cron.Cron
	monitor     *ReminderMonitor
	commitments domain.CommitmentRepository
	logger      *log.Logger
}

// NewCronManager creates a new cron manager.
func NewCronManager(commitments domain.CommitmentRepository, users domain.UserRepository, sink domain.ReminderSink, logger *log.Logger) *CronManager {
	if logger == nil {
		logger = log.Default()
	}

	return &CronManager{
		cron:        cron.New(),
		monitor:     NewReminderMonitor(commitments, users, sink, logger),
		commitments: commitments,
		logger:      logger,
	}
}

// SetupJobs configures all scheduled jobs.
func (cm *CronManager) SetupJobs() error {
	cm.logger.Println("Setting up cron jobs...")

	// Monday at 9 AM: remind consultants missing this week's commitment.
	_, err := cm.cron.AddFunc("0 9 * * 1", func() {
		cm.logger.Println("🕐 Running weekly commitment reminder job...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := cm.monitor.SendReminders(ctx); err != nil {
			cm.logger.Printf("❌ Reminder job failed: %v", err)
			return
		}

		cm.logger.Println("✅ Weekly commitment reminder job completed")
	})
	if err != nil {
		return err
	}

	// Friday at 6 PM: log the week's rollup.
	_, err = cm.cron.AddFunc("0 18 * * 5", func() {
		cm.logger.Println("🕐 Logging weekly statistics...")

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		info := week.ISOWeekInfo(time.Now())
		rows, err := cm.commitments.Query(ctx, models.CommitmentQuery{
			Start: info.WeekStartDate,
			End:   info.WeekEndDate,
		})
		if err != nil {
			cm.logger.Printf("❌ Failed to load week %d commitments: %v", info.WeekNumber, err)
			return
		}

		summary := aggregation.WeekSummary(rows)
		cm.logger.Printf("📊 Week %d/%d: %d commitments, %d achieved (%d%%), %d meetings, %d admissions closed",
			info.WeekNumber, info.Year,
			summary.TotalCommitments, summary.TotalAchieved,
			summary.OverallAchievementPercentage,
			summary.TotalMeetingsDone, summary.TotalAdmissionsClosed)
	})
	if err != nil {
		return err
	}

	cm.logger.Println("✅ Cron jobs configured successfully")
	cm.logger.Println("  - Monday at 9 AM: Commitment reminders")
	cm.logger.Println("  - Friday at 6 PM: Weekly statistics")

	return nil
}

// Start starts the cron scheduler.
func (cm *CronManager) Start() {
	cm.logger.Println("🚀 Starting cron scheduler...")
	cm.cron.Start()
}

// Stop stops the cron scheduler.
func (cm *CronManager) Stop() {
	cm.logger.Println("🛑 Stopping cron scheduler...")
	cm.cron.Stop()
}

// GetMonitor returns the reminder monitor for manual triggers.
func (cm *CronManager) GetMonitor() *ReminderMonitor {
	return cm.monitor
}
