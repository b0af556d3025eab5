// Package jobs runs the scheduled background work: the Monday commitment
// reminder and a weekly statistics log.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/edconsult/commitdb/pkg/domain"
	"github.com/edconsult/commitdb/pkg/models"
	"github.com/edconsult/commitdb/pkg/week"
)

// ReminderMonitor finds consultants who have not logged a commitment for the
// current week and nudges them through the sink.
type ReminderMonitor struct {
	commitments domain.CommitmentRepository
	users       domain.UserRepository
	sink        domain.ReminderSink
	logger      *log.Logger
	now         func() time.Time
}

// NewReminderMonitor creates a new reminder monitor.
func NewReminderMonitor(commitments domain.CommitmentRepository, users domain.UserRepository, sink domain.ReminderSink, logger *log.Logger) *ReminderMonitor {
	if logger == nil {
		logger = log.Default()
	}

	return &ReminderMonitor{
		commitments: commitments,
		users:       users,
		sink:        sink,
		logger:      logger,
		now:         time.Now,
	}
}

// DetectMissingCommitments returns the consultants with no commitment logged
// for the current ISO week. Matching uses the denormalized name as well as
// the account id, so rows created by a team lead count.
func (m *ReminderMonitor) DetectMissingCommitments(ctx context.Context) ([]models.User, error) {
	info := week.ISOWeekInfo(m.now())

	consultants, err := m.users.ListByRole(ctx, models.RoleConsultant)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultants: %w", err)
	}

	rows, err := m.commitments.Query(ctx, models.CommitmentQuery{
		Start: info.WeekStartDate,
		End:   info.WeekEndDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query commitments: %w", err)
	}

	covered := make(map[string]bool)
	for _, c := range rows {
		covered[c.ConsultantID.String()] = true
		covered[c.ConsultantName] = true
	}

	var missing []models.User
	for _, u := range consultants {
		if covered[u.ID.String()] || covered[u.Name] {
			continue
		}
		missing = append(missing, u)
	}

	m.logger.Printf("Found %d consultants without commitments for week %d/%d",
		len(missing), info.WeekNumber, info.Year)

	return missing, nil
}

// SendReminders delivers one reminder per consultant missing this week's
// commitment. A single failed delivery does not stop the rest.
func (m *ReminderMonitor) SendReminders(ctx context.Context) (int, error) {
	info := week.ISOWeekInfo(m.now())

	missing, err := m.DetectMissingCommitments(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, u := range missing {
		if err := m.sink.SendCommitmentReminder(u.Email, u.Name, info.WeekNumber, info.Year); err != nil {
			m.logger.Printf("⚠️ Failed to send reminder to %s: %v", u.Email, err)
			continue
		}
		sent++
	}

	m.logger.Printf("✅ Sent %d of %d reminders for week %d/%d",
		sent, len(missing), info.WeekNumber, info.Year)

	return sent, nil
}
