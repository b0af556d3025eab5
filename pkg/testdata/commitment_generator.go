// Package testdata generates realistic users and commitments for local
// development and demo environments.
package testdata

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/edconsult/commitdb/pkg/models"
	"github.com/edconsult/commitdb/pkg/week"
)

// GeneratorConfig configures commitment generation parameters
type GeneratorConfig struct {
	Teams               []string
	ConsultantsPerTeam  int
	WeeksBack           int     // how many ISO weeks of history to fill
	CommitmentsPerWeek  int     // per consultant
	AchievedChance      float64 // 0.0-1.0
	AdmissionChance     float64 // probability a record closes an admission
	StudentChance       float64 // probability a record names a student
}

// DefaultConfig matches the shape of a mid-size consulting branch.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Teams:              []string{"North", "South", "Overseas"},
		ConsultantsPerTeam: 4,
		WeeksBack:          12,
		CommitmentsPerWeek: 3,
		AchievedChance:     0.55,
		AdmissionChance:    0.15,
		StudentChance:      0.7,
	}
}

var commitmentTemplates = []string{
	"Follow up with %s about application documents",
	"Schedule a counseling session for %s",
	"Send the offer letter to %s",
	"Collect tuition deposit from %s",
	"Review SOP draft with %s",
	"Confirm visa appointment for %s",
	"Close admission for %s",
	"Book an IELTS mock test for %s",
}

var genericCommitments = []string{
	"Call five new leads from the expo list",
	"Clear the pending follow-up backlog",
	"Run a webinar for prospective undergraduates",
	"Update the lead tracker for the week",
	"Visit two partner schools",
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// GenerateUsers builds one team lead plus n consultants per team, and a
// single admin. Passwords are left to the caller.
func GenerateUsers(cfg GeneratorConfig) []models.User {
	users := []models.User{{
		Email: "admin@example.com",
		Name:  "Branch Admin",
		Role:  models.RoleAdmin,
	}}

	for _, team := range cfg.Teams {
		leadName := gofakeit.Name()
		users = append(users, models.User{
			Email:    emailFor(leadName),
			Name:     leadName,
			Role:     models.RoleTeamLead,
			TeamName: team,
		})
		for i := 0; i < cfg.ConsultantsPerTeam; i++ {
			name := gofakeit.Name()
			users = append(users, models.User{
				Email:    emailFor(name),
				Name:     name,
				Role:     models.RoleConsultant,
				TeamName: team,
			})
		}
	}
	return users
}

// GenerateCommitments fills the last cfg.WeeksBack ISO weeks with records
// for every consultant in users. Week fields are always Monday-consistent.
func GenerateCommitments(cfg GeneratorConfig, users []models.User, now time.Time) []models.Commitment {
	var out []models.Commitment

	for _, u := range users {
		if u.Role != models.RoleConsultant {
			continue
		}
		for wb := 0; wb < cfg.WeeksBack; wb++ {
			info := week.ISOWeekInfo(now.AddDate(0, 0, -7*wb))
			for i := 0; i < cfg.CommitmentsPerWeek; i++ {
				out = append(out, generateOne(cfg, u, info))
			}
		}
	}
	return out
}

func generateOne(cfg GeneratorConfig, u models.User, info week.Info) models.Commitment {
	c := models.Commitment{
		ID:             uuid.New(),
		ConsultantID:   u.ID,
		ConsultantName: u.Name,
		TeamName:       u.TeamName,
		WeekNumber:     info.WeekNumber,
		Year:           info.Year,
		WeekStartDate:  info.WeekStartDate,
		WeekEndDate:    info.WeekEndDate,
		DayCommitted:   weekdays[rand.Intn(len(weekdays))],
		LeadStage:      models.LeadStages[rand.Intn(len(models.LeadStages))],
		Status:         models.StatusPending,

		ConversionProbability: rand.Intn(101),
		MeetingsDone:          rand.Intn(6),
		ProspectForWeek:       rand.Intn(11),
	}

	if rand.Float64() < cfg.StudentChance {
		c.StudentName = gofakeit.Name()
		c.CommitmentMade = fmt.Sprintf(commitmentTemplates[rand.Intn(len(commitmentTemplates))], c.StudentName)
	} else {
		c.CommitmentMade = genericCommitments[rand.Intn(len(genericCommitments))]
	}

	if rand.Float64() < cfg.AchievedChance {
		c.Status = models.StatusAchieved
		c.AchievementPercentage = 70 + rand.Intn(31)
	} else {
		c.AchievementPercentage = rand.Intn(70)
	}

	if rand.Float64() < cfg.AdmissionChance {
		c.AdmissionClosed = true
		closed := info.WeekStartDate.AddDate(0, 0, rand.Intn(5))
		c.ClosedDate = &closed
		c.ClosedAmount = float64(1500 + rand.Intn(6)*500)
		c.LeadStage = models.StageAdmission
	}

	return c
}

func emailFor(name string) string {
	slug := strings.ToLower(strings.ReplaceAll(name, " ", "."))
	slug = strings.ReplaceAll(slug, "'", "")
	return fmt.Sprintf("%s@example.com", slug)
}
