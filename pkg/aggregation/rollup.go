// Package aggregation reduces sets of commitments into the rollups behind
// dashboards, trend charts, and exports. Every function here is a pure
// reduction over its input: results are reproducible independent of the
// storage engine the rows came from.
package aggregation

import (
	"math"
	"time"

	"github.com/edconsult/commitdb/pkg/models"
	"github.com/edconsult/commitdb/pkg/week"
)

// UnknownKey buckets commitments whose consultant name is missing. They are
// grouped, not dropped, so grouped totals always sum to the ungrouped total.
const UnknownKey = "Unknown"

// RollupRow is one group's counters. Rows are emitted as an ordered sequence
// keyed by group name, in first-seen input order.
type RollupRow struct {
	Key             string `json:"key"`
	Total           int    `json:"total"`
	Achieved        int    `json:"achieved"`
	Meetings        int    `json:"meetings"`
	Closed          int    `json:"closed"`
	AchievementRate int    `json:"achievement_rate"`
}

// TeamRollup is a team's counters with the per-consultant breakdown nested
// inside it.
type TeamRollup struct {
	RollupRow
	Consultants []RollupRow `json:"consultants"`
}

// StageCount is one lead stage's share of the filtered set.
type StageCount struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// IsAchieved reports whether a commitment counts as achieved. This OR-rule
// is the load-bearing classification used by every metric, chart, and
// export: an explicit achieved status or a closed admission both qualify.
func IsAchieved(c *models.Commitment) bool {
	return c.Status == models.StatusAchieved || c.AdmissionClosed
}

// accumulator tracks one group while reducing.
type accumulator struct {
	total    int
	achieved int
	meetings int
	closed   int
}

func (a *accumulator) add(c *models.Commitment) {
	a.total++
	if IsAchieved(c) {
		a.achieved++
	}
	a.meetings += c.MeetingsDone
	if c.AdmissionClosed {
		a.closed++
	}
}

func (a *accumulator) row(key string) RollupRow {
	return RollupRow{
		Key:             key,
		Total:           a.total,
		Achieved:        a.achieved,
		Meetings:        a.meetings,
		Closed:          a.closed,
		AchievementRate: rate(a.achieved, a.total),
	}
}

// rate is round(achieved/total*100), defined as 0 on an empty group.
func rate(achieved, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(achieved) / float64(total) * 100))
}

// groupBy reduces commitments into ordered rows keyed by keyFn.
func groupBy(commitments []models.Commitment, keyFn func(*models.Commitment) string) []RollupRow {
	groups := make(map[string]*accumulator)
	var order []string

	for i := range commitments {
		key := keyFn(&commitments[i])
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{}
			groups[key] = acc
			order = append(order, key)
		}
		acc.add(&commitments[i])
	}

	rows := make([]RollupRow, 0, len(order))
	for _, key := range order {
		rows = append(rows, groups[key].row(key))
	}
	return rows
}

func consultantKey(c *models.Commitment) string {
	if c.ConsultantName == "" {
		return UnknownKey
	}
	return c.ConsultantName
}

func teamKey(c *models.Commitment) string {
	if c.TeamName == "" {
		return UnknownKey
	}
	return c.TeamName
}

// ByConsultant groups the set by consultant name.
func ByConsultant(commitments []models.Commitment) []RollupRow {
	return groupBy(commitments, consultantKey)
}

// ByTeam groups the set by team name with nested consultant breakdowns.
func ByTeam(commitments []models.Commitment) []TeamRollup {
	teamRows := groupBy(commitments, teamKey)

	byTeam := make(map[string][]models.Commitment)
	for i := range commitments {
		key := teamKey(&commitments[i])
		byTeam[key] = append(byTeam[key], commitments[i])
	}

	out := make([]TeamRollup, 0, len(teamRows))
	for _, row := range teamRows {
		out = append(out, TeamRollup{
			RollupRow:   row,
			Consultants: ByConsultant(byTeam[row.Key]),
		})
	}
	return out
}

// Monthly groups by the calendar month of week_start_date and returns one
// row per trailing month ending at ref's month, oldest first. Months without
// commitments appear zeroed so trend charts keep a continuous axis.
func Monthly(commitments []models.Commitment, monthsBack int, ref time.Time) []RollupRow {
	if monthsBack <= 0 {
		monthsBack = 1
	}

	groups := make(map[string]*accumulator)
	for i := range commitments {
		key := week.MonthLabel(commitments[i].WeekStartDate)
		if groups[key] == nil {
			groups[key] = &accumulator{}
		}
		groups[key].add(&commitments[i])
	}

	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location()).AddDate(0, -(monthsBack - 1), 0)
	rows := make([]RollupRow, 0, monthsBack)
	for m := 0; m < monthsBack; m++ {
		label := week.MonthLabel(first.AddDate(0, m, 0))
		acc := groups[label]
		if acc == nil {
			acc = &accumulator{}
		}
		rows = append(rows, acc.row(label))
	}
	return rows
}

// Daily groups by the calendar day of week_start_date across one month,
// zero-filled for every day of that month, for activity trends and heatmaps.
func Daily(commitments []models.Commitment, month time.Time) []RollupRow {
	groups := make(map[string]*accumulator)
	for i := range commitments {
		key := week.DayLabel(commitments[i].WeekStartDate)
		if groups[key] == nil {
			groups[key] = &accumulator{}
		}
		groups[key].add(&commitments[i])
	}

	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	days := first.AddDate(0, 1, 0).Sub(first).Hours() / 24

	rows := make([]RollupRow, 0, int(days))
	for d := 0; d < int(days); d++ {
		label := week.DayLabel(first.AddDate(0, 0, d))
		acc := groups[label]
		if acc == nil {
			acc = &accumulator{}
		}
		rows = append(rows, acc.row(label))
	}
	return rows
}

// StageDistribution counts commitments per lead stage, in canonical stage
// order. Stages with no commitments are included at zero; rows whose stage
// is unset or unrecognized bucket under Unknown at the end.
func StageDistribution(commitments []models.Commitment) []StageCount {
	counts := make(map[string]int)
	for i := range commitments {
		counts[commitments[i].LeadStage]++
	}

	known := make(map[string]bool, len(models.LeadStages))
	out := make([]StageCount, 0, len(models.LeadStages)+1)
	for _, stage := range models.LeadStages {
		known[stage] = true
		out = append(out, StageCount{Stage: stage, Count: counts[stage]})
	}

	unknown := 0
	for stage, n := range counts {
		if !known[stage] {
			unknown += n
		}
	}
	if unknown > 0 {
		out = append(out, StageCount{Stage: UnknownKey, Count: unknown})
	}
	return out
}

// WeekSummary reduces a scope's commitments for one week into the six
// dashboard counters.
func WeekSummary(commitments []models.Commitment) models.WeeklySummary {
	var s models.WeeklySummary
	for i := range commitments {
		c := &commitments[i]
		s.TotalCommitments++
		if IsAchieved(c) {
			s.TotalAchieved++
		}
		s.TotalMeetingsDone += c.MeetingsDone
		if c.AdmissionClosed {
			s.TotalAdmissionsClosed++
		}
		s.TotalProspects += c.ProspectForWeek
	}
	s.OverallAchievementPercentage = rate(s.TotalAchieved, s.TotalCommitments)
	return s
}

// Overall reduces the whole set into a single ungrouped row.
func Overall(commitments []models.Commitment) RollupRow {
	var acc accumulator
	for i := range commitments {
		acc.add(&commitments[i])
	}
	return acc.row("overall")
}
