package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead stages a prospective student moves through. The set is fixed; there is
// no free-form stage input.
const (
	StageDead                 = "Dead"
	StageCold                 = "Cold"
	StageWarm                 = "Warm"
	StageHot                  = "Hot"
	StageOfferSent            = "Offer Sent"
	StageAwaitingConfirmation = "Awaiting Confirmation"
	StageMeetingScheduled     = "Meeting Scheduled"
	StageAdmission            = "Admission"
	StageCIF                  = "CIF"
	StageUnresponsive         = "Unresponsive"
)

// LeadStages lists every stage in pipeline order. Aggregation emits stage
// distributions in this order.
var LeadStages = []string{
	StageDead,
	StageCold,
	StageWarm,
	StageHot,
	StageOfferSent,
	StageAwaitingConfirmation,
	StageMeetingScheduled,
	StageAdmission,
	StageCIF,
	StageUnresponsive,
}

// Status values for a commitment. The progression is informational only:
// aggregation counts a commitment as achieved when status is "achieved" OR
// the admission was closed.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusAchieved   = "achieved"
	StatusMissed     = "missed"
)

// Commitment is a weekly pledge by a consultant toward converting one lead.
// Consultant and team names are denormalized on purpose: history must survive
// renames and deleted accounts, so they are not foreign keys.
type Commitment struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConsultantID   uuid.UUID `gorm:"type:uuid;index" json:"consultant_id"`
	ConsultantName string    `gorm:"index" json:"consultant_name"`
	TeamName       string    `gorm:"index" json:"team_name"`

	// Week identity, immutable after creation. Always a Monday-start ISO
	// week pair consistent with week_number/year.
	WeekNumber    int       `json:"week_number"`
	Year          int       `json:"year"`
	WeekStartDate time.Time `gorm:"index" json:"week_start_date"`
	WeekEndDate   time.Time `json:"week_end_date"`

	StudentName    string `json:"student_name"`
	CommitmentMade string `gorm:"not null" json:"commitment_made"`
	DayCommitted   string `json:"day_committed"`

	LeadStage             string `gorm:"index" json:"lead_stage"`
	ConversionProbability int    `json:"conversion_probability"`
	Status                string `gorm:"default:pending" json:"status"`

	MeetingsDone          int `json:"meetings_done"`
	AchievementPercentage int `json:"achievement_percentage"`
	ProspectForWeek       int `json:"prospect_for_week"`

	AdmissionClosed bool       `json:"admission_closed"`
	ClosedDate      *time.Time `json:"closed_date,omitempty"`
	ClosedAmount    float64    `json:"closed_amount"`

	CorrectiveActionByTL string     `json:"corrective_action_by_tl"`
	AdminComment         string     `json:"admin_comment"`
	FollowUpDate         *time.Time `json:"follow_up_date,omitempty"`
	FollowUpNotes        string     `json:"follow_up_notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id when one was not provided.
func (c *Commitment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CreateCommitmentRequest is the create payload. Week assignment: an
// explicit week_start_date wins, then a week_number/year pair, then the
// current ISO week. End dates are always derived, never accepted.
type CreateCommitmentRequest struct {
	ConsultantID   *uuid.UUID `json:"consultant_id,omitempty"`
	ConsultantName string     `json:"consultant_name"`
	TeamName       string     `json:"team_name"`

	WeekNumber    *int       `json:"week_number,omitempty"`
	Year          *int       `json:"year,omitempty"`
	WeekStartDate *time.Time `json:"week_start_date,omitempty"`

	StudentName    string `json:"student_name"`
	CommitmentMade string `json:"commitment_made" validate:"required"`
	DayCommitted   string `json:"day_committed" validate:"omitempty,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`

	LeadStage             string `json:"lead_stage" validate:"omitempty,oneof=Dead Cold Warm Hot 'Offer Sent' 'Awaiting Confirmation' 'Meeting Scheduled' Admission CIF Unresponsive"`
	ConversionProbability int    `json:"conversion_probability"`
	Status                string `json:"status" validate:"omitempty,oneof=pending in_progress achieved missed"`

	MeetingsDone          int `json:"meetings_done"`
	AchievementPercentage int `json:"achievement_percentage"`
	ProspectForWeek       int `json:"prospect_for_week"`

	AdmissionClosed bool       `json:"admission_closed"`
	ClosedDate      *time.Time `json:"closed_date,omitempty"`
	ClosedAmount    float64    `json:"closed_amount"`

	FollowUpDate  *time.Time `json:"follow_up_date,omitempty"`
	FollowUpNotes string     `json:"follow_up_notes"`
}

// UpdateCommitmentRequest is a partial update. Nil fields are left untouched.
// Week-identity fields are present only so an attempted change can be
// rejected explicitly, never applied.
type UpdateCommitmentRequest struct {
	StudentName    *string `json:"student_name,omitempty"`
	CommitmentMade *string `json:"commitment_made,omitempty"`
	DayCommitted   *string `json:"day_committed,omitempty" validate:"omitempty,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`

	LeadStage             *string `json:"lead_stage,omitempty" validate:"omitempty,oneof=Dead Cold Warm Hot 'Offer Sent' 'Awaiting Confirmation' 'Meeting Scheduled' Admission CIF Unresponsive"`
	ConversionProbability *int    `json:"conversion_probability,omitempty"`
	Status                *string `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress achieved missed"`

	MeetingsDone          *int `json:"meetings_done,omitempty"`
	AchievementPercentage *int `json:"achievement_percentage,omitempty"`
	ProspectForWeek       *int `json:"prospect_for_week,omitempty"`

	AdmissionClosed *bool      `json:"admission_closed,omitempty"`
	ClosedDate      *time.Time `json:"closed_date,omitempty"`
	ClosedAmount    *float64   `json:"closed_amount,omitempty"`

	CorrectiveActionByTL *string    `json:"corrective_action_by_tl,omitempty"`
	AdminComment         *string    `json:"admin_comment,omitempty"`
	FollowUpDate         *time.Time `json:"follow_up_date,omitempty"`
	FollowUpNotes        *string    `json:"follow_up_notes,omitempty"`

	WeekNumber    *int       `json:"week_number,omitempty"`
	Year          *int       `json:"year,omitempty"`
	WeekStartDate *time.Time `json:"week_start_date,omitempty"`
	WeekEndDate   *time.Time `json:"week_end_date,omitempty"`
}

// CommitmentQuery is the filter a repository applies when listing
// commitments. Zero values mean "no restriction".
type CommitmentQuery struct {
	ConsultantID   uuid.UUID
	ConsultantName string
	TeamName       string
	Start          time.Time
	End            time.Time
}

// WeeklySummary is the derived rollup for one scope and week. It is always
// recomputed from the underlying commitment set, never hand-edited.
type WeeklySummary struct {
	TotalCommitments             int `json:"total_commitments"`
	TotalAchieved                int `json:"total_achieved"`
	TotalMeetingsDone            int `json:"total_meetings_done"`
	TotalAdmissionsClosed        int `json:"total_admissions_closed"`
	TotalProspects               int `json:"total_prospects"`
	OverallAchievementPercentage int `json:"overall_achievement_percentage"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
