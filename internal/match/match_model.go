package match

import (
	"time"

	"gorm.io/gorm"
)

// MatchStatus is the lifecycle state of a match.
//
//	recruiting -> matched -> finished
//	                 \-> dispute -> finished  (admin resolves)
type MatchStatus string

const (
	StatusRecruiting MatchStatus = "recruiting"
	StatusMatched    MatchStatus = "matched"
	StatusDispute    MatchStatus = "dispute"
	StatusFinished   MatchStatus = "finished"
)

// ResultStatus tracks the two-party agreement over a submitted score.
type ResultStatus string

const (
	ResultWaiting         ResultStatus = "waiting"
	ResultVerified        ResultStatus = "verified"
	ResultDispute         ResultStatus = "dispute"
	ResultVerifiedByAdmin ResultStatus = "verified_by_admin"
)

// Match is a hosted game looking for (or fixed with) an opponent. The result
// record is embedded: all result fields are nil until a score is submitted.
// GuestTeamID is set exactly once, when the host accepts an applicant, and is
// immutable afterwards. Team ledgers are touched only by the transition into
// StatusFinished, which is guarded so it cannot re-fire.
type Match struct {
	gorm.Model
	HostTeamID  uint  `json:"host_team_id" gorm:"index;not null"`
	GuestTeamID *uint `json:"guest_team_id,omitempty" gorm:"index"`

	GameTime       time.Time `json:"game_time" gorm:"index;not null"`
	Location       string    `json:"location" gorm:"not null"`
	Note           string    `json:"note,omitempty" gorm:"type:text"`
	Format         string    `json:"format,omitempty"` // e.g. "6x6", "9x9"
	GenderDivision string    `json:"gender_division" gorm:"index"`

	Status MatchStatus `json:"status" gorm:"index;default:'recruiting'"`

	// Result record
	HostScore         *int          `json:"host_score,omitempty"`
	GuestScore        *int          `json:"guest_score,omitempty"`
	ResultStatus      *ResultStatus `json:"result_status,omitempty" gorm:"index"`
	SubmittedByTeamID *uint         `json:"submitted_by_team_id,omitempty"`
	SubmittedAt       *time.Time    `json:"submitted_at,omitempty"`
	FinishedAt        *time.Time    `json:"finished_at,omitempty"`
}

// MatchApplicant is one team's application to a recruiting match. The unique
// index makes apply idempotent; rows are hard rows (no soft delete) so a team
// can re-apply after cancelling.
type MatchApplicant struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	MatchID   uint      `json:"match_id" gorm:"not null;uniqueIndex:idx_match_applicant"`
	TeamID    uint      `json:"team_id" gorm:"not null;uniqueIndex:idx_match_applicant"`
	CreatedAt time.Time `json:"created_at"`
}
