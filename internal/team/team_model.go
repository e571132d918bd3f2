package team

import (
	"gorm.io/gorm"
)

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestAccepted JoinRequestStatus = "accepted"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// Team represents a volleyball team. Wins/Losses/Points/TotalGames form the
// ledger that the result reconciliation protocol mutates; outside of admin
// overrides those columns only ever change inside a finalize transaction.
type Team struct {
	gorm.Model
	Name           string `json:"name" gorm:"not null;index"`
	Affiliation    string `json:"affiliation"`
	Region         string `json:"region" gorm:"index"`
	GenderDivision string `json:"gender_division" gorm:"index"` // "male", "female", "mixed"
	CaptainID      uint   `json:"captain_id" gorm:"index;not null"`
	Wins           int    `json:"wins" gorm:"default:0"`
	Losses         int    `json:"losses" gorm:"default:0"`
	Points         int    `json:"points" gorm:"default:0"`
	TotalGames     int    `json:"total_games" gorm:"default:0"`
	IsDeleted      bool   `json:"is_deleted" gorm:"default:false"`
}

// TeamMember is a roster entry. UserID is nil for players who are on the
// roster but have no account yet.
type TeamMember struct {
	gorm.Model
	TeamID       uint   `json:"team_id" gorm:"index;not null;uniqueIndex:idx_team_member_user"`
	UserID       *uint  `json:"user_id,omitempty" gorm:"uniqueIndex:idx_team_member_user"`
	Name         string `json:"name" gorm:"not null"`
	Position     string `json:"position"` // "setter", "outside", "middle", "opposite", "libero"
	JerseyNumber int    `json:"jersey_number"`
}

// JoinRequest is a pending applicant queued for captain review.
type JoinRequest struct {
	gorm.Model
	TeamID   uint              `json:"team_id" gorm:"index;not null;uniqueIndex:idx_join_request_user"`
	UserID   uint              `json:"user_id" gorm:"not null;uniqueIndex:idx_join_request_user"`
	Position string            `json:"position"`
	Message  string            `json:"message"`
	Status   JoinRequestStatus `json:"status" gorm:"default:'pending';index"`
}
