package user

import (
	"time"

	"gorm.io/gorm"
)

const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

// User is an account that can captain or join exactly one team. TeamID is a
// weak back-reference to that team; it is only ever written inside the same
// transaction that mutates the team's roster, never independently.
type User struct {
	gorm.Model
	Name     string  `json:"name" gorm:"not null"`
	Username string  `json:"username" gorm:"unique;not null"`
	Email    string  `json:"email" gorm:"unique;not null"`
	Password string  `json:"-" gorm:"not null"`
	Phone    *string `json:"phone,omitempty" gorm:"uniqueIndex"`
	Role     string  `json:"role" gorm:"default:'player'"`
	TeamID   *uint   `json:"team_id,omitempty" gorm:"index"`
}

type RefreshToken struct {
	gorm.Model
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	Token     string    `json:"token" gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
}
