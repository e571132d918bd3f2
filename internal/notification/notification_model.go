package notification

import "gorm.io/gorm"

// Notification type tags.
const (
	TypeMatchApplied    = "match_applied"
	TypeMatchClosed     = "match_closed"
	TypeMatchAccepted   = "match_accepted"
	TypeResultSubmitted = "result_submitted"
	TypeResultVerified  = "result_verified"
	TypeResultDisputed  = "result_disputed"
	TypeMatchFinalized  = "match_finalized"
	TypeJoinRequested   = "join_requested"
	TypeJoinApproved    = "join_approved"
	TypeJoinRejected    = "join_rejected"
)

// Notification is a write-only output of the core operations; the UI reads
// and marks them, the core never reads them back.
type Notification struct {
	gorm.Model
	RecipientID uint   `json:"recipient_id" gorm:"index;not null"`
	Type        string `json:"type" gorm:"index;not null"`
	Title       string `json:"title" gorm:"not null"`
	Message     string `json:"message" gorm:"type:text"`
	DeepLink    string `json:"deep_link,omitempty"`
	Read        bool   `json:"read" gorm:"default:false;index"`
}
