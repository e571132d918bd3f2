package notification

import (
	"log"

	"gorm.io/gorm"
)

// Notifier is a best-effort side channel. Implementations must never fail the
// caller: a lost notification is acceptable, a lost mutation is not, so
// Notify is only invoked after the triggering transaction has committed.
type Notifier interface {
	Notify(recipientID uint, ntype, title, message, deepLink string)
}

// StoreNotifier persists notifications for in-app delivery.
type StoreNotifier struct {
	db *gorm.DB
}

func NewStoreNotifier(db *gorm.DB) *StoreNotifier {
	return &StoreNotifier{db: db}
}

func (n *StoreNotifier) Notify(recipientID uint, ntype, title, message, deepLink string) {
	if recipientID == 0 {
		return
	}
	record := Notification{
		RecipientID: recipientID,
		Type:        ntype,
		Title:       title,
		Message:     message,
		DeepLink:    deepLink,
	}
	if err := n.db.Create(&record).Error; err != nil {
		log.Printf("notification delivery to user %d failed: %v", recipientID, err)
	}
}
