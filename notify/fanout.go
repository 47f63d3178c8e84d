// Package notify implements the best-effort notification fan-out. Every
// failure in here is swallowed and logged: notification delivery must never
// block or roll back the workflow write that triggered it.
package notify

import (
	"log"

	"food-rescue-api/models"

	"gorm.io/gorm"
)

type Fanout struct {
	db *gorm.DB
}

func NewFanout(db *gorm.DB) *Fanout {
	return &Fanout{db: db}
}

// Notify creates one notification row for one user. The returned error exists
// for tests and direct callers; fan-out paths ignore it.
func (f *Fanout) Notify(userID uint, message string) error {
	n := models.Notification{UserID: userID, Message: message}
	if err := f.db.Create(&n).Error; err != nil {
		log.Printf("notify: failed to create notification for user %d: %v", userID, err)
		return err
	}
	return nil
}

// NotifyBestEffort is Notify with the error dropped
func (f *Fanout) NotifyBestEffort(userID uint, message string) {
	_ = f.Notify(userID, message)
}

// BroadcastToRole creates one notification per user holding the given role and
// returns how many were created. There is no resumption log: if the process
// dies mid-broadcast, already-created rows stand and the rest are lost.
func (f *Fanout) BroadcastToRole(role models.UserRole, message string) int {
	var users []models.User
	if err := f.db.Where("role = ?", role).Find(&users).Error; err != nil {
		log.Printf("notify: failed to list %s recipients: %v", role, err)
		return 0
	}
	sent := 0
	for _, u := range users {
		if f.Notify(u.ID, message) == nil {
			sent++
		}
	}
	return sent
}
