// models/notification.go
package models

import "time"

type NotificationAction string

const (
	ActionTeam        NotificationAction = "team"
	ActionJoinRequest NotificationAction = "join-request"
	ActionSeedUnlock  NotificationAction = "seed-unlock"
)

type Notification struct {
	ID      uint               `json:"id" gorm:"primaryKey"`
	UserID  uint               `json:"user_id" gorm:"not null;index"`
	Message string             `json:"message" gorm:"type:text;not null"`
	Action  NotificationAction `json:"action" gorm:"size:32;default:'team'"`
	// The user this notification is about: the requester on a
	// join-request, the subject of a roster broadcast.
	RelatedUserID *uint     `json:"related_user_id,omitempty"`
	Seen          bool      `json:"seen" gorm:"default:false;index"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
