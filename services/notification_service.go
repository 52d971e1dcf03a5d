// services/notification_service.go - Notification Outbox
package services

import (
	"scavengerhunt/models"

	"gorm.io/gorm"
)

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, classify(err)
	}
	return notifications, nil
}

// MarkSeen marks the given notifications as seen. Only rows owned by the
// requesting user are touched; ids belonging to someone else are silently
// skipped rather than erroring, so the call leaks nothing about other
// users' feeds.
func (s *NotificationService) MarkSeen(userID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Update("seen", true).Error
	return classify(err)
}

// appendNotification inserts a single notification inside the caller's
// transaction.
func appendNotification(tx *gorm.DB, userID uint, message string, action models.NotificationAction, relatedUserID *uint) error {
	return tx.Create(&models.Notification{
		UserID:        userID,
		Message:       message,
		Action:        action,
		RelatedUserID: relatedUserID,
	}).Error
}

// notifyTeam inserts one notification per approved member of the team,
// inside the caller's transaction so a failure rolls back the whole
// broadcast.
func notifyTeam(tx *gorm.DB, teamID uint, message string, action models.NotificationAction, relatedUserID *uint) error {
	var memberIDs []uint
	if err := tx.Model(&models.User{}).
		Where("team_id = ? AND approval_state = ?", teamID, models.ApprovalApproved).
		Pluck("id", &memberIDs).Error; err != nil {
		return err
	}

	for _, id := range memberIDs {
		if err := appendNotification(tx, id, message, action, relatedUserID); err != nil {
			return err
		}
	}
	return nil
}
