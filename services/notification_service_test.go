// services/notification_service_test.go
package services

import (
	"testing"

	"scavengerhunt/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)
	user := createUser(t, db, "alice@example.com")

	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, db.Create(&models.Notification{
			UserID: user.ID, Message: msg, Action: models.ActionTeam,
		}).Error)
	}

	list, err := svc.List(user.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Message)
	assert.Equal(t, "first", list[2].Message)
}

func TestListIsScopedToUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	require.NoError(t, db.Create(&models.Notification{
		UserID: bob.ID, Message: "for bob", Action: models.ActionTeam,
	}).Error)

	list, err := svc.List(alice.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMarkSeenIgnoresForeignIDs(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	mine := &models.Notification{UserID: alice.ID, Message: "mine", Action: models.ActionTeam}
	require.NoError(t, db.Create(mine).Error)
	theirs := &models.Notification{UserID: bob.ID, Message: "theirs", Action: models.ActionTeam}
	require.NoError(t, db.Create(theirs).Error)

	// Foreign and unknown ids are skipped without an error.
	require.NoError(t, svc.MarkSeen(alice.ID, []uint{mine.ID, theirs.ID, 9999}))

	var got models.Notification
	require.NoError(t, db.First(&got, mine.ID).Error)
	assert.True(t, got.Seen)

	require.NoError(t, db.First(&got, theirs.ID).Error)
	assert.False(t, got.Seen)
}

func TestMarkSeenEmptyInput(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)

	assert.NoError(t, svc.MarkSeen(1, nil))
}
