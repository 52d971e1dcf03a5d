// services/team_service.go - Team Membership Lifecycle
package services

import (
	"errors"
	"fmt"

	"scavengerhunt/models"

	"gorm.io/gorm"
)

type TeamService struct {
	db     *gorm.DB
	mailer Mailer
}

func NewTeamService(db *gorm.DB, mailer Mailer) *TeamService {
	return &TeamService{db: db, mailer: mailer}
}

// TeamSummary is the listTeams row.
type TeamSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	MemberCount int64  `json:"member_count"`
}

// CreateTeam registers a new, empty team. Teams are created explicitly;
// joining an unknown team id is an error, never an implicit creation.
func (s *TeamService) CreateTeam(name string) (*models.Team, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrInvalid)
	}

	var count int64
	if err := s.db.Model(&models.Team{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, classify(err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: team name already exists", ErrInvalid)
	}

	team := &models.Team{Name: name}
	if err := s.db.Create(team).Error; err != nil {
		return nil, classify(err)
	}
	return team, nil
}

// ListTeams returns every team with its approved member count.
func (s *TeamService) ListTeams() ([]TeamSummary, error) {
	var summaries []TeamSummary
	err := s.db.Raw(`
		SELECT t.id, t.name, COUNT(u.id) AS member_count
		FROM teams t
		LEFT JOIN users u ON u.team_id = t.id AND u.approval_state = ?
		GROUP BY t.id, t.name
		ORDER BY t.name`, models.ApprovalApproved).Scan(&summaries).Error
	if err != nil {
		return nil, classify(err)
	}
	return summaries, nil
}

// Join puts the requester on a team. Joining an empty team grants
// immediate ownership; otherwise the requester waits in the pending state
// and the current owner gets a join-request notification. The membership
// count check and the roster write share one transaction, with the team
// row locked so two racing joins to an empty team cannot both become
// owner.
func (s *TeamService) Join(requesterID, teamID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var team models.Team
		if err := forUpdate(tx).First(&team, teamID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: team", ErrNotFound)
			}
			return err
		}

		var requester models.User
		if err := forUpdate(tx).First(&requester, requesterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user", ErrNotFound)
			}
			return err
		}
		if requester.OnTeam() {
			return fmt.Errorf("%w: already on a team, leave it first", ErrInvalid)
		}

		var memberCount int64
		if err := tx.Model(&models.User{}).Where("team_id = ?", teamID).Count(&memberCount).Error; err != nil {
			return err
		}

		if memberCount == 0 {
			// First member founds the team and becomes owner outright.
			return tx.Model(&models.User{}).Where("id = ?", requesterID).Updates(map[string]interface{}{
				"team_id":        teamID,
				"is_owner":       true,
				"approval_state": models.ApprovalApproved,
			}).Error
		}

		if err := tx.Model(&models.User{}).Where("id = ?", requesterID).Updates(map[string]interface{}{
			"team_id":        teamID,
			"is_owner":       false,
			"approval_state": models.ApprovalPending,
		}).Error; err != nil {
			return err
		}

		var owner models.User
		if err := tx.Where("team_id = ? AND is_owner = ?", teamID, true).First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Roster without an owner should not exist; leave the
				// request pending without a notification target.
				return nil
			}
			return err
		}

		message := fmt.Sprintf("%s wants to join %s", requester.Email, team.Name)
		return appendNotification(tx, owner.ID, message, models.ActionJoinRequest, &requesterID)
	})
	return classify(err)
}

// Approve confirms a pending member. Idempotent: approving an
// already-approved member mutates nothing and broadcasts nothing.
func (s *TeamService) Approve(ownerID, targetID uint) error {
	var approved *models.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		_, target, team, err := s.authorizeOwnerAction(tx, ownerID, targetID)
		if err != nil {
			return err
		}

		if target.ApprovalState == models.ApprovalApproved {
			return nil
		}

		if err := tx.Model(&models.User{}).Where("id = ?", target.ID).
			Update("approval_state", models.ApprovalApproved).Error; err != nil {
			return err
		}

		if err := deleteJoinRequests(tx, target.ID); err != nil {
			return err
		}

		message := fmt.Sprintf("%s joined %s", target.Email, team.Name)
		if err := notifyTeam(tx, team.ID, message, models.ActionTeam, &target.ID); err != nil {
			return err
		}

		approved = target
		return nil
	})
	if err != nil {
		return classify(err)
	}

	// Delivery happens outside the transaction and must never block it.
	if approved != nil && s.mailer != nil {
		target := *approved
		go s.mailer.Send(target.Email, "Welcome to the team",
			"Your join request was approved. Happy hunting!")
	}
	return nil
}

// Reject declines a pending member and clears their team assignment.
func (s *TeamService) Reject(ownerID, targetID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		_, target, team, err := s.authorizeOwnerAction(tx, ownerID, targetID)
		if err != nil {
			return err
		}

		if target.ApprovalState != models.ApprovalPending {
			return fmt.Errorf("%w: no pending request for this member", ErrInvalid)
		}

		if err := clearMembership(tx, target.ID); err != nil {
			return err
		}

		if err := deleteJoinRequests(tx, target.ID); err != nil {
			return err
		}

		if err := appendNotification(tx, target.ID,
			fmt.Sprintf("Your request to join %s was declined", team.Name),
			models.ActionTeam, nil); err != nil {
			return err
		}

		message := fmt.Sprintf("Join request from %s was declined", target.Email)
		return notifyTeam(tx, team.ID, message, models.ActionTeam, &target.ID)
	})
	return classify(err)
}

// Kick removes a member from the owner's team. Owners cannot kick
// themselves; Leave is the way out.
func (s *TeamService) Kick(ownerID, targetID uint) error {
	if ownerID == targetID {
		return ErrSelfKick
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		_, target, team, err := s.authorizeOwnerAction(tx, ownerID, targetID)
		if err != nil {
			return err
		}

		if err := clearMembership(tx, target.ID); err != nil {
			return err
		}

		if err := deleteJoinRequests(tx, target.ID); err != nil {
			return err
		}
		// Drop stale roster chatter from the target's feed; they are no
		// longer part of the conversation.
		if err := tx.Where("user_id = ? AND action = ?", target.ID, models.ActionTeam).
			Delete(&models.Notification{}).Error; err != nil {
			return err
		}

		if err := appendNotification(tx, target.ID,
			fmt.Sprintf("You were removed from %s", team.Name),
			models.ActionTeam, nil); err != nil {
			return err
		}

		message := fmt.Sprintf("%s was removed from the team", target.Email)
		return notifyTeam(tx, team.ID, message, models.ActionTeam, &target.ID)
	})
	return classify(err)
}

// Leave removes the caller from their team. A departing owner hands
// ownership to the remaining member with the smallest user id, preferring
// approved members; a pending member promoted this way becomes approved so
// the team is never left ownerless.
func (s *TeamService) Leave(userID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := forUpdate(tx).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user", ErrNotFound)
			}
			return err
		}
		if !user.OnTeam() {
			return fmt.Errorf("%w: not on a team", ErrInvalid)
		}
		teamID := *user.TeamID

		var team models.Team
		if err := forUpdate(tx).First(&team, teamID).Error; err != nil {
			return err
		}

		wasOwner := user.IsOwner
		if err := clearMembership(tx, user.ID); err != nil {
			return err
		}

		if wasOwner {
			if err := promoteSuccessor(tx, teamID); err != nil {
				return err
			}
		}

		message := fmt.Sprintf("%s left %s", user.Email, team.Name)
		return notifyTeam(tx, teamID, message, models.ActionTeam, &user.ID)
	})
	return classify(err)
}

// authorizeOwnerAction loads and locks the owner and target rows and
// verifies the caller is the approved owner of the target's team.
func (s *TeamService) authorizeOwnerAction(tx *gorm.DB, ownerID, targetID uint) (*models.User, *models.User, *models.Team, error) {
	var owner models.User
	if err := forUpdate(tx).First(&owner, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, nil, nil, err
	}
	if !owner.OnTeam() || !owner.IsOwner || owner.ApprovalState != models.ApprovalApproved {
		return nil, nil, nil, fmt.Errorf("%w: only the team owner can do that", ErrForbidden)
	}

	var target models.User
	if err := forUpdate(tx).First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, nil, nil, err
	}
	if !target.OnTeam() || *target.TeamID != *owner.TeamID {
		return nil, nil, nil, fmt.Errorf("%w: member is not on your team", ErrForbidden)
	}

	var team models.Team
	if err := tx.First(&team, *owner.TeamID).Error; err != nil {
		return nil, nil, nil, err
	}

	return &owner, &target, &team, nil
}

// clearMembership resets a user to the unassigned state.
func clearMembership(tx *gorm.DB, userID uint) error {
	return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"team_id":        nil,
		"is_owner":       false,
		"approval_state": models.ApprovalNone,
	}).Error
}

// deleteJoinRequests removes pending join-request notifications about the
// given user from every feed they landed in.
func deleteJoinRequests(tx *gorm.DB, aboutUserID uint) error {
	return tx.Where("action = ? AND related_user_id = ?", models.ActionJoinRequest, aboutUserID).
		Delete(&models.Notification{}).Error
}

// promoteSuccessor makes the remaining member with the smallest user id
// the new owner. No-op when the team emptied out.
func promoteSuccessor(tx *gorm.DB, teamID uint) error {
	var successor models.User
	err := forUpdate(tx).
		Where("team_id = ? AND approval_state = ?", teamID, models.ApprovalApproved).
		Order("id ASC").First(&successor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = forUpdate(tx).
			Where("team_id = ?", teamID).
			Order("id ASC").First(&successor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
	}
	if err != nil {
		return err
	}

	return tx.Model(&models.User{}).Where("id = ?", successor.ID).Updates(map[string]interface{}{
		"is_owner":       true,
		"approval_state": models.ApprovalApproved,
	}).Error
}
