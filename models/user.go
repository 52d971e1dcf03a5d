// models/user.go
package models

import "time"

type ApprovalState string

const (
	ApprovalNone     ApprovalState = ""
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalRejected ApprovalState = "rejected"
)

type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Password string `json:"-" gorm:"not null"`
	IsAdmin  bool   `json:"is_admin" gorm:"default:false"`

	// Team membership lives on the user row. TeamID is nil while the user
	// is not on any team; IsOwner and ApprovalState are only meaningful
	// while TeamID is set.
	TeamID        *uint         `json:"team_id,omitempty" gorm:"index"`
	Team          *Team         `json:"team,omitempty" gorm:"foreignKey:TeamID"`
	IsOwner       bool          `json:"is_owner" gorm:"default:false"`
	ApprovalState ApprovalState `json:"approval_state" gorm:"size:16;default:''"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LastLogin time.Time `json:"last_login"`
}

func (User) TableName() string {
	return "users"
}

// OnTeam reports whether the user currently has a team assignment,
// pending or approved.
func (u *User) OnTeam() bool {
	return u.TeamID != nil
}
