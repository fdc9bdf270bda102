package auth

import (
	"time"

	"github.com/colearn/backend/internal/utils"
	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName string    `gorm:"not null" json:"firstName"`
	LastName  string    `gorm:"not null" json:"lastName"`
	Email     string    `gorm:"not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Picture   *string   `json:"picture,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Sessions []Session `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Session is the server-side record of one issued refresh token. Rows are
// revoked, never deleted.
type Session struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	Token     string     `gorm:"not null" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expiresAt"`
	IsRevoked bool       `gorm:"not null;default:false" json:"isRevoked"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (Session) TableName() string { return "app_auth.sessions" }
func (User) TableName() string    { return "app_auth.users" }

// Active reports whether the session may still authorize a refresh at now.
func (s Session) Active(now time.Time) bool {
	return !s.IsRevoked && now.Before(s.ExpiresAt)
}

func (u User) Data() utils.UserData {
	return utils.UserData{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Picture:   u.Picture,
	}
}
