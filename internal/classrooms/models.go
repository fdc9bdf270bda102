package classrooms

import (
	"time"

	"github.com/colearn/backend/internal/auth"
	"github.com/colearn/backend/internal/folders"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

type Role struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"not null;uniqueIndex" json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

type Classroom struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"ownerId"`
	Name        string         `gorm:"not null" json:"name"`
	Description *string        `json:"description,omitempty"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`
	Avatar      *string        `json:"avatar,omitempty"`
	Cover       *string        `json:"cover,omitempty"`
	IsPrivate   bool           `gorm:"not null;default:false" json:"isPrivate"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`

	Owner *auth.User `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

// Enrollment ties a user to a classroom. The composite primary key allows one
// row per user and classroom.
type Enrollment struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	ClassroomID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"classroomId"`
	FolderID    uuid.UUID `gorm:"type:uuid;not null;index" json:"folderId"`
	RoleID      uint      `gorm:"not null" json:"roleId"`
	CreatedAt   time.Time `json:"createdAt"`

	User      *auth.User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Classroom *Classroom      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Folder    *folders.Folder `json:"-"`
	Role      *Role           `json:"-"`
}

type Invitation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassroomID uuid.UUID `gorm:"type:uuid;not null;index" json:"classroomId"`
	Role        string    `gorm:"not null;default:'student'" json:"role"`
	ExpiresAt   time.Time `gorm:"not null" json:"expiresAt"`
	MaxUses     *int      `json:"maxUses"`
	Uses        int       `gorm:"not null;default:0" json:"uses"`
	IsRevoked   bool      `gorm:"not null;default:false" json:"isRevoked"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null" json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`

	Classroom *Classroom `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Role) TableName() string       { return "colearn.roles" }
func (Classroom) TableName() string  { return "colearn.classrooms" }
func (Enrollment) TableName() string { return "colearn.enrollments" }
func (Invitation) TableName() string { return "colearn.invitations" }

// Usable reports whether the invitation could still admit someone at now.
func (inv Invitation) Usable(now time.Time) bool {
	if inv.IsRevoked || !now.Before(inv.ExpiresAt) {
		return false
	}
	return inv.MaxUses == nil || inv.Uses < *inv.MaxUses
}

type EnrolledClassroom struct {
	Classroom
	Role     string    `json:"role"`
	FolderID uuid.UUID `json:"folderId"`
}

type CreatedClassroom struct {
	Classroom
	EnrollmentCount int64 `json:"enrollmentCount"`
	InvitationCount int64 `json:"invitationCount"`
}
