package folders

import (
	"time"

	"github.com/colearn/backend/internal/auth"
	"github.com/google/uuid"
)

const (
	DefaultColor = "#3b82f6"
	RootName     = "Root"
)

// Folder is one node of a user's tree. ParentID nil means top level; exactly one
// top-level folder per user is flagged IsRoot.
type Folder struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_folders_user_parent,priority:1" json:"userId"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index:idx_folders_user_parent,priority:2" json:"parentId"`
	Name      string     `gorm:"not null" json:"name"`
	Color     string     `gorm:"not null;default:'#3b82f6'" json:"color"`
	IsRoot    bool       `gorm:"not null;default:false" json:"isRoot"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	User   *auth.User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Parent *Folder    `gorm:"foreignKey:ParentID" json:"-"`
}

func (Folder) TableName() string { return "colearn.folders" }

// ClassroomEntry is a classroom as filed in one of the caller's folders.
type ClassroomEntry struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Avatar      *string   `json:"avatar,omitempty"`
	Cover       *string   `json:"cover,omitempty"`
	IsPrivate   bool      `json:"isPrivate"`
	Role        string    `json:"role"`
	FolderID    uuid.UUID `json:"folderId"`
}

type Contents struct {
	Folders    []Folder         `json:"folders"`
	Classrooms []ClassroomEntry `json:"classrooms"`
}
