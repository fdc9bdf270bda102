package classrooms

import (
	"context"
	"errors"
	"time"

	"github.com/colearn/backend/internal/apperr"
	"github.com/colearn/backend/internal/db"
	"github.com/colearn/backend/internal/folders"
	"github.com/colearn/backend/internal/token"
	"github.com/colearn/backend/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errClassroomNotFound  = apperr.NotFound("Classroom not found")
	errFolderNotFound     = apperr.NotFound("Folder not found")
	errParentMissing      = apperr.Validation("Parent folder does not exist")
	errNotOwner           = apperr.Forbidden("Only the classroom owner can do this")
	errNoAccess           = apperr.Forbidden("You do not have access to this classroom")
	errAlreadyEnrolled    = apperr.Validation("User is already enrolled in this classroom")
	errNotEnrolled        = apperr.NotFound("You are not enrolled in this classroom")
	errOwnerCannotLeave   = apperr.Validation("The classroom owner cannot leave it; delete the classroom instead")
	errInvitationInvalid  = apperr.Validation("Invalid invitation")
	errInvitationUnusable = apperr.Validation("Invitation expired, revoked or exhausted")
	errInvitationNotFound = apperr.NotFound("Invitation not found")
	errUnknownRole        = apperr.Validation("Unknown role")
)

// InvitationTokens decodes invitation tokens into invitation ids.
type InvitationTokens interface {
	IssueInvitation(invitationID uuid.UUID, expiresAt time.Time) (string, error)
	VerifyInvitation(tokenString string) (uuid.UUID, error)
}

// Manager owns classrooms, their enrollments and invitations.
type Manager struct {
	db     *gorm.DB
	tokens InvitationTokens
	now    func() time.Time
}

func NewManager(d *gorm.DB, tokens InvitationTokens) *Manager {
	return &Manager{db: d, tokens: tokens, now: time.Now}
}

func roleByName(tx *gorm.DB, name string) (*Role, error) {
	var role Role
	if err := tx.First(&role, "name = ?", name).Error; err != nil {
		return nil, db.Translate(err, db.Translation{NotFound: errUnknownRole})
	}
	return &role, nil
}

func lockedClassroom(tx *gorm.DB, id uuid.UUID) (*Classroom, error) {
	var c Classroom
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, db.Translate(err, db.Translation{NotFound: errClassroomNotFound})
	}
	return &c, nil
}

func (m *Manager) ListPublic(ctx context.Context) ([]Classroom, error) {
	var out []Classroom
	err := m.db.WithContext(ctx).Where("is_private = ?", false).Order("created_at DESC").Find(&out).Error
	return out, db.Translate(err, db.Translation{})
}

// Get returns a classroom; private ones only to their owner and members.
func (m *Manager) Get(ctx context.Context, userID, id uuid.UUID) (*Classroom, error) {
	var c Classroom
	if err := m.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, db.Translate(err, db.Translation{NotFound: errClassroomNotFound})
	}
	if !c.IsPrivate || c.OwnerID == userID {
		return &c, nil
	}
	enrolled, err := m.isEnrolled(m.db.WithContext(ctx), userID, id)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, errNoAccess
	}
	return &c, nil
}

func (m *Manager) isEnrolled(tx *gorm.DB, userID, classroomID uuid.UUID) (bool, error) {
	var n int64
	err := tx.Model(&Enrollment{}).
		Where("user_id = ? AND classroom_id = ?", userID, classroomID).
		Count(&n).Error
	if err != nil {
		return false, db.Translate(err, db.Translation{})
	}
	return n > 0, nil
}

func (m *Manager) ListMine(ctx context.Context, userID uuid.UUID) ([]EnrolledClassroom, error) {
	var out []EnrolledClassroom
	err := m.db.WithContext(ctx).
		Table("colearn.enrollments AS e").
		Select("c.*, r.name AS role, e.folder_id").
		Joins("JOIN colearn.classrooms c ON c.id = e.classroom_id").
		Joins("JOIN colearn.roles r ON r.id = e.role_id").
		Where("e.user_id = ?", userID).
		Order("c.name").
		Scan(&out).Error
	return out, db.Translate(err, db.Translation{})
}

const createdQuery = `
SELECT c.*,
	(SELECT count(*) FROM colearn.enrollments e WHERE e.classroom_id = c.id) AS enrollment_count,
	(SELECT count(*) FROM colearn.invitations i WHERE i.classroom_id = c.id AND NOT i.is_revoked) AS invitation_count
FROM colearn.classrooms c
WHERE c.owner_id = ?
ORDER BY c.created_at DESC`

func (m *Manager) ListCreated(ctx context.Context, ownerID uuid.UUID) ([]CreatedClassroom, error) {
	var out []CreatedClassroom
	err := m.db.WithContext(ctx).Raw(createdQuery, ownerID).Scan(&out).Error
	return out, db.Translate(err, db.Translation{})
}

type CreateClassroom struct {
	Name           string
	Description    *string
	Tags           []string
	Avatar         *string
	Cover          *string
	IsPrivate      bool
	ParentFolderID *uuid.UUID
}

// Create stores the classroom and its owner's teacher enrollment together.
func (m *Manager) Create(ctx context.Context, ownerID uuid.UUID, in CreateClassroom) (*Classroom, error) {
	name := utils.NormalizeName(in.Name)
	if name == "" || in.ParentFolderID == nil {
		return nil, apperr.Validation("name and parentFolderId are required")
	}

	c := &Classroom{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        name,
		Description: in.Description,
		Tags:        pqTags(in.Tags),
		Avatar:      in.Avatar,
		Cover:       in.Cover,
		IsPrivate:   in.IsPrivate,
	}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&folders.Folder{}).
			Where("id = ? AND user_id = ?", *in.ParentFolderID, ownerID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return errParentMissing
		}

		teacher, err := roleByName(tx, RoleTeacher)
		if err != nil {
			return err
		}
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Create(&Enrollment{
			UserID:      ownerID,
			ClassroomID: c.ID,
			FolderID:    *in.ParentFolderID,
			RoleID:      teacher.ID,
		}).Error
	})
	if err != nil {
		return nil, db.Translate(err, db.Translation{ForeignKey: errParentMissing})
	}
	return c, nil
}

// Join enrolls userID using an invitation token. The invitation use and the
// enrollment are written in one transaction; the use counter is bumped by a
// single conditional UPDATE so concurrent joins cannot exceed maxUses.
func (m *Manager) Join(ctx context.Context, userID, classroomID uuid.UUID, invitationToken string, folderID *uuid.UUID) (*Enrollment, error) {
	if invitationToken == "" || folderID == nil {
		return nil, apperr.Validation("invitationToken and parentFolderId are required")
	}
	invitationID, err := m.tokens.VerifyInvitation(invitationToken)
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		return nil, errInvitationUnusable
	case err != nil:
		return nil, errInvitationInvalid
	}

	if err := m.joinPrechecks(ctx, userID, classroomID, *folderID); err != nil {
		return nil, err
	}

	var enrollment *Enrollment
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv Invitation
		if err := tx.First(&inv, "id = ?", invitationID).Error; err != nil {
			return db.Translate(err, db.Translation{NotFound: errInvitationInvalid})
		}
		if inv.ClassroomID != classroomID {
			return errInvitationInvalid
		}
		if inv.IsRevoked {
			return errInvitationUnusable
		}

		res := tx.Model(&Invitation{}).
			Where("id = ? AND NOT is_revoked AND expires_at > ? AND (max_uses IS NULL OR uses < max_uses)",
				inv.ID, m.now().UTC()).
			UpdateColumn("uses", gorm.Expr("uses + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errInvitationUnusable
		}

		roleName := inv.Role
		if roleName == "" {
			roleName = RoleStudent
		}
		role, err := roleByName(tx, roleName)
		if err != nil {
			return err
		}

		enrollment = &Enrollment{
			UserID:      userID,
			ClassroomID: classroomID,
			FolderID:    *folderID,
			RoleID:      role.ID,
		}
		return tx.Create(enrollment).Error
	})
	if err != nil {
		return nil, db.Translate(err, db.Translation{
			Unique:     errAlreadyEnrolled,
			ForeignKey: errFolderNotFound,
		})
	}
	return enrollment, nil
}

// joinPrechecks runs the independent existence checks concurrently and fails on
// the first one that does not hold.
func (m *Manager) joinPrechecks(ctx context.Context, userID, classroomID, folderID uuid.UUID) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var n int64
		if err := m.db.WithContext(gctx).Model(&Classroom{}).Where("id = ?", classroomID).Count(&n).Error; err != nil {
			return db.Translate(err, db.Translation{})
		}
		if n == 0 {
			return errClassroomNotFound
		}
		return nil
	})
	g.Go(func() error {
		var n int64
		if err := m.db.WithContext(gctx).Model(&folders.Folder{}).
			Where("id = ? AND user_id = ?", folderID, userID).
			Count(&n).Error; err != nil {
			return db.Translate(err, db.Translation{})
		}
		if n == 0 {
			return errFolderNotFound
		}
		return nil
	})
	g.Go(func() error {
		enrolled, err := m.isEnrolled(m.db.WithContext(gctx), userID, classroomID)
		if err != nil {
			return err
		}
		if enrolled {
			return errAlreadyEnrolled
		}
		return nil
	})

	return g.Wait()
}

// Leave removes the caller's enrollment. The owner can only leave by deleting
// the classroom.
func (m *Manager) Leave(ctx context.Context, userID, classroomID uuid.UUID) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c Classroom
		if err := tx.First(&c, "id = ?", classroomID).Error; err != nil {
			return db.Translate(err, db.Translation{NotFound: errClassroomNotFound})
		}
		if c.OwnerID == userID {
			return errOwnerCannotLeave
		}
		res := tx.Delete(&Enrollment{}, "user_id = ? AND classroom_id = ?", userID, classroomID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotEnrolled
		}
		return nil
	})
	return db.Translate(err, db.Translation{})
}

type ClassroomUpdate struct {
	Name        *string
	Description *string
	Tags        *[]string
	Avatar      *string
	Cover       *string
	IsPrivate   *bool
}

func (m *Manager) Update(ctx context.Context, userID, id uuid.UUID, upd ClassroomUpdate) (*Classroom, error) {
	changes := map[string]any{}
	if upd.Name != nil {
		name := utils.NormalizeName(*upd.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		changes["name"] = name
	}
	if upd.Description != nil {
		changes["description"] = *upd.Description
	}
	if upd.Tags != nil {
		changes["tags"] = pqTags(*upd.Tags)
	}
	if upd.Avatar != nil {
		changes["avatar"] = *upd.Avatar
	}
	if upd.Cover != nil {
		changes["cover"] = *upd.Cover
	}
	if upd.IsPrivate != nil {
		changes["is_private"] = *upd.IsPrivate
	}

	var c *Classroom
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if c, err = lockedClassroom(tx, id); err != nil {
			return err
		}
		if c.OwnerID != userID {
			return errNotOwner
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(c).Updates(changes).Error; err != nil {
			return err
		}
		return tx.First(c, "id = ?", id).Error
	})
	if err != nil {
		return nil, db.Translate(err, db.Translation{NotFound: errClassroomNotFound})
	}
	return c, nil
}

// Delete removes the classroom with all its enrollments and invitations.
func (m *Manager) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := lockedClassroom(tx, id)
		if err != nil {
			return err
		}
		if c.OwnerID != userID {
			return errNotOwner
		}
		if err := tx.Delete(&Invitation{}, "classroom_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Enrollment{}, "classroom_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&Classroom{}, "id = ?", id).Error
	})
	return db.Translate(err, db.Translation{NotFound: errClassroomNotFound})
}

// MoveEnrollment re-files the caller's enrollment under another of their folders.
func (m *Manager) MoveEnrollment(ctx context.Context, userID, classroomID, folderID uuid.UUID) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&folders.Folder{}).
			Where("id = ? AND user_id = ?", folderID, userID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return errFolderNotFound
		}
		res := tx.Model(&Enrollment{}).
			Where("user_id = ? AND classroom_id = ?", userID, classroomID).
			Update("folder_id", folderID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotEnrolled
		}
		return nil
	})
	return db.Translate(err, db.Translation{ForeignKey: errFolderNotFound})
}

// RoleOf returns the caller's role name in the classroom.
func (m *Manager) RoleOf(ctx context.Context, userID, classroomID uuid.UUID) (string, error) {
	var name string
	err := m.db.WithContext(ctx).
		Table("colearn.enrollments AS e").
		Select("r.name").
		Joins("JOIN colearn.roles r ON r.id = e.role_id").
		Where("e.user_id = ? AND e.classroom_id = ?", userID, classroomID).
		Limit(1).
		Scan(&name).Error
	if err != nil {
		return "", db.Translate(err, db.Translation{})
	}
	if name == "" {
		return "", errNotEnrolled
	}
	return name, nil
}

func pqTags(tags []string) pq.StringArray {
	if tags == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(tags)
}

// CountInFolder and ClassroomsInFolder let the folder tree see enrollments.
func (m *Manager) CountInFolder(tx *gorm.DB, folderID uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&Enrollment{}).Where("folder_id = ?", folderID).Count(&n).Error
	return n, err
}

func (m *Manager) ClassroomsInFolder(ctx context.Context, userID, folderID uuid.UUID) ([]folders.ClassroomEntry, error) {
	out := []folders.ClassroomEntry{}
	err := m.db.WithContext(ctx).
		Table("colearn.enrollments AS e").
		Select("c.id, c.name, c.description, c.avatar, c.cover, c.is_private, r.name AS role, e.folder_id").
		Joins("JOIN colearn.classrooms c ON c.id = e.classroom_id").
		Joins("JOIN colearn.roles r ON r.id = e.role_id").
		Where("e.user_id = ? AND e.folder_id = ?", userID, folderID).
		Order("c.name").
		Scan(&out).Error
	return out, db.Translate(err, db.Translation{})
}
