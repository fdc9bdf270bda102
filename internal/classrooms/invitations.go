package classrooms

import (
	"context"
	"time"

	"github.com/colearn/backend/internal/apperr"
	"github.com/colearn/backend/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateInvitation struct {
	Role      string
	ExpiresIn time.Duration
	MaxUses   *int
}

// CreateInvitation stores an invitation and returns it with its signed token.
func (m *Manager) CreateInvitation(ctx context.Context, classroomID, createdBy uuid.UUID, in CreateInvitation) (*Invitation, string, error) {
	if in.Role == "" {
		in.Role = RoleStudent
	}
	if in.ExpiresIn <= 0 {
		return nil, "", apperr.Validation("expiresIn must be positive")
	}
	if in.MaxUses != nil && *in.MaxUses < 1 {
		return nil, "", apperr.Validation("maxUses must be at least 1")
	}

	inv := &Invitation{
		ID:          uuid.New(),
		ClassroomID: classroomID,
		Role:        in.Role,
		ExpiresAt:   m.now().UTC().Add(in.ExpiresIn),
		MaxUses:     in.MaxUses,
		CreatedBy:   createdBy,
	}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := roleByName(tx, in.Role); err != nil {
			return err
		}
		return tx.Create(inv).Error
	})
	if err != nil {
		return nil, "", db.Translate(err, db.Translation{ForeignKey: errClassroomNotFound})
	}

	signed, err := m.tokens.IssueInvitation(inv.ID, inv.ExpiresAt)
	if err != nil {
		return nil, "", apperr.Server(err)
	}
	return inv, signed, nil
}

func (m *Manager) ListInvitations(ctx context.Context, classroomID uuid.UUID) ([]Invitation, error) {
	var out []Invitation
	err := m.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Order("created_at DESC").
		Find(&out).Error
	return out, db.Translate(err, db.Translation{})
}

// RevokeInvitation is a soft revoke; uses already consumed stay counted.
func (m *Manager) RevokeInvitation(ctx context.Context, classroomID, invitationID uuid.UUID) error {
	res := m.db.WithContext(ctx).Model(&Invitation{}).
		Where("id = ? AND classroom_id = ?", invitationID, classroomID).
		Update("is_revoked", true)
	if res.Error != nil {
		return db.Translate(res.Error, db.Translation{})
	}
	if res.RowsAffected == 0 {
		return errInvitationNotFound
	}
	return nil
}
