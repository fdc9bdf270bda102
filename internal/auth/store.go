package auth

import (
	"context"
	"time"

	"github.com/colearn/backend/internal/apperr"
	"github.com/colearn/backend/internal/db"
	"github.com/colearn/backend/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	errUserNotFound    = apperr.NotFound("User not found")
	errEmailTaken      = apperr.Conflict("User with this email already exists")
	errInvalidRefresh  = apperr.Forbidden("Invalid refreshToken")
	userTranslation    = db.Translation{NotFound: errUserNotFound, Unique: errEmailTaken}
	sessionTranslation = db.Translation{NotFound: errInvalidRefresh, ForeignKey: errUserNotFound}
)

// Store persists users and their refresh sessions.
type Store struct {
	db *gorm.DB
}

func NewStore(d *gorm.DB) *Store { return &Store{db: d} }

func (s *Store) CreateUser(ctx context.Context, user *User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = utils.NormalizeEmail(user.Email)
	return db.Translate(s.db.WithContext(ctx).Create(user).Error, userTranslation)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, "email = ?", utils.NormalizeEmail(email)).Error
	if err != nil {
		return nil, db.Translate(err, userTranslation)
	}
	return &user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, db.Translate(err, userTranslation)
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, db.Translate(err, userTranslation)
	}
	return users, nil
}

// UserUpdate holds the optional profile changes of a user. Password must already be hashed.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Picture   *string
	Password  *string
}

func (s *Store) UpdateUser(ctx context.Context, id uuid.UUID, upd UserUpdate) (*User, error) {
	changes := map[string]any{}
	if upd.FirstName != nil {
		changes["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		changes["last_name"] = *upd.LastName
	}
	if upd.Email != nil {
		changes["email"] = utils.NormalizeEmail(*upd.Email)
	}
	if upd.Picture != nil {
		changes["picture"] = *upd.Picture
	}
	if upd.Password != nil {
		changes["password"] = *upd.Password
	}

	var user User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		return tx.Model(&user).Updates(changes).Error
	})
	if err != nil {
		return nil, db.Translate(err, userTranslation)
	}
	return &user, nil
}

// DeleteUser removes the user; sessions, folders and enrollments go with it
// through ON DELETE CASCADE.
func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&User{}, "id = ?", id)
	if res.Error != nil {
		return db.Translate(res.Error, userTranslation)
	}
	if res.RowsAffected == 0 {
		return errUserNotFound
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, userID uuid.UUID, refreshToken string, expiresAt time.Time) (*Session, error) {
	session := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     refreshToken,
		ExpiresAt: expiresAt,
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, db.Translate(err, sessionTranslation)
	}
	return session, nil
}

// FindSession returns the session only when it belongs to userID.
func (s *Store) FindSession(ctx context.Context, id, userID uuid.UUID) (*Session, error) {
	var session Session
	err := s.db.WithContext(ctx).First(&session, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, db.Translate(err, sessionTranslation)
	}
	return &session, nil
}

// RevokeSession marks the session revoked. A session that does not exist or
// belongs to someone else yields Forbidden.
func (s *Store) RevokeSession(ctx context.Context, id, userID uuid.UUID) error {
	return s.revoke(s.db.WithContext(ctx), id, userID, false)
}

func (s *Store) revoke(tx *gorm.DB, id, userID uuid.UUID, onlyActive bool) error {
	q := tx.Model(&Session{}).Where("id = ? AND user_id = ?", id, userID)
	if onlyActive {
		q = q.Where("is_revoked = ?", false)
	}
	res := q.Updates(map[string]any{"is_revoked": true, "revoked_at": time.Now().UTC()})
	if res.Error != nil {
		return db.Translate(res.Error, sessionTranslation)
	}
	if res.RowsAffected == 0 {
		return errInvalidRefresh
	}
	return nil
}

// RotateSession revokes old and stores a session for the new refresh token in one
// transaction. If old was revoked concurrently nothing is written.
func (s *Store) RotateSession(ctx context.Context, old *Session, refreshToken string, expiresAt time.Time) (*Session, error) {
	next := &Session{
		ID:        uuid.New(),
		UserID:    old.UserID,
		Token:     refreshToken,
		ExpiresAt: expiresAt,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.revoke(tx, old.ID, old.UserID, true); err != nil {
			return err
		}
		return tx.Create(next).Error
	})
	if err != nil {
		return nil, db.Translate(err, sessionTranslation)
	}
	return next, nil
}
