package folders

import (
	"context"
	"regexp"
	"strings"

	"github.com/colearn/backend/internal/apperr"
	"github.com/colearn/backend/internal/db"
	"github.com/colearn/backend/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errNotFound      = apperr.NotFound("Folder not found")
	errNotEmpty      = apperr.Validation("Cannot delete folder with contents")
	errParentMissing = apperr.Validation("Parent folder does not exist")
	errCycle         = apperr.Validation("Folder cannot be moved into itself or one of its subfolders")

	hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// EnrollmentIndex reports what classrooms are filed under a folder. It is
// implemented by the classrooms package, whose enrollments reference folders.
type EnrollmentIndex interface {
	CountInFolder(tx *gorm.DB, folderID uuid.UUID) (int64, error)
	ClassroomsInFolder(ctx context.Context, userID, folderID uuid.UUID) ([]ClassroomEntry, error)
}

type Store struct {
	db          *gorm.DB
	enrollments EnrollmentIndex
}

func NewStore(d *gorm.DB, enrollments EnrollmentIndex) *Store {
	return &Store{db: d, enrollments: enrollments}
}

// owned loads a folder of userID, optionally holding a row lock until tx ends.
func owned(tx *gorm.DB, userID, id uuid.UUID, lock bool) (*Folder, error) {
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var f Folder
	if err := q.First(&f, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, db.Translate(err, db.Translation{NotFound: errNotFound})
	}
	return &f, nil
}

// lockTree serializes structural changes to one user's tree for the rest of tx.
func lockTree(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", userID.String()).Error
}

func (s *Store) List(ctx context.Context, userID uuid.UUID) ([]Folder, error) {
	var out []Folder
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&out).Error
	return out, db.Translate(err, db.Translation{})
}

func (s *Store) Get(ctx context.Context, userID, id uuid.UUID) (*Folder, error) {
	return owned(s.db.WithContext(ctx), userID, id, false)
}

// GetOrCreateRoot is idempotent: concurrent callers all observe the same root.
func (s *Store) GetOrCreateRoot(ctx context.Context, userID uuid.UUID) (*Folder, error) {
	return EnsureRoot(s.db.WithContext(ctx), userID, RootName, DefaultColor)
}

// EnsureRoot returns the root folder of userID, creating it with the given name and
// color when absent. Callers may pass their own transaction.
func EnsureRoot(tx *gorm.DB, userID uuid.UUID, name, color string) (*Folder, error) {
	root := Folder{ID: uuid.New(), UserID: userID, Name: name, Color: color, IsRoot: true}
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&root).Error
	if err != nil {
		return nil, db.Translate(err, db.Translation{ForeignKey: apperr.NotFound("User not found")})
	}

	var f Folder
	err = tx.First(&f, "user_id = ? AND is_root", userID).Error
	return &f, db.Translate(err, db.Translation{NotFound: errNotFound})
}

type CreateFolder struct {
	Name     string
	ParentID *uuid.UUID
	Color    string
}

func (s *Store) Create(ctx context.Context, userID uuid.UUID, in CreateFolder) (*Folder, error) {
	name := utils.NormalizeName(in.Name)
	if name == "" {
		return nil, apperr.Validation("Folder name is required")
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = DefaultColor
	}
	if !hexColor.MatchString(color) {
		return nil, apperr.Validation("Color must be a hex value like #3b82f6")
	}

	f := &Folder{ID: uuid.New(), UserID: userID, ParentID: in.ParentID, Name: name, Color: color}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.ParentID != nil {
			// KEY SHARE on the parent row blocks a concurrent delete of it.
			if err := tx.Clauses(clause.Locking{Strength: "KEY SHARE"}).
				First(&Folder{}, "id = ? AND user_id = ?", *in.ParentID, userID).Error; err != nil {
				return db.Translate(err, db.Translation{NotFound: errParentMissing})
			}
		}
		return tx.Create(f).Error
	})
	if err != nil {
		return nil, db.Translate(err, db.Translation{ForeignKey: errParentMissing})
	}
	return f, nil
}

// FolderUpdate holds optional changes. MoveTo is applied only when Move is set;
// a nil MoveTo moves the folder to the top level.
type FolderUpdate struct {
	Name   *string
	Color  *string
	Move   bool
	MoveTo *uuid.UUID
}

func (s *Store) Update(ctx context.Context, userID, id uuid.UUID, upd FolderUpdate) (*Folder, error) {
	changes := map[string]any{}
	if upd.Name != nil {
		name := utils.NormalizeName(*upd.Name)
		if name == "" {
			return nil, apperr.Validation("Folder name cannot be empty")
		}
		changes["name"] = name
	}
	if upd.Color != nil {
		if !hexColor.MatchString(*upd.Color) {
			return nil, apperr.Validation("Color must be a hex value like #3b82f6")
		}
		changes["color"] = *upd.Color
	}

	var f *Folder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if upd.Move {
			if err := lockTree(tx, userID); err != nil {
				return err
			}
		}
		var err error
		if f, err = owned(tx, userID, id, true); err != nil {
			return err
		}

		if upd.Move {
			if err := checkMove(tx, userID, f, upd.MoveTo); err != nil {
				return err
			}
			changes["parent_id"] = upd.MoveTo
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(f).Updates(changes).Error; err != nil {
			return err
		}
		return tx.First(f, "id = ?", id).Error
	})
	if err != nil {
		return nil, db.Translate(err, db.Translation{NotFound: errNotFound, ForeignKey: errParentMissing})
	}
	return f, nil
}

const ancestorsQuery = `
WITH RECURSIVE ancestors AS (
	SELECT id, parent_id FROM colearn.folders WHERE id = ?
	UNION ALL
	SELECT f.id, f.parent_id FROM colearn.folders f JOIN ancestors a ON f.id = a.parent_id
)
SELECT count(*) FROM ancestors WHERE id = ?`

// checkMove enforces same-owner, non-circular parentage for f moving under parent.
func checkMove(tx *gorm.DB, userID uuid.UUID, f *Folder, parent *uuid.UUID) error {
	if parent == nil {
		return nil
	}
	if f.IsRoot {
		return apperr.Validation("The root folder cannot be moved")
	}
	if *parent == f.ID {
		return errCycle
	}
	if _, err := owned(tx, userID, *parent, false); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return errParentMissing
		}
		return err
	}

	var hits int64
	if err := tx.Raw(ancestorsQuery, *parent, f.ID).Scan(&hits).Error; err != nil {
		return err
	}
	if hits > 0 {
		return errCycle
	}
	return nil
}

// Delete removes an empty folder. The row lock taken first conflicts with the
// KEY SHARE lock any concurrent insert referencing the folder needs, so no child
// or enrollment can appear between the emptiness check and the delete.
func (s *Store) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := owned(tx, userID, id, true); err != nil {
			return err
		}

		var children int64
		if err := tx.Model(&Folder{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
			return err
		}
		if children > 0 {
			return errNotEmpty
		}

		if s.enrollments != nil {
			enrolled, err := s.enrollments.CountInFolder(tx, id)
			if err != nil {
				return err
			}
			if enrolled > 0 {
				return errNotEmpty
			}
		}

		return tx.Delete(&Folder{}, "id = ? AND user_id = ?", id, userID).Error
	})
	return db.Translate(err, db.Translation{NotFound: errNotFound, ForeignKey: errNotEmpty})
}

func (s *Store) Children(ctx context.Context, userID, id uuid.UUID) ([]Folder, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	var out []Folder
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND parent_id = ?", userID, id).
		Order("name").
		Find(&out).Error
	return out, db.Translate(err, db.Translation{})
}

func (s *Store) Classrooms(ctx context.Context, userID, id uuid.UUID) ([]ClassroomEntry, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if s.enrollments == nil {
		return []ClassroomEntry{}, nil
	}
	return s.enrollments.ClassroomsInFolder(ctx, userID, id)
}

func (s *Store) Contents(ctx context.Context, userID, id uuid.UUID) (*Contents, error) {
	children, err := s.Children(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	classrooms, err := s.Classrooms(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &Contents{Folders: children, Classrooms: classrooms}, nil
}
