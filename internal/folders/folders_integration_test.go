package folders_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/colearn/backend/internal/apperr"
	"github.com/colearn/backend/internal/auth"
	"github.com/colearn/backend/internal/db"
	"github.com/colearn/backend/internal/folders"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

var (
	dbAvailable bool
	store       *folders.Store
)

func TestMain(m *testing.M) {
	_ = godotenv.Load("../../.env.test")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		os.Exit(m.Run())
	}

	db.Connect(databaseURL, logger.Warn)
	dbAvailable = true
	auth.Init()
	folders.Init()

	// Enrollment counting is covered by the classrooms integration tests.
	store = folders.NewStore(db.DB, nil)
	os.Exit(m.Run())
}

func newUser(t *testing.T) uuid.UUID {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
	user := &auth.User{
		FirstName: "Tree",
		LastName:  "Owner",
		Email:     fmt.Sprintf("it_%s@example.com", uuid.New().String()[:8]),
		Password:  "x",
	}
	if err := auth.NewStore(db.DB).CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		db.DB.Delete(&auth.User{}, "id = ?", user.ID)
	})
	return user.ID
}

// TestGetOrCreateRootIsIdempotent verifies concurrent callers share one root folder.
func TestGetOrCreateRootIsIdempotent(t *testing.T) {
	userID := newUser(t)

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 5)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			root, err := store.GetOrCreateRoot(context.Background(), userID)
			if err != nil {
				t.Errorf("root: %v", err)
				return
			}
			ids[i] = root.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("expected a single root, got %v", ids)
		}
	}
	root, _ := store.Get(context.Background(), userID, ids[0])
	if root.Name != folders.RootName || root.Color != folders.DefaultColor || root.ParentID != nil {
		t.Fatalf("unexpected root %+v", root)
	}
}

// TestDeleteRequiresEmptyFolder verifies that a folder with a child cannot be deleted
// and that deleting an empty folder removes it from listings.
func TestDeleteRequiresEmptyFolder(t *testing.T) {
	ctx := context.Background()
	userID := newUser(t)

	parent, err := store.Create(ctx, userID, folders.CreateFolder{Name: "Year 1"})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := store.Create(ctx, userID, folders.CreateFolder{Name: "Term 1", ParentID: &parent.ID, Color: "#10b981"})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	err = store.Delete(ctx, userID, parent.ID)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected 400 for non-empty folder, got %v", err)
	}
	if _, err := store.Get(ctx, userID, parent.ID); err != nil {
		t.Fatalf("parent must survive a failed delete: %v", err)
	}

	if err := store.Delete(ctx, userID, child.ID); err != nil {
		t.Fatalf("delete child: %v", err)
	}
	if err := store.Delete(ctx, userID, parent.ID); err != nil {
		t.Fatalf("delete emptied parent: %v", err)
	}
	list, _ := store.List(ctx, userID)
	for _, f := range list {
		if f.ID == parent.ID || f.ID == child.ID {
			t.Fatalf("deleted folder %s still listed", f.ID)
		}
	}
	if err := store.Delete(ctx, userID, parent.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected 404 deleting twice, got %v", err)
	}
}

// TestFoldersAreIsolatedPerUser verifies that one user can neither read nor nest
// under another user's folders.
func TestFoldersAreIsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	alice, bob := newUser(t), newUser(t)
	aliceFolder, err := store.Create(ctx, alice, folders.CreateFolder{Name: "Private"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := store.Get(ctx, bob, aliceFolder.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected 404 for another user's folder, got %v", err)
	}
	if _, err := store.Create(ctx, bob, folders.CreateFolder{Name: "Sneaky", ParentID: &aliceFolder.ID}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected 400 nesting under another user's folder, got %v", err)
	}
	if err := store.Delete(ctx, bob, aliceFolder.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected 404 deleting another user's folder, got %v", err)
	}
}

// TestMoveRejectsCycles verifies that a folder cannot move under itself or a descendant.
func TestMoveRejectsCycles(t *testing.T) {
	ctx := context.Background()
	userID := newUser(t)
	a, _ := store.Create(ctx, userID, folders.CreateFolder{Name: "A"})
	b, _ := store.Create(ctx, userID, folders.CreateFolder{Name: "B", ParentID: &a.ID})
	c, _ := store.Create(ctx, userID, folders.CreateFolder{Name: "C", ParentID: &b.ID})

	for _, target := range []uuid.UUID{a.ID, c.ID} {
		target := target
		_, err := store.Update(ctx, userID, a.ID, folders.FolderUpdate{Move: true, MoveTo: &target})
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("expected cycle rejection moving A under %s, got %v", target, err)
		}
	}

	moved, err := store.Update(ctx, userID, c.ID, folders.FolderUpdate{Move: true})
	if err != nil || moved.ParentID != nil {
		t.Fatalf("expected C at top level, got %+v (%v)", moved, err)
	}
	name := "Renamed"
	renamed, err := store.Update(ctx, userID, b.ID, folders.FolderUpdate{Name: &name})
	if err != nil || renamed.Name != name || renamed.ParentID == nil || *renamed.ParentID != a.ID {
		t.Fatalf("rename must keep parent: %+v (%v)", renamed, err)
	}

	contents, err := store.Contents(ctx, userID, a.ID)
	if err != nil || len(contents.Folders) != 1 || contents.Folders[0].ID != b.ID {
		t.Fatalf("unexpected contents %+v (%v)", contents, err)
	}
}
