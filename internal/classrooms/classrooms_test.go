package classrooms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/colearn/backend/internal/apperr"
	"github.com/colearn/backend/internal/config"
	"github.com/colearn/backend/internal/token"
	"github.com/colearn/backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func TestCatalogHasFixedRoles(t *testing.T) {
	roles, err := Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	names := map[string]bool{}
	for _, r := range roles {
		names[r.Name] = true
	}
	for _, want := range []string{RoleStudent, RoleTeacher, RoleAdmin} {
		if !names[want] {
			t.Errorf("missing role %q", want)
		}
	}
}

func TestParseCatalogRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"duplicate":       "roles:\n  - name: student\n  - name: student\n  - name: teacher\n",
		"missing teacher": "roles:\n  - name: student\n",
		"unnamed":         "roles:\n  - description: nobody\n",
	}
	for name, doc := range cases {
		if _, err := parseCatalog([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestInvitationUsable(t *testing.T) {
	now := time.Now()
	one := 1
	cases := []struct {
		name string
		inv  Invitation
		want bool
	}{
		{"fresh unlimited", Invitation{ExpiresAt: now.Add(time.Hour)}, true},
		{"revoked", Invitation{ExpiresAt: now.Add(time.Hour), IsRevoked: true}, false},
		{"expired", Invitation{ExpiresAt: now.Add(-time.Second)}, false},
		{"exhausted", Invitation{ExpiresAt: now.Add(time.Hour), MaxUses: &one, Uses: 1}, false},
		{"one left", Invitation{ExpiresAt: now.Add(time.Hour), MaxUses: &one}, true},
	}
	for _, tc := range cases {
		if got := tc.inv.Usable(now); got != tc.want {
			t.Errorf("%s: Usable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func testIssuer(t *testing.T) *token.Issuer {
	t.Helper()
	issuer, err := token.NewIssuer(config.Config{
		AccessSecret:     "a",
		RefreshSecret:    "r",
		InvitationSecret: "i",
	})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	return issuer
}

// TestJoin_RejectsBadTokensBeforeStorage verifies token and input checks that run
// before any database access.
func TestJoin_RejectsBadTokensBeforeStorage(t *testing.T) {
	issuer := testIssuer(t)
	m := NewManager(nil, issuer)
	ctx := context.Background()
	folder := uuid.New()

	if _, err := m.Join(ctx, uuid.New(), uuid.New(), "", &folder); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error without token, got %v", err)
	}

	expired, _ := issuer.IssueInvitation(uuid.New(), time.Now().Add(-time.Minute))
	if _, err := m.Join(ctx, uuid.New(), uuid.New(), expired, &folder); !errors.Is(err, errInvitationUnusable) {
		t.Fatalf("expected unusable invitation, got %v", err)
	}

	if _, err := m.Join(ctx, uuid.New(), uuid.New(), "garbage", &folder); !errors.Is(err, errInvitationInvalid) {
		t.Fatalf("expected invalid invitation, got %v", err)
	}

	valid, _ := issuer.IssueInvitation(uuid.New(), time.Now().Add(time.Hour))
	if _, err := m.Join(ctx, uuid.New(), uuid.New(), valid, nil); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error without folder, got %v", err)
	}
}

func TestCreate_RequiresNameAndFolder(t *testing.T) {
	m := NewManager(nil, testIssuer(t))
	folder := uuid.New()
	if _, err := m.Create(context.Background(), uuid.New(), CreateClassroom{Name: "", ParentFolderID: &folder}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for missing name, got %v", err)
	}
	if _, err := m.Create(context.Background(), uuid.New(), CreateClassroom{Name: "Algebra"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for missing folder, got %v", err)
	}
}

type fakeRoles struct {
	role string
	err  error
}

func (f fakeRoles) RoleOf(ctx context.Context, userID, classroomID uuid.UUID) (string, error) {
	return f.role, f.err
}

func serveWithRole(t *testing.T, lookup RoleLookup, withUser bool) int {
	t.Helper()
	r := chi.NewRouter()
	if withUser {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := utils.WithUser(req.Context(), utils.UserData{ID: uuid.New()})
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
	}
	r.With(RequireRole(lookup, RoleTeacher)).Get("/{id}/invitations", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+uuid.NewString()+"/invitations", nil))
	return rec.Code
}

func TestRequireRole(t *testing.T) {
	if code := serveWithRole(t, fakeRoles{role: RoleTeacher}, true); code != http.StatusOK {
		t.Errorf("teacher: expected 200, got %d", code)
	}
	if code := serveWithRole(t, fakeRoles{role: RoleStudent}, true); code != http.StatusForbidden {
		t.Errorf("student: expected 403, got %d", code)
	}
	if code := serveWithRole(t, fakeRoles{err: errNotEnrolled}, true); code != http.StatusForbidden {
		t.Errorf("not enrolled: expected 403, got %d", code)
	}
	if code := serveWithRole(t, fakeRoles{err: errors.New("db down")}, true); code != http.StatusInternalServerError {
		t.Errorf("lookup failure: expected 500, got %d", code)
	}
	if code := serveWithRole(t, fakeRoles{role: RoleTeacher}, false); code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", code)
	}
}
