package folders

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/colearn/backend/internal/apperr"
	"github.com/google/uuid"
)

func decodeUpdate(t *testing.T, body string) updateRequest {
	t.Helper()
	var req updateRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal %s: %v", body, err)
	}
	return req
}

// TestUpdateRequest_ParentSemantics verifies that an absent parentId keeps the
// parent, null moves to the top level, and an id moves under that folder.
func TestUpdateRequest_ParentSemantics(t *testing.T) {
	upd, err := decodeUpdate(t, `{"name":"Math"}`).toUpdate()
	if err != nil || upd.Move {
		t.Fatalf("absent parentId must not move: %+v %v", upd, err)
	}

	upd, err = decodeUpdate(t, `{"parentId":null}`).toUpdate()
	if err != nil || !upd.Move || upd.MoveTo != nil {
		t.Fatalf("null parentId must move to top level: %+v %v", upd, err)
	}

	id := uuid.New()
	upd, err = decodeUpdate(t, `{"parentId":"`+id.String()+`"}`).toUpdate()
	if err != nil || !upd.Move || upd.MoveTo == nil || *upd.MoveTo != id {
		t.Fatalf("expected move under %s: %+v %v", id, upd, err)
	}

	if _, err := decodeUpdate(t, `{"parentId":"nope"}`).toUpdate(); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// TestCreate_ValidatesBeforeStorage verifies input checks that need no database.
func TestCreate_ValidatesBeforeStorage(t *testing.T) {
	s := NewStore(nil, nil)
	ctx := context.Background()

	if _, err := s.Create(ctx, uuid.New(), CreateFolder{Name: "  "}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
	if _, err := s.Create(ctx, uuid.New(), CreateFolder{Name: "Science", Color: "blue"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for bad color, got %v", err)
	}
}

func TestHexColor(t *testing.T) {
	for _, ok := range []string{DefaultColor, "#10B981", "#000000"} {
		if !hexColor.MatchString(ok) {
			t.Errorf("expected %s to be accepted", ok)
		}
	}
	for _, bad := range []string{"3b82f6", "#3b82f", "#3b82f6ff", "#gggggg"} {
		if hexColor.MatchString(bad) {
			t.Errorf("expected %s to be rejected", bad)
		}
	}
}
