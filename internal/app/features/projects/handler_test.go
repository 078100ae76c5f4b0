// internal/app/features/projects/handler_test.go
package projects_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/crewhub/internal/app/features/projects"
	membershipstore "github.com/dalemusser/crewhub/internal/app/store/memberships"
	"github.com/dalemusser/crewhub/internal/domain/models"
	"github.com/dalemusser/crewhub/internal/testutil"
	"go.uber.org/zap"
)

func TestCreate_MakesCreatorOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := projects.NewHandler(db, zap.NewNop())

	creator := fx.CreateUser(ctx, "Creator", "creator@test.com")

	body, _ := json.Marshal(map[string]string{
		"title":       "Solar Kiln",
		"description": "Dry wood with sunlight.",
	})
	req := httptest.NewRequest("POST", "/projects", bytes.NewReader(body))
	req = testutil.WithUser(req, testutil.UserWithID(creator.ID))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var p models.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.OwnerID != creator.ID {
		t.Error("creator is not the owner")
	}

	role, err := membershipstore.New(db).RoleOf(ctx, p.ID, creator.ID)
	if err != nil {
		t.Fatalf("roleof: %v", err)
	}
	if role != models.RoleOwner {
		t.Errorf("expected owner membership, got %q", role)
	}
}

func TestCreate_RequiresTitle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := projects.NewHandler(db, zap.NewNop())

	creator := fx.CreateUser(ctx, "Creator", "creator@test.com")

	body, _ := json.Marshal(map[string]string{"title": "   "})
	req := httptest.NewRequest("POST", "/projects", bytes.NewReader(body))
	req = testutil.WithUser(req, testutil.UserWithID(creator.ID))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListMine_ReturnsOwnedAndJoined(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	h := projects.NewHandler(db, zap.NewNop())

	me := fx.CreateUser(ctx, "Me", "me@test.com")
	other := fx.CreateUser(ctx, "Other", "other@test.com")

	owned := fx.CreateProject(ctx, "Mine", me.ID)
	joined := fx.CreateProject(ctx, "Theirs", other.ID)
	fx.CreateMembership(ctx, joined.ID, me.ID, models.RoleMember)
	fx.CreateProject(ctx, "Unrelated", other.ID)

	req := testutil.NewAuthenticatedRequest("GET", "/projects/mine", testutil.UserWithID(me.ID))
	rec := httptest.NewRecorder()

	h.ListMine(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []models.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(list))
	}
	ids := map[string]bool{}
	for _, p := range list {
		ids[p.ID.Hex()] = true
	}
	if !ids[owned.ID.Hex()] || !ids[joined.ID.Hex()] {
		t.Errorf("missing expected projects in %v", ids)
	}
}

func TestGet_UnknownProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := projects.NewHandler(db, zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/projects/507f1f77bcf86cd799439011", testutil.RegularUser())
	req = testutil.WithChiURLParam(req, "projectID", "507f1f77bcf86cd799439011")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
