package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"club-platform/models"
	"club-platform/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	app := fiber.New()
	SetupRoutes(app, NewDeps(db, 100, 4, 8))
	return &testServer{app: app, db: db}
}

// call sends a JSON request as the named user; an empty name sends no
// identity headers.
func (s *testServer) call(t *testing.T, method, path, as string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("X-User-ID", "ext-"+as)
		req.Header.Set("X-User-Name", as)
		req.Header.Set("X-User-Email", as+"@club.test")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (s *testServer) grant(t *testing.T, name string, role models.Role) *models.User {
	t.Helper()
	u := testutil.NewUser(t, s.db, name, 0)
	require.NoError(t, s.db.Model(u).Update("role", role).Error)
	u.Role = role
	return u
}

func TestMissingIdentityIsUnauthorized(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.call(t, http.MethodGet, "/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestFirstRequestCreatesUser(t *testing.T) {
	s := newTestServer(t)
	status, body := s.call(t, http.MethodGet, "/me", "newbie", nil)
	require.Equal(t, http.StatusOK, status)

	user := body["user"].(map[string]any)
	assert.Equal(t, "newbie@club.test", user["email"])
	assert.Equal(t, "student", user["role"])
}

func TestRegisterOverHTTP(t *testing.T) {
	s := newTestServer(t)
	event := testutil.NewEvent(t, s.db, "hack", 2)
	path := "/events/" + event.ID + "/register"

	status, body := s.call(t, http.MethodPost, path, "alice", map[string]any{"team_name": "Rockets"})
	require.Equal(t, http.StatusCreated, status, body)
	code, _ := body["join_code"].(string)
	require.Len(t, code, 6)

	status, body = s.call(t, http.MethodPost, path, "bob", map[string]any{"join_code": code})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Empty(t, body["join_code"])

	status, body = s.call(t, http.MethodPost, path, "carol", map[string]any{"join_code": code})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "TEAM_FULL", body["code"])

	status, body = s.call(t, http.MethodPost, path, "alice", map[string]any{"mode": "create_team"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_REGISTERED", body["code"])

	status, body = s.call(t, http.MethodPost, path, "dave", map[string]any{"join_code": "ZZZZZZ"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_JOIN_CODE", body["code"])

	status, body = s.call(t, http.MethodGet, "/events/"+event.ID+"/registration", "bob", nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotNil(t, body["team_id"])
}

func TestRegisterRejectsBadBodies(t *testing.T) {
	s := newTestServer(t)
	event := testutil.NewEvent(t, s.db, "hack", 4)
	path := "/events/" + event.ID + "/register"

	status, body := s.call(t, http.MethodPost, path, "alice", map[string]any{"mode": "spectator"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "ext-alice")
	req.Header.Set("X-User-Email", "alice@club.test")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	status, body = s.call(t, http.MethodPost, "/events/"+event.ID+"/register", "alice", map[string]any{"mode": "solo"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "TEAM_REQUIRED", body["code"])

	status, body = s.call(t, http.MethodPost, "/events/00000000-0000-0000-0000-000000000000/register", "alice", map[string]any{})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "EVENT_NOT_FOUND", body["code"])
}

func TestAdminRoutesNeedCoreMember(t *testing.T) {
	s := newTestServer(t)
	s.grant(t, "student", models.RoleStudent)
	s.grant(t, "core", models.RoleCoreMember)

	status, body := s.call(t, http.MethodGet, "/admin/users", "student", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "core_member", body["need"])

	status, _ = s.call(t, http.MethodGet, "/admin/users", "core", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRoleChangesNeedConvener(t *testing.T) {
	s := newTestServer(t)
	core := s.grant(t, "core", models.RoleCoreMember)
	s.grant(t, "chief", models.RoleConvener)
	target := testutil.NewUser(t, s.db, "target", 0)

	status, _ := s.call(t, http.MethodPatch, "/admin/users/"+target.ID+"/role", "core", map[string]any{"role": "member"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body := s.call(t, http.MethodPatch, "/admin/users/"+target.ID+"/role", "chief", map[string]any{"role": "Core_Member"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "core_member", body["role"])

	status, body = s.call(t, http.MethodPatch, "/admin/users/"+core.ID+"/role", "chief", map[string]any{"role": "wizard"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_INPUT", body["code"])
}

func TestCreateEventOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.grant(t, "core", models.RoleCoreMember)

	status, body := s.call(t, http.MethodPost, "/admin/events", "core", map[string]any{
		"title":   "Winter of Code",
		"type":    "mentorship",
		"domains": []string{"web", "ml"},
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "winter-of-code", body["slug"])
	assert.Equal(t, "upcoming", body["status"])
	assert.EqualValues(t, 1, body["max_team_size"])

	status, body = s.call(t, http.MethodGet, "/events/winter-of-code", "core", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Winter of Code", body["title"])

	status, body = s.call(t, http.MethodPost, "/admin/events", "core", map[string]any{"title": "Bad", "type": "party"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_INPUT", body["code"])
}

func TestCheckpointReviewOverHTTP(t *testing.T) {
	s := newTestServer(t)
	event := testutil.NewEvent(t, s.db, "woc", 1, "backend")
	s.grant(t, "mentor", models.RoleCoreMember)

	status, body := s.call(t, http.MethodPost, "/events/"+event.ID+"/register", "alice", map[string]any{"mode": "solo"})
	require.Equal(t, http.StatusCreated, status, body)
	regID := body["registration_id"].(string)

	status, body = s.call(t, http.MethodPut, "/events/"+event.ID+"/checkpoints/0", "alice", map[string]any{"content": "link"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_WEEK", body["code"])

	status, body = s.call(t, http.MethodPut, "/registrations/"+regID+"/checkpoints/1", "alice", map[string]any{"content": "https://github.com/alice/week1"})
	require.Equal(t, http.StatusOK, status, body)
	cpID := body["id"].(string)

	// Someone else's registration is not theirs to submit for.
	status, _ = s.call(t, http.MethodPut, "/registrations/"+regID+"/checkpoints/1", "bob", map[string]any{"content": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = s.call(t, http.MethodPost, "/admin/checkpoints/"+cpID+"/reject", "mentor", map[string]any{"feedback": "  "})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "MISSING_FEEDBACK", body["code"])

	status, body = s.call(t, http.MethodPost, "/admin/checkpoints/"+cpID+"/approve", "alice", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = s.call(t, http.MethodPost, "/admin/checkpoints/"+cpID+"/approve", "mentor", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 100, body["new_xp"])
	assert.EqualValues(t, 100, body["granted"])

	status, body = s.call(t, http.MethodPost, "/admin/checkpoints/"+cpID+"/reject", "mentor", map[string]any{"feedback": "too late"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "NOT_PENDING_REVIEW", body["code"])

	status, body = s.call(t, http.MethodGet, "/me/progress", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 100, body["xp"])

	status, body = s.call(t, http.MethodPatch, "/admin/registrations/"+regID+"/domain", "mentor", map[string]any{"domain": "frontend"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_DOMAIN", body["code"])

	status, body = s.call(t, http.MethodPatch, "/admin/registrations/"+regID+"/domain", "mentor", map[string]any{"domain": "  "})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_DOMAIN", body["code"])

	status, body = s.call(t, http.MethodPatch, "/admin/registrations/"+regID+"/domain", "mentor", map[string]any{"domain": "backend"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "backend", body["assigned_domain"])
}

func TestLeaderboardOverHTTP(t *testing.T) {
	s := newTestServer(t)
	testutil.NewUser(t, s.db, "ada", 500)
	testutil.NewUser(t, s.db, "linus", 200)

	req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=5", nil)
	req.Header.Set("X-User-ID", "ext-ada")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var board []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&board))
	require.Len(t, board, 2)
	assert.Equal(t, "ada", board[0]["display_name"])
	assert.EqualValues(t, 1, board[0]["position"])
}
