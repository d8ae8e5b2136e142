package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/grantline/grantline/internal/auth"
	"github.com/grantline/grantline/internal/domain"
	"github.com/grantline/grantline/internal/shared"
	_ "github.com/grantline/grantline/internal/testing/guard"
)

type stubUsers struct {
	user *domain.User
}

func (s *stubUsers) UserByEmail(_ context.Context, email string) (domain.User, error) {
	if s.user == nil || s.user.Email != email {
		return domain.User{}, shared.ErrNotFound
	}
	return *s.user, nil
}

func newAuthHandler(t *testing.T, users auth.UserPort) (*auth.Handler, *shared.SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, auth.NewService(users, nil), sessionManager)
	return handler, sessionManager, mr
}

func activeUser(t *testing.T) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           "u-admin",
		Email:        "admin@grantline.local",
		Name:         "承辦人",
		Role:         domain.RoleAdmin,
		PasswordHash: string(hash),
		IsActive:     true,
	}
}

func withSession(t *testing.T, sm *shared.SessionManager, req *http.Request) (*http.Request, *shared.Session) {
	t.Helper()
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess
}

func TestLoginSetsSession(t *testing.T) {
	handler, sessionManager, mr := newAuthHandler(t, &stubUsers{user: activeUser(t)})

	body := `{"email":"admin@grantline.local","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req, sess := withSession(t, sessionManager, req)
	res := httptest.NewRecorder()

	handler.LoginForTest(res, req)
	require.NoError(t, sessionManager.Commit(req.Context(), res, req, sess))
	require.Equal(t, http.StatusOK, res.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &got))
	require.Equal(t, "admin@grantline.local", got["email"])
	require.Equal(t, "admin", got["role"])
	require.NotContains(t, res.Body.String(), "passwordHash")

	stored, err := mr.Get("session:" + sess.ID)
	require.NoError(t, err)
	require.Contains(t, stored, "admin@grantline.local")
}

func TestLoginWrongPassword(t *testing.T) {
	handler, sessionManager, mr := newAuthHandler(t, &stubUsers{user: activeUser(t)})

	body := `{"email":"admin@grantline.local","password":"wrong-horse1"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req, _ = withSession(t, sessionManager, req)
	res := httptest.NewRecorder()

	handler.LoginForTest(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Empty(t, mr.Keys(), "no session persists on failed login")
}

func TestLoginValidatesPayload(t *testing.T) {
	handler, sessionManager, _ := newAuthHandler(t, &stubUsers{user: activeUser(t)})

	for name, body := range map[string]string{
		"not json":       `email=admin`,
		"bad email":      `{"email":"not-an-email","password":"correct-horse"}`,
		"short password": `{"email":"admin@grantline.local","password":"short"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		req, _ = withSession(t, sessionManager, req)
		res := httptest.NewRecorder()
		handler.LoginForTest(res, req)
		require.Equal(t, http.StatusBadRequest, res.Code, name)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	handler, sessionManager, mr := newAuthHandler(t, &stubUsers{user: activeUser(t)})

	login := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"admin@grantline.local","password":"correct-horse"}`))
	login, sess := withSession(t, sessionManager, login)
	loginRes := httptest.NewRecorder()
	handler.LoginForTest(loginRes, login)
	require.NoError(t, sessionManager.Commit(login.Context(), loginRes, login, sess))
	require.Equal(t, http.StatusOK, loginRes.Code)

	logout := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	logout.AddCookie(&http.Cookie{Name: "test_session", Value: sess.ID})
	logout, loaded := withSession(t, sessionManager, logout)
	logoutRes := httptest.NewRecorder()
	handler.LogoutForTest(logoutRes, logout)
	require.NoError(t, sessionManager.Commit(logout.Context(), logoutRes, logout, loaded))

	require.Equal(t, http.StatusNoContent, logoutRes.Code)
	require.False(t, mr.Exists("session:"+sess.ID))
}

func TestMeRequiresActor(t *testing.T) {
	handler, _, _ := newAuthHandler(t, &stubUsers{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	res := httptest.NewRecorder()
	handler.MeForTest(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)

	user := activeUser(t)
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(domain.ContextWithActor(req.Context(), user))
	res = httptest.NewRecorder()
	handler.MeForTest(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "u-admin")
}
