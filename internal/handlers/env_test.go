package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coursehub/feedback-service/internal/hash"
	authmw "github.com/coursehub/feedback-service/internal/middleware/auth"
	"github.com/coursehub/feedback-service/internal/models"
	"github.com/coursehub/feedback-service/internal/repo"
	"github.com/coursehub/feedback-service/internal/service"
	"github.com/coursehub/feedback-service/internal/tokens"
)

type testEnv struct {
	T        *testing.T
	E        *echo.Echo
	DB       *gorm.DB
	Repo     *repo.GormRepo
	Tokens   *tokens.Service
	Auth     *AuthHandler
	Course   *CourseHandler
	Feedback *FeedbackHandler
	Profile  *ProfileHandler
	Admin    *AdminHandler
	Mw       *authmw.Middleware
}

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.Course{}, &models.Feedback{})
	require.NoError(t, err)

	return db
}

func newTestEnv(t *testing.T) *testEnv {
	db := initTestDB(t)
	r := repo.New(db)
	tokenSvc := &tokens.Service{
		AccessSecret:  []byte("access-test-secret"),
		RefreshSecret: []byte("refresh-test-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
	authSvc := &service.AuthService{Repo: r, Tokens: tokenSvc}

	return &testEnv{
		T:      t,
		E:      echo.New(),
		DB:     db,
		Repo:   r,
		Tokens: tokenSvc,
		Auth: &AuthHandler{
			Svc:        authSvc,
			CookieName: "refresh_token",
		},
		Course:   &CourseHandler{Repo: r},
		Feedback: &FeedbackHandler{Repo: r},
		Profile:  &ProfileHandler{Repo: r},
		Admin:    &AdminHandler{Repo: r},
		Mw:       authmw.New(tokenSvc, r),
	}
}

func (env *testEnv) doJSONRequest(method, path string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// doAuthedRequest runs the request through RequireAuth so the handler sees
// the same identity a live request would.
func (env *testEnv) doAuthedRequest(method, path, accessToken string, body any, handler echo.HandlerFunc, params ...string) (*httptest.ResponseRecorder, error) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+accessToken)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}

	err := env.Mw.RequireAuth(handler)(c)
	return rec, err
}

func signup(t *testing.T, env *testEnv, name, email, password string) (string, string) {
	t.Helper()

	payload := map[string]string{"name": name, "email": email, "password": password}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/signup", payload)
	require.NoError(t, env.Auth.Signup(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)

	return resp.AccessToken, refreshCookieValue(t, rec)
}

func loginAdmin(t *testing.T, env *testEnv) string {
	t.Helper()

	pwHash, err := hash.HashPassword("Admin123!")
	require.NoError(t, err)
	admin := models.User{
		Name:         "Admin",
		Email:        "admin@x.com",
		PasswordHash: pwHash,
		Role:         models.RoleAdmin,
	}
	require.NoError(t, env.DB.Create(&admin).Error)

	payload := map[string]string{"email": "admin@x.com", "password": "Admin123!"}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/login", payload)
	require.NoError(t, env.Auth.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.AccessToken
}

func refreshCookieValue(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "refresh_token" {
			return ck.Value
		}
	}
	t.Fatal("refresh cookie not set")
	return ""
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, code, he.Code)
}
