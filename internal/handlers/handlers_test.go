package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pushp314/shortlink-backend/internal/database"
	"github.com/pushp314/shortlink-backend/internal/handlers"
	"github.com/pushp314/shortlink-backend/internal/middleware"
	"github.com/pushp314/shortlink-backend/internal/models"
	"github.com/pushp314/shortlink-backend/internal/repository"
	"github.com/pushp314/shortlink-backend/internal/routes"
	"github.com/pushp314/shortlink-backend/internal/service"
	"github.com/pushp314/shortlink-backend/internal/token"
)

var (
	dbSeq int64
	ipSeq int64
)

type testEnv struct {
	router *gin.Engine
	// Each env gets its own client IP so the auth rate limiter never
	// carries state across tests.
	remoteAddr string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.User{}, &models.Link{}))

	authSvc := service.NewAuthService(
		repository.NewUserRepository(db),
		token.NewManager("test-secret"),
		database.NewBlacklist(nil),
	)
	linkSvc := service.NewLinkService(repository.NewLinkRepository(db))

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	routes.RegisterAuthRoutes(r, handlers.NewAuthHandler(authSvc), authSvc)
	routes.RegisterLinkRoutes(r, handlers.NewLinkHandler(linkSvc), authSvc)

	return &testEnv{
		router:     r,
		remoteAddr: fmt.Sprintf("192.0.2.%d:1234", atomic.AddInt64(&ipSeq, 1)%250+1),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, path, nil)
	case url.Values:
		req = httptest.NewRequest(method, path, strings.NewReader(b.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		raw, err := json.Marshal(b)
		assert.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.RemoteAddr = e.remoteAddr

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) registerAndLogin(t *testing.T, username string) string {
	t.Helper()

	w := e.do(t, "POST", "/register", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "s3cret-pw",
	}, "")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, "POST", "/token", url.Values{
		"username": {username},
		"password": {"s3cret-pw"},
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestShortenRedirectStatsFlow(t *testing.T) {
	env := setupEnv(t)
	tok := env.registerAndLogin(t, "alice")

	w := env.do(t, "POST", "/links/shorten", gin.H{
		"original_url": "https://example.com/very/long/path",
	}, tok)
	assert.Equal(t, http.StatusCreated, w.Code)

	var link models.Link
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.Len(t, link.ShortCode, 6)
	assert.NotNil(t, link.UserID)

	w = env.do(t, "GET", "/"+link.ShortCode, nil, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/very/long/path", w.Header().Get("Location"))

	w = env.do(t, "GET", "/links/"+link.ShortCode+"/stats", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var stats models.LinkStats
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.Clicks)
	assert.Equal(t, "https://example.com/very/long/path", stats.OriginalURL)
	assert.NotNil(t, stats.LastAccessedAt)
}

func TestShorten_AnonymousAndBadToken(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, "POST", "/links/shorten", gin.H{
		"original_url": "https://example.com/anon",
	}, "")
	assert.Equal(t, http.StatusCreated, w.Code)

	var link models.Link
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.Nil(t, link.UserID)

	// An invalid bearer token degrades to anonymous instead of failing.
	w = env.do(t, "POST", "/links/shorten", gin.H{
		"original_url": "https://example.com/anon2",
	}, "invalid.bearer.token")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.Nil(t, link.UserID)
}

func TestShorten_AliasValidationAndConflict(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, "POST", "/links/shorten", gin.H{
		"original_url": "https://example.com/a",
		"custom_alias": "ab",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "POST", "/links/shorten", gin.H{
		"original_url": "https://example.com/a",
		"custom_alias": "my_alias-1",
	}, "")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "POST", "/links/shorten", gin.H{
		"original_url": "https://example.com/b",
		"custom_alias": "my_alias-1",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "POST", "/links/shorten", gin.H{
		"original_url": "not a url",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateDelete_Ownership(t *testing.T) {
	env := setupEnv(t)
	tokenA := env.registerAndLogin(t, "owner")
	tokenB := env.registerAndLogin(t, "intruder")

	w := env.do(t, "POST", "/links/shorten", gin.H{
		"original_url": "https://example.com/mine",
	}, tokenA)
	assert.Equal(t, http.StatusCreated, w.Code)

	var link models.Link
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))

	// No token at all on a protected route.
	w = env.do(t, "PUT", "/links/"+link.ShortCode, gin.H{"is_active": false}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Someone else's link.
	w = env.do(t, "PUT", "/links/"+link.ShortCode, gin.H{"is_active": false}, tokenB)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, "DELETE", "/links/"+link.ShortCode, nil, tokenB)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The owner may update.
	w = env.do(t, "PUT", "/links/"+link.ShortCode, gin.H{
		"original_url": "https://example.com/moved",
	}, tokenA)
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Link
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "https://example.com/moved", updated.OriginalURL)

	// Unknown code is a 404 even when authenticated.
	w = env.do(t, "PUT", "/links/zzzzzz", gin.H{"is_active": false}, tokenA)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "DELETE", "/links/"+link.ShortCode, nil, tokenA)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/links/"+link.ShortCode+"/stats", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRedirect_MissingAndInactive(t *testing.T) {
	env := setupEnv(t)
	tok := env.registerAndLogin(t, "toggler")

	w := env.do(t, "GET", "/nosuch", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "POST", "/links/shorten", gin.H{
		"original_url": "https://example.com/off",
	}, tok)
	assert.Equal(t, http.StatusCreated, w.Code)

	var link models.Link
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))

	w = env.do(t, "PUT", "/links/"+link.ShortCode, gin.H{"is_active": false}, tok)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/"+link.ShortCode, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchEndpoint(t *testing.T) {
	env := setupEnv(t)

	for _, u := range []string{"https://example.com/one", "https://example.com/two", "https://other.org/three"} {
		w := env.do(t, "POST", "/links/shorten", gin.H{"original_url": u}, "")
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.do(t, "GET", "/links/search/?original_url=example", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var results []models.LinkSearchResult
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Len(t, results, 2)
	for _, res := range results {
		assert.Contains(t, res.OriginalURL, "example")
	}

	// Queries under three characters are rejected.
	w = env.do(t, "GET", "/links/search/?original_url=ex", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := setupEnv(t)

	body := gin.H{"username": "dupe", "email": "dupe@example.com", "password": "pw"}
	w := env.do(t, "POST", "/register", body, "")
	assert.Equal(t, http.StatusCreated, w.Code)

	body["email"] = "other@example.com"
	w = env.do(t, "POST", "/register", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToken_InvalidCredentials(t *testing.T) {
	env := setupEnv(t)
	env.registerAndLogin(t, "frank")

	w := env.do(t, "POST", "/token", url.Values{
		"username": {"frank"},
		"password": {"wrong"},
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeAndLogout(t *testing.T) {
	env := setupEnv(t)
	tok := env.registerAndLogin(t, "grace")

	w := env.do(t, "GET", "/users/me", nil, tok)
	assert.Equal(t, http.StatusOK, w.Code)

	var user models.User
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "grace", user.Username)

	w = env.do(t, "GET", "/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, "POST", "/logout", nil, tok)
	assert.Equal(t, http.StatusOK, w.Code)
}
