package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/circle-up/config"
	"github.com/oksasatya/circle-up/internal/container"
	"github.com/oksasatya/circle-up/internal/router"
	"github.com/oksasatya/circle-up/pkg/helpers"
	"github.com/oksasatya/circle-up/pkg/validation"
)

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type api struct {
	t      *testing.T
	engine *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()
	cfg := &config.Config{
		AppName:             "circle-up",
		StorageDriver:       "memory",
		JWTAccessSecret:     "test-secret",
		AccessTTL:           time.Hour,
		SignupTokenTTL:      time.Hour,
		CookieDomain:        "localhost",
		CORSAllowedOrigins:  "*",
		WSSendBuffer:        16,
		TypingTimeout:       2 * time.Second,
		DebugMetricsEnabled: true,
		MailSendEnabled:     false,
	}
	c, err := container.New(context.Background(), cfg, helpers.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	r := gin.New()
	reg := router.NewRegistry(r)
	router.InitModules(reg, c)
	reg.RegisterAll()
	return &api{t: t, engine: r}
}

func (a *api) do(method, path, token string, body any) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

type account struct {
	ID    string
	Token string
}

func (a *api) signup(name, anon, email string) account {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/signup", "", map[string]string{
		"name": name, "anonymousName": anon, "email": email, "password": "password123",
	})
	require.Equal(a.t, http.StatusCreated, code, env.Message)
	var out struct {
		User  struct{ ID string } `json:"user"`
		Token string              `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &out))
	return account{ID: out.User.ID, Token: out.Token}
}

func displayNames(t *testing.T, env envelope) map[string]string {
	t.Helper()
	out := map[string]string{}
	if len(env.Data) == 0 {
		return out
	}
	var users []struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &users))
	for _, u := range users {
		out[u.ID] = u.DisplayName
	}
	return out
}

func TestSignup_ReturnsUserWithoutPassword(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(http.MethodPost, "/api/signup", "", map[string]string{
		"name": "Ann", "anonymousName": "Fox", "email": "ann@x.com", "password": "pw123456",
	})

	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)
	var data struct {
		User  map[string]any `json:"user"`
		Token string         `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Fox", data.User["anonymousName"])
	assert.NotContains(t, data.User, "password")
	assert.NotEmpty(t, data.Token)
}

func TestSignup_DuplicateEmailAndBadPayload(t *testing.T) {
	a := newAPI(t)
	a.signup("Ann", "Fox", "ann@x.com")

	code, env := a.do(http.MethodPost, "/api/signup", "", map[string]string{
		"name": "Other", "anonymousName": "Owl", "email": "ann@x.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Email already exists", env.Message)

	code, _ = a.do(http.MethodPost, "/api/signup", "", map[string]string{"name": "NoAnon", "email": "n@x.com", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLogin(t *testing.T) {
	a := newAPI(t)
	a.signup("Ann", "Fox", "ann@x.com")

	code, env := a.do(http.MethodPost, "/api/login", "", map[string]string{"email": "ann@x.com", "password": "password123"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"token"`)

	code, env = a.do(http.MethodPost, "/api/login", "", map[string]string{"email": "ann@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.NotContains(t, string(env.Data), "token")
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	a := newAPI(t)

	code, _ := a.do(http.MethodGet, "/api/friends/candidates", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.do(http.MethodPost, "/api/goals/add", "", map[string]string{"goal": "run"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestFriendVisibilityFlow(t *testing.T) {
	a := newAPI(t)
	ann := a.signup("Ann", "Fox", "ann@x.com")
	bob := a.signup("Bob", "Owl", "bob@x.com")

	code, env := a.do(http.MethodPost, "/api/friends/add", ann.Token, map[string]string{"id": bob.ID})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, _ = a.do(http.MethodPost, "/api/friends/add", ann.Token, map[string]string{"id": bob.ID})
	assert.Equal(t, http.StatusBadRequest, code)

	// names stay hidden both ways until revealed
	_, env = a.do(http.MethodGet, "/api/users", ann.Token, nil)
	assert.Equal(t, "Owl", displayNames(t, env)[bob.ID])

	// bob reveals his name to ann
	code, _ = a.do(http.MethodPost, "/api/friends/visibility", bob.Token, map[string]any{"userId": ann.ID, "value": true})
	require.Equal(t, http.StatusOK, code)

	_, env = a.do(http.MethodGet, "/api/users", ann.Token, nil)
	assert.Equal(t, "Bob", displayNames(t, env)[bob.ID])
	_, env = a.do(http.MethodGet, "/api/users", bob.Token, nil)
	assert.Equal(t, "Fox", displayNames(t, env)[ann.ID])

	// ann cannot reveal bob's name on his behalf
	code, _ = a.do(http.MethodPost, "/api/friends/visibility", ann.Token, map[string]any{"userId": ann.ID, "friendId": bob.ID, "value": false})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = a.do(http.MethodGet, "/api/friends/candidates", bob.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, displayNames(t, env), ann.ID)
}

func TestSingleUser_FriendNamesResolvedForCaller(t *testing.T) {
	a := newAPI(t)
	ann := a.signup("Ann", "Fox", "ann@x.com")
	bob := a.signup("Bob", "Owl", "bob@x.com")
	eve := a.signup("Eve", "Cat", "eve@x.com")

	code, env := a.do(http.MethodPost, "/api/friends/add", ann.Token, map[string]string{"id": bob.ID})
	require.Equal(t, http.StatusOK, code, env.Message)
	code, env = a.do(http.MethodPost, "/api/friends/visibility", bob.Token, map[string]any{"userId": ann.ID, "value": true})
	require.Equal(t, http.StatusOK, code, env.Message)

	friendOf := func(token string) (name, displayName string) {
		t.Helper()
		code, env := a.do(http.MethodPost, "/api/users/single", token, map[string]string{"id": ann.ID})
		require.Equal(t, http.StatusOK, code, env.Message)
		var p struct {
			Friends []struct {
				Friend struct {
					Name        string `json:"name"`
					DisplayName string `json:"displayName"`
				} `json:"friend"`
			} `json:"friends"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &p))
		require.Len(t, p.Friends, 1)
		return p.Friends[0].Friend.Name, p.Friends[0].Friend.DisplayName
	}

	name, shown := friendOf(ann.Token)
	assert.Equal(t, "Bob", name)
	assert.Equal(t, "Bob", shown)

	for _, token := range []string{eve.Token, ""} {
		name, shown = friendOf(token)
		assert.Empty(t, name)
		assert.Equal(t, "Owl", shown)
	}
}

func TestBodyIdentityMustMatchCaller(t *testing.T) {
	a := newAPI(t)
	ann := a.signup("Ann", "Fox", "ann@x.com")
	bob := a.signup("Bob", "Owl", "bob@x.com")

	code, _ := a.do(http.MethodPost, "/api/friends/add", ann.Token, map[string]string{"userId": bob.ID, "id": ann.ID})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(http.MethodPost, "/api/goals/add", ann.Token, map[string]string{"userId": bob.ID, "goal": "run"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := a.do(http.MethodPost, "/api/goals/add", ann.Token, map[string]string{"goal": "run"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"run"`)
}

func TestCommunityAdminOnlyAddUsers(t *testing.T) {
	a := newAPI(t)
	ann := a.signup("Ann", "Fox", "ann@x.com")
	bob := a.signup("Bob", "Owl", "bob@x.com")

	code, env := a.do(http.MethodPost, "/api/communities", ann.Token, map[string]string{"name": "Runners", "description": "Early runs"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	code, _ = a.do(http.MethodPost, "/api/communities/"+created.ID+"/add-users", bob.Token, map[string]any{"userIds": []string{bob.ID}})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(http.MethodPost, "/api/communities/"+created.ID+"/add-users", ann.Token, map[string]any{"userIds": []string{bob.ID}})
	require.Equal(t, http.StatusOK, code)

	code, env = a.do(http.MethodPost, "/api/communities/mine", bob.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), created.ID)

	code, _ = a.do(http.MethodGet, "/api/communities/"+created.ID, "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = a.do(http.MethodGet, "/api/communities/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = a.do(http.MethodGet, "/api/communities/search?q=run", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "search results", env.Message)
}

func TestCommunityMineWithoutCallerNeedsUserID(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(http.MethodPost, "/api/communities/mine", "", nil)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "userId is required", env.Message)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	a.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
