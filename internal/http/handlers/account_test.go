package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/account-service/internal/account"
	"github.com/hongminglow/account-service/internal/auth"
	"github.com/hongminglow/account-service/internal/logging"
	"github.com/hongminglow/account-service/internal/middleware"
	"github.com/hongminglow/account-service/internal/password"
	"github.com/hongminglow/account-service/internal/storage"
	"github.com/hongminglow/account-service/internal/storage/memory"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	store   *memory.Store
}

func newTestAPI(t *testing.T, requireActive bool) *testAPI {
	t.Helper()
	return newTestAPIWithStore(t, memory.NewUserStore(), requireActive)
}

func newTestAPIWithStore(t *testing.T, store storage.UserStore, requireActive bool) *testAPI {
	t.Helper()
	log := logging.Discard()
	tokens := auth.NewTokenManager("test-secret", "account-service", auth.DefaultTTL)
	svc := account.NewService(store, password.NewBcrypt(4), tokens, log)

	var active middleware.ActiveChecker
	if requireActive {
		active = svc
	}
	r := chi.NewRouter()
	NewHealthHandler(time.Now()).Register(r)
	NewAccountHandler(svc, log).Register(r, middleware.NewRouteLimiters(middleware.Limits{}), middleware.Bearer(tokens, active, log))

	api := &testAPI{t: t, handler: r}
	if ms, ok := store.(*memory.Store); ok {
		api.store = ms
	}
	return api
}

func (a *testAPI) do(method, path, body, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(email, pw string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/login", credentials(email, pw), "")
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(a.t, json.NewDecoder(rec.Body).Decode(&out))
	require.NotEmpty(a.t, out.AccessToken)
	return out.AccessToken
}

func credentials(email, pw string) string {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(map[string]string{"email": email, "password": pw})
	return buf.String()
}

func TestAccountLifecycle(t *testing.T) {
	api := newTestAPI(t, false)

	rec := api.do(http.MethodPost, "/register", credentials("a@x.io", "pw1"), "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"User registered"}`, rec.Body.String())

	token := api.login("a@x.io", "pw1")

	rec = api.do(http.MethodGet, "/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"email":"a@x.io","is_active":true}`, rec.Body.String())

	rec = api.do(http.MethodDelete, "/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Account deactivated"}`, rec.Body.String())

	rec = api.do(http.MethodPost, "/login", credentials("a@x.io", "pw1"), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"account disabled"}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code, "tokens stay valid until expiry without the active check")
	assert.JSONEq(t, `{"id":1,"email":"a@x.io","is_active":false}`, rec.Body.String())

	rec = api.do(http.MethodDelete, "/me", "", token)
	assert.Equal(t, http.StatusOK, rec.Code, "deactivation is idempotent")
}

func TestDeactivatedTokenRejected(t *testing.T) {
	api := newTestAPI(t, true)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/register", credentials("a@x.io", "pw1"), "").Code)
	token := api.login("a@x.io", "pw1")

	require.Equal(t, http.StatusOK, api.do(http.MethodDelete, "/me", "", token).Code)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/me", "", token).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodDelete, "/me", "", token).Code)
}

func TestRegister_Errors(t *testing.T) {
	api := newTestAPI(t, true)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/register", credentials("a@x.io", "pw1"), "").Code)

	rec := api.do(http.MethodPost, "/register", credentials("a@x.io", "other"), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"email already registered"}`, rec.Body.String())

	rec = api.do(http.MethodPost, "/register", credentials("", "pw"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/register", credentials("b@x.io", ""), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/register", `{"email":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid JSON payload"}`, rec.Body.String())

	rec = api.do(http.MethodPost, "/register", `{"email":"c@x.io","password":"pw"}garbage`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid JSON payload"}`, rec.Body.String())

	rec = api.do(http.MethodPost, "/register", `{"email":"c@x.io","password":"pw"}{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/register", "{\"email\":\"c@x.io\",\"password\":\"pw\"}\n", "")
	assert.Equal(t, http.StatusCreated, rec.Code, "trailing whitespace is fine")
}

func TestLogin_Errors(t *testing.T) {
	api := newTestAPI(t, true)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/register", credentials("a@x.io", "pw1"), "").Code)

	cases := map[string]struct {
		body   string
		status int
	}{
		"wrong password": {credentials("a@x.io", "nope"), http.StatusUnauthorized},
		"unknown email":  {credentials("ghost@x.io", "pw1"), http.StatusUnauthorized},
		"missing fields": {`{}`, http.StatusUnauthorized},
		"malformed json": {`not json`, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := api.do(http.MethodPost, "/login", tc.body, "")
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	wrong := api.do(http.MethodPost, "/login", credentials("a@x.io", "nope"), "")
	unknown := api.do(http.MethodPost, "/login", credentials("ghost@x.io", "pw1"), "")
	assert.Equal(t, wrong.Body.String(), unknown.Body.String(), "responses must not reveal which emails exist")
}

func TestUpdateMe(t *testing.T) {
	api := newTestAPI(t, true)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/register", credentials("a@x.io", "pw1"), "").Code)
	token := api.login("a@x.io", "pw1")

	rec := api.do(http.MethodPut, "/me", `{"password":"pw2"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Account updated"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/login", credentials("a@x.io", "pw1"), "").Code)
	api.login("a@x.io", "pw2")

	assert.Equal(t, http.StatusOK, api.do(http.MethodPut, "/me", `{}`, token).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodPut, "/me", "", token).Code)
	api.login("a@x.io", "pw2")

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPut, "/me", `{"password":""}`, token).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPut, "/me", `{"password":`, token).Code)
}

func TestMe_RequiresAuth(t *testing.T) {
	api := newTestAPI(t, true)
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec := api.do(method, "/me", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, method)

		rec = api.do(method, "/me", "", "garbage")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, method)
	}
}

func TestGetMe_DeletedUser(t *testing.T) {
	api := newTestAPI(t, false)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/register", credentials("a@x.io", "pw1"), "").Code)
	token := api.login("a@x.io", "pw1")

	api.store.Delete(1)

	rec := api.do(http.MethodGet, "/me", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"user not found"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, true)
	rec := api.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "ok", out["status"])
	assert.NotEmpty(t, out["uptime"])
}
