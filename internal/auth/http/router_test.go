package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakobkordez/wmm-reborn/internal/auth/service"
	"github.com/jakobkordez/wmm-reborn/internal/common/clock"
	commoncrypto "github.com/jakobkordez/wmm-reborn/internal/common/crypto"
	commonhttp "github.com/jakobkordez/wmm-reborn/internal/common/http"
	"github.com/jakobkordez/wmm-reborn/internal/common/jwtverify"
	"github.com/jakobkordez/wmm-reborn/internal/common/logger"
	"github.com/jakobkordez/wmm-reborn/internal/testsupport"
)

type testServer struct {
	handler http.Handler
	tokens  *testsupport.RefreshTokenStore
	users   *testsupport.UserStore
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	log := logger.NewWithWriter(io.Discard, "test", "error")
	users := testsupport.NewUserStore()
	store := testsupport.NewRefreshTokenStore()

	tokens, err := service.NewTokenService(service.TokenConfig{
		AccessSecret:            "access-secret-access-secret-0123456789",
		RefreshSecret:           "refresh-secret-refresh-secret-0123456789",
		AccessTTL:               15 * time.Minute,
		RefreshTTL:              time.Hour,
		MaxRefreshTokensPerUser: 5,
	}, store, commoncrypto.NewUUIDGenerator(), clock.NewRealClock(), log)
	require.NoError(t, err)

	auth := service.NewAuthService(users, tokens, commoncrypto.NewBcryptHasher(4, 2), log)

	mux := http.NewServeMux()
	NewHandler(auth, time.Second, log).RegisterRoutes(mux, jwtverify.Middleware(tokens, log))

	return testServer{
		handler: commonhttp.BuildBaseHandler(log, mux),
		tokens:  store,
		users:   users,
	}
}

func (s testServer) do(t *testing.T, method, target, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (s testServer) register(t *testing.T, username string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/register",
		`{"username":"`+username+`","name":"Test User","email":"`+username+`@example.com","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s testServer) login(t *testing.T, username string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/login", `{"username":"`+username+`","password":"secret123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[refreshTokenResponse](t, rec).RefreshToken
}

func (s testServer) access(t *testing.T, refresh string) string {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/token", `{"refresh_token":"`+refresh+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[accessTokenResponse](t, rec).AccessToken
}

func TestRegister_CreatesAccount(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/register",
		`{"username":"alice1","name":"Alice","email":"alice@example.com","password":"secret123"}`, "")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Account created", decode[commonhttp.MessageResponse](t, rec).Message)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice1")

	rec := s.do(t, http.MethodPost, "/register",
		`{"username":"alice1","name":"Other","email":"other@example.com","password":"secret123"}`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[commonhttp.ErrorEnvelope](t, rec)
	assert.Equal(t, "USERNAME_TAKEN", env.Code)
	assert.Equal(t, "Username taken", env.Message)
	assert.NotEmpty(t, env.TraceID)
}

func TestRegister_EmptyFields(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/register", `{"username":"alice1","password":"secret123"}`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[commonhttp.ErrorEnvelope](t, rec)
	assert.Equal(t, commonhttp.CodeEmptyFields, env.Code)
	assert.Equal(t, registerFieldsMessage, env.Message)
}

func TestRegister_InvalidField(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/register",
		`{"username":"al","name":"Alice","email":"alice@example.com","password":"secret123"}`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid username", decode[commonhttp.ErrorEnvelope](t, rec).Message)
}

func TestRegister_InvalidJSON(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/register", `{"username":`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_JSON", decode[commonhttp.ErrorEnvelope](t, rec).Code)
}

func TestLogin_FailuresAreUniform(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice1")

	unknown := s.do(t, http.MethodPost, "/login", `{"username":"nobody1","password":"secret123"}`, "")
	wrong := s.do(t, http.MethodPost, "/login", `{"username":"alice1","password":"wrong-pass"}`, "")

	require.Equal(t, http.StatusBadRequest, unknown.Code)
	require.Equal(t, http.StatusBadRequest, wrong.Code)
	unknownEnv := decode[commonhttp.ErrorEnvelope](t, unknown)
	wrongEnv := decode[commonhttp.ErrorEnvelope](t, wrong)
	assert.Equal(t, "Login data invalid", unknownEnv.Message)
	assert.Equal(t, unknownEnv.Code, wrongEnv.Code)
	assert.Equal(t, unknownEnv.Message, wrongEnv.Message)
	assert.Zero(t, s.tokens.Count())
}

func TestLogin_EmptyFields(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/login", `{"username":"alice1"}`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, loginFieldsMessage, decode[commonhttp.ErrorEnvelope](t, rec).Message)
}

func TestLogin_PersistsRefreshToken(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice1")

	refresh := s.login(t, "alice1")

	assert.NotEmpty(t, refresh)
	assert.Equal(t, 1, s.tokens.Count())
}

func TestToken_ExchangeFromBodyAndQuery(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice1")
	refresh := s.login(t, "alice1")

	assert.NotEmpty(t, s.access(t, refresh))

	rec := s.do(t, http.MethodGet, "/token?refresh_token="+refresh, "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[accessTokenResponse](t, rec).AccessToken)
}

func TestToken_ExchangeMissing(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/token", "", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Refresh token required", decode[commonhttp.ErrorEnvelope](t, rec).Message)
}

func TestToken_ExchangeRejectsAccessToken(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice1")
	access := s.access(t, s.login(t, "alice1"))

	rec := s.do(t, http.MethodGet, "/token", `{"refresh_token":"`+access+`"}`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Token is no longer valid", decode[commonhttp.ErrorEnvelope](t, rec).Message)
}

func TestToken_RevokeRequiresBearer(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice1")
	refresh := s.login(t, "alice1")

	rec := s.do(t, http.MethodDelete, "/token", `{"refresh_token":"`+refresh+`"}`, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH_REQUIRED", decode[commonhttp.ErrorEnvelope](t, rec).Code)
	assert.Equal(t, 1, s.tokens.Count())
}

func TestToken_RevokeRejectsRefreshTokenAsBearer(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice1")
	refresh := s.login(t, "alice1")

	rec := s.do(t, http.MethodDelete, "/token", `{"refresh_token":"`+refresh+`"}`, refresh)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestToken_RevokeByNonOwner(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice1")
	s.register(t, "bobby1")
	aliceRefresh := s.login(t, "alice1")
	bobAccess := s.access(t, s.login(t, "bobby1"))

	rec := s.do(t, http.MethodDelete, "/token", `{"refresh_token":"`+aliceRefresh+`"}`, bobAccess)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You do not own this token", decode[commonhttp.ErrorEnvelope](t, rec).Message)
	assert.NotEmpty(t, s.access(t, aliceRefresh))
}

func TestToken_RevokeThenExchangeFails(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice1")
	refresh := s.login(t, "alice1")
	access := s.access(t, refresh)

	rec := s.do(t, http.MethodDelete, "/token", `{"refresh_token":"`+refresh+`"}`, access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Token deleted", decode[commonhttp.MessageResponse](t, rec).Message)

	again := s.do(t, http.MethodDelete, "/token", `{"refresh_token":"`+refresh+`"}`, access)
	assert.Equal(t, http.StatusOK, again.Code)

	exchange := s.do(t, http.MethodGet, "/token", `{"refresh_token":"`+refresh+`"}`, "")
	assert.Equal(t, http.StatusBadRequest, exchange.Code)
	assert.Zero(t, s.tokens.Count())
}

func TestToken_RevokeMissing(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice1")
	access := s.access(t, s.login(t, "alice1"))

	rec := s.do(t, http.MethodDelete, "/token", "", access)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Refresh token missing", decode[commonhttp.ErrorEnvelope](t, rec).Message)
}

func TestUnknownMethod(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/login", `{}`, "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
