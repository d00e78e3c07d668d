package http

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/cleos/adapters/store"
	"github.com/layer-3/cleos/adapters/tokenizer"
	"github.com/layer-3/cleos/core"
	"github.com/layer-3/cleos/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router   *gin.Engine
	handlers *AuthHandlers
	signed  []core.Transaction
	result  *core.LoginResult
	signErr error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &testServer{result: &core.LoginResult{AccountName: "alice", Permission: "active"}}

	chains := []core.Chain{{
		ChainID:      "aca376f2",
		RPCEndpoints: []core.RPCEndpoint{{Protocol: "http", Host: "127.0.0.1", Port: 8888}},
	}}
	auth, err := service.NewAuthenticator(context.Background(), chains, service.Options{
		LoginDelegate: func(ctx context.Context) (*core.LoginResult, error) { return s.result, nil },
		SignDelegate: func(ctx context.Context, tx core.Transaction) (any, error) {
			s.signed = append(s.signed, tx)
			return nil, s.signErr
		},
		Store: store.NewMemoryStore(),
	})
	require.NoError(t, err)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tokens := tokenizer.NewJWTTokenizer(key, time.Minute)
	s.router = SetupRouter(auth, tokens, nil)
	s.handlers = NewAuthHandlers(auth, tokens, nil)
	return s
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	w := s.do(http.MethodPost, "/auth/login", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		AccountName string `json:"account_name"`
		ChainID     string `json:"chain_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.AccountName)
	assert.Equal(t, "aca376f2", resp.ChainID)
	return resp.AccessToken
}

func TestInfo(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/auth/info", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var info map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "cleos", info["name"])
	assert.Equal(t, true, info["should_render"])
	assert.Equal(t, false, info["should_auto_login"])
	assert.Equal(t, float64(604800), info["invalidate_after"])
}

func TestLoginAndMe(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(http.MethodGet, "/api/me", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"account_name":"alice","permission":"active","chain_id":"aca376f2","keys":[""]}`, w.Body.String())
}

func TestLoginCancelled(t *testing.T) {
	s := newTestServer(t)
	s.result = nil

	w := s.do(http.MethodPost, "/auth/login", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "did not return any account info")
}

func TestSign(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(http.MethodPost, "/api/sign", token, `{"actions":[{"account":"eosio.token","name":"transfer"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"wasBroadcast":false,"transaction":{}}`, w.Body.String())

	require.Len(t, s.signed, 1)
	assert.JSONEq(t, `{"actions":[{"account":"eosio.token","name":"transfer"}]}`, string(s.signed[0].(json.RawMessage)))

	w = s.do(http.MethodPost, "/api/sign", token, `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.signErr = errors.New("rejected on device")
	w = s.do(http.MethodPost, "/api/sign", token, `{}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "rejected on device")
}

func TestSignArbitraryUnsupported(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(http.MethodPost, "/api/sign-arbitrary", token, `{"data":"hello"}`)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Contains(t, w.Body.String(), "does not support signing arbitrary data")
	assert.Empty(t, s.signed)
}

func TestVerifyKeyOwnership(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(http.MethodPost, "/api/verify-key-ownership", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"verified":true}`, w.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/me", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/me", "garbage", "").Code)
}

func TestLogoutEndsSession(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(http.MethodPost, "/auth/logout", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The token is still well formed, so logging out again succeeds
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/auth/logout", token, "").Code)
}

func TestLogoutRequiresToken(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/auth/logout", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/auth/logout", "garbage", "").Code)

	w := s.do(http.MethodGet, "/api/me", token, "")
	assert.Equal(t, http.StatusOK, w.Code, "session survives unauthenticated logout")
}

func TestExpiredUsersArePruned(t *testing.T) {
	s := newTestServer(t)
	h := s.handlers

	now := time.Now()
	h.now = func() time.Time { return now }

	login := func() {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		h.Login(c)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	for i := 0; i < 100; i++ {
		login()
	}
	assert.Equal(t, 100, h.activeSessions())

	// Every token issued above lives for one minute
	now = now.Add(2 * time.Minute)
	login()
	assert.Equal(t, 1, h.activeSessions())
}
