package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/cleos/core"
	"github.com/layer-3/cleos/ports"
)

const identityKey = "identity"

// AuthHandlers exposes an authenticator to out-of-process hosts
type AuthHandlers struct {
	auth      ports.Authenticator
	tokenizer ports.Tokenizer
	logger    watermill.LoggerAdapter

	mu    sync.Mutex
	users map[string]session // by token id
	now   func() time.Time
}

// session is a logged in user, kept until its token expires
type session struct {
	user      ports.User
	expiresAt int64
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(auth ports.Authenticator, tokenizer ports.Tokenizer, logger watermill.LoggerAdapter) *AuthHandlers {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &AuthHandlers{
		auth:      auth,
		tokenizer: tokenizer,
		logger:    logger,
		users:     make(map[string]session),
		now:       time.Now,
	}
}

// Info returns the static authenticator descriptor
func (h *AuthHandlers) Info(c *gin.Context) {
	requestAccount, _ := h.auth.ShouldRequestAccountName(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"name":                          h.auth.GetName(),
		"onboarding_link":               h.auth.GetOnboardingLink(),
		"style":                         h.auth.GetStyle(),
		"should_render":                 h.auth.ShouldRender(),
		"should_auto_login":             h.auth.ShouldAutoLogin(),
		"should_request_account_name":   requestAccount,
		"requires_get_key_confirmation": h.auth.RequiresGetKeyConfirmation(),
		"is_loading":                    h.auth.IsLoading(),
		"is_errored":                    h.auth.IsErrored(),
		"invalidate_after":              h.auth.ShouldInvalidateAfter(),
	})
}

// Login runs the authenticator login and issues a bearer token for the user
func (h *AuthHandlers) Login(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := h.auth.Login(ctx)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, core.ErrNoAccountInfo) {
			statusCode = http.StatusUnauthorized
		}
		c.JSON(statusCode, gin.H{"error": err.Error()})
		return
	}

	user := users[0]
	identity, err := identityOf(c, user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read identity"})
		return
	}

	token, err := h.tokenizer.IdentityToToken(identity)
	if err != nil {
		h.logger.Error("Failed to issue token", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	h.mu.Lock()
	h.pruneLocked()
	h.users[identity.ID] = session{user: user, expiresAt: identity.ExpiresAt}
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   identity.ExpiresAt - identity.IssuedAt,
		"account_name": identity.AccountName,
		"permission":   identity.Permission,
		"chain_id":     identity.ChainID,
	})
}

// Logout removes the session. It always succeeds.
func (h *AuthHandlers) Logout(c *gin.Context) {
	_ = h.auth.Logout(c.Request.Context())

	h.mu.Lock()
	h.users = make(map[string]session)
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns information about the authenticated user
func (h *AuthHandlers) Me(c *gin.Context) {
	user, ok := h.userFromContext(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	name, _ := user.GetAccountName(ctx)
	permission, _ := user.GetAccountPermission(ctx)
	chainID, _ := user.GetChainID(ctx)
	keys, _ := user.GetKeys(ctx)

	c.JSON(http.StatusOK, gin.H{
		"account_name": name,
		"permission":   permission,
		"chain_id":     chainID,
		"keys":         keys,
	})
}

// Sign forwards the request body to the sign delegate as the transaction
func (h *AuthHandlers) Sign(c *gin.Context) {
	user, ok := h.userFromContext(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction"})
		return
	}

	resp, err := user.SignTransaction(c.Request.Context(), json.RawMessage(body))
	if err != nil {
		h.logger.Error("Sign delegate failed", err, nil)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SignArbitrary reports that arbitrary signing is unsupported
func (h *AuthHandlers) SignArbitrary(c *gin.Context) {
	user, ok := h.userFromContext(c)
	if !ok {
		return
	}

	var req struct {
		PublicKey string `json:"public_key"`
		Data      string `json:"data"`
		HelpText  string `json:"help_text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	signature, err := user.SignArbitrary(c.Request.Context(), req.PublicKey, req.Data, req.HelpText)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, core.ErrUnsupportedOperation) {
			statusCode = http.StatusNotImplemented
		}
		c.JSON(statusCode, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"signature": signature})
}

// VerifyKeyOwnership answers a key ownership challenge
func (h *AuthHandlers) VerifyKeyOwnership(c *gin.Context) {
	user, ok := h.userFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Challenge string `json:"challenge"`
	}
	// An empty body is an empty challenge
	_ = c.ShouldBindJSON(&req)

	verified, err := user.VerifyKeyOwnership(c.Request.Context(), req.Challenge)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"verified": verified})
}

func (h *AuthHandlers) userFromContext(c *gin.Context) (ports.User, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity not found in context"})
		return nil, false
	}
	identity := value.(*core.Identity)

	h.mu.Lock()
	h.pruneLocked()
	entry, ok := h.users[identity.ID]
	h.mu.Unlock()

	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session has ended"})
		return nil, false
	}
	return entry.user, true
}

// pruneLocked drops users whose token has expired. h.mu must be held.
func (h *AuthHandlers) pruneLocked() {
	now := h.now().Unix()
	for id, entry := range h.users {
		if entry.expiresAt <= now {
			delete(h.users, id)
		}
	}
}

// activeSessions returns the number of users kept for live tokens
func (h *AuthHandlers) activeSessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.users)
}

func identityOf(c *gin.Context, user ports.User) (*core.Identity, error) {
	ctx := c.Request.Context()

	name, err := user.GetAccountName(ctx)
	if err != nil {
		return nil, err
	}
	permission, err := user.GetAccountPermission(ctx)
	if err != nil {
		return nil, err
	}
	chainID, err := user.GetChainID(ctx)
	if err != nil {
		return nil, err
	}

	return &core.Identity{
		AccountName: name,
		Permission:  permission,
		ChainID:     chainID,
	}, nil
}
