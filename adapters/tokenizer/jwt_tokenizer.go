package tokenizer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/layer-3/cleos/core"
	"github.com/layer-3/cleos/ports"
)

const AudienceIdentity = "cleos:identity"

// JWTTokenizer implements the Tokenizer interface using JWT
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	ttl     time.Duration
	now     func() time.Time
}

// NewJWTTokenizer creates a new JWT tokenizer issuing tokens valid for ttl
func NewJWTTokenizer(signKey *ecdsa.PrivateKey, ttl time.Duration) ports.Tokenizer {
	return &JWTTokenizer{
		signKey: signKey,
		ttl:     ttl,
		now:     time.Now,
	}
}

// IdentityToToken signs identity. Missing ID, IssuedAt and ExpiresAt are
// filled in and written back to identity.
func (j *JWTTokenizer) IdentityToToken(identity *core.Identity) (string, error) {
	now := j.now()
	if identity.ID == "" {
		identity.ID = uuid.New().String()
	}
	if identity.IssuedAt == 0 {
		identity.IssuedAt = now.Unix()
	}
	if identity.ExpiresAt == 0 {
		identity.ExpiresAt = now.Add(j.ttl).Unix()
	}

	claims := IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.AccountName,
			ID:        identity.ID,
			ExpiresAt: jwt.NewNumericDate(time.Unix(identity.ExpiresAt, 0)),
			IssuedAt:  jwt.NewNumericDate(time.Unix(identity.IssuedAt, 0)),
			Audience:  jwt.ClaimStrings{AudienceIdentity},
		},
		Permission: identity.Permission,
		ChainID:    identity.ChainID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// TokenToIdentity parses and validates a token
func (j *JWTTokenizer) TokenToIdentity(tokenStr string) (*core.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceIdentity), jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok {
		return nil, core.ErrInvalidToken
	}

	identity := &core.Identity{
		ID:          claims.ID,
		AccountName: claims.Subject,
		Permission:  claims.Permission,
		ChainID:     claims.ChainID,
		ExpiresAt:   claims.ExpiresAt.Unix(),
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Unix()
	}

	return identity, nil
}
