package tokenizer

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims combines standard claims with the account identity
type IdentityClaims struct {
	jwt.RegisteredClaims
	Permission string `json:"perm"`
	ChainID    string `json:"chain"`
}
