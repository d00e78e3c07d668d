package ports

import (
	"context"
	"time"
)

// Session slots shared by every authenticator on the device
const (
	KeyAccountName = "accountName"
	KeyPermission  = "permission"
	KeyPublicKey   = "publicKey"
	KeyExpiration  = "expiration"
)

// SessionKeys lists every persisted session slot
var SessionKeys = []string{KeyAccountName, KeyPermission, KeyPublicKey, KeyExpiration}

// Store is a persisted string key-value capability
type Store interface {
	// Get returns core.ErrKeyNotFound when the key is absent
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key; a zero ttl never expires
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Remove deletes keys, missing keys are ignored
	Remove(ctx context.Context, keys ...string) error
}
