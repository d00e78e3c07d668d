package ports

import (
	"context"

	"github.com/layer-3/cleos/core"
)

// LoginDelegate acquires account credentials outside the authenticator.
// A nil result signals that the user cancelled.
type LoginDelegate func(ctx context.Context) (*core.LoginResult, error)

// SignDelegate signs tx outside the authenticator. The returned value is ignored.
type SignDelegate func(ctx context.Context, tx core.Transaction) (any, error)

// RPCClient is a chain node handle threaded through to users
type RPCClient interface {
	Endpoint() string
	Close()
}
