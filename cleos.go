// Package cleos authenticates a blockchain account through caller supplied
// login and sign delegates instead of a built-in wallet.
//
// The authenticator keeps a short-lived session in a Store so the login
// delegate is only consulted when no valid session exists. Every signing
// request is forwarded to the sign delegate; the authenticator never holds
// key material and never verifies that signing succeeded.
package cleos

import (
	"context"

	"github.com/layer-3/cleos/adapters/store"
	"github.com/layer-3/cleos/core"
	"github.com/layer-3/cleos/ports"
	"github.com/layer-3/cleos/service"
)

type (
	Authenticator = service.Authenticator
	Options       = service.Options
	User          = service.User
	Chain         = core.Chain
	RPCEndpoint   = core.RPCEndpoint
	LoginResult   = core.LoginResult
	Transaction   = core.Transaction
	LoginDelegate = ports.LoginDelegate
	SignDelegate  = ports.SignDelegate
	Store         = ports.Store
)

var (
	ErrLoginFailure         = core.ErrLoginFailure
	ErrUnsupportedOperation = core.ErrUnsupportedOperation
)

// New creates an authenticator for chains. Sessions are kept in memory
// unless opts.Store is set.
func New(ctx context.Context, chains []Chain, opts Options) (*Authenticator, error) {
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	return service.NewAuthenticator(ctx, chains, opts)
}
