package ports

import (
	"context"

	"github.com/layer-3/cleos/core"
)

// Authenticator is the method set a host framework drives
type Authenticator interface {
	Init(ctx context.Context) error
	Reset()
	IsErrored() bool
	IsLoading() bool
	GetError() error
	GetName() string
	GetOnboardingLink() string
	GetStyle() core.ButtonStyle
	ShouldRender() bool
	ShouldAutoLogin() bool
	ShouldRequestAccountName(ctx context.Context) (bool, error)
	ShouldInvalidateAfter() int64
	RequiresGetKeyConfirmation() bool

	Login(ctx context.Context) ([]User, error)
	Logout(ctx context.Context) error
}

// User is one authenticated account as seen by the host framework
type User interface {
	GetAccountName(ctx context.Context) (string, error)
	GetAccountPermission(ctx context.Context) (string, error)
	GetChainID(ctx context.Context) (string, error)
	GetKeys(ctx context.Context) ([]string, error)
	VerifyKeyOwnership(ctx context.Context, challenge string) (bool, error)
	SignTransaction(ctx context.Context, tx core.Transaction) (*core.SignTransactionResponse, error)
	SignArbitrary(ctx context.Context, publicKey, data, helpText string) (string, error)
}
