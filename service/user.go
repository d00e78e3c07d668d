package service

import (
	"context"

	"github.com/layer-3/cleos/core"
	"github.com/layer-3/cleos/ports"
)

// User is the identity handle returned by Login. It holds no key material
// and forwards signing to the sign delegate.
type User struct {
	accountName string
	permission  string
	chainID     string
	keys        []string
	rpc         ports.RPCClient
	sign        ports.SignDelegate
}

var _ ports.User = (*User)(nil)

func newUser(record core.SessionRecord, chainID string, rpc ports.RPCClient, sign ports.SignDelegate) *User {
	return &User{
		accountName: record.AccountName,
		permission:  record.Permission,
		chainID:     chainID,
		keys:        []string{record.PublicKey},
		rpc:         rpc,
		sign:        sign,
	}
}

func (u *User) GetAccountName(ctx context.Context) (string, error) {
	return u.accountName, nil
}

func (u *User) GetAccountPermission(ctx context.Context) (string, error) {
	return u.permission, nil
}

func (u *User) GetChainID(ctx context.Context) (string, error) {
	return u.chainID, nil
}

// GetKeys returns the nominal public key, which may be empty
func (u *User) GetKeys(ctx context.Context) ([]string, error) {
	keys := make([]string, len(u.keys))
	copy(keys, u.keys)
	return keys, nil
}

// VerifyKeyOwnership always succeeds. The authenticator cannot prove
// ownership, callers must treat the answer as a trust boundary.
func (u *User) VerifyKeyOwnership(ctx context.Context, challenge string) (bool, error) {
	return true, nil
}

// SignTransaction hands tx to the sign delegate and reports an unbroadcast
// transaction. Delegate errors are returned as is; anything else the delegate
// returns is discarded.
func (u *User) SignTransaction(ctx context.Context, tx core.Transaction) (*core.SignTransactionResponse, error) {
	if _, err := u.sign(ctx, tx); err != nil {
		return nil, err
	}
	return &core.SignTransactionResponse{
		WasBroadcast: false,
		Transaction:  map[string]any{},
	}, nil
}

// SignArbitrary is not supported
func (u *User) SignArbitrary(ctx context.Context, publicKey, data, helpText string) (string, error) {
	return "", &core.AuthError{
		Message: "cleos does not support signing arbitrary data",
		Type:    core.ErrorTypeUnsupported,
		Source:  Source,
	}
}

// RPC returns the chain node handle of the authenticator that created u
func (u *User) RPC() ports.RPCClient {
	return u.rpc
}
