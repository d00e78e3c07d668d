package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/layer-3/cleos/core"
	"github.com/layer-3/cleos/ports"
)

const (
	// Name identifies this authenticator to the host framework
	Name = "cleos"

	// Source tags errors raised by the authenticator
	Source = "CleosAuthenticator"

	// OnboardingLink is where users can install cleos
	OnboardingLink = "https://developers.eos.io/manuals/eos/latest/cleos/index"

	// DefaultInvalidateAfter is the session lifetime of the host base contract
	DefaultInvalidateAfter = 604800 * time.Second // 7 days
)

// Options configures an Authenticator
type Options struct {
	AppName       string
	LoginDelegate ports.LoginDelegate
	SignDelegate  ports.SignDelegate
	Store         ports.Store

	// RPC overrides the handle built from the first chain endpoint
	RPC ports.RPCClient
	// Dial builds the RPC handle when RPC is nil
	Dial func(ctx context.Context, url string) (ports.RPCClient, error)

	Events          ports.EventPublisher
	Logger          watermill.LoggerAdapter
	InvalidateAfter time.Duration
	Now             func() time.Time
}

// Authenticator authenticates an account through caller supplied delegates
// and caches the session in the injected store.
type Authenticator struct {
	appName  string
	chains   []core.Chain
	chainID  string
	rpc      ports.RPCClient
	login    ports.LoginDelegate
	sign     ports.SignDelegate
	store    ports.Store
	events   ports.EventPublisher
	logger   watermill.LoggerAdapter
	lifetime time.Duration
	now      func() time.Time
}

var _ ports.Authenticator = (*Authenticator)(nil)

// NewAuthenticator creates an authenticator for the first of chains.
// Additional chains are accepted but unused.
func NewAuthenticator(ctx context.Context, chains []core.Chain, opts Options) (*Authenticator, error) {
	if len(chains) == 0 {
		return nil, core.ErrNoChains
	}
	if opts.LoginDelegate == nil || opts.SignDelegate == nil {
		return nil, errors.New("login and sign delegates are required")
	}
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}

	a := &Authenticator{
		appName:  opts.AppName,
		chains:   chains,
		chainID:  chains[0].ChainID,
		rpc:      opts.RPC,
		login:    opts.LoginDelegate,
		sign:     opts.SignDelegate,
		store:    opts.Store,
		events:   opts.Events,
		logger:   opts.Logger,
		lifetime: opts.InvalidateAfter,
		now:      opts.Now,
	}
	if a.logger == nil {
		a.logger = watermill.NopLogger{}
	}
	if a.lifetime <= 0 {
		a.lifetime = DefaultInvalidateAfter
	}
	if a.now == nil {
		a.now = time.Now
	}

	if a.rpc == nil {
		endpoints := chains[0].RPCEndpoints
		if len(endpoints) == 0 {
			return nil, core.ErrNoRPCEndpoint
		}
		url := endpoints[0].URL()
		if opts.Dial == nil {
			a.rpc = staticEndpoint(url)
		} else {
			rpc, err := opts.Dial(ctx, url)
			if err != nil {
				return nil, fmt.Errorf("failed to create rpc client: %w", err)
			}
			a.rpc = rpc
		}
	}

	a.logger = a.logger.With(watermill.LogFields{"authenticator": Name, "chain_id": a.chainID})
	return a, nil
}

// Login returns the user of the cached session, or runs the login delegate
// when no valid session is stored.
func (a *Authenticator) Login(ctx context.Context) ([]ports.User, error) {
	users, err := a.doLogin(ctx)
	if err != nil {
		a.logger.Error("Login failed", err, nil)
		return nil, core.NewLoginError(err, Source)
	}
	return users, nil
}

func (a *Authenticator) doLogin(ctx context.Context) ([]ports.User, error) {
	record, err := a.readSession(ctx)
	if err != nil {
		return nil, err
	}

	now := a.now().Unix()
	if !record.Valid(now) {
		result, err := a.login(ctx)
		if err != nil {
			return nil, err
		}
		if result.Empty() {
			return nil, core.ErrNoAccountInfo
		}

		record = core.SessionRecord{
			AccountName: result.AccountName,
			Permission:  result.Permission,
			PublicKey:   "",
			ExpiresAt:   a.ShouldInvalidateAfter() + now,
		}
		if err := a.writeSession(ctx, record); err != nil {
			return nil, err
		}

		a.logger.Info("Session created", watermill.LogFields{
			"account":    record.AccountName,
			"permission": record.Permission,
			"expires_at": record.ExpiresAt,
		})
		a.publishLogin(ctx, record)
	} else {
		a.logger.Debug("Reusing cached session", watermill.LogFields{"account": record.AccountName})
	}

	return []ports.User{newUser(record, a.chainID, a.rpc, a.sign)}, nil
}

// Logout removes the persisted session. It never fails.
func (a *Authenticator) Logout(ctx context.Context) error {
	account, _ := a.store.Get(ctx, ports.KeyAccountName)

	if err := a.store.Remove(ctx, ports.SessionKeys...); err != nil {
		a.logger.Error("Failed to remove session", err, nil)
	}

	if a.events != nil && account != "" {
		if err := a.events.PublishLogout(ctx, account, a.chainID); err != nil {
			a.logger.Error("Failed to publish logout event", err, nil)
		}
	}
	return nil
}

func (a *Authenticator) readSession(ctx context.Context) (core.SessionRecord, error) {
	values := make(map[string]string, len(ports.SessionKeys))
	for _, key := range ports.SessionKeys {
		value, err := a.store.Get(ctx, key)
		if err != nil && !errors.Is(err, core.ErrKeyNotFound) {
			return core.SessionRecord{}, fmt.Errorf("failed to read %s: %w", key, err)
		}
		values[key] = value
	}

	// An unparsable expiration counts as already expired
	expiresAt, err := strconv.ParseInt(values[ports.KeyExpiration], 10, 64)
	if err != nil {
		expiresAt = 0
	}

	return core.SessionRecord{
		AccountName: values[ports.KeyAccountName],
		Permission:  values[ports.KeyPermission],
		PublicKey:   values[ports.KeyPublicKey],
		ExpiresAt:   expiresAt,
	}, nil
}

func (a *Authenticator) writeSession(ctx context.Context, record core.SessionRecord) error {
	entries := []struct{ key, value string }{
		{ports.KeyExpiration, strconv.FormatInt(record.ExpiresAt, 10)},
		{ports.KeyAccountName, record.AccountName},
		{ports.KeyPermission, record.Permission},
		{ports.KeyPublicKey, record.PublicKey},
	}
	for _, e := range entries {
		if err := a.store.Set(ctx, e.key, e.value, a.lifetime); err != nil {
			return fmt.Errorf("failed to write %s: %w", e.key, err)
		}
	}
	return nil
}

func (a *Authenticator) publishLogin(ctx context.Context, record core.SessionRecord) {
	if a.events == nil {
		return
	}
	if err := a.events.PublishLogin(ctx, record.AccountName, record.Permission, a.chainID); err != nil {
		a.logger.Error("Failed to publish login event", err, nil)
	}
}

// Init is a no-op, the authenticator has no state to prepare
func (a *Authenticator) Init(ctx context.Context) error {
	return nil
}

// Reset returns the authenticator to its initial state
func (a *Authenticator) Reset() {
	_ = a.Init(context.Background())
}

func (a *Authenticator) IsErrored() bool { return false }

func (a *Authenticator) IsLoading() bool { return false }

func (a *Authenticator) GetError() error { return nil }

func (a *Authenticator) GetName() string { return Name }

// GetOnboardingLink returns where the underlying tool can be installed
func (a *Authenticator) GetOnboardingLink() string { return OnboardingLink }

// GetStyle returns the login button descriptor
func (a *Authenticator) GetStyle() core.ButtonStyle {
	return core.ButtonStyle{
		Icon:       "",
		Text:       Name,
		Background: "#030238",
		TextColor:  "#FFFFFF",
	}
}

func (a *Authenticator) ShouldRender() bool { return true }

func (a *Authenticator) ShouldAutoLogin() bool { return false }

func (a *Authenticator) ShouldRequestAccountName(ctx context.Context) (bool, error) {
	return false, nil
}

// ShouldInvalidateAfter returns the session lifetime in seconds
func (a *Authenticator) ShouldInvalidateAfter() int64 {
	return int64(a.lifetime / time.Second)
}

func (a *Authenticator) RequiresGetKeyConfirmation() bool { return false }

// AppName returns the name of the application using the authenticator
func (a *Authenticator) AppName() string { return a.appName }

// ChainID returns the chain the authenticator is bound to
func (a *Authenticator) ChainID() string { return a.chainID }

// Chains returns the chains as configured, including the unused ones
func (a *Authenticator) Chains() []core.Chain { return a.chains }

// RPC returns the chain node handle
func (a *Authenticator) RPC() ports.RPCClient { return a.rpc }

// Close releases the RPC handle
func (a *Authenticator) Close() {
	a.rpc.Close()
}

// staticEndpoint is an RPC handle that only remembers its URL
type staticEndpoint string

func (e staticEndpoint) Endpoint() string { return string(e) }

func (e staticEndpoint) Close() {}
