package core

import "fmt"

// SessionRecord is the persisted cache of the last successful login
type SessionRecord struct {
	AccountName string // External account identifier
	Permission  string // Authorization level of the account
	PublicKey   string // Nominal key, empty when the login delegate supplied none
	ExpiresAt   int64  // Absolute expiry in unix seconds
}

// Valid reports whether the record can be trusted at the given unix time.
// Partial records are never valid.
func (r SessionRecord) Valid(now int64) bool {
	if r.AccountName == "" || r.Permission == "" || r.PublicKey == "" {
		return false
	}
	return r.ExpiresAt > now
}

// LoginResult is what a login delegate returns on success
type LoginResult struct {
	AccountName string `json:"accountName"`
	Permission  string `json:"permission"`
}

// Empty reports whether the result carries no account info
func (r *LoginResult) Empty() bool {
	return r == nil || r.AccountName == ""
}

// Transaction is an opaque payload handed verbatim to the sign delegate
type Transaction any

// SignTransactionResponse is the fixed response shape of a sign request
type SignTransactionResponse struct {
	WasBroadcast  bool   `json:"wasBroadcast"`
	TransactionID string `json:"transactionId,omitempty"`
	Status        string `json:"status,omitempty"`
	Transaction   any    `json:"transaction"`
}

// RPCEndpoint describes one node of a chain
type RPCEndpoint struct {
	Protocol string `json:"protocol"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
}

// URL formats the endpoint as protocol://host:port
func (e RPCEndpoint) URL() string {
	return fmt.Sprintf("%s://%s:%d", e.Protocol, e.Host, e.Port)
}

// Chain is a configured blockchain network
type Chain struct {
	ChainID      string        `json:"chainId"`
	RPCEndpoints []RPCEndpoint `json:"rpcEndpoints"`
}

// ButtonStyle is the display descriptor of the login button
type ButtonStyle struct {
	Icon       string `json:"icon"`
	Text       string `json:"text"`
	Background string `json:"background"`
	TextColor  string `json:"textColor"`
}

// Identity is the public view of an authenticated account
type Identity struct {
	ID          string // Token identifier, empty until issued
	AccountName string
	Permission  string
	ChainID     string
	IssuedAt    int64
	ExpiresAt   int64
}
