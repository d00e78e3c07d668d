package rpc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/layer-3/cleos/ports"
)

const defaultTimeout = 30 * time.Second

// Client is an opaque chain node handle. Creating it performs no requests
// and nothing in this module issues any through it; hosts that talk to the
// node bring their own protocol client for Endpoint().
type Client struct {
	endpoint string
	client   *gethrpc.Client
}

var _ ports.RPCClient = (*Client)(nil)

// Dial creates a client for the node at url. HTTP(S) endpoints are connected
// lazily on the first call.
func Dial(ctx context.Context, url string) (ports.RPCClient, error) {
	client, err := gethrpc.DialOptions(ctx, url,
		gethrpc.WithHTTPClient(&http.Client{Timeout: defaultTimeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	return &Client{
		endpoint: url,
		client:   client,
	}, nil
}

// Endpoint returns the node url
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Close releases the connection
func (c *Client) Close() {
	c.client.Close()
}
