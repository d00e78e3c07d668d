package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/layer-3/cleos/core"
	"github.com/layer-3/cleos/ports"
)

// DefaultSignTopic is where sign requests go when no topic is configured
const DefaultSignTopic = "cleos.sign"

// ErrNoSigner is returned by UnavailableSignDelegate
var ErrNoSigner = errors.New("no signer is reachable")

// SignRequest is the message handed to an out-of-process signer
type SignRequest struct {
	RequestID   string          `json:"request_id"`
	Transaction json.RawMessage `json:"transaction"`
}

// SignRequestDelegate returns a sign delegate that forwards every
// transaction to topic. The delegate returns the request id.
func SignRequestDelegate(publisher message.Publisher, topic string) ports.SignDelegate {
	if topic == "" {
		topic = DefaultSignTopic
	}

	return func(ctx context.Context, tx core.Transaction) (any, error) {
		raw, ok := tx.(json.RawMessage)
		if !ok {
			var err error
			raw, err = json.Marshal(tx)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal transaction: %w", err)
			}
		}

		req := SignRequest{
			RequestID:   uuid.New().String(),
			Transaction: raw,
		}
		payload, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal sign request: %w", err)
		}

		msg := message.NewMessage(req.RequestID, payload)
		msg.SetContext(ctx)

		if err := publisher.Publish(topic, msg); err != nil {
			return nil, fmt.Errorf("failed to publish sign request: %w", err)
		}

		return req.RequestID, nil
	}
}

// UnavailableSignDelegate returns a sign delegate that rejects every
// transaction. It stands in when there is no transport an external signer
// could consume requests from.
func UnavailableSignDelegate(reason string) ports.SignDelegate {
	return func(ctx context.Context, tx core.Transaction) (any, error) {
		return nil, fmt.Errorf("%w: %s", ErrNoSigner, reason)
	}
}
