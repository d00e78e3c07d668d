package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/layer-3/cleos/ports"
)

const (
	// LoginTopic carries session creation events
	LoginTopic = "cleos.login"

	// LogoutTopic carries session removal events
	LogoutTopic = "cleos.logout"
)

// SessionEvent is published on login and logout
type SessionEvent struct {
	AccountName string `json:"account_name"`
	Permission  string `json:"permission,omitempty"`
	ChainID     string `json:"chain_id"`
	At          int64  `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	now       func() time.Time
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		now:       time.Now,
	}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, accountName, permission, chainID string) error {
	return p.publish(ctx, LoginTopic, SessionEvent{
		AccountName: accountName,
		Permission:  permission,
		ChainID:     chainID,
		At:          p.now().Unix(),
	})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, accountName, chainID string) error {
	return p.publish(ctx, LogoutTopic, SessionEvent{
		AccountName: accountName,
		ChainID:     chainID,
		At:          p.now().Unix(),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event SessionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
