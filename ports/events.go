package ports

import "context"

// EventPublisher notifies other processes about session changes
type EventPublisher interface {
	PublishLogin(ctx context.Context, accountName, permission, chainID string) error
	PublishLogout(ctx context.Context, accountName, chainID string) error
}
