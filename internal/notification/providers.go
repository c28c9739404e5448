package notification

import (
	"context"
	"fmt"
)

// LogProvider writes notifications to stdout. Stands in for real push
// and email channels in development.
type LogProvider struct{}

// NewLogProvider creates a log provider
func NewLogProvider() *LogProvider {
	return &LogProvider{}
}

// Send logs the notification
func (p *LogProvider) Send(ctx context.Context, n *Notification) error {
	fmt.Printf("[notify] %s -> %s: %s\n", n.Kind, n.RecipientID, n.Subject)
	return nil
}

var _ Provider = (*LogProvider)(nil)
