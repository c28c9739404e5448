// Package notification records in-app notifications for complaint
// lifecycle events and hands them to delivery providers. Delivery is
// best-effort and never blocks or fails a lifecycle operation.
package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/resolveit/platform/internal/complaint/domain"
	"github.com/resolveit/platform/internal/shared/metrics"
	"github.com/resolveit/platform/internal/shared/types"
)

// Provider delivers a notification through an external channel
type Provider interface {
	Send(ctx context.Context, n *Notification) error
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Workers    int
	BufferSize int
}

// DefaultServiceConfig returns default configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Workers:    2,
		BufferSize: 256,
	}
}

// Service persists notifications and dispatches them to providers
// through a worker pool.
type Service struct {
	repo      Repository
	providers []Provider

	notifCh chan *Notification
	workers int

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewService creates a notification service
func NewService(repo Repository, providers []Provider, cfg ServiceConfig) *Service {
	return &Service{
		repo:      repo,
		providers: providers,
		notifCh:   make(chan *Notification, cfg.BufferSize),
		workers:   cfg.Workers,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the delivery workers
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("service already started")
	}
	s.started = true

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	return nil
}

// Stop stops the delivery workers
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return fmt.Errorf("service not started")
	}
	s.started = false

	close(s.stopCh)
	s.wg.Wait()
	return nil
}

// StatusChanged notifies the complaint owner of a status change.
// Anonymous complaints have no owner and produce no notification.
func (s *Service) StatusChanged(ctx context.Context, c *domain.Complaint, from, to domain.Status) {
	if c.OwnerID == nil {
		return
	}
	s.enqueue(ctx, &Notification{
		RecipientID: *c.OwnerID,
		ComplaintID: &c.ID,
		Kind:        KindStatusChange,
		Subject:     fmt.Sprintf("Complaint status changed to %s", to),
		Body:        fmt.Sprintf("Your complaint in category %q moved from %s to %s.", c.Category, from, to),
	})
}

// Assigned notifies the staff member who was assigned the complaint
func (s *Service) Assigned(ctx context.Context, c *domain.Complaint, assignedTo types.ID) {
	s.enqueue(ctx, &Notification{
		RecipientID: assignedTo,
		ComplaintID: &c.ID,
		Kind:        KindAssignment,
		Subject:     "Complaint assigned to you",
		Body:        fmt.Sprintf("Complaint in category %q (urgency %s) is now assigned to you.", c.Category, c.Urgency),
	})
}

// Escalated notifies the escalation target
func (s *Service) Escalated(ctx context.Context, c *domain.Complaint, escalatedTo types.ID) {
	s.enqueue(ctx, &Notification{
		RecipientID: escalatedTo,
		ComplaintID: &c.ID,
		Kind:        KindEscalation,
		Subject:     "Complaint escalated to you",
		Body:        fmt.Sprintf("Complaint in category %q (urgency %s) requires your attention.", c.Category, c.Urgency),
	})
}

func (s *Service) enqueue(ctx context.Context, n *Notification) {
	n.ID = types.NewID()
	n.CreatedAt = time.Now()

	if err := s.repo.Save(ctx, n); err != nil {
		metrics.RecordNotification(string(n.Kind), "failed")
		fmt.Printf("Warning: failed to save notification: %v\n", err)
		return
	}

	select {
	case s.notifCh <- n:
	default:
		// Queue full; the in-app record is stored, only external
		// delivery is skipped
		metrics.RecordNotification(string(n.Kind), "dropped")
	}
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case n := <-s.notifCh:
			s.deliver(ctx, n)
		}
	}
}

func (s *Service) deliver(ctx context.Context, n *Notification) {
	for _, p := range s.providers {
		if err := p.Send(ctx, n); err != nil {
			metrics.RecordNotification(string(n.Kind), "failed")
			fmt.Printf("Warning: notification delivery failed: %v\n", err)
			continue
		}
		metrics.RecordNotification(string(n.Kind), "sent")
	}
}
