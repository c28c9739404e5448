package notification

import (
	"context"
	"testing"

	"github.com/resolveit/platform/internal/complaint/domain"
	"github.com/resolveit/platform/internal/shared/types"
)

func newTestComplaint(t *testing.T, ownerID *types.ID) *domain.Complaint {
	t.Helper()
	c, err := domain.NewComplaint("Roads", "Pothole", "HIGH", ownerID == nil, ownerID)
	if err != nil {
		t.Fatalf("Failed to create complaint: %v", err)
	}
	return c
}

// TestStatusChangedNotifiesOwner tests that a status change records a
// notification for the complaint owner
func TestStatusChangedNotifiesOwner(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil, DefaultServiceConfig())
	ctx := context.Background()

	ownerID := types.NewID()
	c := newTestComplaint(t, &ownerID)

	svc.StatusChanged(ctx, c, domain.StatusNew, domain.StatusResolved)

	unread, err := repo.Unread(ctx, ownerID)
	if err != nil {
		t.Fatalf("Failed to list unread: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(unread))
	}

	n := unread[0]
	if n.Kind != KindStatusChange {
		t.Errorf("Expected kind %s, got %s", KindStatusChange, n.Kind)
	}
	if n.ComplaintID == nil || *n.ComplaintID != c.ID {
		t.Error("Expected notification to reference the complaint")
	}
	if n.Read {
		t.Error("New notification should be unread")
	}
}

// TestStatusChangedSkipsAnonymous tests that anonymous complaints
// produce no notification
func TestStatusChangedSkipsAnonymous(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil, DefaultServiceConfig())
	ctx := context.Background()

	c := newTestComplaint(t, nil)
	svc.StatusChanged(ctx, c, domain.StatusNew, domain.StatusResolved)

	all, _ := repo.ListForUser(ctx, types.NewID())
	if len(all) != 0 {
		t.Errorf("Expected no notifications, got %d", len(all))
	}
}

// TestAssignedAndEscalated tests the staff-facing hooks
func TestAssignedAndEscalated(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil, DefaultServiceConfig())
	ctx := context.Background()

	c := newTestComplaint(t, nil)
	officerID := types.NewID()
	supervisorID := types.NewID()

	svc.Assigned(ctx, c, officerID)
	svc.Escalated(ctx, c, supervisorID)

	assigned, _ := repo.Unread(ctx, officerID)
	if len(assigned) != 1 || assigned[0].Kind != KindAssignment {
		t.Error("Expected one assignment notification for the officer")
	}

	escalated, _ := repo.Unread(ctx, supervisorID)
	if len(escalated) != 1 || escalated[0].Kind != KindEscalation {
		t.Error("Expected one escalation notification for the supervisor")
	}
}

// TestMarkRead tests read bookkeeping
func TestMarkRead(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil, DefaultServiceConfig())
	ctx := context.Background()

	ownerID := types.NewID()
	c := newTestComplaint(t, &ownerID)

	svc.StatusChanged(ctx, c, domain.StatusNew, domain.StatusUnderReview)
	svc.StatusChanged(ctx, c, domain.StatusUnderReview, domain.StatusResolved)

	count, _ := repo.UnreadCount(ctx, ownerID)
	if count != 2 {
		t.Fatalf("Expected 2 unread, got %d", count)
	}

	unread, _ := repo.Unread(ctx, ownerID)
	if err := repo.MarkRead(ctx, unread[0].ID, ownerID); err != nil {
		t.Fatalf("Failed to mark read: %v", err)
	}

	count, _ = repo.UnreadCount(ctx, ownerID)
	if count != 1 {
		t.Errorf("Expected 1 unread after marking, got %d", count)
	}

	if err := repo.MarkAllRead(ctx, ownerID); err != nil {
		t.Fatalf("Failed to mark all read: %v", err)
	}
	count, _ = repo.UnreadCount(ctx, ownerID)
	if count != 0 {
		t.Errorf("Expected 0 unread after marking all, got %d", count)
	}

	// Read notifications stay in the full list
	all, _ := repo.ListForUser(ctx, ownerID)
	if len(all) != 2 {
		t.Errorf("Expected 2 notifications in full list, got %d", len(all))
	}
}

// TestMarkReadWrongRecipient tests that a user cannot mark another
// user's notification as read
func TestMarkReadWrongRecipient(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil, DefaultServiceConfig())
	ctx := context.Background()

	ownerID := types.NewID()
	c := newTestComplaint(t, &ownerID)
	svc.StatusChanged(ctx, c, domain.StatusNew, domain.StatusResolved)

	unread, _ := repo.Unread(ctx, ownerID)
	if err := repo.MarkRead(ctx, unread[0].ID, types.NewID()); err == nil {
		t.Error("Expected error when marking another user's notification")
	}
}

// TestWorkerDelivery tests that started workers hand notifications to
// providers
func TestWorkerDelivery(t *testing.T) {
	repo := NewMemoryRepository()
	received := make(chan *Notification, 1)
	provider := providerFunc(func(ctx context.Context, n *Notification) error {
		received <- n
		return nil
	})

	svc := NewService(repo, []Provider{provider}, ServiceConfig{Workers: 1, BufferSize: 8})
	ctx := context.Background()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Failed to start service: %v", err)
	}
	defer svc.Stop()

	ownerID := types.NewID()
	c := newTestComplaint(t, &ownerID)
	svc.StatusChanged(ctx, c, domain.StatusNew, domain.StatusResolved)

	n := <-received
	if n.RecipientID != ownerID {
		t.Error("Expected delivery to the owner")
	}
}

// TestStartTwice tests that the service refuses a second start
func TestStartTwice(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, DefaultServiceConfig())

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("First start failed: %v", err)
	}
	defer svc.Stop()

	if err := svc.Start(context.Background()); err == nil {
		t.Error("Expected error on second start")
	}
}

// providerFunc adapts a function to the Provider interface
type providerFunc func(ctx context.Context, n *Notification) error

func (f providerFunc) Send(ctx context.Context, n *Notification) error {
	return f(ctx, n)
}
