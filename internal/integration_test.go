package internal

import (
	"context"
	"testing"

	complaintapi "github.com/resolveit/platform/internal/complaint/api"
	"github.com/resolveit/platform/internal/complaint/domain"
	"github.com/resolveit/platform/internal/complaint/engine"
	"github.com/resolveit/platform/internal/complaint/infrastructure"
	"github.com/resolveit/platform/internal/notification"
	"github.com/resolveit/platform/internal/shared/types"
	"github.com/resolveit/platform/internal/user"
)

type discardStore struct{}

func (discardStore) Store(ctx context.Context, data []byte, originalName string) (string, error) {
	return originalName, nil
}

// TestFullComplaintWorkflow tests the complete complaint lifecycle from
// submission through escalation to resolution
func TestFullComplaintWorkflow(t *testing.T) {
	ctx := context.Background()

	// Setup
	dir := user.NewMemoryDirectory()
	repo := infrastructure.NewMemoryRepository()
	repo.ResolveUsername = dir.Username
	notifRepo := notification.NewMemoryRepository()
	notifier := notification.NewService(notifRepo, nil, notification.DefaultServiceConfig())
	lifecycle := engine.New(repo, dir, discardStore{}, nil, notifier)

	citizenID := types.NewID()
	officerID := types.NewID()
	supervisorID := types.NewID()
	dir.Add(&user.User{ID: citizenID, Username: "mira"})
	dir.Add(&user.User{ID: officerID, Username: "officer1"})
	dir.Add(&user.User{ID: supervisorID, Username: "supervisor"})

	// 1. Citizen submits a complaint
	c, err := lifecycle.Submit(ctx, engine.SubmitRequest{
		Category:    "Water",
		Description: "Burst pipe flooding the street",
		Urgency:     "HIGH",
		SubmitterID: &citizenID,
	})
	if err != nil {
		t.Fatalf("Failed to submit complaint: %v", err)
	}
	if c.Status != domain.StatusNew {
		t.Errorf("New complaint should have status %s, got %s", domain.StatusNew, c.Status)
	}

	// 2. Officer takes it under review and assigns themselves
	c, err = lifecycle.ApplyUpdate(ctx, c.ID, engine.UpdateRequest{
		Status:       "UNDER_REVIEW",
		AssignedToID: &officerID,
		Comment:      "Reviewing reported location",
		ActorID:      officerID,
	})
	if err != nil {
		t.Fatalf("Failed to apply update: %v", err)
	}
	if c.Status != domain.StatusUnderReview {
		t.Errorf("Expected status %s, got %s", domain.StatusUnderReview, c.Status)
	}

	// 3. Officer records an internal assessment
	_, err = lifecycle.ApplyUpdate(ctx, c.ID, engine.UpdateRequest{
		Comment:      "Suspected main line damage, may need contractor",
		InternalNote: true,
		ActorID:      officerID,
	})
	if err != nil {
		t.Fatalf("Failed to add internal note: %v", err)
	}

	// 4. Escalate to a supervisor
	c, err = lifecycle.ApplyUpdate(ctx, c.ID, engine.UpdateRequest{
		Status:        "ESCALATED",
		EscalatedToID: &supervisorID,
		Comment:       "Contractor approval needed",
		ActorID:       officerID,
	})
	if err != nil {
		t.Fatalf("Failed to escalate: %v", err)
	}
	if !c.Escalated {
		t.Error("Expected escalated flag to be set")
	}

	// 5. Resolve through the status-only path with a legacy alias
	c, err = lifecycle.SetStatus(ctx, c.ID, "in-progress")
	if err != nil {
		t.Fatalf("Failed to set status: %v", err)
	}
	if c.Status != domain.StatusInProgress {
		t.Errorf("Expected legacy alias to normalize, got %s", c.Status)
	}

	c, err = lifecycle.ApplyUpdate(ctx, c.ID, engine.UpdateRequest{
		Status:  "RESOLVED",
		Comment: "Pipe replaced, street cleaned",
		ActorID: officerID,
	})
	if err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}

	// 6. Status always matches the latest timeline entry
	full, err := lifecycle.GetTimeline(ctx, c.ID, true)
	if err != nil {
		t.Fatalf("Failed to load timeline: %v", err)
	}
	if len(full) != 6 {
		t.Fatalf("Expected 6 timeline entries, got %d", len(full))
	}
	if full[len(full)-1].Status != c.Status {
		t.Errorf("Status %s does not match latest entry %s", c.Status, full[len(full)-1].Status)
	}

	// 7. The citizen-facing timeline hides the internal note
	external, err := lifecycle.GetTimeline(ctx, c.ID, false)
	if err != nil {
		t.Fatalf("Failed to load external timeline: %v", err)
	}
	if len(external) != 5 {
		t.Fatalf("Expected 5 external entries, got %d", len(external))
	}

	// 8. Projections resolve display names
	loaded, _ := lifecycle.GetByID(ctx, c.ID)
	resp := complaintapi.NewComplaintResponse(loaded)
	if resp.Username != "mira" {
		t.Errorf("Expected owner username, got %q", resp.Username)
	}
	if resp.AssignedTo != "officer1" {
		t.Errorf("Expected assignee username, got %q", resp.AssignedTo)
	}
	if resp.EscalatedTo != "supervisor" {
		t.Errorf("Expected escalation target username, got %q", resp.EscalatedTo)
	}

	entries := complaintapi.NewTimelineResponses(external)
	if entries[0].UpdatedBy != complaintapi.SystemDisplayName {
		t.Errorf("Submission entry should display as system, got %q", entries[0].UpdatedBy)
	}
	if entries[1].UpdatedBy != "officer1" {
		t.Errorf("Expected officer username on update entry, got %q", entries[1].UpdatedBy)
	}

	// 9. The owner was notified of every status change
	count, _ := notifRepo.UnreadCount(ctx, citizenID)
	if count == 0 {
		t.Error("Expected the owner to have unread notifications")
	}
	supCount, _ := notifRepo.UnreadCount(ctx, supervisorID)
	if supCount != 1 {
		t.Errorf("Expected 1 escalation notification for supervisor, got %d", supCount)
	}
}

// TestAnonymousWorkflow tests that anonymous complaints flow through
// the lifecycle without any identity
func TestAnonymousWorkflow(t *testing.T) {
	ctx := context.Background()

	dir := user.NewMemoryDirectory()
	repo := infrastructure.NewMemoryRepository()
	repo.ResolveUsername = dir.Username
	lifecycle := engine.New(repo, dir, discardStore{}, nil, nil)

	c, err := lifecycle.Submit(ctx, engine.SubmitRequest{
		Category:    "Noise",
		Description: "Construction noise after permitted hours",
		Urgency:     "MEDIUM",
		Anonymous:   true,
	})
	if err != nil {
		t.Fatalf("Failed to submit: %v", err)
	}

	if _, err := lifecycle.SetStatus(ctx, c.ID, "CLOSED"); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	loaded, _ := lifecycle.GetByID(ctx, c.ID)
	resp := complaintapi.NewComplaintResponse(loaded)
	if resp.Username != complaintapi.AnonymousDisplayName {
		t.Errorf("Expected %q, got %q", complaintapi.AnonymousDisplayName, resp.Username)
	}
	if resp.Status != string(domain.StatusClosed) {
		t.Errorf("Expected status CLOSED, got %s", resp.Status)
	}
}
