package domain

import (
	"context"

	"github.com/resolveit/platform/internal/shared/types"
)

// Repository defines the interface for complaint persistence. Save and
// Update commit the complaint row and its pending timeline entries in
// one transaction, so a reader never observes a complaint whose status
// disagrees with its latest entry.
type Repository interface {
	Save(ctx context.Context, c *Complaint) error
	Update(ctx context.Context, c *Complaint) error
	FindByID(ctx context.Context, id types.ID) (*Complaint, error)

	List(ctx context.Context) ([]Complaint, error)
	FindByOwner(ctx context.Context, ownerID types.ID) ([]Complaint, error)
	FindByStatus(ctx context.Context, status Status) ([]Complaint, error)
	FindByCategory(ctx context.Context, category string) ([]Complaint, error)
	FindByUrgency(ctx context.Context, urgency string) ([]Complaint, error)

	// Timeline returns entries ordered by timestamp ascending. When
	// includeInternal is false, internal notes are excluded entirely.
	Timeline(ctx context.Context, complaintID types.ID, includeInternal bool) ([]TimelineEntry, error)
}
