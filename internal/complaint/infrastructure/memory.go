package infrastructure

import (
	"context"
	"sort"
	"sync"

	"github.com/resolveit/platform/internal/complaint/domain"
	"github.com/resolveit/platform/internal/shared/errors"
	"github.com/resolveit/platform/internal/shared/types"
)

// MemoryRepository is an in-memory domain.Repository used by tests and
// when running in limited mode without a database.
type MemoryRepository struct {
	mu         sync.RWMutex
	complaints map[types.ID]*domain.Complaint
	order      []types.ID
	timeline   map[types.ID][]domain.TimelineEntry

	// ResolveUsername fills display names on load; may be nil
	ResolveUsername func(types.ID) string
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		complaints: make(map[types.ID]*domain.Complaint),
		timeline:   make(map[types.ID][]domain.TimelineEntry),
	}
}

// Save stores a new complaint and its pending entries
func (r *MemoryRepository) Save(ctx context.Context, c *domain.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.complaints[c.ID]; exists {
		return errors.Conflict("complaint already exists")
	}

	stored := *c
	stored.ClearPending()
	r.complaints[c.ID] = &stored
	r.order = append(r.order, c.ID)
	r.timeline[c.ID] = append(r.timeline[c.ID], c.PendingEntries()...)
	return nil
}

// Update stores the complaint state and appends pending entries
func (r *MemoryRepository) Update(ctx context.Context, c *domain.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.complaints[c.ID]; !exists {
		return errors.NotFound("complaint", c.ID.String())
	}

	stored := *c
	stored.ClearPending()
	r.complaints[c.ID] = &stored
	r.timeline[c.ID] = append(r.timeline[c.ID], c.PendingEntries()...)
	return nil
}

// FindByID finds a complaint by ID
func (r *MemoryRepository) FindByID(ctx context.Context, id types.ID) (*domain.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.complaints[id]
	if !ok {
		return nil, errors.NotFound("complaint", id.String())
	}

	copied := *c
	r.resolveNames(&copied)
	return &copied, nil
}

// List returns all complaints in insertion order
func (r *MemoryRepository) List(ctx context.Context) ([]domain.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(*domain.Complaint) bool { return true }), nil
}

// FindByOwner returns complaints owned by a user
func (r *MemoryRepository) FindByOwner(ctx context.Context, ownerID types.ID) ([]domain.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(c *domain.Complaint) bool {
		return c.OwnerID != nil && *c.OwnerID == ownerID
	}), nil
}

// FindByStatus returns complaints with the given status
func (r *MemoryRepository) FindByStatus(ctx context.Context, status domain.Status) ([]domain.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(c *domain.Complaint) bool { return c.Status == status }), nil
}

// FindByCategory returns complaints in the given category
func (r *MemoryRepository) FindByCategory(ctx context.Context, category string) ([]domain.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(c *domain.Complaint) bool { return c.Category == category }), nil
}

// FindByUrgency returns complaints with the given urgency
func (r *MemoryRepository) FindByUrgency(ctx context.Context, urgency string) ([]domain.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(c *domain.Complaint) bool { return c.Urgency == urgency }), nil
}

// Timeline returns entries ordered by timestamp ascending
func (r *MemoryRepository) Timeline(ctx context.Context, complaintID types.ID, includeInternal bool) ([]domain.TimelineEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []domain.TimelineEntry
	for _, entry := range r.timeline[complaintID] {
		if !includeInternal && entry.InternalNote {
			continue
		}
		if r.ResolveUsername != nil && entry.UpdatedBy != nil {
			entry.UpdatedByUsername = r.ResolveUsername(*entry.UpdatedBy)
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

func (r *MemoryRepository) filter(keep func(*domain.Complaint) bool) []domain.Complaint {
	var result []domain.Complaint
	for _, id := range r.order {
		c := r.complaints[id]
		if keep(c) {
			copied := *c
			r.resolveNames(&copied)
			result = append(result, copied)
		}
	}
	return result
}

func (r *MemoryRepository) resolveNames(c *domain.Complaint) {
	if r.ResolveUsername == nil {
		return
	}
	if c.OwnerID != nil {
		c.OwnerUsername = r.ResolveUsername(*c.OwnerID)
	}
	if c.AssignedTo != nil {
		c.AssignedToUsername = r.ResolveUsername(*c.AssignedTo)
	}
	if c.EscalatedTo != nil {
		c.EscalatedToUsername = r.ResolveUsername(*c.EscalatedTo)
	}
}

var _ domain.Repository = (*MemoryRepository)(nil)
