// Package engine is the single authority for mutating a complaint's
// status, assignment and escalation. Every accepted mutation is paired
// with exactly one timeline entry, committed atomically by the
// repository.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/resolveit/platform/internal/complaint/domain"
	"github.com/resolveit/platform/internal/shared/errors"
	"github.com/resolveit/platform/internal/shared/events"
	"github.com/resolveit/platform/internal/shared/metrics"
	"github.com/resolveit/platform/internal/shared/types"
	"github.com/resolveit/platform/internal/user"
)

// AttachmentStore persists raw attachment bytes and returns an opaque
// reference stored verbatim on the complaint.
type AttachmentStore interface {
	Store(ctx context.Context, data []byte, originalName string) (string, error)
}

// Notifier receives lifecycle notifications. Implementations are
// best-effort; they must never fail a lifecycle operation.
type Notifier interface {
	StatusChanged(ctx context.Context, c *domain.Complaint, from, to domain.Status)
	Assigned(ctx context.Context, c *domain.Complaint, assignedTo types.ID)
	Escalated(ctx context.Context, c *domain.Complaint, escalatedTo types.ID)
}

// Engine validates and applies complaint lifecycle operations
type Engine struct {
	repo        domain.Repository
	users       user.Directory
	attachments AttachmentStore
	bus         events.Publisher
	notifier    Notifier

	// Serializes writers per complaint within this process. Entries
	// are never evicted, so the map grows with the set of complaints
	// written during the process lifetime.
	// TODO: evict idle locks if long-lived deployments make this matter
	locks sync.Map
}

// New creates a lifecycle engine. bus and notifier may be nil.
func New(repo domain.Repository, users user.Directory, attachments AttachmentStore, bus events.Publisher, notifier Notifier) *Engine {
	return &Engine{
		repo:        repo,
		users:       users,
		attachments: attachments,
		bus:         bus,
		notifier:    notifier,
	}
}

// Upload carries raw attachment bytes for a submission
type Upload struct {
	Data         []byte
	OriginalName string
}

// SubmitRequest carries a new complaint submission. SubmitterID is the
// authenticated caller when one exists; submission never fails solely
// for lack of identity.
type SubmitRequest struct {
	Category    string
	Description string
	Urgency     string
	Anonymous   bool
	SubmitterID *types.ID
	Attachment  *Upload
}

// Submit files a new complaint. The attachment is stored first so a
// storage failure aborts before any state is persisted. The result is a
// complaint with status NEW and exactly one timeline entry.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*domain.Complaint, error) {
	if req.Category == "" || req.Description == "" || req.Urgency == "" {
		return nil, errors.Validation("category, description and urgency are required", nil)
	}

	ownerID := req.SubmitterID
	if !req.Anonymous && ownerID != nil {
		if _, err := e.users.FindByID(ctx, *ownerID); err != nil {
			return nil, err
		}
	}

	c, err := domain.NewComplaint(req.Category, req.Description, req.Urgency, req.Anonymous, ownerID)
	if err != nil {
		return nil, errors.Validation(err.Error(), nil)
	}

	if req.Attachment != nil && len(req.Attachment.Data) > 0 {
		path, err := e.attachments.Store(ctx, req.Attachment.Data, req.Attachment.OriginalName)
		if err != nil {
			return nil, errors.Storage(err, "failed to store attachment")
		}
		c.AttachmentPath = path
	}

	if err := e.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	c.ClearPending()

	metrics.RecordComplaintSubmitted(c.Category, c.Anonymous)
	metrics.RecordTimelineEntry()
	e.publish(ctx, events.TypeComplaintSubmitted, c, req.SubmitterID)

	return c, nil
}

// UpdateRequest carries a staff update. Any subset of status,
// assignment and escalation may be requested; the comment and internal
// flag always apply to the single resulting timeline entry.
type UpdateRequest struct {
	Status        string
	AssignedToID  *types.ID
	EscalatedToID *types.ID
	Comment       string
	InternalNote  bool
	ActorID       types.ID
}

// ApplyUpdate applies the requested changes to a complaint and appends
// one timeline entry carrying the resulting status. An unrecognized
// status string is ignored rather than rejected; unresolvable user
// references fail with NotFound before anything is applied.
func (e *Engine) ApplyUpdate(ctx context.Context, id types.ID, req UpdateRequest) (*domain.Complaint, error) {
	unlock := e.lock(id)
	defer unlock()

	c, err := e.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prevStatus := c.Status

	params := domain.UpdateParams{
		Comment:      req.Comment,
		InternalNote: req.InternalNote,
	}
	if !req.ActorID.IsZero() {
		actorID := req.ActorID
		params.ActorID = &actorID
	}

	if req.Status != "" {
		if status, ok := domain.ParseStatus(req.Status); ok {
			params.Status = status
		}
	}

	if req.AssignedToID != nil {
		assignee, err := e.users.FindByID(ctx, *req.AssignedToID)
		if err != nil {
			return nil, err
		}
		params.AssignedTo = &assignee.ID
	}

	if req.EscalatedToID != nil {
		target, err := e.users.FindByID(ctx, *req.EscalatedToID)
		if err != nil {
			return nil, err
		}
		params.EscalatedTo = &target.ID
	}

	c.Update(params)

	if err := e.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	c.ClearPending()

	metrics.RecordTimelineEntry()
	if c.Status != prevStatus {
		metrics.RecordStatusChange(string(prevStatus), string(c.Status))
	}
	if params.EscalatedTo != nil {
		metrics.RecordEscalation()
		e.publish(ctx, events.TypeComplaintEscalated, c, &req.ActorID)
	} else {
		e.publish(ctx, events.TypeComplaintUpdated, c, &req.ActorID)
	}

	if e.notifier != nil {
		if c.Status != prevStatus {
			e.notifier.StatusChanged(ctx, c, prevStatus, c.Status)
		}
		if params.AssignedTo != nil {
			e.notifier.Assigned(ctx, c, *params.AssignedTo)
		}
		if params.EscalatedTo != nil {
			e.notifier.Escalated(ctx, c, *params.EscalatedTo)
		}
	}

	return c, nil
}

// SetStatus is the narrow status-only path. The status string is
// normalized the same way as in ApplyUpdate; an unrecognized value
// leaves the status unchanged but a matching timeline entry is still
// appended, preserving the latest-entry invariant.
func (e *Engine) SetStatus(ctx context.Context, id types.ID, status string) (*domain.Complaint, error) {
	unlock := e.lock(id)
	defer unlock()

	c, err := e.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prevStatus := c.Status

	parsed, _ := domain.ParseStatus(status)
	c.ApplyStatus(parsed)

	if err := e.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	c.ClearPending()

	metrics.RecordTimelineEntry()
	if c.Status != prevStatus {
		metrics.RecordStatusChange(string(prevStatus), string(c.Status))
	}
	e.publish(ctx, events.TypeComplaintUpdated, c, nil)

	if e.notifier != nil && c.Status != prevStatus {
		e.notifier.StatusChanged(ctx, c, prevStatus, c.Status)
	}

	return c, nil
}

// GetByID returns a complaint by id
func (e *Engine) GetByID(ctx context.Context, id types.ID) (*domain.Complaint, error) {
	return e.repo.FindByID(ctx, id)
}

// GetMine returns the complaints owned by a user
func (e *Engine) GetMine(ctx context.Context, ownerID types.ID) ([]domain.Complaint, error) {
	return e.repo.FindByOwner(ctx, ownerID)
}

// GetAll returns all complaints
func (e *Engine) GetAll(ctx context.Context) ([]domain.Complaint, error) {
	return e.repo.List(ctx)
}

// Filter honors exactly one criterion, checked status first, then
// category, then urgency. A status value that fails to normalize falls
// back to returning all complaints rather than an empty set; this
// mirrors the behavior clients have depended on.
func (e *Engine) Filter(ctx context.Context, status, category, urgency string) ([]domain.Complaint, error) {
	if status != "" {
		if parsed, ok := domain.ParseStatus(status); ok {
			return e.repo.FindByStatus(ctx, parsed)
		}
		return e.repo.List(ctx)
	}
	if category != "" {
		return e.repo.FindByCategory(ctx, category)
	}
	if urgency != "" {
		return e.repo.FindByUrgency(ctx, urgency)
	}
	return e.repo.List(ctx)
}

// GetTimeline returns a complaint's timeline ordered by timestamp
// ascending. When includeInternal is false, internal notes are excluded
// entirely rather than redacted.
func (e *Engine) GetTimeline(ctx context.Context, complaintID types.ID, includeInternal bool) ([]domain.TimelineEntry, error) {
	return e.repo.Timeline(ctx, complaintID, includeInternal)
}

func (e *Engine) lock(id types.ID) func() {
	v, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (e *Engine) publish(ctx context.Context, eventType string, c *domain.Complaint, actorID *types.ID) {
	if e.bus == nil {
		return
	}

	event := events.NewEvent(eventType, "complaint-engine", map[string]any{
		"complaint_id": c.ID,
		"status":       c.Status,
		"category":     c.Category,
		"escalated":    c.Escalated,
	})
	actorType := "system"
	if actorID != nil && !actorID.IsZero() {
		actorType = "staff"
		event = event.WithActor(*actorID, actorType)
	}

	if err := e.bus.Publish(ctx, event); err != nil {
		// Event streaming is best-effort, never part of the atomic unit
		fmt.Printf("Warning: failed to publish %s: %v\n", eventType, err)
	}
}
