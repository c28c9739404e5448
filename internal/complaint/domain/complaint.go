package domain

import (
	"fmt"
	"time"

	"github.com/resolveit/platform/internal/shared/types"
)

// Status defines the lifecycle status of a complaint
type Status string

const (
	StatusNew         Status = "NEW"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusInProgress  Status = "IN_PROGRESS"
	StatusEscalated   Status = "ESCALATED"
	StatusResolved    Status = "RESOLVED"
	StatusClosed      Status = "CLOSED"
)

// System-generated timeline comments recorded at submission
const (
	CommentAnonymousSubmitted = "Anonymous complaint submitted"
	CommentSubmitted          = "Complaint submitted"
)

// Complaint is the aggregate root for the complaint lifecycle. Every
// mutation appends exactly one TimelineEntry carrying the resulting
// status, so the current status always equals the latest entry's status.
type Complaint struct {
	ID          types.ID `json:"id"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Urgency     string   `json:"urgency"`
	Status      Status   `json:"status"`

	// Ownership. Anonymous complaints never carry an owner.
	Anonymous bool      `json:"anonymous"`
	OwnerID   *types.ID `json:"owner_id,omitempty"`

	// Staff handling
	AssignedTo  *types.ID  `json:"assigned_to,omitempty"`
	Escalated   bool       `json:"escalated"`
	EscalatedTo *types.ID  `json:"escalated_to,omitempty"`
	EscalatedAt *time.Time `json:"escalated_at,omitempty"`

	AttachmentPath string `json:"attachment_path,omitempty"`

	// Display names, denormalized by the repository for projection
	OwnerUsername      string `json:"-"`
	AssignedToUsername string `json:"-"`
	EscalatedToUsername string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Timeline entries loaded with the aggregate
	Timeline []TimelineEntry `json:"timeline,omitempty"`

	// Entries appended since load, persisted with the next Save/Update
	pendingEntries []TimelineEntry
}

// NewComplaint creates a new complaint with validation. An anonymous
// complaint discards any owner reference; an identified complaint takes
// the owner only when one is supplied, so unauthenticated submissions
// still succeed.
func NewComplaint(category, description, urgency string, anonymous bool, ownerID *types.ID) (*Complaint, error) {
	if category == "" {
		return nil, fmt.Errorf("category is required")
	}
	if description == "" {
		return nil, fmt.Errorf("description is required")
	}
	if urgency == "" {
		return nil, fmt.Errorf("urgency is required")
	}

	if anonymous {
		ownerID = nil
	}

	now := time.Now()
	c := &Complaint{
		ID:          types.NewID(),
		Category:    category,
		Description: description,
		Urgency:     urgency,
		Status:      StatusNew,
		Anonymous:   anonymous,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	comment := CommentSubmitted
	if anonymous {
		comment = CommentAnonymousSubmitted
	}
	c.appendEntry(comment, false, nil)

	return c, nil
}

// UpdateParams carries the changes requested by a staff update. A zero
// Status leaves the current status in place.
type UpdateParams struct {
	Status       Status
	AssignedTo   *types.ID
	EscalatedTo  *types.ID
	Comment      string
	InternalNote bool
	ActorID      *types.ID
}

// Update applies the requested changes and appends one timeline entry
// carrying the resulting status. Assignment overwrites unconditionally;
// escalation sets the escalated flag and stamps the time, overwriting
// any previous escalation target.
func (c *Complaint) Update(p UpdateParams) {
	if p.Status != "" {
		c.Status = p.Status
	}

	if p.AssignedTo != nil {
		c.AssignedTo = p.AssignedTo
	}

	if p.EscalatedTo != nil {
		now := time.Now()
		c.Escalated = true
		c.EscalatedTo = p.EscalatedTo
		c.EscalatedAt = &now
	}

	c.UpdatedAt = time.Now()
	c.appendEntry(p.Comment, p.InternalNote, p.ActorID)
}

// ApplyStatus applies a status-only change and appends a matching
// system entry, keeping the latest-entry invariant for the narrow path.
func (c *Complaint) ApplyStatus(status Status) {
	if status != "" {
		c.Status = status
	}
	c.UpdatedAt = time.Now()
	c.appendEntry("", false, nil)
}

// PendingEntries returns timeline entries appended since the aggregate
// was loaded. The repository persists them together with the complaint
// in a single transaction.
func (c *Complaint) PendingEntries() []TimelineEntry {
	return c.pendingEntries
}

// ClearPending discards pending entries after they have been committed
func (c *Complaint) ClearPending() {
	c.pendingEntries = nil
}

// appendEntry records a snapshot of the current status. A nil updatedBy
// marks the entry as system-generated.
func (c *Complaint) appendEntry(comment string, internalNote bool, updatedBy *types.ID) {
	entry := TimelineEntry{
		ID:           types.NewID(),
		ComplaintID:  c.ID,
		Status:       c.Status,
		Comment:      comment,
		InternalNote: internalNote,
		UpdatedBy:    updatedBy,
		Timestamp:    time.Now(),
	}

	c.Timeline = append(c.Timeline, entry)
	c.pendingEntries = append(c.pendingEntries, entry)
}
