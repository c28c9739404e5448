package api

import (
	"time"

	"github.com/resolveit/platform/internal/complaint/domain"
)

// displayTimeFormat is the fixed format for human-readable timeline
// timestamps; the stored timestamp keeps full precision.
const displayTimeFormat = "2006-01-02 15:04:05"

// AnonymousDisplayName is shown whenever no owner can be named
const AnonymousDisplayName = "Anonymous"

// SystemDisplayName is shown for system-generated timeline entries
const SystemDisplayName = "System"

// ComplaintResponse is the flat projection of a complaint served to
// clients. It is a pure function of the domain entity.
type ComplaintResponse struct {
	ID             string     `json:"id"`
	Category       string     `json:"category"`
	Description    string     `json:"description"`
	Urgency        string     `json:"urgency"`
	Status         string     `json:"status"`
	Username       string     `json:"username"`
	Anonymous      bool       `json:"anonymous"`
	AttachmentPath string     `json:"attachmentPath,omitempty"`
	AssignedTo     string     `json:"assignedTo,omitempty"`
	Escalated      bool       `json:"escalated"`
	EscalatedTo    string     `json:"escalatedTo,omitempty"`
	EscalatedAt    *time.Time `json:"escalatedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// NewComplaintResponse projects a complaint for display
func NewComplaintResponse(c *domain.Complaint) ComplaintResponse {
	username := AnonymousDisplayName
	if !c.Anonymous && c.OwnerUsername != "" {
		username = c.OwnerUsername
	}

	return ComplaintResponse{
		ID:             c.ID.String(),
		Category:       c.Category,
		Description:    c.Description,
		Urgency:        c.Urgency,
		Status:         string(c.Status),
		Username:       username,
		Anonymous:      c.Anonymous,
		AttachmentPath: c.AttachmentPath,
		AssignedTo:     c.AssignedToUsername,
		Escalated:      c.Escalated,
		EscalatedTo:    c.EscalatedToUsername,
		EscalatedAt:    c.EscalatedAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// NewComplaintResponses projects a list of complaints
func NewComplaintResponses(complaints []domain.Complaint) []ComplaintResponse {
	responses := make([]ComplaintResponse, 0, len(complaints))
	for i := range complaints {
		responses = append(responses, NewComplaintResponse(&complaints[i]))
	}
	return responses
}

// TimelineEntryResponse is the display projection of a timeline entry
type TimelineEntryResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Comment      string `json:"comment"`
	InternalNote bool   `json:"internalNote"`
	UpdatedBy    string `json:"updatedByUsername"`
	Timestamp    string `json:"timestamp"`
}

// NewTimelineEntryResponse projects a timeline entry for display
func NewTimelineEntryResponse(entry *domain.TimelineEntry) TimelineEntryResponse {
	updatedBy := SystemDisplayName
	if entry.UpdatedBy != nil && entry.UpdatedByUsername != "" {
		updatedBy = entry.UpdatedByUsername
	}

	return TimelineEntryResponse{
		ID:           entry.ID.String(),
		Status:       string(entry.Status),
		Comment:      entry.Comment,
		InternalNote: entry.InternalNote,
		UpdatedBy:    updatedBy,
		Timestamp:    entry.Timestamp.Format(displayTimeFormat),
	}
}

// NewTimelineResponses projects a timeline
func NewTimelineResponses(entries []domain.TimelineEntry) []TimelineEntryResponse {
	responses := make([]TimelineEntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, NewTimelineEntryResponse(&entries[i]))
	}
	return responses
}
