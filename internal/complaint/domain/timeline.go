package domain

import (
	"time"

	"github.com/resolveit/platform/internal/shared/types"
)

// TimelineEntry is one record in a complaint's append-only audit trail.
// Entries are created only as a side effect of lifecycle operations and
// are never edited or deleted.
type TimelineEntry struct {
	ID          types.ID `json:"id"`
	ComplaintID types.ID `json:"complaint_id"`

	// Status is the complaint's status at the moment this entry was
	// recorded, not necessarily different from the previous entry's.
	Status Status `json:"status"`

	Comment string `json:"comment"`

	// InternalNote entries are visible to staff only
	InternalNote bool `json:"internal_note"`

	// UpdatedBy is absent for system-generated entries
	UpdatedBy *types.ID `json:"updated_by,omitempty"`

	// Display name, denormalized by the repository for projection
	UpdatedByUsername string `json:"-"`

	Timestamp time.Time `json:"timestamp"`
}
