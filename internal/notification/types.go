package notification

import (
	"time"

	"github.com/resolveit/platform/internal/shared/types"
)

// Kind classifies what a notification is about
type Kind string

const (
	KindStatusChange Kind = "status_change"
	KindAssignment   Kind = "assignment"
	KindEscalation   Kind = "escalation"
)

// Notification is an in-app notification for a user. Delivery through
// external channels is best-effort; the stored record is the source of
// truth for the unread list.
type Notification struct {
	ID          types.ID  `json:"id"`
	RecipientID types.ID  `json:"recipient_id"`
	ComplaintID *types.ID `json:"complaint_id,omitempty"`
	Kind        Kind      `json:"kind"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}
