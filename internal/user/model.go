package user

import (
	"time"

	"github.com/resolveit/platform/internal/shared/types"
)

// User is a registered account: a submitter or a staff member. The
// lifecycle engine consumes users only as resolved identities for
// ownership, assignment and escalation.
type User struct {
	ID           types.ID  `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
