package types

import (
	"github.com/google/uuid"

	"github.com/denizaksoy/ovenline-backend/pkg/enums"
)

// Actor identifies who performed an operation. The id and role always travel
// together; role is never derived from the id.
type Actor struct {
	ID   uuid.UUID       `json:"id"`
	Role enums.ActorRole `json:"role"`
}

// Valid reports whether both halves of the pair are present.
func (a Actor) Valid() bool {
	return a.ID != uuid.Nil && a.Role.IsValid()
}
