// README: Common identifier type shared across modules.
package types

import "github.com/google/uuid"

type ID string

// NewID returns a fresh random identifier (UUIDv4).
func NewID() ID {
	return ID(uuid.NewString())
}

func (id ID) IsZero() bool { return id == "" }
