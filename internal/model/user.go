package model

import (
	"github.com/google/uuid"
)

// User is a read-only projection of the identity service's user record.
// The portal core never creates or mutates users; it only resolves
// display data and roles.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Role      string    `db:"role" json:"role"`
	Specialty string    `db:"specialty" json:"specialty,omitempty"`
}
