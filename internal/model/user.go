package model

import "time"

// Roles stored in users.role.  Admins organize events and never book
// them; regular users book and never organize.
const (
    RoleUser  = "user"
    RoleAdmin = "admin"
)

// User represents a row in the `users` table.  PasswordHash is a bcrypt
// digest and must never be serialized.  ManagedEvents is populated from
// the managed_events join table for admins only: an admin may mutate an
// event iff its ID is in this set.
type User struct {
    ID            uint64    `json:"id"`
    Name          string    `json:"name"`
    Email         string    `json:"email"`
    PasswordHash  string    `json:"-"`
    Role          string    `json:"role"`
    ManagedEvents []uint64  `json:"managed_events,omitempty"`
    CreatedAt     time.Time `json:"created_at"`
    UpdatedAt     time.Time `json:"updated_at"`
}
