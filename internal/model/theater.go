package model

import "time"

// Theater represents a venue.  A theater may be managed by one user; the
// manager is allowed to edit the theater but never to reassign it.  This
// struct corresponds to a row in the `theaters` table.
type Theater struct {
    ID        int64     // theaters.id
    Name      string    // theaters.name
    Address   string    // theaters.address
    SeatCount int       // theaters.seat_count
    ManagerID *int64    // theaters.manager_id (nullable, references users.id)
    CreatedAt time.Time // theaters.created_at
    UpdatedAt time.Time // theaters.updated_at
}

// ManagedBy reports whether userID is the theater's manager.
func (t *Theater) ManagedBy(userID int64) bool {
    return t.ManagerID != nil && *t.ManagerID == userID
}
