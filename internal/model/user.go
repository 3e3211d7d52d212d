package model

import "time"

// Role names known to the system.  The role universe is fixed and created at
// startup by the seeding procedures.
const (
    RoleAdmin = "Admin"
    RoleUser  = "User"
)

// User represents an application user record as stored in the `users`
// table, together with the names of the roles linked through `user_roles`.
//
// Fields:
//  ID           - primary key identifier of the user.
//  UserName     - unique login name.
//  PasswordHash - bcrypt hashed password.
//  Roles        - role names assigned to the user.
//  CreatedAt    - timestamp of creation.
//  UpdatedAt    - timestamp of last update.
type User struct {
    ID           int64     // users.id
    UserName     string    // users.user_name
    PasswordHash string    // users.password_hash
    Roles        []string  // roles.name via user_roles
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// Role represents a row in the `roles` table.
type Role struct {
    ID   int64  // roles.id
    Name string // roles.name
}
