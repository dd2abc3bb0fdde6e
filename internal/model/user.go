package model

import "time"

// User represents a registered member of the rehearsal service.
// Nicknames are unique and are the identity used throughout the
// room/session domain: sessions store the participant's nickname
// and alerts are addressed by nickname.
//
// Fields:
//
//	ID           – primary key identifier.
//	Email        – unique login email.
//	PasswordHash – bcrypt hash of the password.
//	Nickname     – unique public name, referenced by sessions and alerts.
//	Role         – MEMBER, STAFF or ADMIN.
//	MannerScore  – textual manner rating; starts as "ROOKIE" and becomes
//	               a numeric string once the user has been evaluated.
//	Badges       – mood-maker badge count from post-rehearsal evaluations.
//	IsActive     – whether the account is active.
//	CreatedAt    – creation timestamp.
//	UpdatedAt    – last update timestamp.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Nickname     string    // users.nickname
    Role         string    // users.role
    MannerScore  string    // users.manner_score
    Badges       uint32    // users.badges
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
