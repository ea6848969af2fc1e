package model

import "time"

// Role values stored in users.role. The column is an ENUM so no other
// value can be persisted.
const (
	RoleAdmin = "admin"
	RoleGuest = "guest"
)

// User represents a row in the `users` table. These structs are used
// internally by the repository layer; handlers define separate response
// types with the JSON tags they need.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  PasswordHash – bcrypt hashed password.
//  Role         – "admin" or "guest".
//  FirstName    – given name.
//  LastName     – family name.
//  NationalID   – unique national identity document number.
//  Birthdate    – date of birth, stored as DATE.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	NationalID   string    // users.national_id
	Birthdate    time.Time // users.birthdate
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user; only the SHA-256 hash of the raw
// token is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
