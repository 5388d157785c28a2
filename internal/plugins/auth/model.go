// Package auth authenticates API clients. Every /api/v1 request carries a
// Bearer API key; the key's role decides whether it may change data.
// Keys are stored bcrypt-hashed and looked up by an 8-character prefix.
package auth

import "time"

// Role is the permission level attached to an API key.
type Role string

const (
	// RoleAdmin may read and write every collection.
	RoleAdmin Role = "admin"

	// RoleReporter may only read.
	RoleReporter Role = "reporter"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleReporter
}

// APIKey is a registered key. The raw key is never stored.
type APIKey struct {
	ID         int        `json:"id"`
	KeyPrefix  string     `json:"key_prefix"`
	KeyHash    string     `json:"-"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	IsActive   bool       `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CanWrite reports whether the key may create, update or delete rows.
func (k *APIKey) CanWrite() bool {
	return k.Role == RoleAdmin
}

// CreateKeyRequest is the JSON body for POST /api/v1/keys.
type CreateKeyRequest struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// CreateKeyResult carries the plaintext key, which is shown exactly once.
type CreateKeyResult struct {
	Key    *APIKey `json:"key"`
	RawKey string  `json:"raw_key"`
}

// Identity is returned by GET /api/v1/me so a client can learn its role.
type Identity struct {
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	KeyPrefix string `json:"key_prefix"`
}
