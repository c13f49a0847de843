package types

import "fmt"

// Role names what a keypair is used for.
type Role string

const (
	RoleRoot         Role = "root"
	RoleIntermediate Role = "intermediate"
	RoleJournalist   Role = "journalist"
	RoleChallenge    Role = "challenge"
	RoleEphemeral    Role = "ephemeral"
	RoleMessage      Role = "message"
	RoleSource       Role = "source"
)

// String returns the string form of the role.
func (r Role) String() string { return string(r) }

// KeyRef addresses a persisted keypair by role and index. Index is ignored
// for the root and intermediate roles.
type KeyRef struct {
	Role  Role
	Index int
}

// String returns a short human readable form, e.g. "journalist/3".
func (r KeyRef) String() string {
	switch r.Role {
	case RoleRoot, RoleIntermediate:
		return r.Role.String()
	default:
		return fmt.Sprintf("%s/%d", r.Role, r.Index)
	}
}

// JournalistUID is the server-assigned journalist identifier.
type JournalistUID string

// String returns the string form of the uid.
func (u JournalistUID) String() string { return string(u) }

// MessageID is the opaque, unguessable server-assigned message identifier.
type MessageID string

// String returns the string form of the message id.
func (id MessageID) String() string { return string(id) }

// SessionID identifies a discovery challenge session.
type SessionID string

// String returns the string form of the session id.
func (id SessionID) String() string { return string(id) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }
