package api

import "time"

// Permission is one of the five independent capability kinds a grant or
// share link carries. The server checks each kind on its own; holding
// PermissionAdmin does not imply the others, and the client must not
// assume any hierarchy.
type Permission string

// Permission kinds accepted by the server.
const (
	PermissionRead   Permission = "read"
	PermissionWrite  Permission = "write"
	PermissionDelete Permission = "delete"
	PermissionShare  Permission = "share"
	PermissionAdmin  Permission = "admin"
)

// ParsePermission validates a permission kind string.
// Returns the typed kind and whether it is one of the known kinds.
func ParsePermission(s string) (Permission, bool) {
	switch Permission(s) {
	case PermissionRead, PermissionWrite, PermissionDelete, PermissionShare, PermissionAdmin:
		return Permission(s), true
	default:
		return "", false
	}
}

// User is an identity record returned by login, register, and /auth/me.
// Immutable on the client; only re-fetching refreshes it.
type User struct {
	ID        string
	Username  string
	Email     string
	FullName  string
	Role      string
	IsActive  bool
	CreatedAt time.Time
}

// Document is a node in the folder/document tree. IsFolder discriminates
// files from folders; ParentFolderID is empty at the root. Fields are
// normalized from the wire response; callers never see raw API data.
type Document struct {
	ID             string
	Name           string
	Description    string
	FilePath       string
	FileSize       int64
	MimeType       string
	Version        int
	Status         string
	OwnerID        string
	ParentFolderID string
	IsFolder       bool
	Tags           []string
	Metadata       map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      time.Time // zero unless soft-deleted
}

// Grant is a per-document permission record.
// ExpiresAt is zero for grants without an expiry.
type Grant struct {
	ID         string
	DocumentID string
	UserID     string
	Permission Permission
	GrantedBy  string
	GrantedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the grant has an expiry in the past relative to
// now. Display only; the server re-validates on every access.
func (g Grant) Expired(now time.Time) bool {
	return !g.ExpiresAt.IsZero() && g.ExpiresAt.Before(now)
}

// ShareLink is a token-gated public access grant to one document. Every
// field is a snapshot: expiry, password gating, and access-count exhaustion
// are enforced by the server at resolve time, never by the client.
type ShareLink struct {
	ID             string
	DocumentID     string
	Token          string
	CreatedBy      string
	Permission     Permission
	HasPassword    bool
	MaxAccessCount int // 0 = unlimited
	AccessCount    int
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// SearchHit is a denormalized, read-only projection of a document from the
// search index. Timestamps arrive as Unix seconds.
type SearchHit struct {
	ID          string
	Name        string
	Description string
	MimeType    string
	OwnerID     string
	IsFolder    bool
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EditorConfig is the signed configuration blob the OnlyOffice editor
// consumes. The client passes Config through untouched.
type EditorConfig struct {
	Config map[string]any
	Token  string
	Server string
}
