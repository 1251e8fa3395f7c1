package acl

import "errors"

var (
	ErrPermissionNotFound = errors.New("permission not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrUnknownRole        = errors.New("unknown role")
)

// RoleReader looks up grants. GetRole returns ErrPermissionNotFound for a
// user without one; ListPermissions is ordered by user ID.
type RoleReader interface {
	GetRole(docID, userID string) (Role, error)
	ListPermissions(docID string) ([]Permission, error)
}

// RoleWriter changes grants. Grant replaces any existing role and Revoke
// returns ErrPermissionNotFound when there is nothing to remove.
type RoleWriter interface {
	Grant(docID, userID string, role Role) error
	Revoke(docID, userID string) error
	RevokeAll(docID string) error
}

// Store persists the roles users hold on documents.
type Store interface {
	RoleReader
	RoleWriter
}
