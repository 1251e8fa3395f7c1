package acl

import "fmt"

// Role represents a user's access level for a document. Roles are ordered:
// each one includes everything the lower ones may do.
type Role int

const (
	// Viewer can only read the document.
	Viewer Role = iota
	// Commenter can read and attach or remove annotation spans.
	Commenter
	// Editor can also change text and formatting and undo or redo edits.
	Editor
	// Owner has full access: it can also share and delete.
	Owner
)

var roleNames = map[Role]string{
	Viewer:    "viewer",
	Commenter: "commenter",
	Editor:    "editor",
	Owner:     "owner",
}

// String returns the string representation of the role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}

	return "unknown"
}

// ParseRole returns the role named s.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if _, ok := roleNames[r]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, int(r))
	}

	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}

	*r = parsed

	return nil
}

// CanRead reports whether the role may read the document.
func (r Role) CanRead() bool { return r.Allows(ActionRead) }

// CanAnnotate reports whether the role may add and remove spans.
func (r Role) CanAnnotate() bool { return r.Allows(ActionAnnotate) }

// CanWrite reports whether the role may edit text and formatting.
func (r Role) CanWrite() bool { return r.Allows(ActionWrite) }

// CanShare reports whether the role may grant and revoke access.
func (r Role) CanShare() bool { return r.Allows(ActionShare) }

// CanDelete reports whether the role may delete the document.
func (r Role) CanDelete() bool { return r.Allows(ActionDelete) }

// Permission represents a user's access to a specific document.
type Permission struct {
	DocID  string `json:"docId"`
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}
