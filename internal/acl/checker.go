package acl

import "errors"

// Action is something a user may try to do to a document.
type Action int

const (
	ActionRead Action = iota
	ActionAnnotate
	ActionWrite
	ActionShare
	ActionDelete
)

var actionNames = map[Action]string{
	ActionRead:     "read",
	ActionAnnotate: "annotate",
	ActionWrite:    "write",
	ActionShare:    "share",
	ActionDelete:   "delete",
}

// minRole is the weakest role allowed to perform each action.
var minRole = map[Action]Role{
	ActionRead:     Viewer,
	ActionAnnotate: Commenter,
	ActionWrite:    Editor,
	ActionShare:    Owner,
	ActionDelete:   Owner,
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}

	return "unknown"
}

// Allows reports whether r may perform a. Unknown actions are never allowed.
func (r Role) Allows(a Action) bool {
	least, ok := minRole[a]

	return ok && r >= least
}

// Checker answers permission questions from the roles in a RoleReader.
type Checker struct {
	roles RoleReader
}

// NewChecker creates a checker over roles.
func NewChecker(roles RoleReader) *Checker {
	return &Checker{roles: roles}
}

// CanPerform reports whether userID may perform action on docID. A user
// without a grant can do nothing.
func (c *Checker) CanPerform(docID, userID string, action Action) (bool, error) {
	role, err := c.roles.GetRole(docID, userID)

	switch {
	case errors.Is(err, ErrPermissionNotFound):
		return false, nil
	case err != nil:
		return false, err
	}

	return role.Allows(action), nil
}

// RequirePermission returns ErrAccessDenied unless the action is allowed.
func (c *Checker) RequirePermission(docID, userID string, action Action) error {
	allowed, err := c.CanPerform(docID, userID, action)
	if err != nil {
		return err
	}

	if !allowed {
		return ErrAccessDenied
	}

	return nil
}
