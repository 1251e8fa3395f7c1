package acl_test

import (
	"errors"
	"testing"

	"github.com/serroba/richdocs/internal/acl"
	"github.com/stretchr/testify/require"
)

func TestAction_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action   acl.Action
		expected string
	}{
		{acl.ActionRead, "read"},
		{acl.ActionAnnotate, "annotate"},
		{acl.ActionWrite, "write"},
		{acl.ActionShare, "share"},
		{acl.ActionDelete, "delete"},
		{acl.Action(99), "unknown"},
	}

	for _, tt := range tests {
		if tt.action.String() != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, tt.action.String())
		}
	}
}

func TestChecker_CanPerform(t *testing.T) {
	t.Parallel()

	actions := []acl.Action{acl.ActionRead, acl.ActionAnnotate, acl.ActionWrite, acl.ActionShare, acl.ActionDelete}

	tests := []struct {
		role     acl.Role
		expected []bool
	}{
		{acl.Viewer, []bool{true, false, false, false, false}},
		{acl.Commenter, []bool{true, true, false, false, false}},
		{acl.Editor, []bool{true, true, true, false, false}},
		{acl.Owner, []bool{true, true, true, true, true}},
	}

	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			t.Parallel()

			store := acl.NewMemoryStore()
			require.NoError(t, store.Grant("doc1", "user1", tt.role))

			checker := acl.NewChecker(store)

			for i, action := range actions {
				allowed, err := checker.CanPerform("doc1", "user1", action)
				require.NoError(t, err)

				if allowed != tt.expected[i] {
					t.Errorf("action %s: expected %v, got %v", action, tt.expected[i], allowed)
				}
			}
		})
	}
}

func TestChecker_CanPerform_NoPermission(t *testing.T) {
	t.Parallel()

	checker := acl.NewChecker(acl.NewMemoryStore())

	allowed, err := checker.CanPerform("doc1", "user1", acl.ActionRead)
	require.NoError(t, err)

	if allowed {
		t.Error("expected false for user with no permission")
	}
}

func TestChecker_CanPerform_UnknownAction(t *testing.T) {
	t.Parallel()

	store := acl.NewMemoryStore()
	require.NoError(t, store.Grant("doc1", "user1", acl.Owner))

	allowed, err := acl.NewChecker(store).CanPerform("doc1", "user1", acl.Action(99))
	require.NoError(t, err)

	if allowed {
		t.Error("expected false for unknown action")
	}
}

func TestChecker_RequirePermission(t *testing.T) {
	t.Parallel()

	store := acl.NewMemoryStore()
	require.NoError(t, store.Grant("doc1", "editor", acl.Editor))
	require.NoError(t, store.Grant("doc1", "commenter", acl.Commenter))

	checker := acl.NewChecker(store)

	require.NoError(t, checker.RequirePermission("doc1", "editor", acl.ActionWrite))
	require.NoError(t, checker.RequirePermission("doc1", "commenter", acl.ActionAnnotate))

	for _, user := range []string{"commenter", "stranger"} {
		err := checker.RequirePermission("doc1", user, acl.ActionWrite)
		if !errors.Is(err, acl.ErrAccessDenied) {
			t.Errorf("%s: expected ErrAccessDenied, got %v", user, err)
		}
	}
}

// failingRoles is a RoleReader whose lookups fail.
type failingRoles struct {
	err error
}

func (f *failingRoles) GetRole(_, _ string) (acl.Role, error)              { return 0, f.err }
func (f *failingRoles) ListPermissions(_ string) ([]acl.Permission, error) { return nil, f.err }

func TestChecker_StoreError(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("store error")
	checker := acl.NewChecker(&failingRoles{err: storeErr})

	_, err := checker.CanPerform("doc1", "user1", acl.ActionRead)
	if !errors.Is(err, storeErr) {
		t.Errorf("expected store error, got %v", err)
	}

	err = checker.RequirePermission("doc1", "user1", acl.ActionRead)
	if !errors.Is(err, storeErr) {
		t.Errorf("expected store error, got %v", err)
	}
}

func TestRole_AllowsUnknownAction(t *testing.T) {
	t.Parallel()

	for _, role := range []acl.Role{acl.Viewer, acl.Commenter, acl.Editor, acl.Owner} {
		if role.Allows(acl.Action(99)) {
			t.Errorf("%s allows an unknown action", role)
		}
	}
}
