// internal/branch/session.go
package branch

import (
	"context"
	"errors"
	"fmt"

	"librabranch/internal/membership"
)

var (
	ErrNotLoggedIn = errors.New("branch: no user logged in")
	ErrForbidden   = errors.New("branch: permission denied")
)

// Session tracks who is working at which branch. It replaces any process-wide notion of a
// current branch or user; each caller holds its own.
type Session struct {
	branch *Branch
	user   *membership.User
}

func NewSession(b *Branch) *Session {
	return &Session{branch: b}
}

func (s *Session) Branch() *Branch { return s.branch }

// User returns the logged in user, or nil.
func (s *Session) User() *membership.User { return s.user }

// Login authenticates against the session's branch. It reports false on bad credentials.
func (s *Session) Login(ctx context.Context, login, password string) (bool, error) {
	u, err := s.branch.Authenticate(ctx, login, password)
	if err != nil {
		return false, fmt.Errorf("failed to authenticate: %w", err)
	}
	if u == nil {
		return false, nil
	}
	s.user = u
	return true, nil
}

func (s *Session) Logout() { s.user = nil }

// Can reports whether the logged in user holds perm.
func (s *Session) Can(perm membership.Permission) bool {
	return s.user != nil && s.user.Can(perm)
}

// Require is Can as an error for guarding operations.
func (s *Session) Require(perm membership.Permission) error {
	if s.user == nil {
		return ErrNotLoggedIn
	}
	if !s.user.Can(perm) {
		return fmt.Errorf("%w: %s lacks %s", ErrForbidden, s.user.Login(), perm)
	}
	return nil
}
