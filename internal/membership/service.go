// internal/membership/service.go
package membership

import "context"

// Service defines the user directory operations a branch exposes.
type Service interface {
	Add(user *User) error
	Get(login string) (*User, bool)
	Has(login string) bool
	Remove(login string) bool
	Users() []*User
	Authenticate(ctx context.Context, login, password string) (*User, error)
}

var _ Service = (*Registry)(nil)
