// internal/membership/domain.go
package membership

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"librabranch/internal/apperr"
)

var (
	ErrNilUser       = fmt.Errorf("%w: user is nil", apperr.ErrInvalidArgument)
	ErrEmptyLogin    = fmt.Errorf("%w: login is empty", apperr.ErrInvalidArgument)
	ErrDuplicateUser = fmt.Errorf("%w: login already registered", apperr.ErrInvalidArgument)
	ErrUnknownUser   = fmt.Errorf("%w: login not registered", apperr.ErrInvalidArgument)
)

// Permission is a capability a profile grants.
type Permission int

const (
	PermSubscriptions Permission = iota + 1
	PermViewMedia
	PermLoan
	PermReserve
	PermFines
	PermSearch
	PermManageMedia
	PermManageLoans
	PermViewUsers
	PermManageUsers
	PermManageCards
	PermManageFines
	PermManageReservations
)

var permissionNames = map[Permission]string{
	PermSubscriptions:      "subscriptions",
	PermViewMedia:          "view-media",
	PermLoan:               "loan",
	PermReserve:            "reserve",
	PermFines:              "fines",
	PermSearch:             "search",
	PermManageMedia:        "manage-media",
	PermManageLoans:        "manage-loans",
	PermViewUsers:          "view-users",
	PermManageUsers:        "manage-users",
	PermManageCards:        "manage-cards",
	PermManageFines:        "manage-fines",
	PermManageReservations: "manage-reservations",
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("permission(%d)", int(p))
}

// Profile determines what a user may do.
type Profile int

const (
	Patron Profile = iota + 1
	Librarian
)

var patronPermissions = []Permission{
	PermSubscriptions, PermViewMedia, PermLoan, PermReserve, PermFines, PermSearch,
}

// Permissions lists what the profile grants. Librarians hold every permission.
func (p Profile) Permissions() []Permission {
	switch p {
	case Librarian:
		all := make([]Permission, 0, len(permissionNames))
		for perm := range permissionNames {
			all = append(all, perm)
		}
		sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
		return all
	case Patron:
		return append([]Permission(nil), patronPermissions...)
	default:
		return nil
	}
}

// Allows reports whether the profile grants perm.
func (p Profile) Allows(perm Permission) bool {
	for _, granted := range p.Permissions() {
		if granted == perm {
			return true
		}
	}
	return false
}

func (p Profile) String() string {
	switch p {
	case Librarian:
		return "librarian"
	case Patron:
		return "patron"
	default:
		return "unknown"
	}
}

// User is a library account. The login is its identity.
type User struct {
	ID         uuid.UUID
	Name       string
	Surname    string
	NationalID string

	login         string
	profile       Profile
	passwordHash  string
	salt          string
	subscriptions map[string]struct{}
}

// NewUser creates a user with a freshly salted password hash.
func NewUser(login, password string, profile Profile) (*User, error) {
	if login == "" {
		return nil, ErrEmptyLogin
	}

	u := &User{
		ID:            uuid.New(),
		login:         login,
		profile:       profile,
		subscriptions: make(map[string]struct{}),
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) Login() string { return u.login }
func (u *User) Profile() Profile { return u.profile }
func (u *User) String() string { return u.login }

// Can reports whether the user's profile grants perm.
func (u *User) Can(perm Permission) bool { return u.profile.Allows(perm) }

// SetPassword replaces the stored hash and salt.
func (u *User) SetPassword(password string) error {
	hash, salt, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.passwordHash, u.salt = hash, salt
	return nil
}

// CheckPassword compares password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	ok, err := verifyPassword(password, u.salt, u.passwordHash)
	return err == nil && ok
}

// Subscribe records a periodical subscription and reports whether it was new.
func (u *User) Subscribe(name string) bool {
	if _, ok := u.subscriptions[name]; ok || name == "" {
		return false
	}
	u.subscriptions[name] = struct{}{}
	return true
}

func (u *User) Unsubscribe(name string) bool {
	if _, ok := u.subscriptions[name]; !ok {
		return false
	}
	delete(u.subscriptions, name)
	return true
}

func (u *User) IsSubscribed(name string) bool {
	_, ok := u.subscriptions[name]
	return ok
}

// Subscriptions returns the subscription names sorted.
func (u *User) Subscriptions() []string {
	names := make([]string, 0, len(u.subscriptions))
	for name := range u.subscriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
