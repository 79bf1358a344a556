// internal/membership/implementation.go
package membership

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrTooManyAttempts = errors.New("membership: too many login attempts")

// DefaultAttemptsPerMinute bounds login attempts per login when no option overrides it.
const DefaultAttemptsPerMinute = 5

// Registry is the user directory of one branch, keyed by login. Access must be serialized by
// the owner.
type Registry struct {
	users    map[string]*User
	limiters map[string]*rate.Limiter
	perMin   int
	logger   *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithAttemptsPerMinute sets the login throttle. Values below one keep the default.
func WithAttemptsPerMinute(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.perMin = n
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		users:    make(map[string]*User),
		limiters: make(map[string]*rate.Limiter),
		perMin:   DefaultAttemptsPerMinute,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers user under its login.
func (r *Registry) Add(user *User) error {
	if user == nil {
		return ErrNilUser
	}
	if _, ok := r.users[user.login]; ok {
		return ErrDuplicateUser
	}

	r.users[user.login] = user
	r.logger.Info("user registered", zap.String("login", user.login), zap.Stringer("profile", user.profile))
	return nil
}

func (r *Registry) Get(login string) (*User, bool) {
	u, ok := r.users[login]
	return u, ok
}

func (r *Registry) Has(login string) bool {
	_, ok := r.users[login]
	return ok
}

// Remove deletes the user and its throttle state.
func (r *Registry) Remove(login string) bool {
	if _, ok := r.users[login]; !ok {
		return false
	}
	delete(r.users, login)
	delete(r.limiters, login)
	return true
}

// Users returns every user sorted by login.
func (r *Registry) Users() []*User {
	users := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].login < users[j].login })
	return users
}

// Authenticate verifies a user's credentials. A failed login returns a nil user and no error;
// an exhausted throttle returns ErrTooManyAttempts.
func (r *Registry) Authenticate(ctx context.Context, login, password string) (*User, error) {
	if !r.limiter(login).Allow() {
		r.logger.Warn("login throttled", zap.String("login", login))
		return nil, ErrTooManyAttempts
	}

	u, ok := r.users[login]
	if !ok || !u.CheckPassword(password) {
		r.logger.Info("login rejected", zap.String("login", login))
		return nil, nil
	}

	return u, nil
}

func (r *Registry) limiter(login string) *rate.Limiter {
	l, ok := r.limiters[login]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(r.perMin)), r.perMin)
		r.limiters[login] = l
	}
	return l
}
