// internal/circulation/users.go
package circulation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"librabranch/internal/membership"
)

// DeleteUser removes a user without open loans, purging every bucket kept for it.
func (l *Ledger) DeleteUser(ctx context.Context, user *membership.User) error {
	if user == nil {
		return ErrNilUser
	}

	_, span := l.tracer.Start(ctx, "circulation.delete_user",
		trace.WithAttributes(attribute.String("user.login", user.Login())),
	)
	defer span.End()

	login := user.Login()
	if !l.directory.Has(login) {
		return fail(span, fmt.Errorf("%w: %s", ErrUnknownUser, login))
	}
	if n := len(l.OpenLoansOf(user)); n > 0 {
		return fail(span, fmt.Errorf("%w: %d", ErrOpenLoans, n))
	}

	delete(l.loans, login)
	delete(l.fines, login)
	delete(l.messages, login)
	delete(l.reservations, login)
	l.directory.Remove(login)

	l.logger.Info("user deleted", zap.String("login", login))
	return nil
}
