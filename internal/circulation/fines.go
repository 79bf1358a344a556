// internal/circulation/fines.go
package circulation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"librabranch/internal/membership"
)

// FineUser fines the borrower of loan. It reports false when the loan was already fined.
func (l *Ledger) FineUser(ctx context.Context, loan *Loan) (bool, error) {
	if loan == nil {
		return false, ErrNilLoan
	}

	_, span := l.tracer.Start(ctx, "circulation.fine_user",
		trace.WithAttributes(
			attribute.String("loan.id", loan.id.String()),
			attribute.String("user.login", loan.user.Login()),
		),
	)
	defer span.End()

	login := loan.user.Login()
	for _, f := range l.fines[login] {
		if f.loan == loan {
			span.SetAttributes(attribute.Bool("fine.duplicate", true))
			return false, nil
		}
	}

	fine := &Fine{
		id:     uuid.New(),
		loan:   loan,
		issued: l.clock(),
		active: true,
	}
	l.fines[login] = append(l.fines[login], fine)
	loan.notified = true
	l.notify(loan.user, fmt.Sprintf("You have been fined for the late return of '%s'", loan.item.Title()))

	l.metrics.finesIssued.Add(ctx, 1)
	l.logger.Info("fine issued", zap.String("login", login), zap.Stringer("item", loan.item))

	return true, nil
}

// CancelFine deactivates an active fine and tells its user.
func (l *Ledger) CancelFine(ctx context.Context, fine *Fine) error {
	if fine == nil {
		return ErrNilFine
	}

	_, span := l.tracer.Start(ctx, "circulation.cancel_fine",
		trace.WithAttributes(attribute.String("fine.id", fine.id.String())),
	)
	defer span.End()

	if !fine.active {
		return fail(span, ErrFineInactive)
	}
	bucket, ok := l.fines[fine.User().Login()]
	if !ok {
		return fail(span, ErrNoFines)
	}
	if !contains(bucket, fine) {
		return fail(span, ErrUnknownFine)
	}

	fine.active = false
	l.notify(fine.User(), fmt.Sprintf("The fine on '%s' has been cancelled", fine.loan.item.Title()))
	l.logger.Info("fine cancelled", zap.String("login", fine.User().Login()))

	return nil
}

// FinesOf returns the user's fines; false means the user was never fined.
func (l *Ledger) FinesOf(user *membership.User) ([]*Fine, bool) {
	if user == nil {
		return nil, false
	}
	return bucketOf(l.fines, user.Login())
}
