// internal/circulation/loans.go
package circulation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"librabranch/internal/media"
	"librabranch/internal/membership"
)

// RequestLoan lends item to user for the given number of days. A nil user or item yields no
// loan and no error.
func (l *Ledger) RequestLoan(ctx context.Context, user *membership.User, item *media.Item, days int) (*Loan, error) {
	if user == nil || item == nil {
		return nil, nil
	}

	_, span := l.tracer.Start(ctx, "circulation.request_loan",
		trace.WithAttributes(
			attribute.String("user.login", user.Login()),
			attribute.String("item.id", item.ID().String()),
			attribute.Int("loan.days", days),
		),
	)
	defer span.End()

	if days < 1 || days > MaxLoanDays {
		return nil, fail(span, fmt.Errorf("%w: %d days", ErrInvalidLoanPeriod, days))
	}
	if !l.inventory.Has(item) {
		return nil, fail(span, ErrItemNotInCatalog)
	}
	if item.State() != media.Available || l.openLoans[item] != nil {
		return nil, fail(span, fmt.Errorf("%w: %s is %s", ErrItemUnavailable, item, item.State()))
	}
	if n := len(l.OpenLoansOf(user)); n >= MaxLoans {
		return nil, fail(span, fmt.Errorf("%w: %d open loans", ErrLoanLimit, n))
	}
	if err := media.Transition(item, media.Loaned); err != nil {
		return nil, fail(span, fmt.Errorf("failed to lend item: %w", err))
	}

	now := l.clock()
	loan := &Loan{
		id:    uuid.New(),
		user:  user,
		item:  item,
		start: now,
		due:   now.Add(time.Duration(days) * 24 * time.Hour),
	}
	l.loans[user.Login()] = append(l.loans[user.Login()], loan)
	l.openLoans[item] = loan

	for _, r := range l.reservations[user.Login()] {
		if r.item == item {
			l.dropReservation(r)
		}
	}

	l.metrics.loansIssued.Add(ctx, 1)
	span.SetAttributes(attribute.String("loan.id", loan.id.String()))
	l.logger.Info("loan granted",
		zap.String("login", user.Login()),
		zap.Stringer("item", item),
		zap.Time("due", loan.due),
	)

	return loan, nil
}

// ReturnLoan closes an open loan, frees the item and tells every user holding a reservation
// on it.
func (l *Ledger) ReturnLoan(ctx context.Context, loan *Loan) error {
	if loan == nil {
		return ErrNilLoan
	}

	_, span := l.tracer.Start(ctx, "circulation.return_loan",
		trace.WithAttributes(
			attribute.String("loan.id", loan.id.String()),
			attribute.String("user.login", loan.user.Login()),
		),
	)
	defer span.End()

	bucket, ok := l.loans[loan.user.Login()]
	if !ok {
		return fail(span, ErrNoLoans)
	}
	if !contains(bucket, loan) {
		return fail(span, ErrUnknownLoan)
	}
	if !loan.Open() {
		return fail(span, ErrAlreadyReturned)
	}
	if err := media.Transition(loan.item, media.Available); err != nil {
		return fail(span, fmt.Errorf("failed to release item: %w", err))
	}

	loan.returned = l.clock()
	delete(l.openLoans, loan.item)

	for _, r := range l.ReservationsFor(loan.item) {
		l.notify(r.user, fmt.Sprintf("One of your reservations is available: '%s'", loan.item.Title()))
	}

	l.metrics.loansReturned.Add(ctx, 1)
	l.logger.Info("loan returned",
		zap.String("login", loan.user.Login()),
		zap.Stringer("item", loan.item),
		zap.Bool("late", loan.returned.After(loan.due)),
	)

	return nil
}

// Loans returns every loan, grouped by login.
func (l *Ledger) Loans() []*Loan {
	return flatten(l.loans)
}

// LoansOf returns the user's loans; false means the user never borrowed anything.
func (l *Ledger) LoansOf(user *membership.User) ([]*Loan, bool) {
	if user == nil {
		return nil, false
	}
	return bucketOf(l.loans, user.Login())
}

// OpenLoansOf returns the user's loans not yet returned.
func (l *Ledger) OpenLoansOf(user *membership.User) []*Loan {
	if user == nil {
		return nil
	}
	var open []*Loan
	for _, loan := range l.loans[user.Login()] {
		if loan.Open() {
			open = append(open, loan)
		}
	}
	return open
}

// HasOnLoan reports whether user currently holds item.
func (l *Ledger) HasOnLoan(user *membership.User, item *media.Item) bool {
	loan, ok := l.OpenLoanFor(item)
	return ok && user != nil && loan.user.Login() == user.Login()
}

// OpenLoanFor returns the open loan of item, if any.
func (l *Ledger) OpenLoanFor(item *media.Item) (*Loan, bool) {
	loan, ok := l.openLoans[item]
	return loan, ok
}

func contains[V comparable](b []V, v V) bool {
	for _, existing := range b {
		if existing == v {
			return true
		}
	}
	return false
}
