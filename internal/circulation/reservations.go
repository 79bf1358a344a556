// internal/circulation/reservations.go
package circulation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"librabranch/internal/media"
	"librabranch/internal/membership"
)

// AddReservation queues user for item. The current borrower, if any, is asked to return it.
func (l *Ledger) AddReservation(ctx context.Context, user *membership.User, item *media.Item) (*Reservation, error) {
	if user == nil {
		return nil, ErrNilUser
	}
	if item == nil {
		return nil, ErrNilItem
	}

	_, span := l.tracer.Start(ctx, "circulation.add_reservation",
		trace.WithAttributes(
			attribute.String("user.login", user.Login()),
			attribute.String("item.id", item.ID().String()),
		),
	)
	defer span.End()

	if l.findReservation(user.Login(), item) != nil {
		return nil, fail(span, ErrDuplicateReservation)
	}
	if item.State() == media.Available {
		return nil, fail(span, fmt.Errorf("%w: %s can be borrowed now", ErrItemAvailable, item))
	}
	if l.HasOnLoan(user, item) {
		return nil, fail(span, ErrAlreadyHolding)
	}

	r := &Reservation{
		id:      uuid.New(),
		user:    user,
		item:    item,
		created: l.clock(),
	}
	l.reservations[user.Login()] = append(l.reservations[user.Login()], r)

	if loan, ok := l.OpenLoanFor(item); ok {
		l.notify(loan.user, fmt.Sprintf("Another user has reserved '%s'; please return it as soon as possible", item.Title()))
	}

	l.metrics.reservations.Add(ctx, 1)
	l.logger.Info("reservation placed", zap.String("login", user.Login()), zap.Stringer("item", item))

	return r, nil
}

// RemoveReservation cancels a reservation.
func (l *Ledger) RemoveReservation(ctx context.Context, reservation *Reservation) error {
	if reservation == nil {
		return ErrNilReservation
	}

	_, span := l.tracer.Start(ctx, "circulation.remove_reservation",
		trace.WithAttributes(attribute.String("user.login", reservation.user.Login())),
	)
	defer span.End()

	if _, ok := l.reservations[reservation.user.Login()]; !ok {
		return fail(span, ErrNoReservations)
	}
	existing := l.findReservation(reservation.user.Login(), reservation.item)
	if existing == nil {
		return fail(span, ErrUnknownReservation)
	}

	l.dropReservation(existing)
	return nil
}

// WithdrawItem cancels the reservations on an item that has left the catalog and tells the
// reservers. It returns how many were cancelled; an item still in the catalog keeps its queue.
func (l *Ledger) WithdrawItem(ctx context.Context, item *media.Item) int {
	if item == nil || l.inventory.Has(item) {
		return 0
	}

	pending := l.ReservationsFor(item)
	if len(pending) == 0 {
		return 0
	}

	_, span := l.tracer.Start(ctx, "circulation.withdraw_item",
		trace.WithAttributes(attribute.String("item.id", item.ID().String())),
	)
	defer span.End()

	for _, r := range pending {
		l.dropReservation(r)
		l.notify(r.user, fmt.Sprintf("'%s' is no longer in the catalog; your reservation has been cancelled", item.Title()))
	}
	span.SetAttributes(attribute.Int("reservations.cancelled", len(pending)))
	l.logger.Info("reservations cancelled for withdrawn item",
		zap.Stringer("item", item),
		zap.Int("count", len(pending)),
	)
	return len(pending)
}

// Reservations returns every reservation, grouped by login.
func (l *Ledger) Reservations() []*Reservation {
	return flatten(l.reservations)
}

// ReservationsOf returns the user's reservations; false means none were ever placed.
func (l *Ledger) ReservationsOf(user *membership.User) ([]*Reservation, bool) {
	if user == nil {
		return nil, false
	}
	return bucketOf(l.reservations, user.Login())
}

// ReservationsFor returns the reservations naming item, oldest first per user.
func (l *Ledger) ReservationsFor(item *media.Item) []*Reservation {
	var out []*Reservation
	for _, r := range l.Reservations() {
		if r.item == item {
			out = append(out, r)
		}
	}
	return out
}

func (l *Ledger) findReservation(login string, item *media.Item) *Reservation {
	for _, r := range l.reservations[login] {
		if r.matches(login, item) {
			return r
		}
	}
	return nil
}

func (l *Ledger) dropReservation(r *Reservation) {
	login := r.user.Login()
	l.reservations[login] = without(l.reservations[login], r)
}
