// internal/circulation/domain.go
package circulation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"librabranch/internal/apperr"
	"librabranch/internal/media"
	"librabranch/internal/membership"
)

const (
	// MaxLoans is the number of open loans a user may hold at once.
	MaxLoans = 6
	// MaxLoanDays is the longest loan period that can be requested.
	MaxLoanDays = 14
)

var (
	ErrNilUser              = fmt.Errorf("%w: user is nil", apperr.ErrInvalidArgument)
	ErrNilItem              = fmt.Errorf("%w: item is nil", apperr.ErrInvalidArgument)
	ErrNilLoan              = fmt.Errorf("%w: loan is nil", apperr.ErrInvalidArgument)
	ErrNilReservation       = fmt.Errorf("%w: reservation is nil", apperr.ErrInvalidArgument)
	ErrNilFine              = fmt.Errorf("%w: fine is nil", apperr.ErrInvalidArgument)
	ErrNilMessage           = fmt.Errorf("%w: message is nil", apperr.ErrInvalidArgument)
	ErrInvalidLoanPeriod    = fmt.Errorf("%w: loan period out of range", apperr.ErrInvalidArgument)
	ErrItemNotInCatalog     = fmt.Errorf("%w: item not in catalog", apperr.ErrInvalidArgument)
	ErrItemUnavailable      = fmt.Errorf("%w: item not available", apperr.ErrInvalidArgument)
	ErrItemAvailable        = fmt.Errorf("%w: item is available", apperr.ErrInvalidArgument)
	ErrLoanLimit            = fmt.Errorf("%w: loan limit reached", apperr.ErrInvalidArgument)
	ErrNoLoans              = fmt.Errorf("%w: user has no loans", apperr.ErrInvalidArgument)
	ErrUnknownLoan          = fmt.Errorf("%w: loan not found", apperr.ErrInvalidArgument)
	ErrAlreadyReturned      = fmt.Errorf("%w: loan already returned", apperr.ErrInvalidArgument)
	ErrDuplicateReservation = fmt.Errorf("%w: item already reserved by user", apperr.ErrInvalidArgument)
	ErrAlreadyHolding       = fmt.Errorf("%w: user already holds the item", apperr.ErrInvalidArgument)
	ErrNoReservations       = fmt.Errorf("%w: user has no reservations", apperr.ErrInvalidArgument)
	ErrUnknownReservation   = fmt.Errorf("%w: reservation not found", apperr.ErrInvalidArgument)
	ErrFineInactive         = fmt.Errorf("%w: fine already cancelled", apperr.ErrInvalidArgument)
	ErrNoFines              = fmt.Errorf("%w: user has no fines", apperr.ErrInvalidArgument)
	ErrUnknownFine          = fmt.Errorf("%w: fine not found", apperr.ErrInvalidArgument)
	ErrEmptyMessage         = fmt.Errorf("%w: message text is empty", apperr.ErrInvalidArgument)
	ErrUnknownMessage       = fmt.Errorf("%w: message not found", apperr.ErrInvalidArgument)
	ErrAlreadyRead          = fmt.Errorf("%w: message already read", apperr.ErrInvalidArgument)
	ErrUnknownUser          = fmt.Errorf("%w: user not registered", apperr.ErrInvalidArgument)
	ErrOpenLoans            = fmt.Errorf("%w: user has open loans", apperr.ErrInvalidArgument)
)

// Loan is one borrowing of an item by a user.
type Loan struct {
	id       uuid.UUID
	user     *membership.User
	item     *media.Item
	start    time.Time
	due      time.Time
	returned time.Time
	notified bool
}

func (l *Loan) ID() uuid.UUID { return l.id }
func (l *Loan) User() *membership.User { return l.user }
func (l *Loan) Item() *media.Item { return l.item }
func (l *Loan) Start() time.Time { return l.start }
func (l *Loan) Due() time.Time { return l.due }

// ReturnedAt reports the return time, or false while the loan is open.
func (l *Loan) ReturnedAt() (time.Time, bool) {
	return l.returned, !l.returned.IsZero()
}

// Open reports whether the item has not been returned yet.
func (l *Loan) Open() bool { return l.returned.IsZero() }

// Notified reports whether the borrower has been fined for this loan.
func (l *Loan) Notified() bool { return l.notified }

// Overdue reports whether the loan is still open past its due time.
func (l *Loan) Overdue(now time.Time) bool {
	return l.Open() && now.After(l.due)
}

// Reservation is a user's request to borrow an item once it is returned. Two reservations
// are the same when they name the same user and the same copy.
type Reservation struct {
	id      uuid.UUID
	user    *membership.User
	item    *media.Item
	created time.Time
}

func (r *Reservation) ID() uuid.UUID { return r.id }
func (r *Reservation) User() *membership.User { return r.user }
func (r *Reservation) Item() *media.Item { return r.item }
func (r *Reservation) Created() time.Time { return r.created }

func (r *Reservation) matches(login string, item *media.Item) bool {
	return r.user.Login() == login && r.item == item
}

// Fine penalizes a late return. A loan carries at most one.
type Fine struct {
	id     uuid.UUID
	loan   *Loan
	issued time.Time
	active bool
}

func (f *Fine) ID() uuid.UUID { return f.id }
func (f *Fine) Loan() *Loan { return f.loan }
func (f *Fine) User() *membership.User { return f.loan.user }
func (f *Fine) Issued() time.Time { return f.issued }
func (f *Fine) Active() bool { return f.active }

// Message is a notification addressed to one user.
type Message struct {
	id        uuid.UUID
	recipient *membership.User
	text      string
	sent      time.Time
	read      bool
}

func (m *Message) ID() uuid.UUID { return m.id }
func (m *Message) Recipient() *membership.User { return m.recipient }
func (m *Message) Text() string { return m.text }
func (m *Message) Sent() time.Time { return m.sent }
func (m *Message) Read() bool { return m.read }
