// internal/circulation/service.go
package circulation

import (
	"context"

	"librabranch/internal/media"
	"librabranch/internal/membership"
)

// Service defines the lending operations a branch exposes.
type Service interface {
	RequestLoan(ctx context.Context, user *membership.User, item *media.Item, days int) (*Loan, error)
	ReturnLoan(ctx context.Context, loan *Loan) error
	AddReservation(ctx context.Context, user *membership.User, item *media.Item) (*Reservation, error)
	RemoveReservation(ctx context.Context, reservation *Reservation) error
	WithdrawItem(ctx context.Context, item *media.Item) int
	FineUser(ctx context.Context, loan *Loan) (bool, error)
	CancelFine(ctx context.Context, fine *Fine) error
	DeleteUser(ctx context.Context, user *membership.User) error
	ScanOverdue(ctx context.Context) (int, error)
}

// Inventory is the catalog membership check the ledger needs.
type Inventory interface {
	Has(item *media.Item) bool
}

// Directory is the user registry the ledger purges on user deletion.
type Directory interface {
	Has(login string) bool
	Remove(login string) bool
}

var _ Service = (*Ledger)(nil)
