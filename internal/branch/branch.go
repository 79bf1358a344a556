// internal/branch/branch.go
package branch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"librabranch/internal/apperr"
	"librabranch/internal/catalog"
	"librabranch/internal/circulation"
	"librabranch/internal/exchange"
	"librabranch/internal/media"
	"librabranch/internal/membership"
	"librabranch/internal/search"
)

var (
	ErrEmptyName  = fmt.Errorf("%w: branch name is empty", apperr.ErrInvalidArgument)
	ErrMediaInUse = fmt.Errorf("%w: media is lent out", apperr.ErrInvalidArgument)
)

type options struct {
	logger       *zap.Logger
	meter        metric.Meter
	tracer       trace.Tracer
	clock        func() time.Time
	loginsPerMin int
}

// Option configures a Branch.
type Option func(*options)

// WithLogger sets the logger shared by the branch components.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMeter sets the meter the ledger and exchange record counters on.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithTracer sets the tracer for ledger and exchange spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithClock replaces the wall clock used for loan dates.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithLoginAttemptsPerMinute caps authentication attempts per login.
func WithLoginAttemptsPerMinute(n int) Option {
	return func(o *options) { o.loginsPerMin = n }
}

// Branch is one library site: its users, catalog, lending ledger and exchange with peers.
// Every operation runs under the branch lock, so check-then-act sequences such as granting
// a loan are atomic with respect to other callers.
type Branch struct {
	mu sync.Mutex

	name     string
	users    *membership.Registry
	catalog  *catalog.Catalog
	ledger   *circulation.Ledger
	exchange *exchange.Exchange
	logger   *zap.Logger
}

// New creates an empty branch.
func New(name string, opts ...Option) (*Branch, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With(zap.String("branch", name))

	users := membership.NewRegistry(
		membership.WithLogger(logger),
		membership.WithAttemptsPerMinute(o.loginsPerMin),
	)
	cat := catalog.New()

	ledgerOpts := []circulation.Option{circulation.WithLogger(logger)}
	exchangeOpts := []exchange.Option{exchange.WithLogger(logger)}
	if o.clock != nil {
		ledgerOpts = append(ledgerOpts, circulation.WithClock(o.clock))
	}
	if o.meter != nil {
		ledgerOpts = append(ledgerOpts, circulation.WithMeter(o.meter))
		exchangeOpts = append(exchangeOpts, exchange.WithMeter(o.meter))
	}
	if o.tracer != nil {
		ledgerOpts = append(ledgerOpts, circulation.WithTracer(o.tracer))
		exchangeOpts = append(exchangeOpts, exchange.WithTracer(o.tracer))
	}

	return &Branch{
		name:     name,
		users:    users,
		catalog:  cat,
		ledger:   circulation.NewLedger(cat, users, ledgerOpts...),
		exchange: exchange.New(name, cat, exchangeOpts...),
		logger:   logger,
	}, nil
}

// Name returns the branch name.
func (b *Branch) Name() string { return b.name }

// AddMedia puts item in the catalog, stamping this branch as its origin when it has none.
func (b *Branch) AddMedia(item *media.Item) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if item != nil && item.Origin() == "" {
		item.Set(media.AttrBranch, b.name)
	}
	return b.catalog.Add(item)
}

// RemoveMedia takes item out of the catalog and cancels its reservations. Items on loan or
// at another branch stay.
func (b *Branch) RemoveMedia(ctx context.Context, item *media.Item) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if item != nil && b.catalog.Has(item) && item.State() != media.Available {
		return false, fmt.Errorf("%w: %s is %s", ErrMediaInUse, item, item.State())
	}
	if !b.catalog.Remove(item) {
		return false, nil
	}
	b.ledger.WithdrawItem(ctx, item)
	return true, nil
}

// HasMedia reports whether item is in the catalog.
func (b *Branch) HasMedia(item *media.Item) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.catalog.Has(item)
}

// Media returns the catalog items grouped by kind.
func (b *Branch) Media() []*media.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.catalog.All()
}

// Search returns the catalog items matching filter.
func (b *Branch) Search(filter *search.Filter) []*media.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.catalog.Search(filter)
}

// AddUser registers user at this branch.
func (b *Branch) AddUser(user *membership.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.users.Add(user)
}

// User looks a user up by login.
func (b *Branch) User(login string) (*membership.User, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.users.Get(login)
}

// Users returns the registered users sorted by login.
func (b *Branch) Users() []*membership.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.users.Users()
}

// DeleteUser removes a user with no open loans together with its ledger records.
func (b *Branch) DeleteUser(ctx context.Context, user *membership.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.DeleteUser(ctx, user)
}

// Authenticate checks credentials against this branch's users.
func (b *Branch) Authenticate(ctx context.Context, login, password string) (*membership.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.users.Authenticate(ctx, login, password)
}

// RequestLoan lends item to user for the given number of days.
func (b *Branch) RequestLoan(ctx context.Context, user *membership.User, item *media.Item, days int) (*circulation.Loan, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.RequestLoan(ctx, user, item, days)
}

// ReturnLoan closes loan and makes its item Available again.
func (b *Branch) ReturnLoan(ctx context.Context, loan *circulation.Loan) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.ReturnLoan(ctx, loan)
}

// AddReservation queues user for an item that is not Available.
func (b *Branch) AddReservation(ctx context.Context, user *membership.User, item *media.Item) (*circulation.Reservation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.AddReservation(ctx, user, item)
}

// RemoveReservation cancels r.
func (b *Branch) RemoveReservation(ctx context.Context, r *circulation.Reservation) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.RemoveReservation(ctx, r)
}

// FineUser fines the borrower of loan once; false means a fine already exists.
func (b *Branch) FineUser(ctx context.Context, loan *circulation.Loan) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.FineUser(ctx, loan)
}

// CancelFine lifts an active fine.
func (b *Branch) CancelFine(ctx context.Context, fine *circulation.Fine) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.CancelFine(ctx, fine)
}

// ScanOverdue fines the borrowers of overdue loans not yet fined.
func (b *Branch) ScanOverdue(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.ScanOverdue(ctx)
}

// Loans returns every loan, grouped by login.
func (b *Branch) Loans() []*circulation.Loan {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.Loans()
}

// LoansOf returns the loans of user; false means none were ever made.
func (b *Branch) LoansOf(user *membership.User) ([]*circulation.Loan, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.LoansOf(user)
}

// OpenLoansOf returns the loans user has not returned.
func (b *Branch) OpenLoansOf(user *membership.User) []*circulation.Loan {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.OpenLoansOf(user)
}

// Reservations returns every reservation, grouped by login.
func (b *Branch) Reservations() []*circulation.Reservation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.Reservations()
}

// ReservationsOf returns the reservations of user; false means none were ever placed.
func (b *Branch) ReservationsOf(user *membership.User) ([]*circulation.Reservation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.ReservationsOf(user)
}

// FinesOf returns the fines of user; false means none were ever issued.
func (b *Branch) FinesOf(user *membership.User) ([]*circulation.Fine, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.FinesOf(user)
}

// SendMessage leaves a message for user.
func (b *Branch) SendMessage(user *membership.User, text string) (*circulation.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.AddMessage(user, text)
}

// MessagesOf returns the messages of user; false means none were ever sent.
func (b *Branch) MessagesOf(user *membership.User) ([]*circulation.Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.MessagesOf(user)
}

// ReadMessage marks msg as read.
func (b *Branch) ReadMessage(msg *circulation.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.ReadMessage(msg)
}

// MarkRead marks msg read when it belongs to user and reports whether it changed.
func (b *Branch) MarkRead(user *membership.User, msg *circulation.Message) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.MarkRead(user, msg)
}

// DeleteMessage removes msg from the messages of user.
func (b *Branch) DeleteMessage(user *membership.User, msg *circulation.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.DeleteMessage(user, msg)
}

// UnreadCount returns how many messages user has not read.
func (b *Branch) UnreadCount(user *membership.User) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.UnreadCount(user)
}

// Export sends items to a peer through the file at path. Reservations on items that left
// the catalog are cancelled.
func (b *Branch) Export(ctx context.Context, path string, items []*media.Item) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.exchange.Export(ctx, path, items); err != nil {
		return err
	}
	for _, it := range items {
		b.ledger.WithdrawItem(ctx, it)
	}
	return nil
}

// Import takes in the items of the file at path.
func (b *Branch) Import(ctx context.Context, path string) (exchange.Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exchange.Import(ctx, path)
}

// BorrowedFromPeers returns the catalog items owned by other branches.
func (b *Branch) BorrowedFromPeers() []*media.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exchange.BorrowedFromPeers()
}

// LentToPeers returns own items currently at another branch.
func (b *Branch) LentToPeers() []*media.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exchange.LentToPeers()
}
