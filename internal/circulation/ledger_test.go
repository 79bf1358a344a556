package circulation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"librabranch/internal/apperr"
	"librabranch/internal/catalog"
	"librabranch/internal/media"
	"librabranch/internal/membership"
)

type fixture struct {
	ctx     context.Context
	now     time.Time
	catalog *catalog.Catalog
	users   *membership.Registry
	ledger  *Ledger
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		ctx:     context.Background(),
		now:     time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC),
		catalog: catalog.New(),
		users:   membership.NewRegistry(),
	}
	opts = append([]Option{
		WithLogger(zaptest.NewLogger(t)),
		WithClock(func() time.Time { return f.now }),
	}, opts...)
	f.ledger = NewLedger(f.catalog, f.users, opts...)
	return f
}

func (f *fixture) user(t *testing.T, login string) *membership.User {
	t.Helper()
	u, err := membership.NewUser(login, "pw", membership.Patron)
	require.NoError(t, err)
	require.NoError(t, f.users.Add(u))
	return u
}

func (f *fixture) item(t *testing.T, title string) *media.Item {
	t.Helper()
	it := media.New(media.Book, media.Values{media.AttrTitle: title, media.AttrAuthor: "anon"})
	require.NoError(t, f.catalog.Add(it))
	return it
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func texts(msgs []*Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text()
	}
	return out
}

func TestRequestLoan(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "ana")
	dune := f.item(t, "Dune")

	loan, err := f.ledger.RequestLoan(f.ctx, ana, dune, 7)
	require.NoError(t, err)
	require.NotNil(t, loan)

	assert.Equal(t, media.Loaned, dune.State())
	assert.Equal(t, f.now, loan.Start())
	assert.Equal(t, f.now.Add(7*24*time.Hour), loan.Due())
	assert.True(t, loan.Open())
	assert.True(t, f.ledger.HasOnLoan(ana, dune))

	open, ok := f.ledger.OpenLoanFor(dune)
	require.True(t, ok)
	assert.Same(t, loan, open)

	loans, ok := f.ledger.LoansOf(ana)
	require.True(t, ok)
	assert.Equal(t, []*Loan{loan}, loans)
}

func TestRequestLoan_NilInputs(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "ana")
	dune := f.item(t, "Dune")

	loan, err := f.ledger.RequestLoan(f.ctx, nil, dune, 7)
	assert.NoError(t, err)
	assert.Nil(t, loan)

	loan, err = f.ledger.RequestLoan(f.ctx, ana, nil, 7)
	assert.NoError(t, err)
	assert.Nil(t, loan)

	_, ok := f.ledger.LoansOf(ana)
	assert.False(t, ok, "no bucket is created without a loan")
}

func TestRequestLoan_Rejections(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "ana")
	bea := f.user(t, "bea")
	dune := f.item(t, "Dune")
	stray := media.New(media.Book, media.Values{media.AttrTitle: "Stray"})

	tests := []struct {
		name string
		item *media.Item
		days int
		want error
	}{
		{"zero days", dune, 0, ErrInvalidLoanPeriod},
		{"too many days", dune, MaxLoanDays + 1, ErrInvalidLoanPeriod},
		{"not in catalog", stray, 7, ErrItemNotInCatalog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.RequestLoan(f.ctx, ana, tt.item, tt.days)
			require.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
			assert.Equal(t, media.Available, tt.item.State())
		})
	}

	_, err := f.ledger.RequestLoan(f.ctx, ana, dune, MaxLoanDays)
	require.NoError(t, err)

	_, err = f.ledger.RequestLoan(f.ctx, bea, dune, 3)
	require.ErrorIs(t, err, ErrItemUnavailable)
	_, err = f.ledger.RequestLoan(f.ctx, ana, dune, 3)
	require.ErrorIs(t, err, ErrItemUnavailable)
}

func TestRequestLoan_Limit(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "ana")

	for i := 0; i < MaxLoans; i++ {
		_, err := f.ledger.RequestLoan(f.ctx, ana, f.item(t, "book"), 7)
		require.NoError(t, err)
	}

	seventh := f.item(t, "one too many")
	loan, err := f.ledger.RequestLoan(f.ctx, ana, seventh, 7)
	require.ErrorIs(t, err, ErrLoanLimit)
	assert.Nil(t, loan)
	assert.Equal(t, media.Available, seventh.State())
	assert.Len(t, f.ledger.OpenLoansOf(ana), MaxLoans)

	require.NoError(t, f.ledger.ReturnLoan(f.ctx, f.ledger.OpenLoansOf(ana)[0]))
	_, err = f.ledger.RequestLoan(f.ctx, ana, seventh, 7)
	assert.NoError(t, err, "returned loans do not count towards the limit")
}

func TestReturnLoan(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "ana")
	dune := f.item(t, "Dune")

	loan, err := f.ledger.RequestLoan(f.ctx, ana, dune, 7)
	require.NoError(t, err)

	f.advance(48 * time.Hour)
	require.NoError(t, f.ledger.ReturnLoan(f.ctx, loan))

	at, ok := loan.ReturnedAt()
	require.True(t, ok)
	assert.Equal(t, f.now, at)
	assert.Equal(t, media.Available, dune.State())
	assert.False(t, f.ledger.HasOnLoan(ana, dune))

	err = f.ledger.ReturnLoan(f.ctx, loan)
	require.ErrorIs(t, err, ErrAlreadyReturned)
	assert.Equal(t, media.Available, dune.State())

	require.ErrorIs(t, f.ledger.ReturnLoan(f.ctx, nil), ErrNilLoan)
}

func TestReturnLoan_UnknownLoan(t *testing.T) {
	f := newFixture(t)
	other := newFixture(t)
	ana := f.user(t, "ana")

	foreign, err := other.ledger.RequestLoan(other.ctx, ana, other.item(t, "Emma"), 7)
	require.NoError(t, err)

	require.ErrorIs(t, f.ledger.ReturnLoan(f.ctx, foreign), ErrNoLoans)

	_, err = f.ledger.RequestLoan(f.ctx, ana, f.item(t, "Dune"), 7)
	require.NoError(t, err)
	require.ErrorIs(t, f.ledger.ReturnLoan(f.ctx, foreign), ErrUnknownLoan)
}

func TestReturnLoan_NotifiesReservers(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "ana")
	bea := f.user(t, "bea")
	cid := f.user(t, "cid")
	dune := f.item(t, "Dune")

	loan, err := f.ledger.RequestLoan(f.ctx, ana, dune, 7)
	require.NoError(t, err)

	_, err = f.ledger.AddReservation(f.ctx, bea, dune)
	require.NoError(t, err)
	_, err = f.ledger.AddReservation(f.ctx, cid, dune)
	require.NoError(t, err)

	anaMsgs, _ := f.ledger.MessagesOf(ana)
	assert.Len(t, anaMsgs, 2, "borrower is asked to return once per reservation")

	require.NoError(t, f.ledger.ReturnLoan(f.ctx, loan))

	for _, u := range []*membership.User{bea, cid} {
		msgs, ok := f.ledger.MessagesOf(u)
		require.True(t, ok)
		assert.Equal(t, []string{"One of your reservations is available: 'Dune'"}, texts(msgs))
	}
}

func TestRequestLoan_ConsumesOwnReservation(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "ana")
	bea := f.user(t, "bea")
	cid := f.user(t, "cid")
	dune := f.item(t, "Dune")

	loan, err := f.ledger.RequestLoan(f.ctx, ana, dune, 7)
	require.NoError(t, err)
	_, err = f.ledger.AddReservation(f.ctx, bea, dune)
	require.NoError(t, err)
	_, err = f.ledger.AddReservation(f.ctx, cid, dune)
	require.NoError(t, err)
	require.NoError(t, f.ledger.ReturnLoan(f.ctx, loan))

	_, err = f.ledger.RequestLoan(f.ctx, bea, dune, 7)
	require.NoError(t, err)

	beaRes, ok := f.ledger.ReservationsOf(bea)
	assert.True(t, ok)
	assert.Empty(t, beaRes)
	assert.Len(t, f.ledger.ReservationsFor(dune), 1, "other users keep their reservations")
}

func TestAddReservation_Rejections(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "ana")
	bea := f.user(t, "bea")
	dune := f.item(t, "Dune")

	_, err := f.ledger.AddReservation(f.ctx, bea, dune)
	require.ErrorIs(t, err, ErrItemAvailable)

	_, err = f.ledger.RequestLoan(f.ctx, ana, dune, 7)
	require.NoError(t, err)

	_, err = f.ledger.AddReservation(f.ctx, ana, dune)
	require.ErrorIs(t, err, ErrAlreadyHolding)

	_, err = f.ledger.AddReservation(f.ctx, bea, dune)
	require.NoError(t, err)
	_, err = f.ledger.AddReservation(f.ctx, bea, dune)
	require.ErrorIs(t, err, ErrDuplicateReservation)

	_, err = f.ledger.AddReservation(f.ctx, nil, dune)
	require.ErrorIs(t, err, ErrNilUser)
	_, err = f.ledger.AddReservation(f.ctx, bea, nil)
	require.ErrorIs(t, err, ErrNilItem)

	assert.Len(t, f.ledger.Reservations(), 1)
}

func TestRemoveReservation(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "ana")
	bea := f.user(t, "bea")
	dune := f.item(t, "Dune")

	_, err := f.ledger.RequestLoan(f.ctx, ana, dune, 7)
	require.NoError(t, err)

	other := newFixture(t)
	otherDune := other.item(t, "Dune")
	_, err = other.ledger.RequestLoan(other.ctx, other.user(t, "zed"), otherDune, 7)
	require.NoError(t, err)
	foreign, err := other.ledger.AddReservation(other.ctx, bea, otherDune)
	require.NoError(t, err)

	require.ErrorIs(t, f.ledger.RemoveReservation(f.ctx, foreign), ErrNoReservations)

	r, err := f.ledger.AddReservation(f.ctx, bea, dune)
	require.NoError(t, err)
	require.ErrorIs(t, f.ledger.RemoveReservation(f.ctx, foreign), ErrUnknownReservation)

	require.NoError(t, f.ledger.RemoveReservation(f.ctx, r))
	assert.Empty(t, f.ledger.ReservationsFor(dune))
	require.ErrorIs(t, f.ledger.RemoveReservation(f.ctx, r), ErrUnknownReservation)
	require.ErrorIs(t, f.ledger.RemoveReservation(f.ctx, nil), ErrNilReservation)
}

func TestWithdrawItem(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "ana")
	bea := f.user(t, "bea")
	dune := f.item(t, "Dune")

	loan, err := f.ledger.RequestLoan(f.ctx, ana, dune, 7)
	require.NoError(t, err)
	_, err = f.ledger.AddReservation(f.ctx, bea, dune)
	require.NoError(t, err)
	require.NoError(t, f.ledger.ReturnLoan(f.ctx, loan))

	assert.Zero(t, f.ledger.WithdrawItem(f.ctx, dune), "items still in the catalog keep their queue")
	assert.Len(t, f.ledger.ReservationsFor(dune), 1)

	require.True(t, f.catalog.Remove(dune))
	assert.Equal(t, 1, f.ledger.WithdrawItem(f.ctx, dune))
	assert.Empty(t, f.ledger.ReservationsFor(dune))
	assert.Equal(t, 2, f.ledger.UnreadCount(bea), "bea heard about the return and the withdrawal")

	assert.Zero(t, f.ledger.WithdrawItem(f.ctx, dune))
	assert.Zero(t, f.ledger.WithdrawItem(f.ctx, nil))
}

func TestMessages(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "ana")

	_, err := f.ledger.AddMessage(ana, "")
	require.ErrorIs(t, err, ErrEmptyMessage)
	_, err = f.ledger.AddMessage(nil, "hi")
	require.ErrorIs(t, err, ErrNilUser)

	first, err := f.ledger.AddMessage(ana, "first")
	require.NoError(t, err)
	second, err := f.ledger.AddMessage(ana, "second")
	require.NoError(t, err)
	assert.Equal(t, 2, f.ledger.UnreadCount(ana))

	require.NoError(t, f.ledger.ReadMessage(first))
	require.ErrorIs(t, f.ledger.ReadMessage(first), ErrAlreadyRead)
	assert.False(t, f.ledger.MarkRead(ana, first))
	assert.True(t, f.ledger.MarkRead(ana, second))
	assert.Zero(t, f.ledger.UnreadCount(ana))

	require.NoError(t, f.ledger.DeleteMessage(ana, first))
	require.ErrorIs(t, f.ledger.DeleteMessage(ana, first), ErrUnknownMessage)
	require.ErrorIs(t, f.ledger.ReadMessage(first), ErrUnknownMessage)

	msgs, ok := f.ledger.MessagesOf(ana)
	require.True(t, ok)
	assert.Equal(t, []*Message{second}, msgs)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ana := f.user(t, "ana")
	bea := f.user(t, "bea")
	dune := f.item(t, "Dune")
	emma := f.item(t, "Emma")

	loan, err := f.ledger.RequestLoan(f.ctx, ana, dune, 7)
	require.NoError(t, err)
	_, err = f.ledger.RequestLoan(f.ctx, bea, emma, 7)
	require.NoError(t, err)
	_, err = f.ledger.AddReservation(f.ctx, ana, emma)
	require.NoError(t, err)
	_, err = f.ledger.FineUser(f.ctx, loan)
	require.NoError(t, err)

	require.ErrorIs(t, f.ledger.DeleteUser(f.ctx, ana), ErrOpenLoans)
	assert.True(t, f.users.Has("ana"))

	require.NoError(t, f.ledger.ReturnLoan(f.ctx, loan))
	require.NoError(t, f.ledger.DeleteUser(f.ctx, ana))

	assert.False(t, f.users.Has("ana"))
	_, ok := f.ledger.LoansOf(ana)
	assert.False(t, ok)
	_, ok = f.ledger.FinesOf(ana)
	assert.False(t, ok)
	_, ok = f.ledger.MessagesOf(ana)
	assert.False(t, ok)
	_, ok = f.ledger.ReservationsOf(ana)
	assert.False(t, ok)
	assert.Empty(t, f.ledger.ReservationsFor(emma))

	require.ErrorIs(t, f.ledger.DeleteUser(f.ctx, ana), ErrUnknownUser)
	require.ErrorIs(t, f.ledger.DeleteUser(f.ctx, nil), ErrNilUser)
}

func TestLoans_Listing(t *testing.T) {
	f := newFixture(t)
	bea := f.user(t, "bea")
	ana := f.user(t, "ana")

	l1, err := f.ledger.RequestLoan(f.ctx, bea, f.item(t, "a"), 7)
	require.NoError(t, err)
	l2, err := f.ledger.RequestLoan(f.ctx, ana, f.item(t, "b"), 7)
	require.NoError(t, err)
	l3, err := f.ledger.RequestLoan(f.ctx, bea, f.item(t, "c"), 7)
	require.NoError(t, err)

	assert.Equal(t, []*Loan{l2, l1, l3}, f.ledger.Loans())
}
