// internal/circulation/implementation.go
package circulation

import (
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"librabranch/internal/media"
)

// Ledger records loans, reservations, fines and messages of one branch. The per-user
// buckets are keyed by login and created on first insert. It is not safe for concurrent use;
// the owning branch serializes access.
type Ledger struct {
	inventory Inventory
	directory Directory

	loans        map[string][]*Loan
	reservations map[string][]*Reservation
	fines        map[string][]*Fine
	messages     map[string][]*Message

	// openLoans holds the single open loan of each lent item.
	openLoans map[*media.Item]*Loan

	logger  *zap.Logger
	clock   func() time.Time
	tracer  trace.Tracer
	meter   metric.Meter
	metrics instruments
}

type instruments struct {
	loansIssued   metric.Int64Counter
	loansReturned metric.Int64Counter
	reservations  metric.Int64Counter
	finesIssued   metric.Int64Counter
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithLogger(l *zap.Logger) Option {
	return func(led *Ledger) { led.logger = l }
}

// WithClock replaces time.Now, mainly for due date tests.
func WithClock(clock func() time.Time) Option {
	return func(led *Ledger) { led.clock = clock }
}

func WithMeter(m metric.Meter) Option {
	return func(led *Ledger) { led.meter = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(led *Ledger) { led.tracer = t }
}

// NewLedger creates an empty ledger over the given catalog and user directory.
func NewLedger(inventory Inventory, directory Directory, opts ...Option) *Ledger {
	l := &Ledger{
		inventory:    inventory,
		directory:    directory,
		loans:        make(map[string][]*Loan),
		reservations: make(map[string][]*Reservation),
		fines:        make(map[string][]*Fine),
		messages:     make(map[string][]*Message),
		openLoans:    make(map[*media.Item]*Loan),
		logger:       zap.NewNop(),
		clock:        time.Now,
		tracer:       otel.Tracer("librabranch/circulation"),
		meter:        otel.Meter("librabranch/circulation"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.metrics = l.newInstruments()
	return l
}

func (l *Ledger) newInstruments() instruments {
	counter := func(name, desc string) metric.Int64Counter {
		c, err := l.meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			l.logger.Warn("failed to create counter", zap.String("name", name), zap.Error(err))
			c, _ = noop.NewMeterProvider().Meter("").Int64Counter(name)
		}
		return c
	}

	return instruments{
		loansIssued:   counter("loans_issued_total", "Loans granted"),
		loansReturned: counter("loans_returned_total", "Loans returned"),
		reservations:  counter("reservations_total", "Reservations placed"),
		finesIssued:   counter("fines_issued_total", "Fines issued for late returns"),
	}
}

// fail records err on the span and returns it.
func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// sortedKeys returns the logins of a bucket map in order so listings are stable.
func sortedKeys[V any](m map[string][]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func flatten[V any](m map[string][]V) []V {
	var out []V
	for _, k := range sortedKeys(m) {
		out = append(out, m[k]...)
	}
	return out
}

func bucketOf[V any](m map[string][]V, login string) ([]V, bool) {
	b, ok := m[login]
	if !ok {
		return nil, false
	}
	return append([]V(nil), b...), true
}

func without[V comparable](b []V, v V) []V {
	for i, existing := range b {
		if existing == v {
			return append(b[:i:i], b[i+1:]...)
		}
	}
	return b
}
