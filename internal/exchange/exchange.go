// internal/exchange/exchange.go
package exchange

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"librabranch/internal/apperr"
	"librabranch/internal/media"
	"librabranch/internal/textfold"
)

var (
	ErrNilItem      = fmt.Errorf("%w: exchanged item is nil", apperr.ErrInvalidArgument)
	ErrNotInCatalog = fmt.Errorf("%w: exchanged item not in catalog", apperr.ErrInvalidArgument)
	ErrNotAvailable = fmt.Errorf("%w: exchanged item not available", apperr.ErrInvalidArgument)
	ErrFileAccess   = fmt.Errorf("%w: exchange file", apperr.ErrIO)
)

// Catalog is the part of a branch catalog the exchange moves items in and out of.
type Catalog interface {
	Add(item *media.Item) error
	Remove(item *media.Item) bool
	Has(item *media.Item) bool
	All() []*media.Item
}

// Report summarizes an import.
type Report struct {
	// Repatriated counts own items that came back and are Available again.
	Repatriated int
	// Added counts items added to the catalog as new stock.
	Added int
	// Unmatched counts records claiming this branch as origin with no lent item to match.
	Unmatched int
	// Skipped counts records without a recognizable kind.
	Skipped int
}

// Exchange moves media between a branch and its peers through flat files.
type Exchange struct {
	branch  string
	catalog Catalog

	logger   *zap.Logger
	tracer   trace.Tracer
	meter    metric.Meter
	exported metric.Int64Counter
	imported metric.Int64Counter
}

// Option configures an Exchange.
type Option func(*Exchange)

func WithLogger(l *zap.Logger) Option {
	return func(e *Exchange) { e.logger = l }
}

func WithMeter(m metric.Meter) Option {
	return func(e *Exchange) { e.meter = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Exchange) { e.tracer = t }
}

// New binds an exchange to the named branch and its catalog.
func New(branch string, catalog Catalog, opts ...Option) *Exchange {
	e := &Exchange{
		branch:  branch,
		catalog: catalog,
		logger:  zap.NewNop(),
		tracer:  otel.Tracer("librabranch/exchange"),
		meter:   otel.Meter("librabranch/exchange"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.exported = e.counter("media_exported_total", "Media items sent to peer branches")
	e.imported = e.counter("media_imported_total", "Media items received from peer branches")
	return e
}

func (e *Exchange) counter(name, desc string) metric.Int64Counter {
	c, err := e.meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		e.logger.Warn("failed to create counter", zap.String("name", name), zap.Error(err))
		c, _ = noop.NewMeterProvider().Meter("").Int64Counter(name)
	}
	return c
}

// Branch is the name of the branch this exchange belongs to.
func (e *Exchange) Branch() string { return e.branch }

// Export writes items to path and then hands them over: own items become LoanedToPeerBranch
// and items borrowed from peers leave the catalog. Items without an origin are stamped with
// this branch first so they come back as repatriations. Nothing is written or changed unless
// every item is in the catalog and Available.
func (e *Exchange) Export(ctx context.Context, path string, items []*media.Item) error {
	ctx, span := e.tracer.Start(ctx, "exchange.export",
		trace.WithAttributes(
			attribute.String("branch", e.branch),
			attribute.String("file.path", path),
			attribute.Int("item.count", len(items)),
		),
	)
	defer span.End()

	batch, err := e.checkExportable(items)
	if err != nil {
		return fail(span, err)
	}
	for _, it := range batch {
		if it.Origin() == "" {
			it.Set(media.AttrBranch, e.branch)
		}
	}

	if err := writeAtomically(path, tableOf(batch)); err != nil {
		return fail(span, err)
	}

	lent, returned := 0, 0
	for _, it := range batch {
		if e.isLocal(it) {
			if err := media.Transition(it, media.LoanedToPeerBranch); err != nil {
				return fail(span, fmt.Errorf("failed to hand over %s: %w", it, err))
			}
			lent++
			continue
		}
		e.catalog.Remove(it)
		returned++
	}

	e.exported.Add(ctx, int64(len(batch)))
	span.SetAttributes(attribute.Int("items.lent", lent), attribute.Int("items.returned", returned))
	e.logger.Info("media exported",
		zap.String("path", path),
		zap.Int("lent", lent),
		zap.Int("returned", returned),
	)
	return nil
}

func (e *Exchange) checkExportable(items []*media.Item) ([]*media.Item, error) {
	seen := make(map[*media.Item]bool, len(items))
	batch := make([]*media.Item, 0, len(items))
	for _, it := range items {
		switch {
		case it == nil:
			return nil, ErrNilItem
		case !e.catalog.Has(it):
			return nil, fmt.Errorf("%w: %s", ErrNotInCatalog, it)
		case it.State() != media.Available:
			return nil, fmt.Errorf("%w: %s is %s", ErrNotAvailable, it, it.State())
		case seen[it]:
			continue
		}
		seen[it] = true
		batch = append(batch, it)
	}
	return batch, nil
}

// tableOf lays items out under the union of their populated attributes in display order.
func tableOf(items []*media.Item) table {
	present := make(map[media.Attribute]bool)
	for _, it := range items {
		for _, a := range it.Populated() {
			present[a] = true
		}
	}
	columns := make([]media.Attribute, 0, len(present))
	for a := range present {
		columns = append(columns, a)
	}
	media.SortAttributes(columns)

	t := table{header: make([]string, len(columns))}
	for i, a := range columns {
		t.header[i] = a.Name()
	}
	for _, it := range items {
		record := make([]string, len(columns))
		for i, a := range columns {
			record[i] = format(it.Get(a))
		}
		t.records = append(t.records, record)
	}
	return t
}

func format(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func writeAtomically(path string, t table) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, t); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	return nil
}

// Import reads the file at path and takes its items in. Items whose origin is this branch are
// matched against the copies lent out and made Available again; everything else is added as
// new stock. The file is fully decoded before the catalog is touched.
func (e *Exchange) Import(ctx context.Context, path string) (Report, error) {
	ctx, span := e.tracer.Start(ctx, "exchange.import",
		trace.WithAttributes(
			attribute.String("branch", e.branch),
			attribute.String("file.path", path),
		),
	)
	defer span.End()

	var report Report

	t, err := readTable(path)
	if err != nil {
		return report, fail(span, err)
	}

	columns := make([]media.Attribute, len(t.header))
	mapped := make([]bool, len(t.header))
	for i, name := range t.header {
		columns[i], mapped[i] = media.AttributeByName(name)
	}

	for _, record := range t.records {
		values := make(media.Values)
		for i, field := range record {
			if i >= len(columns) || !mapped[i] || field == "" {
				continue
			}
			if v, ok := parse(columns[i], field); ok {
				values[columns[i]] = v
			}
		}

		it, ok := media.FromValues(values)
		if !ok {
			report.Skipped++
			continue
		}

		if origin := it.Origin(); origin != "" && textfold.Equal(origin, e.branch) {
			lent, found := e.FindLent(it)
			if !found {
				report.Unmatched++
				e.logger.Warn("no lent copy matches returned item", zap.Stringer("item", it))
				continue
			}
			if err := media.Transition(lent, media.Available); err != nil {
				return report, fail(span, fmt.Errorf("failed to take back %s: %w", lent, err))
			}
			report.Repatriated++
			continue
		}

		if it.Origin() == "" {
			it.Set(media.AttrBranch, e.branch)
		}
		if err := e.catalog.Add(it); err != nil {
			return report, fail(span, fmt.Errorf("failed to add imported item: %w", err))
		}
		report.Added++
	}

	e.imported.Add(ctx, int64(report.Added+report.Repatriated))
	span.SetAttributes(
		attribute.Int("items.repatriated", report.Repatriated),
		attribute.Int("items.added", report.Added),
		attribute.Int("items.unmatched", report.Unmatched),
		attribute.Int("items.skipped", report.Skipped),
	)
	e.logger.Info("media imported",
		zap.String("path", path),
		zap.Int("repatriated", report.Repatriated),
		zap.Int("added", report.Added),
		zap.Int("unmatched", report.Unmatched),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func readTable(path string) (table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table{}, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	defer f.Close()

	t, err := decode(f)
	if err != nil {
		return table{}, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	return t, nil
}

// parse converts a field to the attribute's datatype. Unparsable numbers and state columns
// yield nothing.
func parse(a media.Attribute, field string) (any, bool) {
	switch a.Datatype() {
	case media.DatatypeInt:
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, false
		}
		return n, true
	case media.DatatypeState:
		return nil, false
	default:
		return field, true
	}
}

func (e *Exchange) isLocal(it *media.Item) bool {
	return it.Origin() == "" || textfold.Equal(it.Origin(), e.branch)
}

// BorrowedFromPeers returns the catalog items owned by other branches.
func (e *Exchange) BorrowedFromPeers() []*media.Item {
	var out []*media.Item
	for _, it := range e.catalog.All() {
		if !e.isLocal(it) {
			out = append(out, it)
		}
	}
	return out
}

// LentToPeers returns the own items currently at other branches.
func (e *Exchange) LentToPeers() []*media.Item {
	var out []*media.Item
	for _, it := range e.catalog.All() {
		if e.isLocal(it) && it.State() == media.LoanedToPeerBranch {
			out = append(out, it)
		}
	}
	return out
}

// FindLent returns the lent copy that returned describes, matching kind, title, author
// and genre.
func (e *Exchange) FindLent(returned *media.Item) (*media.Item, bool) {
	if returned == nil {
		return nil, false
	}
	for _, it := range e.LentToPeers() {
		if it.Kind() == returned.Kind() &&
			it.Title() == returned.Title() &&
			it.Author() == returned.Author() &&
			it.Genre() == returned.Genre() {
			return it, true
		}
	}
	return nil, false
}

func (e *Exchange) IsBorrowedFromPeer(it *media.Item) bool {
	return it != nil && e.catalog.Has(it) && !e.isLocal(it)
}

func (e *Exchange) IsLentToPeer(it *media.Item) bool {
	return it != nil && e.catalog.Has(it) && e.isLocal(it) && it.State() == media.LoanedToPeerBranch
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
