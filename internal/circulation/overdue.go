// internal/circulation/overdue.go
package circulation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ScanOverdue fines every open loan past its due time that has not been fined yet and
// returns how many fines were issued. Running it again issues nothing new.
func (l *Ledger) ScanOverdue(ctx context.Context) (int, error) {
	ctx, span := l.tracer.Start(ctx, "circulation.scan_overdue")
	defer span.End()

	now := l.clock()
	fined := 0
	for _, loan := range l.Loans() {
		if !loan.Overdue(now) || loan.notified {
			continue
		}
		ok, err := l.FineUser(ctx, loan)
		if err != nil {
			return fined, fail(span, fmt.Errorf("failed to fine overdue loan %s: %w", loan.id, err))
		}
		if ok {
			fined++
		}
	}

	span.SetAttributes(attribute.Int("fines.issued", fined))
	if fined > 0 {
		l.logger.Info("overdue scan fined users", zap.Int("fines", fined))
	}
	return fined, nil
}
