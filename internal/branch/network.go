// internal/branch/network.go
package branch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"librabranch/internal/apperr"
	"librabranch/internal/media"
	"librabranch/internal/search"
)

var (
	ErrNilBranch       = fmt.Errorf("%w: branch is nil", apperr.ErrInvalidArgument)
	ErrDuplicateBranch = fmt.Errorf("%w: branch already in network", apperr.ErrInvalidArgument)
)

// Network is the set of branches sharing media.
type Network struct {
	mu       sync.RWMutex
	branches map[string]*Branch
	order    []string
}

// NewNetwork groups the given branches.
func NewNetwork(branches ...*Branch) (*Network, error) {
	n := &Network{branches: make(map[string]*Branch)}
	for _, b := range branches {
		if err := n.Add(b); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (n *Network) Add(b *Branch) error {
	if b == nil {
		return ErrNilBranch
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.branches[b.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBranch, b.Name())
	}
	n.branches[b.Name()] = b
	n.order = append(n.order, b.Name())
	return nil
}

func (n *Network) Branch(name string) (*Branch, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	b, ok := n.branches[name]
	return b, ok
}

// Branches returns the branches in the order they joined.
func (n *Network) Branches() []*Branch {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Branch, len(n.order))
	for i, name := range n.order {
		out[i] = n.branches[name]
	}
	return out
}

// CrossSearch runs filter against every branch catalog and returns the matches per branch
// name. Branches without matches are left out.
func (n *Network) CrossSearch(filter *search.Filter) map[string][]*media.Item {
	results := make(map[string][]*media.Item)
	for _, b := range n.Branches() {
		if found := b.Search(filter); len(found) > 0 {
			results[b.Name()] = found
		}
	}
	return results
}

// ScanOverdue runs the overdue scan on every branch. A failing branch does not stop the
// others; the errors are joined.
func (n *Network) ScanOverdue(ctx context.Context) (int, error) {
	total := 0
	var errs []error
	for _, b := range n.Branches() {
		fined, err := b.ScanOverdue(ctx)
		total += fined
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to scan branch %s: %w", b.Name(), err))
		}
	}
	return total, errors.Join(errs...)
}
