// internal/catalog/domain.go
package catalog

import (
	"fmt"

	"librabranch/internal/apperr"
	"librabranch/internal/media"
)

var (
	ErrNilItem       = fmt.Errorf("%w: catalog item is nil", apperr.ErrInvalidArgument)
	ErrDuplicateItem = fmt.Errorf("%w: item already in catalog", apperr.ErrInvalidArgument)
)

// bucket holds the copies of one media kind in insertion order.
type bucket []*media.Item

func (b bucket) index(it *media.Item) int {
	for i, existing := range b {
		if existing == it {
			return i
		}
	}
	return -1
}
