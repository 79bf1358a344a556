// internal/catalog/service.go
package catalog

import (
	"librabranch/internal/media"
	"librabranch/internal/search"
)

// Service defines the catalog operations a branch exposes.
type Service interface {
	Add(item *media.Item) error
	Remove(item *media.Item) bool
	Has(item *media.Item) bool
	All() []*media.Item
	ByKind(kind media.Kind) []*media.Item
	Kinds() []media.Kind
	Len() int
	Search(filter *search.Filter) []*media.Item
}

var _ Service = (*Catalog)(nil)
