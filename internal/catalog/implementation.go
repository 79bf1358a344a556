// internal/catalog/implementation.go
package catalog

import (
	"fmt"

	"librabranch/internal/media"
	"librabranch/internal/search"
)

// Catalog holds the media owned or borrowed by a branch, bucketed by kind. Membership is by
// identity: two copies with the same values are two entries. Access must be serialized by the
// owner.
type Catalog struct {
	buckets map[media.Kind]bucket
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{buckets: make(map[media.Kind]bucket)}
}

// Add inserts item into its kind bucket, creating the bucket on first use.
func (c *Catalog) Add(item *media.Item) error {
	if item == nil {
		return ErrNilItem
	}
	if c.Has(item) {
		return fmt.Errorf("%w: %s", ErrDuplicateItem, item)
	}

	c.buckets[item.Kind()] = append(c.buckets[item.Kind()], item)
	return nil
}

// Remove deletes item and reports whether it was present.
func (c *Catalog) Remove(item *media.Item) bool {
	if item == nil {
		return false
	}

	b := c.buckets[item.Kind()]
	i := b.index(item)
	if i < 0 {
		return false
	}

	c.buckets[item.Kind()] = append(b[:i:i], b[i+1:]...)
	return true
}

// Has reports whether this exact copy is in the catalog.
func (c *Catalog) Has(item *media.Item) bool {
	if item == nil {
		return false
	}
	return c.buckets[item.Kind()].index(item) >= 0
}

// All returns every item, kinds in declaration order and insertion order inside a kind.
func (c *Catalog) All() []*media.Item {
	items := make([]*media.Item, 0, c.Len())
	for _, k := range media.Kinds() {
		items = append(items, c.buckets[k]...)
	}
	return items
}

// ByKind returns the items of one kind.
func (c *Catalog) ByKind(kind media.Kind) []*media.Item {
	b := c.buckets[kind]
	out := make([]*media.Item, len(b))
	copy(out, b)
	return out
}

// Kinds lists the kinds currently holding at least one item.
func (c *Catalog) Kinds() []media.Kind {
	var kinds []media.Kind
	for _, k := range media.Kinds() {
		if len(c.buckets[k]) > 0 {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (c *Catalog) Len() int {
	n := 0
	for _, b := range c.buckets {
		n += len(b)
	}
	return n
}

// Search returns the items matching filter.
func (c *Catalog) Search(filter *search.Filter) []*media.Item {
	return search.Apply(filter, c.All())
}
