// internal/search/filter.go
package search

// Searchable is implemented by anything the matcher can inspect by field name. It keeps the
// matcher independent of the concrete media kind.
type Searchable interface {
	HasField(field string) bool
	Field(field string) any
	FieldNames() []string
}

// Criterion pairs a field name with the value it should relate to.
type Criterion struct {
	Field string
	Value any
}

// Filter is a set of criteria. An absolute filter needs every criterion to hold; otherwise any
// single criterion is enough.
type Filter struct {
	Absolute bool
	criteria []Criterion
}

// NewFilter returns a filter holding the given criteria.
func NewFilter(absolute bool, criteria ...Criterion) *Filter {
	f := &Filter{Absolute: absolute}
	for _, c := range criteria {
		f.Add(c)
	}
	return f
}

// Add inserts c unless an identical criterion is already present.
func (f *Filter) Add(c Criterion) {
	for _, existing := range f.criteria {
		if existing.Field == c.Field && exactlyEqual(existing.Value, c.Value) {
			return
		}
	}
	f.criteria = append(f.criteria, c)
}

// Criteria returns a copy of the filter's criteria.
func (f *Filter) Criteria() []Criterion {
	out := make([]Criterion, len(f.criteria))
	copy(out, f.criteria)
	return out
}
