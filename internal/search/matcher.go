// internal/search/matcher.go
package search

import (
	"fmt"
	"reflect"

	"librabranch/internal/apperr"
	"librabranch/internal/textfold"
)

var ErrNilFilter = fmt.Errorf("%w: search filter is nil", apperr.ErrInvalidArgument)

// Matcher evaluates a single filter against searchable values.
type Matcher struct {
	filter *Filter
}

// NewMatcher binds a matcher to f.
func NewMatcher(f *Filter) (*Matcher, error) {
	if f == nil {
		return nil, ErrNilFilter
	}
	return &Matcher{filter: f}, nil
}

// Matches reports whether s satisfies the matcher's filter.
func (m *Matcher) Matches(s Searchable) bool {
	return Matches(m.filter, s)
}

// Matches reports whether s satisfies f.
//
// Under an absolute filter a field missing from s fails the match. Under an any-of filter
// missing fields are skipped and the first criterion that holds decides. A filter with no
// criteria matches everything when absolute and nothing otherwise.
func Matches(f *Filter, s Searchable) bool {
	if f == nil || isNil(s) {
		return false
	}

	for _, c := range f.criteria {
		if !s.HasField(c.Field) {
			if f.Absolute {
				return false
			}
			continue
		}

		equal := ValuesEqual(s.Field(c.Field), c.Value)
		if equal && !f.Absolute {
			return true
		}
		if !equal && f.Absolute {
			return false
		}
	}

	return f.Absolute
}

// Apply returns the items matching f, preserving their relative order.
func Apply[T Searchable](f *Filter, items []T) []T {
	matched := make([]T, 0, len(items))
	for _, it := range items {
		if Matches(f, it) {
			matched = append(matched, it)
		}
	}
	return matched
}

// ValuesEqual compares a stored value with a target. Two nils are equal and a single nil is
// not. Values equal under == match; otherwise both are rendered as text, folded for case and
// diacritics, and match when either contains the other. Two empty renderings match, a single
// empty one does not. The containment fallback lets "ojo" find "rojo".
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if exactlyEqual(a, b) {
		return true
	}

	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	if sa == "" || sb == "" {
		return sa == sb
	}
	return textfold.Related(sa, sb)
}

func exactlyEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func isNil(s Searchable) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
