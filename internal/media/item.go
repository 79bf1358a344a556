// internal/media/item.go
package media

import (
	"fmt"

	"github.com/google/uuid"

	"librabranch/internal/apperr"
)

var (
	ErrNilItem           = fmt.Errorf("%w: media item is nil", apperr.ErrInvalidArgument)
	ErrIllegalTransition = fmt.Errorf("%w: illegal media state transition", apperr.ErrInvalidArgument)
)

// Values is a set of attribute/value pairs used to build an item.
type Values map[Attribute]any

// Item is a single physical copy of some media. Two items with identical values are still
// distinct copies; identity is the pointer.
type Item struct {
	id     uuid.UUID
	kind   Kind
	values map[Attribute]any
}

func newEmptyItem(kind Kind) *Item {
	it := &Item{
		id:     uuid.New(),
		kind:   kind,
		values: make(map[Attribute]any),
	}
	for _, a := range Schema(kind) {
		it.values[a] = nil
	}
	it.values[AttrKind] = kind
	it.values[AttrState] = Available
	return it
}

// ID identifies the copy in logs and traces.
func (it *Item) ID() uuid.UUID { return it.id }

// Kind returns the media variant.
func (it *Item) Kind() Kind { return it.kind }

// Has reports whether a is legal for this item's kind.
func (it *Item) Has(a Attribute) bool {
	_, ok := it.values[a]
	return ok
}

// Get returns the value of a, or nil when unset or not legal for the kind.
func (it *Item) Get(a Attribute) any {
	return it.values[a]
}

// Set stores v under a. It refuses attributes the kind does not declare, values whose type
// does not match the attribute's datatype, and the Kind and State attributes, which only the
// factory and Transition may write. A nil value clears the attribute, except that an
// origin branch once set cannot be cleared.
func (it *Item) Set(a Attribute, v any) bool {
	if a == AttrKind || a == AttrState {
		return false
	}
	if a == AttrBranch && it.Origin() != "" && (v == nil || v == "") {
		return false
	}
	return it.set(a, v)
}

func (it *Item) set(a Attribute, v any) bool {
	if !it.Has(a) {
		return false
	}
	if v != nil && !a.Datatype().accepts(v) {
		return false
	}
	it.values[a] = v
	return true
}

// Value returns the value of a typed as T.
func Value[T any](it *Item, a Attribute) (T, bool) {
	v, ok := it.values[a].(T)
	return v, ok
}

// Attributes returns the legal attributes of the item in display order.
func (it *Item) Attributes() []Attribute {
	attrs := make([]Attribute, 0, len(it.values))
	for a := range it.values {
		attrs = append(attrs, a)
	}
	SortAttributes(attrs)
	return attrs
}

// Populated returns the attributes holding a non-nil value, in display order.
func (it *Item) Populated() []Attribute {
	attrs := make([]Attribute, 0, len(it.values))
	for a, v := range it.values {
		if v != nil {
			attrs = append(attrs, a)
		}
	}
	SortAttributes(attrs)
	return attrs
}

// HasField reports whether the item declares the attribute named field.
func (it *Item) HasField(field string) bool {
	a, ok := AttributeByName(field)
	return ok && it.Has(a)
}

// Field returns the value of the attribute named field.
func (it *Item) Field(field string) any {
	a, ok := AttributeByName(field)
	if !ok {
		return nil
	}
	return it.Get(a)
}

// FieldNames lists the display names of every legal attribute.
func (it *Item) FieldNames() []string {
	attrs := it.Attributes()
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name()
	}
	return names
}

func (it *Item) stringValue(a Attribute) string {
	s, _ := Value[string](it, a)
	return s
}

func (it *Item) Title() string { return it.stringValue(AttrTitle) }
func (it *Item) Author() string { return it.stringValue(AttrAuthor) }
func (it *Item) Genre() string { return it.stringValue(AttrGenre) }

// Origin is the name of the branch owning the copy.
func (it *Item) Origin() string { return it.stringValue(AttrBranch) }

// State returns the lending state.
func (it *Item) State() State {
	s, _ := Value[State](it, AttrState)
	return s
}

func (it *Item) String() string {
	return fmt.Sprintf("%s %q", it.kind, it.Title())
}

var transitions = map[State][]State{
	Available:          {Loaned, LoanedToPeerBranch},
	Loaned:             {Available},
	LoanedToPeerBranch: {Available},
}

// Transition moves the item to state to. Only the lending ledger and the exchange call it.
func Transition(it *Item, to State) error {
	if it == nil {
		return ErrNilItem
	}
	from := it.State()
	for _, allowed := range transitions[from] {
		if allowed == to {
			it.values[AttrState] = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, from, to)
}
