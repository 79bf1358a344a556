// internal/media/attribute.go
package media

import (
	"sort"

	"librabranch/internal/textfold"
)

// Datatype is the runtime type an attribute value must have.
type Datatype int

const (
	DatatypeString Datatype = iota
	DatatypeInt
	DatatypeKind
	DatatypeState
)

func (d Datatype) accepts(v any) bool {
	switch v.(type) {
	case string:
		return d == DatatypeString
	case int:
		return d == DatatypeInt
	case Kind:
		return d == DatatypeKind
	case State:
		return d == DatatypeState
	default:
		return false
	}
}

// Attribute identifies one describable property of a media item.
type Attribute int

const (
	AttrKind Attribute = iota
	AttrState
	AttrAuthor
	AttrTitle
	AttrAlbum
	AttrSubscription
	AttrGenre
	AttrDate
	AttrDuration
	AttrPublisher
	AttrFormat
	AttrISBN
	AttrBranch
)

type attributeSpec struct {
	name     string
	datatype Datatype
	order    int
	core     bool
}

var attributeSpecs = [...]attributeSpec{
	AttrKind:         {name: "Kind", datatype: DatatypeKind, order: 0, core: true},
	AttrState:        {name: "State", datatype: DatatypeState, order: 1},
	AttrAuthor:       {name: "Author", datatype: DatatypeString, order: 1, core: true},
	AttrTitle:        {name: "Title", datatype: DatatypeString, order: 2, core: true},
	AttrAlbum:        {name: "Album", datatype: DatatypeString, order: 3},
	AttrSubscription: {name: "Subscription", datatype: DatatypeString, order: 5},
	AttrGenre:        {name: "Genre", datatype: DatatypeString, order: 6, core: true},
	AttrDate:         {name: "Date", datatype: DatatypeString, order: 7, core: true},
	AttrDuration:     {name: "Duration", datatype: DatatypeInt, order: 8},
	AttrPublisher:    {name: "Publisher", datatype: DatatypeString, order: 9},
	AttrFormat:       {name: "Format", datatype: DatatypeString, order: 7},
	AttrISBN:         {name: "ISBN", datatype: DatatypeString, order: 9},
	AttrBranch:       {name: "Branch", datatype: DatatypeString, order: 10},
}

// Valid reports whether a is a declared attribute.
func (a Attribute) Valid() bool {
	return a >= 0 && int(a) < len(attributeSpecs)
}

// Name is the display name, also used as the exchange file column header.
func (a Attribute) Name() string {
	if !a.Valid() {
		return ""
	}
	return attributeSpecs[a].name
}

func (a Attribute) String() string { return a.Name() }

// Datatype returns the type values of a must have.
func (a Attribute) Datatype() Datatype { return attributeSpecs[a].datatype }

// Order is the display position; several attributes share a position.
func (a Attribute) Order() int { return attributeSpecs[a].order }

// Core reports whether the attribute is shown for every kind in summaries.
func (a Attribute) Core() bool { return attributeSpecs[a].core }

// Attributes returns every declared attribute in declaration order.
func Attributes() []Attribute {
	all := make([]Attribute, len(attributeSpecs))
	for i := range attributeSpecs {
		all[i] = Attribute(i)
	}
	return all
}

// AttributeByName resolves a display name ignoring case and diacritics.
func AttributeByName(name string) (Attribute, bool) {
	for i, spec := range attributeSpecs {
		if textfold.Equal(spec.name, name) {
			return Attribute(i), true
		}
	}
	return 0, false
}

// SortAttributes orders attrs by display order, ties broken by declaration order.
func SortAttributes(attrs []Attribute) {
	sort.SliceStable(attrs, func(i, j int) bool {
		if attrs[i].Order() != attrs[j].Order() {
			return attrs[i].Order() < attrs[j].Order()
		}
		return attrs[i] < attrs[j]
	})
}
