// internal/media/factory.go
package media

var coreSchema = []Attribute{AttrKind, AttrAuthor, AttrTitle, AttrState, AttrDate, AttrGenre, AttrBranch}

var kindSchema = map[Kind][]Attribute{
	Book:      {AttrPublisher, AttrISBN},
	Audio:     {AttrAlbum, AttrFormat, AttrDuration},
	Video:     {AttrFormat, AttrDuration},
	Newspaper: {AttrSubscription},
	Magazine:  {AttrSubscription},
}

// Schema returns the attributes legal for kind in display order, or nil for an unknown kind.
func Schema(kind Kind) []Attribute {
	if !kind.Valid() {
		return nil
	}
	attrs := make([]Attribute, 0, len(coreSchema)+len(kindSchema[kind]))
	attrs = append(attrs, coreSchema...)
	attrs = append(attrs, kindSchema[kind]...)
	SortAttributes(attrs)
	return attrs
}

// Legal reports whether a may be set on items of kind.
func Legal(kind Kind, a Attribute) bool {
	for _, legal := range Schema(kind) {
		if legal == a {
			return true
		}
	}
	return false
}

// New builds an Available item of kind with every legal attribute registered and values merged
// in. Pairs naming an attribute the kind does not declare, or carrying a mistyped value, are
// dropped. Kind and State in values are ignored.
func New(kind Kind, values Values) *Item {
	if !kind.Valid() {
		return nil
	}
	it := newEmptyItem(kind)
	for a, v := range values {
		if a == AttrKind || a == AttrState {
			continue
		}
		it.set(a, v)
	}
	return it
}

// Build is New keyed by kind display name. It reports false when the name is empty or unknown.
func Build(kindName string, values Values) (*Item, bool) {
	kind, ok := KindByName(kindName)
	if !ok {
		return nil, false
	}
	return New(kind, values), true
}

// FromValues reads the kind from values[AttrKind], either a Kind or its display name.
func FromValues(values Values) (*Item, bool) {
	switch k := values[AttrKind].(type) {
	case Kind:
		if !k.Valid() {
			return nil, false
		}
		return New(k, values), true
	case string:
		return Build(k, values)
	default:
		return nil, false
	}
}
