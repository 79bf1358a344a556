// internal/media/kind.go
package media

import "librabranch/internal/textfold"

// Kind is the closed set of media variants a catalog can hold.
type Kind int

const (
	Book Kind = iota + 1
	Video
	Audio
	Newspaper
	Magazine
)

var kindNames = map[Kind]string{
	Book:      "Book",
	Video:     "Video",
	Audio:     "Audio",
	Newspaper: "Newspaper",
	Magazine:  "Magazine",
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{Book, Video, Audio, Newspaper, Magazine}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// KindByName resolves a kind display name ignoring case and diacritics.
func KindByName(name string) (Kind, bool) {
	for _, k := range Kinds() {
		if textfold.Equal(kindNames[k], name) {
			return k, true
		}
	}
	return 0, false
}

// State is the lending lifecycle of a single media item.
type State int

const (
	Available State = iota + 1
	Loaned
	LoanedToPeerBranch
)

var stateNames = map[State]string{
	Available:          "Available",
	Loaned:             "Loaned",
	LoanedToPeerBranch: "At another branch",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// StateByName resolves a state display name ignoring case and diacritics.
func StateByName(name string) (State, bool) {
	for _, s := range []State{Available, Loaned, LoanedToPeerBranch} {
		if textfold.Equal(stateNames[s], name) {
			return s, true
		}
	}
	return 0, false
}
