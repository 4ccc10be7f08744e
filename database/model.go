package database

import "errors"

// Name identifies a stored document.
type Name string

const (
	LastUsed  Name = "last-used"
	Favorites Name = "favorites"
)

// Names returns the closed set of documents the server persists.
func Names() []Name {
	return []Name{LastUsed, Favorites}
}

// Valid reports whether n is one of Names.
func (n Name) Valid() bool {
	for _, known := range Names() {
		if n == known {
			return true
		}
	}
	return false
}

// Dir is the directory under the user settings dir that holds the documents.
const Dir = "jupyterlab-new-launcher"

var (
	ErrUnknownDocument   = errors.New("unknown document")
	ErrInvalidJSON       = errors.New("invalid JSON")
	ErrMalformedDocument = errors.New("stored document is not valid JSON")
)
