// Package codec converts stores to and from their XML text form.
package codec

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrMalformed is returned when the input does not have the shape of an encoded store.
	ErrMalformed = errors.New("malformed document")
	// ErrMissingElement is returned when a key is not followed by its element.
	ErrMissingElement = errors.New("missing element for key")
	// ErrKeyParse is returned when key text cannot be converted to the key type.
	ErrKeyParse = errors.New("invalid key")
	// ErrTimestamp is returned when a timestamp cannot be parsed.
	ErrTimestamp = errors.New("invalid timestamp")
)

// KeyCodec converts key text back into keys of type K.
type KeyCodec[K comparable] struct {
	// Name is the descriptive name of the key type.
	Name string
	// Parse converts key text into a key.
	Parse func(text string) (K, error)
}

// IntKeys parses integer keys.
var IntKeys = KeyCodec[int]{
	Name: "int",
	Parse: func(text string) (int, error) {
		return strconv.Atoi(strings.TrimSpace(text))
	},
}

// StringKeys passes key text through unchanged.
var StringKeys = KeyCodec[string]{
	Name: "string",
	Parse: func(text string) (string, error) {
		return text, nil
	},
}

// UUIDKeys parses uuid keys.
var UUIDKeys = KeyCodec[uuid.UUID]{
	Name: "UUID",
	Parse: func(text string) (uuid.UUID, error) {
		return uuid.Parse(strings.TrimSpace(text))
	},
}
