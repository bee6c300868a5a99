package domain

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// idAlphabet is Crockford base-32: digits and uppercase letters without I, L, O and U.
const idAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// IDLength is the fixed length of every identifier.
const IDLength = 26

// ID identifies a user or a task. The first ten symbols encode the creation
// time in milliseconds, most significant symbol first, so identifiers sort
// lexicographically by creation time. The zero ID is not a valid identifier.
type ID struct {
	value string
}

// NewID generates a fresh identifier.
func NewID() ID {
	return ID{value: ulid.Make().String()}
}

// ParseID validates s and wraps it as an ID. Any 26-symbol string over the
// alphabet is accepted, regardless of how it was generated.
func ParseID(s string) (ID, error) {
	if strings.TrimSpace(s) == "" {
		return ID{}, NewInvalidValueError(ErrInvalidID, "identifier must not be blank")
	}
	if len(s) != IDLength {
		return ID{}, NewInvalidValueError(ErrInvalidID,
			"identifier must be %d characters: %s", IDLength, s)
	}
	for _, r := range s {
		if !strings.ContainsRune(idAlphabet, r) {
			return ID{}, NewInvalidValueError(ErrInvalidID,
				"identifier contains an invalid character: %s", s)
		}
	}
	return ID{value: s}, nil
}

// MustParseID is ParseID for trusted literals; it panics on invalid input.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		// ALLOW-PANIC: only used with compile-time constants
		panic(err)
	}
	return id
}

// String returns the 26-character representation.
func (id ID) String() string {
	return id.value
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, validating the input.
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id.value == ""
}
