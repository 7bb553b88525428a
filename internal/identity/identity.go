// Package identity makes record identities from different backends comparable.
//
// The document backend hands out primitive.ObjectID values, the relational
// backend auto-increment integers, and tokens carry either one as a string.
// Canonical reduces all of them to one textual form; Equal compares that form.
// Ownership checks and membership edits go through Equal and nothing else.
package identity

import (
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Canonical returns the comparable text of an identity value.
// nil and the zero ObjectID canonicalize to "".
func Canonical(v any) string {
	var s string
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		s = id
	case primitive.ObjectID:
		if id.IsZero() {
			return ""
		}
		// ObjectID.String() renders ObjectID("..."), so use the bare hex.
		s = id.Hex()
	case *primitive.ObjectID:
		if id == nil || id.IsZero() {
			return ""
		}
		s = id.Hex()
	case int:
		s = strconv.FormatInt(int64(id), 10)
	case int32:
		s = strconv.FormatInt(int64(id), 10)
	case int64:
		s = strconv.FormatInt(id, 10)
	case uint:
		s = strconv.FormatUint(uint64(id), 10)
	case uint32:
		s = strconv.FormatUint(uint64(id), 10)
	case uint64:
		s = strconv.FormatUint(id, 10)
	case fmt.Stringer:
		s = id.String()
	default:
		s = fmt.Sprint(id)
	}
	return strings.TrimSpace(s)
}

// Equal reports whether a and b denote the same record.
// An empty identity never equals anything, including another empty one.
func Equal(a, b any) bool {
	ca := Canonical(a)
	if ca == "" {
		return false
	}
	return ca == Canonical(b)
}

// LooksLikeObjectID reports whether s has the shape of a document-store id:
// exactly 24 hexadecimal characters.
func LooksLikeObjectID(s string) bool {
	if len(s) != 24 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
