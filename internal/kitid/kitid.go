// Package kitid encodes and decodes private loadout kit identifiers.
//
// A loadout kit name is "<17-digit owner id>_<slot letters>" where the slot
// letters are a bijective base-26 numeral (a=1 .. z=26, no zero symbol), the
// same scheme spreadsheet column names use. Slot 1 is "a", slot 26 is "z",
// slot 27 is "aa".
package kitid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	ownerDigits = 17
	separator   = '_'
)

// LoadoutID is the decoded identity of a loadout kit. The zero value is the
// invalid sentinel.
type LoadoutID struct {
	Owner uint64
	Slot  int32
}

// Encode renders the loadout identifier for owner and slot. Slots below 1 are
// coerced to 1.
func Encode(owner uint64, slot int32) string {
	if slot < 1 {
		slot = 1
	}
	var letters [8]byte
	i := len(letters)
	n := int64(slot)
	for n > 0 {
		n--
		i--
		letters[i] = byte('a' + n%26)
		n /= 26
	}
	return fmt.Sprintf("%017d%c%s", owner, separator, letters[i:])
}

// OwnerPrefix returns the identifier prefix shared by every loadout kit of
// owner, including the separator. Useful for store prefix queries.
func OwnerPrefix(owner uint64) string {
	return fmt.Sprintf("%017d%c", owner, separator)
}

// Decode parses s back into its owner and slot. It reports false for any
// malformed input: missing prefix or separator, non-decimal owner, characters
// outside a-z/A-Z in the slot run, an empty slot run, or a slot that would
// overflow int32. It never panics.
func Decode(s string) (LoadoutID, bool) {
	if len(s) < ownerDigits+2 {
		return LoadoutID{}, false
	}
	if s[ownerDigits] != separator {
		return LoadoutID{}, false
	}
	owner, err := strconv.ParseUint(s[:ownerDigits], 10, 64)
	if err != nil {
		return LoadoutID{}, false
	}
	var slot int64
	for _, c := range strings.ToLower(s[ownerDigits+1:]) {
		if c < 'a' || c > 'z' {
			return LoadoutID{}, false
		}
		slot = slot*26 + int64(c-'a'+1)
		if slot > math.MaxInt32 {
			return LoadoutID{}, false
		}
	}
	return LoadoutID{Owner: owner, Slot: int32(slot)}, true
}

// IsLoadoutName reports whether s looks like a loadout identifier.
func IsLoadoutName(s string) bool {
	_, ok := Decode(s)
	return ok
}
