// Package match decides whether a derived address hits the search target.
// A target is a (pattern, mask) pair over the 20 address bytes: every bit
// where the mask is set must equal the corresponding pattern bit, bits where
// the mask is clear are unconstrained.
package match

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const addressNibbles = 2 * common.AddressLength

// Matches reports whether addr agrees with pattern on every bit selected by
// mask: (addr AND mask) XOR pattern == 0.
func Matches(addr, pattern, mask common.Address) bool {
	for i := range addr {
		if (addr[i]&mask[i])^pattern[i] != 0 {
			return false
		}
	}
	return true
}

// Prefix builds a pattern/mask pair constraining the first len(s) hex nibbles
// of the address. An 'x' nibble is left unconstrained.
func Prefix(s string) (pattern, mask common.Address, err error) {
	return at(s, 0)
}

// Suffix builds a pattern/mask pair constraining the last len(s) hex nibbles
// of the address. An 'x' nibble is left unconstrained.
func Suffix(s string) (pattern, mask common.Address, err error) {
	nibbles := len(stripHexPrefix(s))
	return at(s, addressNibbles-nibbles)
}

// Target builds a pattern/mask pair from a full 40-nibble target, with 'x'
// marking unconstrained nibbles.
func Target(s string) (pattern, mask common.Address, err error) {
	if n := len(stripHexPrefix(s)); n != addressNibbles {
		return pattern, mask, fmt.Errorf("target must be %d hex chars, got %d", addressNibbles, n)
	}
	return at(s, 0)
}

// at places the nibble pattern s starting at nibble offset within the
// 40-nibble address.
func at(s string, offset int) (pattern, mask common.Address, err error) {
	s = stripHexPrefix(s)
	if offset < 0 || offset+len(s) > addressNibbles {
		return pattern, mask, fmt.Errorf("pattern of %d nibbles does not fit address at offset %d", len(s), offset)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == 'x' || c == 'X' {
			continue
		}
		v, ok := nibbleValue(c)
		if !ok {
			return common.Address{}, common.Address{}, fmt.Errorf("invalid hex char %q in pattern", c)
		}
		setNibble(&pattern, offset+i, v)
		setNibble(&mask, offset+i, 0xf)
	}
	return pattern, mask, nil
}

func stripHexPrefix(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	return s
}

func nibbleValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func setNibble(a *common.Address, i int, v byte) {
	if i%2 == 0 {
		a[i/2] |= v << 4
	} else {
		a[i/2] |= v
	}
}
