package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// SaltRange is a half-open range [Start, End) of salt values assigned to a
// single worker. Start <= End.
type SaltRange struct {
	Start uint256.Int
	End   uint256.Int
}

// Contains reports whether s falls inside the range.
func (r *SaltRange) Contains(s *uint256.Int) bool {
	return s.Cmp(&r.Start) >= 0 && s.Cmp(&r.End) < 0
}

// Size returns the number of salts in the range.
func (r *SaltRange) Size() *uint256.Int {
	return new(uint256.Int).Sub(&r.End, &r.Start)
}

func (r *SaltRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Hex(), r.End.Hex())
}

// FullDomain returns the default search domain [0, 2^256-1).
//
// The upper bound is the maximum representable salt, not 2^256, so the very
// top salt is never scanned, and floor-division partitioning leaves up to
// workerCount-1 more trailing salts unscanned. This bounded gap is
// deliberate; callers that care about the top of the domain can pass an
// explicit sub-range instead.
func FullDomain() SaltRange {
	var r SaltRange
	r.End.SetAllOne()
	return r
}

// Result is a successful search outcome: the salt and the contract address
// it derives to. Immutable once produced.
type Result struct {
	Address common.Address
	Salt    uint256.Int
}

func (r Result) String() string {
	return fmt.Sprintf("address %s salt %s", r.Address.Hex(), r.Salt.Hex())
}
