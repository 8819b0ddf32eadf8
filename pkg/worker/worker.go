// Package worker implements the per-goroutine salt scanner. Each worker owns
// one disjoint sub-range of the salt space and walks it sequentially,
// deriving the CREATE2 address for every salt until it finds a match, runs
// out of range, or observes the shared stop flag.
package worker

import (
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/screa/create2-salt-miner/internal/crypto"
	"github.com/screa/create2-salt-miner/pkg/match"
	"github.com/screa/create2-salt-miner/pkg/types"
)

// DeriveFunc maps (sender, salt, initCodeHash) to a contract address. It must
// be deterministic and pure.
type DeriveFunc func(sender common.Address, salt *uint256.Int, initCodeHash common.Hash) common.Address

// Config contains everything a single worker needs. All fields except
// Attempts are read-only for the lifetime of the scan.
type Config struct {
	Sender       common.Address
	InitCodeHash common.Hash
	Pattern      common.Address
	Mask         common.Address
	Range        types.SaltRange

	// Derive overrides the address derivation, nil means the real CREATE2
	// derivation. Tests substitute counting or faulting doubles here.
	Derive DeriveFunc

	// Attempts, when non-nil, is a shared counter incremented once per
	// derivation across all workers.
	Attempts *int64
}

// Worker scans a single salt sub-range.
type Worker struct {
	cfg Config
}

// New creates a worker instance bound to its configured range.
func New(cfg Config) *Worker {
	if cfg.Derive == nil {
		cfg.Derive = crypto.DeriveAddress
	}
	return &Worker{cfg: cfg}
}

// Scan walks the range from Start upward. On a match it publishes exactly one
// result and raises the stop flag; with no match it terminates on its own
// once the range is exhausted. Both the stop check and the exhaustion check
// run every iteration, so a raised flag costs at most one extra derivation
// per worker.
//
// The send is fire-and-forget: the coordinator sizes the channel so that one
// send per worker can never block, and a result that loses the race to an
// earlier one is simply never consumed.
func (w *Worker) Scan(results chan<- types.Result, stop *atomic.Bool) {
	salt := new(uint256.Int).Set(&w.cfg.Range.Start)
	for !stop.Load() && salt.Cmp(&w.cfg.Range.End) < 0 {
		addr := w.cfg.Derive(w.cfg.Sender, salt, w.cfg.InitCodeHash)
		if w.cfg.Attempts != nil {
			atomic.AddInt64(w.cfg.Attempts, 1)
		}
		if match.Matches(addr, w.cfg.Pattern, w.cfg.Mask) {
			results <- types.Result{Address: addr, Salt: *salt}
			stop.Store(true)
			return
		}
		salt.AddUint64(salt, 1)
	}
}
