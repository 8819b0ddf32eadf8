// Package miner coordinates the parallel salt search: it partitions the salt
// domain across workers, fans them out as goroutines, and returns the first
// match any of them finds.
package miner

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/screa/create2-salt-miner/internal/logger"
	"github.com/screa/create2-salt-miner/pkg/types"
	"github.com/screa/create2-salt-miner/pkg/worker"
)

// Errors
var (
	ErrNotFound           = errors.New("no matching salt in searched domain")
	ErrInvalidWorkerCount = errors.New("worker count must be positive")
)

const defaultLogInterval = 5 * time.Second

// Partition splits the domain into n contiguous, pairwise-disjoint sub-ranges
// of equal size, assigned to workers in ascending order.
//
// The per-worker size is floor(domainSize / n), so up to n-1 salts at the top
// of the domain fall outside every range and are never scanned. The gap is
// kept on purpose, matching the documented bounded-coverage policy of
// types.FullDomain. If n exceeds the domain size the ranges are all empty.
func Partition(domain types.SaltRange, n int) ([]types.SaltRange, error) {
	if n <= 0 {
		return nil, ErrInvalidWorkerCount
	}
	size := new(uint256.Int).Div(domain.Size(), uint256.NewInt(uint64(n)))
	ranges := make([]types.SaltRange, n)
	for i := range ranges {
		lo := new(uint256.Int).Mul(size, uint256.NewInt(uint64(i)))
		hi := new(uint256.Int).Mul(size, uint256.NewInt(uint64(i+1)))
		ranges[i].Start.Add(&domain.Start, lo)
		ranges[i].End.Add(&domain.Start, hi)
	}
	return ranges, nil
}

// Options configures a single search.
type Options struct {
	Workers      int
	Sender       common.Address
	InitCodeHash common.Hash
	Pattern      common.Address
	Mask         common.Address

	// Domain restricts the search to a sub-range; nil means the full salt
	// space.
	Domain *types.SaltRange

	// Derive overrides the address derivation; nil means the real CREATE2
	// derivation.
	Derive worker.DeriveFunc

	// Logger enables periodic progress logging when non-nil.
	Logger      *logger.Logger
	LogInterval time.Duration
}

// Miner runs one salt search. A Miner is single-use: create a new one per
// call to Mine.
type Miner struct {
	opts     Options
	attempts int64
	stop     atomic.Bool
	wg       sync.WaitGroup
}

// New creates a miner instance for the given options.
func New(opts Options) *Miner {
	if opts.LogInterval <= 0 {
		opts.LogInterval = defaultLogInterval
	}
	return &Miner{opts: opts}
}

// Bruteforce searches the full salt domain for a salt whose derived CREATE2
// address matches pattern under mask, using workerCount parallel workers.
// It returns the first match observed, ErrNotFound when the partitioned
// domain is exhausted, or ErrInvalidWorkerCount for workerCount <= 0.
func Bruteforce(workerCount int, sender common.Address, initCodeHash common.Hash, pattern, mask common.Address) (types.Result, error) {
	return New(Options{
		Workers:      workerCount,
		Sender:       sender,
		InitCodeHash: initCodeHash,
		Pattern:      pattern,
		Mask:         mask,
	}).Mine()
}

// Mine runs the search to completion. Every spawned worker is joined before
// Mine returns, so no background work outlives the call. A worker goroutine
// terminating abnormally is surfaced as an error distinct from ErrNotFound.
func (m *Miner) Mine() (types.Result, error) {
	domain := types.FullDomain()
	if m.opts.Domain != nil {
		domain = *m.opts.Domain
	}
	ranges, err := Partition(domain, m.opts.Workers)
	if err != nil {
		return types.Result{}, err
	}

	// One slot per worker so a worker's single send can never block, even
	// when nobody is left receiving.
	results := make(chan types.Result, len(ranges))
	faults := make(chan error, len(ranges))

	start := time.Now()
	for _, rng := range ranges {
		w := worker.New(worker.Config{
			Sender:       m.opts.Sender,
			InitCodeHash: m.opts.InitCodeHash,
			Pattern:      m.opts.Pattern,
			Mask:         m.opts.Mask,
			Range:        rng,
			Derive:       m.opts.Derive,
			Attempts:     &m.attempts,
		})
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					// A crashed worker leaves its range unscanned, so the
					// whole search is unsound. Stop everyone and report.
					m.stop.Store(true)
					faults <- fmt.Errorf("worker fault: %v", r)
				}
			}()
			w.Scan(results, &m.stop)
		}()
	}

	var logDone chan struct{}
	if m.opts.Logger != nil {
		logDone = make(chan struct{})
		ticker := time.NewTicker(m.opts.LogInterval)
		go m.periodicLogger(ticker, logDone, start)
		defer func() {
			ticker.Stop()
			close(logDone)
		}()
	}

	// Close the results channel once every worker is done, turning "all
	// ranges exhausted" into a closed-channel receive below. The closer is
	// joined too, so nothing spawned here outlives the call.
	closerDone := make(chan struct{})
	go func() {
		defer close(closerDone)
		m.wg.Wait()
		close(results)
	}()

	res, ok := <-results
	m.stop.Store(true)
	<-closerDone
	if ok {
		return res, nil
	}
	select {
	case err := <-faults:
		return types.Result{}, err
	default:
	}
	return types.Result{}, ErrNotFound
}

// Stop asks all workers to wind down; the in-flight Mine call then returns
// ErrNotFound. Safe to call from another goroutine and idempotent.
func (m *Miner) Stop() {
	m.stop.Store(true)
}

// Attempts returns the number of derivations performed so far. Safe to call
// concurrently with Mine.
func (m *Miner) Attempts() int64 {
	return atomic.LoadInt64(&m.attempts)
}

// periodicLogger logs mining progress at regular intervals
func (m *Miner) periodicLogger(ticker *time.Ticker, done chan struct{}, start time.Time) {
	for {
		select {
		case <-ticker.C:
			attempts := m.Attempts()
			elapsed := time.Since(start)

			// Calculate rate safely
			rate := 0.0
			if elapsed.Seconds() > 0 {
				rate = float64(attempts) / elapsed.Seconds()
			}

			m.opts.Logger.Printf("Progress: %d attempts, %.2f hashes/sec", attempts, rate)
		case <-done:
			return
		}
	}
}
