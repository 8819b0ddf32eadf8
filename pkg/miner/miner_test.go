package miner

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screa/create2-salt-miner/pkg/types"
)

// saltEcho maps every salt to the address formed by its low 20 bytes, so
// tests can plant a match at an exact salt.
func saltEcho(_ common.Address, salt *uint256.Int, _ common.Hash) common.Address {
	b := salt.Bytes32()
	return common.BytesToAddress(b[12:])
}

func addressOfSalt(salt uint64) common.Address {
	b := uint256.NewInt(salt).Bytes32()
	return common.BytesToAddress(b[12:])
}

func fullMask() common.Address {
	var m common.Address
	for i := range m {
		m[i] = 0xff
	}
	return m
}

func span(start, end uint64) types.SaltRange {
	var r types.SaltRange
	r.Start.SetUint64(start)
	r.End.SetUint64(end)
	return r
}

func TestPartition(t *testing.T) {
	domain := types.FullDomain()
	for _, n := range []int{1, 2, 3, 16, 255} {
		ranges, err := Partition(domain, n)
		require.NoError(t, err)
		require.Len(t, ranges, n)

		size := new(uint256.Int).Div(domain.Size(), uint256.NewInt(uint64(n)))
		for i := range ranges {
			// Half-open, correctly sized, monotonically increasing and
			// contiguous: disjointness follows.
			assert.True(t, ranges[i].Start.Cmp(&ranges[i].End) <= 0)
			assert.True(t, ranges[i].Size().Eq(size), "worker %d range size", i)
			if i > 0 {
				assert.True(t, ranges[i].Start.Eq(&ranges[i-1].End), "worker %d not contiguous", i)
			}
		}

		// The floor-division gap at the top of the domain is below n.
		gap := new(uint256.Int).Sub(&domain.End, &ranges[n-1].End)
		assert.True(t, gap.CmpUint64(uint64(n)) < 0, "gap %s for %d workers", gap.Hex(), n)
	}
}

func TestPartitionSubDomain(t *testing.T) {
	domain := span(100, 200)
	ranges, err := Partition(domain, 3)
	require.NoError(t, err)

	want := []types.SaltRange{span(100, 133), span(133, 166), span(166, 199)}
	assert.Equal(t, want, ranges)
}

func TestPartitionInvalidWorkerCount(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		_, err := Partition(types.FullDomain(), n)
		assert.ErrorIs(t, err, ErrInvalidWorkerCount, "workers=%d", n)
	}
}

func TestBruteforceInvalidWorkerCount(t *testing.T) {
	_, err := Bruteforce(0, common.Address{}, common.Hash{}, common.Address{}, common.Address{})
	assert.ErrorIs(t, err, ErrInvalidWorkerCount)
}

// An all-zero mask with an all-zero pattern is satisfied by every address, so
// worker 0 must succeed on its very first candidate.
func TestBruteforceZeroMaskMatchesImmediately(t *testing.T) {
	res, err := Bruteforce(4, common.Address{}, common.Hash{}, common.Address{}, common.Address{})
	require.NoError(t, err)
	assert.True(t, res.Salt.IsZero(), "Salt = %s, want 0", res.Salt.Hex())
}

func TestMineNotFoundInTruncatedDomain(t *testing.T) {
	domain := span(0, 10)
	m := New(Options{
		Workers: 2,
		Pattern: addressOfSalt(1000), // only salt 1000 would match, out of domain
		Mask:    fullMask(),
		Domain:  &domain,
		Derive:  saltEcho,
	})
	_, err := m.Mine()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 10, m.Attempts(), "whole domain scanned")
}

// The same unique planted match must be returned for any worker count.
func TestMineDeterministicAcrossWorkerCounts(t *testing.T) {
	const target = 123456
	domain := span(0, 1<<20)
	for _, workers := range []int{1, 2, 16} {
		m := New(Options{
			Workers: workers,
			Pattern: addressOfSalt(target),
			Mask:    fullMask(),
			Domain:  &domain,
			Derive:  saltEcho,
		})
		res, err := m.Mine()
		require.NoError(t, err, "workers=%d", workers)
		assert.True(t, res.Salt.Eq(uint256.NewInt(target)), "workers=%d Salt=%s", workers, res.Salt.Hex())
		assert.Equal(t, addressOfSalt(target), res.Address, "workers=%d", workers)
	}
}

func TestMineSurfacesWorkerFault(t *testing.T) {
	domain := span(0, 100)
	faulty := func(_ common.Address, salt *uint256.Int, _ common.Hash) common.Address {
		if salt.Eq(uint256.NewInt(10)) {
			panic("derivation blew up")
		}
		return common.Address{0xff}
	}
	m := New(Options{
		Workers: 2,
		Mask:    fullMask(), // zero pattern never matches 0xff... addresses
		Domain:  &domain,
		Derive:  faulty,
	})
	_, err := m.Mine()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "worker fault")
}

func TestMineStop(t *testing.T) {
	m := New(Options{
		Workers: 2,
		Pattern: common.Address{0xff}, // unreachable under saltEcho within any sane time
		Mask:    fullMask(),
		Derive:  saltEcho,
	})
	go func() {
		time.Sleep(10 * time.Millisecond)
		m.Stop()
	}()
	_, err := m.Mine()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMineStopBeforeStart(t *testing.T) {
	domain := span(0, 1000)
	m := New(Options{
		Workers: 4,
		Pattern: addressOfSalt(5),
		Mask:    fullMask(),
		Domain:  &domain,
		Derive:  saltEcho,
	})
	m.Stop()
	_, err := m.Mine()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, m.Attempts())
}

// Everything Mine spawns, including the results-channel closer, must be
// joined by the time Mine returns on the success path.
func TestMineLeavesNoGoroutinesBehind(t *testing.T) {
	const target = 42
	domain := span(0, 10000)
	for i := 0; i < 20; i++ {
		before := runtime.NumGoroutine()
		m := New(Options{
			Workers: 16,
			Pattern: addressOfSalt(target),
			Mask:    fullMask(),
			Domain:  &domain,
			Derive:  saltEcho,
		})
		res, err := m.Mine()
		require.NoError(t, err)
		require.True(t, res.Salt.Eq(uint256.NewInt(target)))

		if after := runtime.NumGoroutine(); after > before {
			t.Fatalf("goroutines grew from %d to %d across Mine", before, after)
		}
	}
}

// Repeated mixed-worker searches against the same planted match, exercising
// the stop/join paths under the race detector.
func TestMineStress(t *testing.T) {
	const target = 777
	domain := span(0, 10000)
	for i := 0; i < 50; i++ {
		workers := []int{1, 2, 16}[i%3]
		m := New(Options{
			Workers: workers,
			Pattern: addressOfSalt(target),
			Mask:    fullMask(),
			Domain:  &domain,
			Derive:  saltEcho,
		})
		res, err := m.Mine()
		require.NoError(t, err)
		require.True(t, res.Salt.Eq(uint256.NewInt(target)))
	}
}

// Attempts keeps counting across workers and never exceeds the domain size,
// i.e. cancellation prevents any rescanning or out-of-range work.
func TestMineAttemptsBounded(t *testing.T) {
	domain := span(0, 4000)
	var calls int64
	counting := func(sender common.Address, salt *uint256.Int, hash common.Hash) common.Address {
		atomic.AddInt64(&calls, 1)
		return saltEcho(sender, salt, hash)
	}
	m := New(Options{
		Workers: 4,
		Pattern: addressOfSalt(0),
		Mask:    fullMask(),
		Domain:  &domain,
		Derive:  counting,
	})
	res, err := m.Mine()
	require.NoError(t, err)
	require.True(t, res.Salt.IsZero())

	total := atomic.LoadInt64(&calls)
	assert.Equal(t, total, m.Attempts())
	assert.LessOrEqual(t, total, int64(4000))
}
