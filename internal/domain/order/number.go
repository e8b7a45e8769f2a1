package order

import (
	"crypto/rand"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// numberAlphabet excludes easily confused characters (0/O, 1/I/L).
const (
	numberAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
	numberLength   = 10
	numberPrefix   = "EL-"
)

// NumberGenerator issues human-readable order numbers. A bloom filter seeded
// with every issued number short-circuits most collisions before the insert;
// the database uniqueness constraint remains the authority and a false
// negative only costs one retried insert.
type NumberGenerator struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
}

// NewNumberGenerator creates a generator pre-seeded with existing numbers.
func NewNumberGenerator(existing []string) *NumberGenerator {
	capacity := uint(len(existing)) * 2
	if capacity < 100_000 {
		capacity = 100_000
	}
	filter := bloom.NewWithEstimates(capacity, 0.001)
	for _, n := range existing {
		filter.AddString(n)
	}
	return &NumberGenerator{filter: filter}
}

// Next returns a fresh order number not present in the filter and records it
// as issued.
func (g *NumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	for {
		n := randomNumber()
		if g.filter.TestString(n) {
			continue
		}
		g.filter.AddString(n)
		return n
	}
}

// Observe records a number found taken by the database, so later calls stop
// proposing it.
func (g *NumberGenerator) Observe(n string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.filter.AddString(n)
}

func randomNumber() string {
	buf := make([]byte, numberLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	out := make([]byte, 0, len(numberPrefix)+numberLength)
	out = append(out, numberPrefix...)
	for _, b := range buf {
		out = append(out, numberAlphabet[int(b)%len(numberAlphabet)])
	}
	return string(out)
}
