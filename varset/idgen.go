// ABOUTME: Injectable id generators for variable sets: ULID (default), UUID, timestamp, counter.
// ABOUTME: Every generator is safe for concurrent use and never repeats within one process.
package varset

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDGenerator produces new variable set ids.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() string

// NewID calls f.
func (f IDGeneratorFunc) NewID() string { return f() }

// ULIDGenerator yields lexically sortable ULIDs. Monotonic entropy guarded
// by a mutex keeps ids unique even within the same millisecond.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewULIDGenerator returns a ULID generator seeded from crypto/rand.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewID returns a new ULID string.
func (g *ULIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Now(), g.entropy).String()
}

// UUIDGenerator yields random (v4) UUIDs.
type UUIDGenerator struct{}

// NewID returns a new UUID string.
func (UUIDGenerator) NewID() string { return uuid.New().String() }

// TimestampGenerator yields decimal milliseconds since the epoch. When two
// calls land in the same millisecond the later one is bumped past the
// previous id, so ids stay unique and increasing within the process.
type TimestampGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewTimestampGenerator returns a generator reading the wall clock.
func NewTimestampGenerator() *TimestampGenerator {
	return &TimestampGenerator{now: time.Now}
}

// NewID returns the next timestamp id.
func (g *TimestampGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}

// CounterGenerator yields prefix-1, prefix-2, ... Useful for deterministic tests.
type CounterGenerator struct {
	mu     sync.Mutex
	Prefix string
	n      uint64
}

// NewID returns the next counter id.
func (g *CounterGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	if g.Prefix == "" {
		return strconv.FormatUint(g.n, 10)
	}
	return g.Prefix + "-" + strconv.FormatUint(g.n, 10)
}

// GeneratorForScheme maps a scheme name to a generator.
func GeneratorForScheme(scheme string) (IDGenerator, error) {
	switch scheme {
	case "", "ulid":
		return NewULIDGenerator(), nil
	case "uuid":
		return UUIDGenerator{}, nil
	case "timestamp":
		return NewTimestampGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q (want ulid, uuid or timestamp)", scheme)
	}
}
