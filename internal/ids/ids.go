package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out identifiers for new records.
type Generator interface {
	NewID() string
}

// ULIDGenerator produces lexicographically sortable ULIDs from a monotonic
// entropy source. It is safe for concurrent use.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewULIDGenerator returns a generator seeded from crypto/rand.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// NewID returns a new ULID string.
func (g *ULIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now().UTC()), g.entropy).String()
}

var (
	defaultOnce sync.Once
	defaultGen  *ULIDGenerator
)

// New returns an ID from the package-level generator.
func New() string {
	defaultOnce.Do(func() { defaultGen = NewULIDGenerator() })
	return defaultGen.NewID()
}
