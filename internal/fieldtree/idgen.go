package fieldtree

import (
	"crypto/rand"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDGenerator produces field ids. Implementations must return ids that are
// unique for the lifetime of the generator and be safe for concurrent use.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts a plain function to the IDGenerator interface.
type IDFunc func() string

func (f IDFunc) NewID() string { return f() }

// ULIDGenerator issues lexically sortable ULIDs from a monotonic entropy
// source, so ids created within the same millisecond still increase.
type ULIDGenerator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy *ulid.MonotonicEntropy
}

// NewULIDGenerator creates a generator reading entropy from src and the
// timestamp from now. Nil arguments select crypto/rand and time.Now.
func NewULIDGenerator(now func() time.Time, src io.Reader) *ULIDGenerator {
	if now == nil {
		now = time.Now
	}
	if src == nil {
		src = rand.Reader
	}
	return &ULIDGenerator{
		now:     now,
		entropy: ulid.Monotonic(src, 0),
	}
}

func (g *ULIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}

// Sequence issues prefix1, prefix2, ... It is deterministic and intended for
// tests and reproducible fixtures.
type Sequence struct {
	prefix string
	n      atomic.Uint64
}

// NewSequence creates a counter-backed generator.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewID() string {
	return s.prefix + strconv.FormatUint(s.n.Add(1), 10)
}
