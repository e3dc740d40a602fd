package internal

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// UserIDPrefix marks ids minted for directory entries.
const UserIDPrefix = "user_"

// IDGenerator mints user ids from a ULID stream that never goes backwards:
// timestamps are clamped to the last issued one and same-millisecond ids bump
// the monotonic entropy, so two ids from one generator never collide.
type IDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	lastMS  uint64
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewUserID returns "user_" followed by a lowercase ULID.
func (g *IDGenerator) NewUserID(now time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := ulid.Timestamp(now)
	if ms < g.lastMS {
		ms = g.lastMS
	}

	for attempt := 0; attempt < 2; attempt++ {
		id, err := ulid.New(ms, g.entropy)
		if err == nil {
			g.lastMS = ms
			return UserIDPrefix + strings.ToLower(id.String()), nil
		}
		if !errors.Is(err, ulid.ErrMonotonicOverflow) {
			return "", err
		}
		// entropy exhausted within this millisecond
		ms++
	}
	return "", ulid.ErrMonotonicOverflow
}
