package classifier

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Ackah054/theft-detection/internal/frame"
)

// Mock draws detections from a fixed-probability random choice. It never
// inspects pixel data and is the last resort when preprocessing failed or no
// frame is available.
type Mock struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// mockPositiveRate is the chance a mock score comes out detected.
const mockPositiveRate = 0.15

// NewMock creates a mock scorer. A nil rng gets a time-seeded one; tests pass
// a fixed seed for deterministic output.
func NewMock(rng *rand.Rand) *Mock {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Mock{rng: rng}
}

// Score returns a probability from one of two disjoint confidence ranges:
// 65-95 for the 15% positive draws, 10-40 otherwise.
func (m *Mock) Score(_ *frame.Frame) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rng.Float64() < mockPositiveRate {
		return float64(65+m.rng.Intn(31)) / 100, nil
	}
	return float64(10+m.rng.Intn(31)) / 100, nil
}
