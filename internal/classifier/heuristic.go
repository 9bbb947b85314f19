package classifier

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/Ackah054/theft-detection/internal/frame"
)

// Heuristic thresholds: dark frames with high intensity variance are treated
// as suspicious. A crude stand-in for the model, but it does look at pixels.
const (
	heuristicStdDevMin = 50.0
	heuristicMeanMax   = 100.0
)

// Heuristic scores frames from grayscale statistics when no model is loaded.
// Positive scores land in the 60-80 confidence sub-range rather than being a
// true probability.
type Heuristic struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristic creates a heuristic scorer. A nil rng gets a time-seeded one;
// tests pass a fixed seed for deterministic output.
func NewHeuristic(rng *rand.Rand) *Heuristic {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Heuristic{rng: rng}
}

// Score flags elevated probability when the grayscale standard deviation
// exceeds 50 and the mean intensity is below 100.
func (h *Heuristic) Score(f *frame.Frame) (float64, error) {
	if f == nil || len(f.Pixels) < 3 {
		return 0, fmt.Errorf("%w: no frame data for heuristic", ErrInference)
	}

	mean, stddev := grayStats(f.Pixels)

	h.mu.Lock()
	defer h.mu.Unlock()
	if stddev > heuristicStdDevMin && mean < heuristicMeanMax {
		return float64(60+h.rng.Intn(21)) / 100, nil
	}
	return float64(10+h.rng.Intn(31)) / 100, nil
}

// grayStats computes mean and standard deviation of the BT.601 luma over RGB
// pixel triplets.
func grayStats(pixels []byte) (mean, stddev float64) {
	n := len(pixels) / 3
	if n == 0 {
		return 0, 0
	}

	var sum float64
	grays := make([]float64, 0, n)
	for i := 0; i+2 < len(pixels); i += 3 {
		g := 0.299*float64(pixels[i]) + 0.587*float64(pixels[i+1]) + 0.114*float64(pixels[i+2])
		grays = append(grays, g)
		sum += g
	}
	mean = sum / float64(len(grays))

	var sqDiff float64
	for _, g := range grays {
		d := g - mean
		sqDiff += d * d
	}
	stddev = math.Sqrt(sqDiff / float64(len(grays)))
	return mean, stddev
}
