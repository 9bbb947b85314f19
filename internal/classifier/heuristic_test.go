package classifier

import (
	"math/rand"
	"testing"

	"github.com/Ackah054/theft-detection/internal/frame"
)

// checkerFrame alternates dark and bright pixels: low mean, high variance.
func checkerFrame() *frame.Frame {
	pixels := make([]byte, frame.InputSize*frame.InputSize*3)
	for i := 0; i < len(pixels); i += 3 {
		var v byte
		if (i/3)%4 == 0 {
			v = 255
		}
		pixels[i], pixels[i+1], pixels[i+2] = v, v, v
	}
	return &frame.Frame{Width: frame.InputSize, Height: frame.InputSize, Pixels: pixels}
}

// flatFrame is a uniform mid-gray: zero variance.
func flatFrame() *frame.Frame {
	pixels := make([]byte, frame.InputSize*frame.InputSize*3)
	for i := range pixels {
		pixels[i] = 128
	}
	return &frame.Frame{Width: frame.InputSize, Height: frame.InputSize, Pixels: pixels}
}

func TestHeuristicFlagsDarkHighVariance(t *testing.T) {
	h := NewHeuristic(rand.New(rand.NewSource(1)))

	prob, err := h.Score(checkerFrame())
	if err != nil {
		t.Fatalf("heuristic score failed: %v", err)
	}

	res := Evaluate(prob, BackendHeuristic)
	if !res.Detected {
		t.Fatal("expected detection for dark high-variance frame")
	}
	if res.Confidence < 60 || res.Confidence > 80 {
		t.Errorf("heuristic confidence %d outside 60-80 sub-range", res.Confidence)
	}
}

func TestHeuristicIgnoresFlatFrame(t *testing.T) {
	h := NewHeuristic(rand.New(rand.NewSource(1)))

	prob, err := h.Score(flatFrame())
	if err != nil {
		t.Fatalf("heuristic score failed: %v", err)
	}

	if res := Evaluate(prob, BackendHeuristic); res.Detected {
		t.Errorf("flat frame should not be detected, got confidence %d", res.Confidence)
	}
}

func TestHeuristicNilFrame(t *testing.T) {
	h := NewHeuristic(nil)
	if _, err := h.Score(nil); err == nil {
		t.Error("expected error for nil frame")
	}
}

func TestGrayStats(t *testing.T) {
	// Uniform gray 100: mean 100, stddev 0.
	pixels := make([]byte, 300)
	for i := range pixels {
		pixels[i] = 100
	}
	mean, stddev := grayStats(pixels)
	if mean < 99.9 || mean > 100.1 {
		t.Errorf("mean = %v, want 100", mean)
	}
	if stddev != 0 {
		t.Errorf("stddev = %v, want 0", stddev)
	}
}

func TestPipelineFallsBackToMockWithoutFrame(t *testing.T) {
	p := NewPipeline(nil, rand.New(rand.NewSource(3)))

	res := p.Score(nil)
	if res.Backend != BackendMock {
		t.Errorf("backend = %s, want mock", res.Backend)
	}
}

func TestPipelineUsesHeuristicWithoutModel(t *testing.T) {
	p := NewPipeline(nil, rand.New(rand.NewSource(3)))

	res := p.Score(flatFrame())
	if res.Backend != BackendHeuristic {
		t.Errorf("backend = %s, want heuristic", res.Backend)
	}
}
