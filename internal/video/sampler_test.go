package video

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/Ackah054/theft-detection/internal/classifier"
	"github.com/Ackah054/theft-detection/internal/frame"
)

// fakeSource serves a fixed number of synthetic frames, optionally failing
// on selected frame numbers.
type fakeSource struct {
	total    int
	fps      float64
	served   int
	failOn   map[int]bool
	closed   bool
	closeErr error
}

func (f *fakeSource) ReadFrame() (*frame.Frame, error) {
	if f.served >= f.total {
		return nil, frame.ErrEndOfStream
	}
	f.served++
	if f.failOn[f.served] {
		return nil, errors.New("corrupt frame")
	}
	return &frame.Frame{Width: 224, Height: 224, Pixels: make([]byte, 224*224*3)}, nil
}

func (f *fakeSource) FPS() float64    { return f.fps }
func (f *fakeSource) FrameCount() int { return f.total }
func (f *fakeSource) Close() error {
	f.closed = true
	return f.closeErr
}

// scriptedScorer returns queued probabilities in order, repeating the last.
type scriptedScorer struct {
	probs []float64
	calls int
}

func (s *scriptedScorer) Score(_ *frame.Frame) classifier.DetectionResult {
	i := s.calls
	if i >= len(s.probs) {
		i = len(s.probs) - 1
	}
	s.calls++
	return classifier.Evaluate(s.probs[i], classifier.BackendModel)
}

func newTestSampler(scorer Scorer) *Sampler {
	return NewSampler(scorer, rand.New(rand.NewSource(1)))
}

func TestAnalyzeStrideSampling(t *testing.T) {
	src := &fakeSource{total: 300, fps: 30}
	scorer := &scriptedScorer{probs: []float64{0.1}}

	summary, err := newTestSampler(scorer).Analyze(context.Background(), src)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if summary.TotalFrames != 300 {
		t.Errorf("total frames = %d, want 300", summary.TotalFrames)
	}
	if summary.ProcessedFrames != 10 {
		t.Errorf("processed frames = %d, want 10 (stride 30 over 300 frames)", summary.ProcessedFrames)
	}
	if scorer.calls != 10 {
		t.Errorf("classifier called %d times, want 10", scorer.calls)
	}
	if !src.closed {
		t.Error("source not released after analysis")
	}
	if summary.Duration != 10.0 {
		t.Errorf("duration = %v, want 10.0", summary.Duration)
	}
}

func TestAnalyzeDefaultStrideWhenFPSUnknown(t *testing.T) {
	src := &fakeSource{total: 90, fps: 0}
	scorer := &scriptedScorer{probs: []float64{0.1}}

	summary, err := newTestSampler(scorer).Analyze(context.Background(), src)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if summary.ProcessedFrames != 3 {
		t.Errorf("processed frames = %d, want 3 (default stride 30)", summary.ProcessedFrames)
	}
}

func TestAnalyzeAggregation(t *testing.T) {
	// 300 frames at 30fps: frames 30,60,...,300 are sampled. First four
	// sampled frames score as detections with confidences 75, 82, 88, 91.
	src := &fakeSource{total: 300, fps: 30}
	scorer := &scriptedScorer{probs: []float64{0.75, 0.82, 0.88, 0.91, 0.1}}

	summary, err := newTestSampler(scorer).Analyze(context.Background(), src)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if summary.ValidDetections != 4 {
		t.Fatalf("valid detections = %d, want 4", summary.ValidDetections)
	}
	if summary.OverallThreatLevel != classifier.ThreatHigh {
		t.Errorf("overall threat = %s, want High (more than 3 detections)", summary.OverallThreatLevel)
	}
	if summary.AverageConfidence != 84.0 {
		t.Errorf("average confidence = %v, want 84.0", summary.AverageConfidence)
	}

	first := summary.Detections[0]
	if first.FrameNumber != 30 {
		t.Errorf("first detection frame = %d, want 30", first.FrameNumber)
	}
	if first.Timestamp != 1.0 {
		t.Errorf("first detection timestamp = %v, want 1.0", first.Timestamp)
	}
	if first.Description == "" {
		t.Error("detection description should not be empty")
	}
}

func TestAnalyzeThreatLevels(t *testing.T) {
	tests := []struct {
		detections int
		want       classifier.ThreatLevel
	}{
		{0, classifier.ThreatLow},
		{1, classifier.ThreatLow},
		{2, classifier.ThreatMedium},
		{3, classifier.ThreatMedium},
		{4, classifier.ThreatHigh},
	}

	for _, tt := range tests {
		probs := make([]float64, tt.detections+1)
		for i := 0; i < tt.detections; i++ {
			probs[i] = 0.9
		}
		probs[tt.detections] = 0.1

		src := &fakeSource{total: 300, fps: 30}
		summary, err := newTestSampler(&scriptedScorer{probs: probs}).Analyze(context.Background(), src)
		if err != nil {
			t.Fatalf("analyze failed: %v", err)
		}
		if summary.OverallThreatLevel != tt.want {
			t.Errorf("%d detections: threat = %s, want %s", tt.detections, summary.OverallThreatLevel, tt.want)
		}
	}
}

func TestAnalyzeSkipsCorruptFrames(t *testing.T) {
	// Frame 60 is corrupt; it happens to be a sampled frame, so one fewer
	// frame reaches the classifier and the analysis still completes.
	src := &fakeSource{total: 300, fps: 30, failOn: map[int]bool{60: true}}
	scorer := &scriptedScorer{probs: []float64{0.1}}

	summary, err := newTestSampler(scorer).Analyze(context.Background(), src)
	if err != nil {
		t.Fatalf("analyze should survive a corrupt frame: %v", err)
	}

	if summary.ProcessedFrames != 9 {
		t.Errorf("processed frames = %d, want 9", summary.ProcessedFrames)
	}
	if !src.closed {
		t.Error("source not released")
	}
}

func TestAnalyzeLowConfidenceDetectionsExcluded(t *testing.T) {
	// Probability 0.55 is a detection but confidence 55 is below the
	// recording floor of 60.
	src := &fakeSource{total: 60, fps: 30}
	scorer := &scriptedScorer{probs: []float64{0.55}}

	summary, err := newTestSampler(scorer).Analyze(context.Background(), src)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if summary.ValidDetections != 0 {
		t.Errorf("valid detections = %d, want 0", summary.ValidDetections)
	}
	if summary.AverageConfidence != 0 {
		t.Errorf("average confidence = %v, want 0", summary.AverageConfidence)
	}
}

func TestAnalyzeCancellationReleasesSource(t *testing.T) {
	src := &fakeSource{total: 10000, fps: 30}
	scorer := &scriptedScorer{probs: []float64{0.1}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestSampler(scorer).Analyze(ctx, src)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !src.closed {
		t.Error("source not released after cancellation")
	}
}
