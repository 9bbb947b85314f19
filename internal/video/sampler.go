// Package video drives the frame codec and classifier across a video file
// using a stride policy and aggregates per-frame detections into a session
// summary.
package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/Ackah054/theft-detection/internal/classifier"
	"github.com/Ackah054/theft-detection/internal/frame"
)

// Source supplies decoded frames from an open video container.
type Source interface {
	ReadFrame() (*frame.Frame, error)
	FPS() float64
	FrameCount() int
	Close() error
}

// Scorer runs the classification fallback chain over a single frame.
type Scorer interface {
	Score(f *frame.Frame) classifier.DetectionResult
}

// Detection is one qualifying per-frame result within a video.
type Detection struct {
	Timestamp   float64            `json:"timestamp"`
	Confidence  int                `json:"confidence"`
	Detected    bool               `json:"detected"`
	Description string             `json:"description"`
	Backend     classifier.Backend `json:"backend"`
	FrameNumber int                `json:"frame_number"`
}

// Summary aggregates a sampled video analysis.
type Summary struct {
	TotalFrames        int                    `json:"totalFrames"`
	ProcessedFrames    int                    `json:"processedFrames"`
	Detections         []Detection            `json:"detections"`
	OverallThreatLevel classifier.ThreatLevel `json:"overallThreatLevel"`
	AverageConfidence  float64                `json:"averageConfidence"`
	ValidDetections    int                    `json:"validDetections"`
	Duration           float64                `json:"duration"`
	FPS                float64                `json:"fps"`
}

// detectionMinConfidence is the floor for recording a per-frame detection in
// the summary.
const detectionMinConfidence = 60

// fallbackFPS stands in for the frame rate when the container does not
// report one.
const fallbackFPS = 30

var modelDescriptions = []string{
	"AI model detected suspicious behavior (confidence: %d%%)",
	"Theft activity identified by neural network (confidence: %d%%)",
	"Abnormal behavior pattern detected (confidence: %d%%)",
	"Potential shoplifting behavior identified (confidence: %d%%)",
	"Suspicious concealment activity detected (confidence: %d%%)",
}

// Sampler orchestrates decode, scoring and aggregation for video uploads.
type Sampler struct {
	scorer Scorer
	rng    *rand.Rand
	logger *slog.Logger
}

// NewSampler creates a video sampler. The rng picks detection descriptions
// and may be nil outside of tests.
func NewSampler(scorer Scorer, rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{
		scorer: scorer,
		rng:    rng,
		logger: slog.Default().With("component", "video_sampler"),
	}
}

// Analyze iterates the source until exhaustion, scoring roughly one frame
// per second. Per-frame failures are logged and skipped; a single corrupt
// frame never aborts the analysis. Cancellation is checked cooperatively
// between iterations, and the source is released on every exit path.
func (s *Sampler) Analyze(ctx context.Context, src Source) (*Summary, error) {
	defer func() {
		if err := src.Close(); err != nil {
			s.logger.Warn("Failed to release video source", "error", err)
		}
	}()

	fps := src.FPS()
	stride := fallbackFPS
	if fps > 0 {
		stride = int(math.Round(fps))
		if stride < 1 {
			stride = 1
		}
	}

	summary := &Summary{
		TotalFrames: src.FrameCount(),
		Detections:  []Detection{},
		FPS:         round1(fps),
	}
	if fps > 0 {
		summary.Duration = round1(float64(summary.TotalFrames) / fps)
	}

	s.logger.Info("Starting video analysis",
		"total_frames", summary.TotalFrames, "fps", summary.FPS, "stride", stride)

	frameNumber := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		f, err := src.ReadFrame()
		if errors.Is(err, frame.ErrEndOfStream) {
			break
		}
		frameNumber++
		if err != nil {
			s.logger.Warn("Skipping unreadable frame", "frame", frameNumber, "error", err)
			continue
		}

		if frameNumber%stride != 0 {
			continue
		}
		summary.ProcessedFrames++

		res := s.scorer.Score(f)
		if !res.Detected || res.Confidence <= detectionMinConfidence {
			continue
		}

		ts := float64(frameNumber) / fallbackFPS
		if fps > 0 {
			ts = float64(frameNumber) / fps
		}

		summary.Detections = append(summary.Detections, Detection{
			Timestamp:   round1(ts),
			Confidence:  res.Confidence,
			Detected:    true,
			Description: s.describe(res),
			Backend:     res.Backend,
			FrameNumber: frameNumber,
		})
		s.logger.Info("Detection", "timestamp", round1(ts), "confidence", res.Confidence, "backend", res.Backend)
	}

	s.aggregate(summary)
	s.logger.Info("Video analysis complete",
		"processed_frames", summary.ProcessedFrames,
		"detections", summary.ValidDetections,
		"overall_threat", summary.OverallThreatLevel)

	return summary, nil
}

// aggregate derives the overall threat level and average confidence from the
// recorded detections.
func (s *Sampler) aggregate(summary *Summary) {
	summary.ValidDetections = len(summary.Detections)

	switch {
	case summary.ValidDetections > 3:
		summary.OverallThreatLevel = classifier.ThreatHigh
	case summary.ValidDetections > 1:
		summary.OverallThreatLevel = classifier.ThreatMedium
	default:
		summary.OverallThreatLevel = classifier.ThreatLow
	}

	if summary.ValidDetections == 0 {
		return
	}
	var sum int
	for _, d := range summary.Detections {
		sum += d.Confidence
	}
	summary.AverageConfidence = round1(float64(sum) / float64(summary.ValidDetections))
}

func (s *Sampler) describe(res classifier.DetectionResult) string {
	switch res.Backend {
	case classifier.BackendModel:
		tmpl := modelDescriptions[s.rng.Intn(len(modelDescriptions))]
		return fmt.Sprintf(tmpl, res.Confidence)
	case classifier.BackendHeuristic:
		return fmt.Sprintf("Heuristic analysis detected unusual activity (confidence: %d%%)", res.Confidence)
	default:
		return fmt.Sprintf("Fallback detection flagged unusual activity (confidence: %d%%)", res.Confidence)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
