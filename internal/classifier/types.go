// Package classifier scores camera frames for theft likelihood. It wraps a
// trained TFLite model when one is available and falls back to a pixel
// heuristic or a randomized mock, exposing a uniform probability contract
// regardless of backend.
package classifier

import (
	"github.com/Ackah054/theft-detection/internal/frame"
)

// Backend identifies the concrete scoring mechanism behind a result.
type Backend string

const (
	BackendModel     Backend = "model"
	BackendHeuristic Backend = "heuristic"
	BackendMock      Backend = "mock"
)

// ThreatLevel is the three-tier banding of a confidence value.
type ThreatLevel string

const (
	ThreatLow    ThreatLevel = "Low"
	ThreatMedium ThreatLevel = "Medium"
	ThreatHigh   ThreatLevel = "High"
)

// DetectionResult is the atomic inference output.
type DetectionResult struct {
	Detected       bool        `json:"detected"`
	Confidence     int         `json:"confidence"`
	ThreatLevel    ThreatLevel `json:"threat_level"`
	Backend        Backend     `json:"backend"`
	RawProbability float64     `json:"raw_probability"`
}

// Scorer estimates the probability of the positive (theft) class for a frame.
type Scorer interface {
	Score(f *frame.Frame) (float64, error)
}
