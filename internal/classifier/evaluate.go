package classifier

import "math"

// ThreatLevelFor bands an integer confidence: High above 80, Medium above 60,
// Low otherwise.
func ThreatLevelFor(confidence int) ThreatLevel {
	switch {
	case confidence > 80:
		return ThreatHigh
	case confidence > 60:
		return ThreatMedium
	default:
		return ThreatLow
	}
}

// Evaluate converts a raw probability into a structured detection result.
// Detection requires the probability to exceed 0.5; the threat level is a
// pure function of the derived confidence.
func Evaluate(probability float64, backend Backend) DetectionResult {
	confidence := int(math.Round(probability * 100))
	return DetectionResult{
		Detected:       probability > 0.5,
		Confidence:     confidence,
		ThreatLevel:    ThreatLevelFor(confidence),
		Backend:        backend,
		RawProbability: probability,
	}
}
