package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Ackah054/theft-detection/internal/classifier"
	"github.com/Ackah054/theft-detection/internal/video"
)

// Alerting thresholds. The live path alerts above confidence 60 with
// severity bands at 70 and 80; the video path alerts above 70 with a
// narrower high band at 85. The asymmetry is deliberate: the two paths have
// always carried distinct policies and reconciling them would silently
// change alert volume.
const (
	liveAlertThreshold  = 60
	liveHighBand        = 80
	liveMediumBand      = 70
	videoAlertThreshold = 70
	videoHighBand       = 85
)

// Publisher fans alert activity out to interested subscribers.
type Publisher interface {
	Publish(subject string, data any) error
}

// Bus subjects for alert activity.
const (
	SubjectCreated = "alerts.created"
	SubjectStatus  = "alerts.status"
)

// Synthesizer decides whether and how a detection materializes alert
// records. It is the only creator of alerts in the system.
type Synthesizer struct {
	store  Store
	bus    Publisher
	logger *slog.Logger
}

// NewSynthesizer creates a synthesizer over the given store. The bus may be
// nil when eventing is disabled.
func NewSynthesizer(store Store, bus Publisher) *Synthesizer {
	return &Synthesizer{
		store:  store,
		bus:    bus,
		logger: slog.Default().With("component", "alert_synthesizer"),
	}
}

// FromLiveDetection creates one alert for a single-frame detection when it
// crosses the live alerting threshold. Returns nil when no alert is
// warranted.
func (s *Synthesizer) FromLiveDetection(ctx context.Context, res classifier.DetectionResult, cameraID, location string) (*Alert, error) {
	if !res.Detected || res.Confidence <= liveAlertThreshold {
		return nil, nil
	}

	severity := SeverityLow
	switch {
	case res.Confidence > liveHighBand:
		severity = SeverityHigh
	case res.Confidence > liveMediumBand:
		severity = SeverityMedium
	}

	alert := &Alert{
		Type:        TypeTheft,
		Severity:    severity,
		Confidence:  res.Confidence,
		Location:    location,
		Description: fmt.Sprintf("Live theft detection - %s threat level (confidence: %d%%)", res.ThreatLevel, res.Confidence),
		Status:      StatusActive,
		Metadata: map[string]any{
			"cameraId":         cameraID,
			"realtime":         true,
			"backend":          string(res.Backend),
			"threat_level":     string(res.ThreatLevel),
			"detection_method": "live_stream",
		},
	}

	if err := s.store.Insert(ctx, alert); err != nil {
		return nil, err
	}
	s.publish(SubjectCreated, alert)
	return alert, nil
}

// FromVideoSummary creates one alert per qualifying detection in a video
// analysis summary and returns the number created.
func (s *Synthesizer) FromVideoSummary(ctx context.Context, summary *video.Summary, filename string) (int, error) {
	created := 0
	for _, det := range summary.Detections {
		if !det.Detected || det.Confidence <= videoAlertThreshold {
			continue
		}

		severity := SeverityMedium
		if det.Confidence > videoHighBand {
			severity = SeverityHigh
		}

		ts := strconv.FormatFloat(det.Timestamp, 'f', 1, 64)
		alert := &Alert{
			Type:        TypeTheft,
			Severity:    severity,
			Confidence:  det.Confidence,
			Location:    "Uploaded Video: " + filename,
			Description: fmt.Sprintf("%s (at %ss)", det.Description, ts),
			Status:      StatusActive,
			Metadata: map[string]any{
				"videoFile":        filename,
				"videoTimestamp":   det.Timestamp,
				"backend":          string(det.Backend),
				"frame_number":     det.FrameNumber,
				"detection_method": "video_upload",
			},
		}

		if err := s.store.Insert(ctx, alert); err != nil {
			return created, err
		}
		s.publish(SubjectCreated, alert)
		created++
	}

	if created > 0 {
		s.logger.Info("Video alerts synthesized", "file", filename, "count", created)
	}
	return created, nil
}

// NotifyStatusChange publishes an alert status transition to the bus.
func (s *Synthesizer) NotifyStatusChange(alert *Alert) {
	s.publish(SubjectStatus, alert)
}

func (s *Synthesizer) publish(subject string, alert *Alert) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(subject, alert); err != nil {
		s.logger.Warn("Failed to publish alert event", "subject", subject, "error", err)
	}
}
