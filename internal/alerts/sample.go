package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SeedSampleAlerts inserts demonstration alerts into an empty store so a
// fresh install has something to show on the dashboard. A store that already
// holds alerts is left untouched.
func SeedSampleAlerts(ctx context.Context, store Store) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	if stats.Total > 0 {
		return nil
	}

	now := time.Now()
	samples := []*Alert{
		{
			ID:          uuid.New().String(),
			Timestamp:   now.Add(-15 * time.Minute),
			Type:        TypeTheft,
			Severity:    SeverityHigh,
			Confidence:  87,
			Location:    "Camera 2 - Aisle 3",
			Description: "Suspicious activity detected - person concealing item",
			Status:      StatusActive,
			Metadata: map[string]any{
				"cameraId": "cam_002",
			},
		},
		{
			ID:          uuid.New().String(),
			Timestamp:   now.Add(-2 * time.Hour),
			Type:        TypeSuspicious,
			Severity:    SeverityMedium,
			Confidence:  72,
			Location:    "Camera 1 - Entrance",
			Description: "Potential theft activity - item removal without payment",
			Status:      StatusAcknowledged,
			Metadata: map[string]any{
				"cameraId": "cam_001",
			},
		},
		{
			ID:          uuid.New().String(),
			Timestamp:   now.Add(-5 * time.Hour),
			Type:        TypeTheft,
			Severity:    SeverityHigh,
			Confidence:  91,
			Location:    "Camera 3 - Electronics",
			Description: "High confidence theft detection - concealment behavior",
			Status:      StatusResolved,
			Metadata: map[string]any{
				"cameraId": "cam_003",
			},
		},
	}

	for _, alert := range samples {
		if err := store.Insert(ctx, alert); err != nil {
			return err
		}
	}
	return nil
}
