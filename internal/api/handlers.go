package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ackah054/theft-detection/internal/alerts"
	"github.com/Ackah054/theft-detection/internal/classifier"
	"github.com/Ackah054/theft-detection/internal/config"
	"github.com/Ackah054/theft-detection/internal/frame"
	"github.com/Ackah054/theft-detection/internal/video"
)

// Handler bundles the dependencies of the HTTP API.
type Handler struct {
	pipeline *classifier.Pipeline
	sampler  *video.Sampler
	store    alerts.Store
	synth    *alerts.Synthesizer
	hub      *Hub
	cfg      *config.Config
	logger   *slog.Logger
}

// NewHandler creates the API handler set.
func NewHandler(pipeline *classifier.Pipeline, sampler *video.Sampler, store alerts.Store, synth *alerts.Synthesizer, hub *Hub, cfg *config.Config) *Handler {
	return &Handler{
		pipeline: pipeline,
		sampler:  sampler,
		store:    store,
		synth:    synth,
		hub:      hub,
		cfg:      cfg,
		logger:   slog.Default().With("component", "api"),
	}
}

type detectFrameRequest struct {
	Image    string `json:"image"`
	CameraID string `json:"camera_id"`
	Location string `json:"location"`
}

// DetectFrame classifies a single base64-encoded frame from a live stream.
func (h *Handler) DetectFrame(w http.ResponseWriter, r *http.Request) {
	var req detectFrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if req.Image == "" {
		badRequest(w, "No image data provided")
		return
	}

	var fallbackReason string
	f, err := frame.DecodeImage(req.Image)
	if err != nil {
		if errors.Is(err, frame.ErrEmptyPayload) {
			badRequest(w, "No image data provided")
			return
		}
		// A bad frame should not fail the stream; classify without pixels
		// so the mock backend takes over.
		h.logger.Warn("Frame decode failed, falling back", "error", err)
		fallbackReason = "image decode failed"
		f = nil
	}

	result := h.pipeline.Score(f)

	location := req.Location
	if location == "" {
		location = "Live Camera Feed"
	}

	alert, err := h.synth.FromLiveDetection(r.Context(), result, req.CameraID, location)
	if err != nil {
		h.logger.Error("Failed to persist alert", "error", err)
		internalError(w, "Failed to record alert")
		return
	}
	if alert != nil && h.hub != nil {
		h.hub.BroadcastAlert(alert)
	}

	resp := map[string]any{
		"detected":      result.Detected,
		"confidence":    result.Confidence,
		"threat_level":  result.ThreatLevel,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"backend":       result.Backend,
		"model_used":    result.Backend == classifier.BackendModel,
		"alert_created": alert != nil,
	}
	if fallbackReason != "" {
		resp["fallback_reason"] = fallbackReason
	}
	if alert != nil {
		resp["alert_id"] = alert.ID
	}

	writeJSON(w, http.StatusOK, resp)
}

// AnalyzeVideo runs theft detection over an uploaded video file.
func (h *Handler) AnalyzeVideo(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(h.cfg.Detection.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("video")
	if err != nil {
		badRequest(w, "No video file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		badRequest(w, "No video file selected")
		return
	}

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		internalError(w, "Failed to store upload")
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		internalError(w, "Failed to store upload")
		return
	}
	if err := tmp.Close(); err != nil {
		internalError(w, "Failed to store upload")
		return
	}

	src, err := frame.OpenCapture(tmpPath)
	if err != nil {
		badRequest(w, "Could not open video file")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.VideoTimeout())
	defer cancel()

	summary, err := h.sampler.Analyze(ctx, src)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusRequestTimeout, "Video analysis timed out")
			return
		}
		h.logger.Error("Video analysis failed", "file", header.Filename, "error", err)
		internalError(w, "Video analysis failed")
		return
	}

	created, err := h.synth.FromVideoSummary(r.Context(), summary, header.Filename)
	if err != nil {
		h.logger.Error("Failed to persist video alerts", "error", err)
		internalError(w, "Failed to record alerts")
		return
	}
	if created > 0 && h.hub != nil {
		if stats, err := h.store.Stats(r.Context()); err == nil {
			h.hub.BroadcastStats(stats)
		}
	}

	resp := map[string]any{
		"totalFrames":        summary.TotalFrames,
		"processedFrames":    summary.ProcessedFrames,
		"detections":         summary.Detections,
		"overallThreatLevel": summary.OverallThreatLevel,
		"averageConfidence":  summary.AverageConfidence,
		"validDetections":    summary.ValidDetections,
		"duration":           summary.Duration,
		"fps":                summary.FPS,
		"alertsCreated":      created,
		"filename":           header.Filename,
		"model_used":         h.pipeline.ModelLoaded(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListAlerts returns alerts matching the query filters, newest first.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	filter := alerts.Filter{
		Status:   filterValue[alerts.Status](r, "status"),
		Type:     filterValue[alerts.Type](r, "type"),
		Severity: filterValue[alerts.Severity](r, "severity"),
	}

	list, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list alerts", "error", err)
		internalError(w, "Failed to list alerts")
		return
	}

	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.logger.Error("Failed to load alert stats", "error", err)
		internalError(w, "Failed to load alert stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"alerts":         list,
		"stats":          stats,
		"filtered_count": len(list),
	})
}

// filterValue reads a query parameter, treating "" and "all" as no filter.
func filterValue[T ~string](r *http.Request, key string) T {
	v := r.URL.Query().Get(key)
	if v == "all" {
		return ""
	}
	return T(v)
}

type updateAlertRequest struct {
	Status alerts.Status `json:"status"`
}

// UpdateAlert transitions an alert's status and records the change.
func (h *Handler) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	alert, err := h.store.UpdateStatus(r.Context(), id, req.Status)
	switch {
	case errors.Is(err, alerts.ErrInvalidStatus):
		badRequest(w, "Invalid status value")
		return
	case errors.Is(err, alerts.ErrNotFound):
		notFound(w, "Alert not found")
		return
	case err != nil:
		h.logger.Error("Failed to update alert", "id", id, "error", err)
		internalError(w, "Failed to update alert")
		return
	}

	h.synth.NotifyStatusChange(alert)
	if h.hub != nil {
		h.hub.BroadcastStatusChange(alert)
	}

	change := alert.StatusHistory[len(alert.StatusHistory)-1]
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"alert":   alert,
		"message": "Alert status changed from " + string(change.From) + " to " + string(change.To),
	})
}

// Stats returns alert counters and system state.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.logger.Error("Failed to load alert stats", "error", err)
		internalError(w, "Failed to load alert stats")
		return
	}

	resp := map[string]any{
		"total_alerts":        stats.Total,
		"active_alerts":       stats.Active,
		"acknowledged_alerts": stats.Acknowledged,
		"resolved_alerts":     stats.Resolved,
		"model_loaded":        h.pipeline.ModelLoaded(),
	}
	if h.hub != nil {
		resp["connected_clients"] = h.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"model_loaded": h.pipeline.ModelLoaded(),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}
