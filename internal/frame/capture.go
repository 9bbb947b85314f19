package frame

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrEndOfStream signals that a video source is exhausted. This is an
// expected condition, not a failure.
var ErrEndOfStream = errors.New("end of video stream")

// Capture reads frames from a video file and normalizes them to classifier
// geometry. It is not safe for concurrent use.
type Capture struct {
	cap     *gocv.VideoCapture
	scratch gocv.Mat
	fps     float64
	frames  int
	closed  bool
}

// OpenCapture opens a video file for frame-by-frame reading.
func OpenCapture(path string) (*Capture, error) {
	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	if !cap.IsOpened() {
		_ = cap.Close()
		return nil, fmt.Errorf("could not open video file: %s", path)
	}

	return &Capture{
		cap:     cap,
		scratch: gocv.NewMat(),
		fps:     cap.Get(gocv.VideoCaptureFPS),
		frames:  int(cap.Get(gocv.VideoCaptureFrameCount)),
	}, nil
}

// FPS reports the container frame rate, 0 when unknown.
func (c *Capture) FPS() float64 {
	if c.fps > 0 {
		return c.fps
	}
	return 0
}

// FrameCount reports the container frame count, 0 when unknown.
func (c *Capture) FrameCount() int {
	if c.frames > 0 {
		return c.frames
	}
	return 0
}

// ReadFrame pulls the next frame, converted to RGB and resized. Returns
// ErrEndOfStream once the source is exhausted.
func (c *Capture) ReadFrame() (*Frame, error) {
	if c.closed {
		return nil, ErrEndOfStream
	}
	if ok := c.cap.Read(&c.scratch); !ok || c.scratch.Empty() {
		return nil, ErrEndOfStream
	}
	return matToFrame(c.scratch)
}

// Close releases the underlying video resource. Safe to call more than once.
// Both the scratch mat and the capture are released even if either fails.
func (c *Capture) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return errors.Join(c.scratch.Close(), c.cap.Close())
}
