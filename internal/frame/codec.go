package frame

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"gocv.io/x/gocv"
)

// ErrEmptyPayload is returned when a request carries no image data at all.
var ErrEmptyPayload = errors.New("empty image payload")

// DecodeImage decodes a transport-encoded image payload into a classifier-ready
// frame. The payload may carry a data-URL scheme prefix
// ("data:image/...;base64,") which is stripped before decoding.
func DecodeImage(payload string) (*Frame, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrEmptyPayload
	}

	raw, err := base64.StdEncoding.DecodeString(stripScheme(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}

	mat, err := gocv.IMDecode(raw, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("decoded image is empty")
	}

	return matToFrame(mat)
}

// stripScheme removes a data-URL prefix if present. Raw base64 passes through.
func stripScheme(payload string) string {
	if !strings.HasPrefix(payload, "data:image") {
		return payload
	}
	if i := strings.Index(payload, ","); i >= 0 {
		return payload[i+1:]
	}
	return payload
}

// matToFrame resizes a BGR mat to the classifier geometry and converts it to
// canonical RGB ordering.
func matToFrame(mat gocv.Mat) (*Frame, error) {
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, image.Pt(InputSize, InputSize), 0, 0, gocv.InterpolationLinear)

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(resized, &rgb, gocv.ColorBGRToRGB)

	pixels := rgb.ToBytes()
	out := make([]byte, len(pixels))
	copy(out, pixels)

	return &Frame{
		Width:  InputSize,
		Height: InputSize,
		Pixels: out,
	}, nil
}
