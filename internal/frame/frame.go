// Package frame decodes camera payloads and video files into raw pixel frames
// sized for the classifier input.
package frame

// InputSize is the square pixel geometry the classifier expects.
const InputSize = 224

// Frame is a transient raw pixel buffer. Pixel values are unnormalized bytes;
// normalization to [0,1] is the classifier's concern.
type Frame struct {
	Width  int
	Height int
	Pixels []byte // RGB24, row-major
}
