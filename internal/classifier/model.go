package classifier

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	tflite "github.com/tphakala/go-tflite"

	"github.com/Ackah054/theft-detection/internal/frame"
)

// ErrInference marks a model invocation failure. Callers fall back to the
// next backend instead of propagating it to the request.
var ErrInference = errors.New("inference failed")

// Model wraps a binary TFLite classifier. The interpreter is not reentrant,
// so invocations are serialized.
type Model struct {
	mu      sync.Mutex
	model   *tflite.Model
	interp  *tflite.Interpreter
	options *tflite.InterpreterOptions
	logger  *slog.Logger
}

// LoadModel reads and prepares a TFLite model file for inference.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	model := tflite.NewModel(data)
	if model == nil {
		return nil, fmt.Errorf("failed to load model from %s", path)
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(runtime.NumCPU())

	interp := tflite.NewInterpreter(model, options)
	if interp == nil {
		model.Delete()
		options.Delete()
		return nil, errors.New("failed to create model interpreter")
	}

	if status := interp.AllocateTensors(); status != tflite.OK {
		interp.Delete()
		model.Delete()
		options.Delete()
		return nil, fmt.Errorf("failed to allocate tensors: status %d", status)
	}

	m := &Model{
		model:   model,
		interp:  interp,
		options: options,
		logger:  slog.Default().With("component", "model"),
	}
	m.logger.Info("Theft detection model loaded", "path", path)
	return m, nil
}

// Score normalizes the frame to [0,1] floats, invokes the model and extracts
// the positive-class probability. Both two-column (softmax over two classes,
// index 1 positive) and single-column (binary sigmoid) outputs are handled.
func (m *Model) Score(f *frame.Frame) (float64, error) {
	if f == nil || len(f.Pixels) == 0 {
		return 0, fmt.Errorf("%w: no frame data", ErrInference)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	input := m.interp.GetInputTensor(0)
	buf := input.Float32s()
	if len(buf) != len(f.Pixels) {
		return 0, fmt.Errorf("%w: input tensor wants %d values, frame has %d", ErrInference, len(buf), len(f.Pixels))
	}
	for i, px := range f.Pixels {
		buf[i] = float32(px) / 255.0
	}

	if status := m.interp.Invoke(); status != tflite.OK {
		return 0, fmt.Errorf("%w: interpreter status %d", ErrInference, status)
	}

	out := m.interp.GetOutputTensor(0).Float32s()
	switch {
	case len(out) >= 2:
		return float64(out[1]), nil
	case len(out) == 1:
		return float64(out[0]), nil
	default:
		return 0, fmt.Errorf("%w: empty output tensor", ErrInference)
	}
}

// Close releases the interpreter and model.
func (m *Model) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.interp != nil {
		m.interp.Delete()
		m.interp = nil
	}
	if m.options != nil {
		m.options.Delete()
		m.options = nil
	}
	if m.model != nil {
		m.model.Delete()
		m.model = nil
	}
}
