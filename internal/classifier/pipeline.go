package classifier

import (
	"log/slog"
	"math/rand"

	"github.com/Ackah054/theft-detection/internal/frame"
)

// Pipeline owns the backend fallback chain: model when loaded and healthy,
// heuristic when pixel data is available, mock otherwise. Selection depends
// only on upstream success or failure, never on caller intent.
type Pipeline struct {
	model     *Model
	heuristic *Heuristic
	mock      *Mock
	logger    *slog.Logger
}

// NewPipeline builds the scoring chain. The model may be nil when no trained
// classifier is available. The rng seeds the heuristic and mock backends and
// may be nil outside of tests.
func NewPipeline(model *Model, rng *rand.Rand) *Pipeline {
	return &Pipeline{
		model:     model,
		heuristic: NewHeuristic(rng),
		mock:      NewMock(rng),
		logger:    slog.Default().With("component", "classifier"),
	}
}

// ModelLoaded reports whether a trained model backs the pipeline.
func (p *Pipeline) ModelLoaded() bool {
	return p.model != nil
}

// Score runs the fallback chain over a decoded frame and evaluates the
// outcome. A nil frame (preprocessing failed entirely) skips straight to the
// mock backend. Backend failures are absorbed, never propagated.
func (p *Pipeline) Score(f *frame.Frame) DetectionResult {
	if f != nil && p.model != nil {
		prob, err := p.model.Score(f)
		if err == nil {
			return Evaluate(prob, BackendModel)
		}
		p.logger.Warn("Model inference failed, falling back", "error", err)
	}

	if f != nil {
		prob, err := p.heuristic.Score(f)
		if err == nil {
			return Evaluate(prob, BackendHeuristic)
		}
		p.logger.Warn("Heuristic scoring failed, falling back", "error", err)
	}

	prob, _ := p.mock.Score(nil)
	return Evaluate(prob, BackendMock)
}
