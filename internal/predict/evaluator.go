package predict

import (
	"errors"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/roadmetrics/lanecast/internal/predict/mlp"
)

// FeatureSink receives snapshots annotated with raw feature vectors during
// offline recording runs. Implemented by the sqlite feature store;
// append-only.
type FeatureSink interface {
	Insert(obstacleID int, snap *Snapshot) error
}

// SequenceResult is the outcome of scoring one candidate lane sequence.
// The orchestrator applies it to the sequence; callers that want the raw
// outputs without the in-place annotation can read these records directly.
type SequenceResult struct {
	SequenceIndex    int
	Probability      float64
	TimeToLaneCenter float64

	// ModelRan reports whether a model was invoked for this sequence. False
	// on feature-size mismatch and in offline mode.
	ModelRan bool
}

// Evaluator runs the cruise feature pipeline and model invocation for one
// obstacle at a time. The two model handles are immutable after
// construction; the evaluator itself keeps no per-call state, so a single
// instance may score obstacles from concurrent callers.
type Evaluator struct {
	cfg        Config
	registry   Registry
	goModel    mlp.Model
	cutinModel mlp.Model
	sink       FeatureSink
	log        zerolog.Logger
}

// NewEvaluator constructs an evaluator. In online mode both model handles
// are required; the process cannot score sequences without trained models.
// sink may be nil, in which case offline runs only annotate snapshots.
func NewEvaluator(cfg Config, registry Registry, goModel, cutinModel mlp.Model, sink FeatureSink, log zerolog.Logger) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.OfflineMode && (goModel == nil || cutinModel == nil) {
		return nil, errors.New("online evaluation requires both go and cut-in models")
	}
	return &Evaluator{
		cfg:        cfg,
		registry:   registry,
		goModel:    goModel,
		cutinModel: cutinModel,
		sink:       sink,
		log:        log,
	}, nil
}

// Evaluate scores every candidate lane sequence attached to the obstacle's
// latest snapshot, applies probability and time-to-lane-center in place,
// and returns the per-sequence results. Sequences are scored independently
// in order; a failure on one never aborts the others. Missing inputs (no
// latest snapshot, no lane graph, zero sequences) make the whole call a
// logged no-op.
func (e *Evaluator) Evaluate(obs *Obstacle) []SequenceResult {
	if obs == nil {
		return nil
	}
	latest := obs.Latest()
	if latest == nil {
		e.log.Debug().Int("obstacle", obs.ID).Msg("no latest snapshot, skipping evaluation")
		return nil
	}
	if latest.LaneGraph == nil || len(latest.LaneGraph.Sequences) == 0 {
		e.log.Debug().Int("obstacle", obs.ID).Msg("no candidate lane sequences, skipping evaluation")
		return nil
	}

	sequences := latest.LaneGraph.Sequences
	results := make([]SequenceResult, 0, len(sequences))
	for i, seq := range sequences {
		res := e.evaluateSequence(obs, latest, seq, i)
		seq.Probability = res.Probability
		if res.ModelRan {
			seq.TimeToLaneCenter = res.TimeToLaneCenter
		}
		results = append(results, res)
	}

	if e.cfg.OfflineMode && e.sink != nil {
		if err := e.sink.Insert(obs.ID, latest); err != nil {
			e.log.Warn().Err(err).Int("obstacle", obs.ID).Msg("feature sink insert failed")
		}
	}
	return results
}

func (e *Evaluator) evaluateSequence(obs *Obstacle, latest *Snapshot, seq *LaneSequence, index int) SequenceResult {
	res := SequenceResult{
		SequenceIndex:    index,
		Probability:      seq.Probability,
		TimeToLaneCenter: seq.TimeToLaneCenter,
	}

	features := e.extractFeatures(obs, seq)
	if len(features) != e.cfg.TotalFeatureSize() {
		e.log.Debug().
			Int("obstacle", obs.ID).
			Int("sequence", index).
			Int("size", len(features)).
			Int("want", e.cfg.TotalFeatureSize()).
			Msg("feature size mismatch, forcing probability to zero")
		res.Probability = 0
		return res
	}

	if e.cfg.OfflineMode {
		latest.OfflineFeatures = append(latest.OfflineFeatures, features)
		return res
	}

	obsEnd := e.cfg.ObstacleFeatureSize() + InteractionFeatureSize
	obsVec := mat.NewDense(1, obsEnd, features[:obsEnd:obsEnd])
	laneMat := mat.NewDense(singleLaneFeatureSize, e.cfg.LanePointCount, features[obsEnd:])

	model := e.cutinModel
	if seq.VehicleOnLane {
		model = e.goModel
	}
	output, err := model.Run(laneMat, obsVec)
	if err != nil {
		e.log.Warn().Err(err).Int("obstacle", obs.ID).Int("sequence", index).Msg("model run failed")
		res.Probability = 0
		return res
	}
	res.Probability = output.At(0, 0)
	res.TimeToLaneCenter = output.At(0, 1)
	res.ModelRan = true
	return res
}

// extractFeatures concatenates the three blocks in fixed order. Any block
// of unexpected size invalidates the whole vector for the sequence.
func (e *Evaluator) extractFeatures(obs *Obstacle, seq *LaneSequence) []float64 {
	obstacleValues := ObstacleFeatures(obs, e.cfg)
	if len(obstacleValues) != e.cfg.ObstacleFeatureSize() {
		e.log.Debug().Int("obstacle", obs.ID).Int("size", len(obstacleValues)).Msg("short obstacle feature block")
		return nil
	}
	interactionValues := InteractionFeatures(seq, e.registry, e.cfg)
	if len(interactionValues) != InteractionFeatureSize {
		e.log.Debug().Int("obstacle", obs.ID).Int("size", len(interactionValues)).Msg("short interaction feature block")
		return nil
	}
	laneValues := LaneFeatures(obs, seq, e.cfg)
	if len(laneValues) != e.cfg.LaneFeatureSize() {
		e.log.Debug().Int("obstacle", obs.ID).Int("size", len(laneValues)).Msg("short lane feature block")
		return nil
	}

	features := make([]float64, 0, e.cfg.TotalFeatureSize())
	features = append(features, obstacleValues...)
	features = append(features, interactionValues...)
	features = append(features, laneValues...)
	return features
}
