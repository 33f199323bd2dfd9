// Package hurdle implements the two-stage relative abundance estimator:
// a calibrated encounter-rate classifier gating a conditional count model,
// with relative abundance = P(encounter) x E[count | encounter].
package hurdle

import (
	"log/slog"

	"github.com/tphakala/ebird-abundance/internal/calibration"
	"github.com/tphakala/ebird-abundance/internal/errors"
	"github.com/tphakala/ebird-abundance/internal/forest"
	"github.com/tphakala/ebird-abundance/internal/logging"
	"github.com/tphakala/ebird-abundance/internal/observation"
)

// EncounterProbFeature is the covariate name under which the raw encounter
// probability enters the count model.
const EncounterProbFeature = "encounter_prob"

// State tracks the estimator through its one-shot fitting stages.
type State int

const (
	StateUntrained State = iota
	StateEncounterFitted
	StateCalibrated
	StateThresholded
	StateCountFitted
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUntrained:
		return "untrained"
	case StateEncounterFitted:
		return "encounter-fitted"
	case StateCalibrated:
		return "calibrated"
	case StateThresholded:
		return "thresholded"
	case StateCountFitted:
		return "count-fitted"
	case StateReady:
		return "ready"
	default:
		return "invalid"
	}
}

// Config holds estimator options.
type Config struct {
	Forest forest.Config // hyperparameters shared by both stages
	// MaskOutOfRange zeroes predicted abundance when the calibrated
	// probability does not clear the range threshold. Caller-chosen;
	// off by default.
	MaskOutOfRange bool
}

// Estimator drives the staged fit. Each transition is one-shot and none is
// reversible; refitting means building a new Estimator.
type Estimator struct {
	cfg    Config
	schema *observation.FeatureSchema
	state  State

	encounter *forest.ProbabilityForest
	curve     *calibration.Curve
	threshold float64
	count     *forest.RegressionForest

	countSchema *observation.FeatureSchema

	// training artifacts carried between stages
	train    []observation.Record
	rawProba []float64 // out-of-bag encounter probability per training record
	calProba []float64 // calibrated probability per training record
}

// NewEstimator returns an untrained estimator bound to a feature schema.
func NewEstimator(schema *observation.FeatureSchema, cfg Config) (*Estimator, error) {
	if schema == nil {
		return nil, errors.InvalidInputError("estimator requires a feature schema")
	}
	countSchema, err := schema.Extend(EncounterProbFeature)
	if err != nil {
		return nil, err
	}
	return &Estimator{
		cfg:         cfg,
		schema:      schema,
		countSchema: countSchema,
	}, nil
}

// State returns the current fitting stage.
func (e *Estimator) State() State {
	return e.state
}

func (e *Estimator) requireState(expected State, op string) error {
	if e.state != expected {
		return errors.Newf("%s requires state %s, estimator is %s", op, expected, e.state).
			Category(errors.CategoryModelState).
			Component("hurdle").
			Build()
	}
	return nil
}

func hurdleLogger() *slog.Logger {
	if l := logging.ForService("hurdle"); l != nil {
		return l
	}
	return slog.Default()
}

// FitEncounter fits the binary encounter-rate classifier on the debiased
// training records using the class-balanced bootstrap. Probabilities for
// the later stages come from out-of-bag trees.
func (e *Estimator) FitEncounter(train []observation.Record) error {
	if err := e.requireState(StateUntrained, "FitEncounter"); err != nil {
		return err
	}
	if len(train) == 0 {
		return errors.InsufficientDataError("encounter fit received no training records")
	}

	x := make([][]float64, len(train))
	y := make([]bool, len(train))
	for i := range train {
		vec, err := e.schema.Vectorize(&train[i])
		if err != nil {
			return err
		}
		x[i] = vec
		y[i] = train[i].Detected
	}

	clf := forest.NewProbabilityForest(e.cfg.Forest)
	clf.Balanced = true
	if err := clf.Fit(x, y); err != nil {
		return err
	}

	e.encounter = clf
	e.rawProba = clf.OutOfBagProba()
	e.train = make([]observation.Record, len(train))
	for i := range train {
		e.train[i] = train[i].Clone()
	}
	e.state = StateEncounterFitted

	hurdleLogger().Info("encounter model fitted",
		"records", len(train), "features", e.schema.Len(), "schema", e.schema.Fingerprint())
	return nil
}

// FitCalibration fits the monotone calibration curve on the out-of-bag
// probabilities against the observed flags.
func (e *Estimator) FitCalibration() error {
	if err := e.requireState(StateEncounterFitted, "FitCalibration"); err != nil {
		return err
	}

	observed := make([]bool, len(e.train))
	for i := range e.train {
		observed[i] = e.train[i].Detected
	}

	curve, err := calibration.Fit(e.rawProba, observed)
	if err != nil {
		return err
	}

	e.curve = curve
	e.calProba = make([]float64, len(e.rawProba))
	for i, p := range e.rawProba {
		e.calProba[i] = curve.Apply(p)
	}
	e.state = StateCalibrated

	hurdleLogger().Info("calibration fitted", "records", len(e.train))
	return nil
}

// SelectThreshold picks the presence/absence cutoff on the calibrated
// training probabilities via the MCC-F1 criterion.
func (e *Estimator) SelectThreshold() error {
	if err := e.requireState(StateCalibrated, "SelectThreshold"); err != nil {
		return err
	}

	observed := make([]bool, len(e.train))
	for i := range e.train {
		observed[i] = e.train[i].Detected
	}

	threshold, err := selectThreshold(e.calProba, observed)
	if err != nil {
		return err
	}

	e.threshold = threshold
	e.state = StateThresholded

	hurdleLogger().Info("range threshold selected", "threshold", threshold)
	return nil
}

// FitCount fits the conditional count model. The training subset is the
// records that were detected with a reported count, plus those whose raw
// encounter probability clears the threshold (their zero-filled count
// anchors the low end). Presence-only detections are excluded.
func (e *Estimator) FitCount() error {
	if err := e.requireState(StateThresholded, "FitCount"); err != nil {
		return err
	}

	var x [][]float64
	var y []float64
	for i := range e.train {
		r := &e.train[i]
		if r.Detected && !r.HasCount() {
			// Presence-only report, no usable count
			continue
		}
		if !(r.Detected && r.HasCount()) && e.rawProba[i] <= e.threshold {
			continue
		}
		vec, err := e.countSchema.VectorizeWith(r, map[string]float64{
			EncounterProbFeature: e.rawProba[i],
		})
		if err != nil {
			return err
		}
		x = append(x, vec)
		y = append(y, float64(r.CountValue()))
	}

	if len(x) == 0 {
		return errors.InsufficientDataError("count model training subset is empty")
	}

	reg := forest.NewRegressionForest(e.cfg.Forest)
	if err := reg.Fit(x, y); err != nil {
		return err
	}

	e.count = reg
	e.state = StateCountFitted

	hurdleLogger().Info("count model fitted", "records", len(x))
	return nil
}

// Finalize seals the estimator into a Ready bundle and releases the
// training artifacts. No further transitions are possible.
func (e *Estimator) Finalize() (*Bundle, error) {
	if err := e.requireState(StateCountFitted, "Finalize"); err != nil {
		return nil, err
	}

	e.state = StateReady
	bundle := &Bundle{
		schema:         e.schema,
		countSchema:    e.countSchema,
		encounter:      e.encounter,
		curve:          e.curve,
		threshold:      e.threshold,
		count:          e.count,
		maskOutOfRange: e.cfg.MaskOutOfRange,
	}
	e.train = nil
	e.rawProba = nil
	e.calProba = nil
	return bundle, nil
}

// Fit runs every stage in order and returns the sealed bundle. A failure
// at any stage aborts the run; no partially fitted bundle escapes.
func Fit(schema *observation.FeatureSchema, cfg Config, train []observation.Record) (*Bundle, error) {
	est, err := NewEstimator(schema, cfg)
	if err != nil {
		return nil, err
	}
	if err := est.FitEncounter(train); err != nil {
		return nil, err
	}
	if err := est.FitCalibration(); err != nil {
		return nil, err
	}
	if err := est.SelectThreshold(); err != nil {
		return nil, err
	}
	if err := est.FitCount(); err != nil {
		return nil, err
	}
	return est.Finalize()
}
