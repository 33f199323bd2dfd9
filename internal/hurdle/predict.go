package hurdle

import (
	"github.com/tphakala/ebird-abundance/internal/calibration"
	"github.com/tphakala/ebird-abundance/internal/forest"
	"github.com/tphakala/ebird-abundance/internal/observation"
)

// Bundle is the sealed fit artifact: classifier, calibration curve,
// decision threshold, and count regressor. Read-only after Finalize, so
// Predict is safe to call concurrently without synchronization.
type Bundle struct {
	schema      *observation.FeatureSchema
	countSchema *observation.FeatureSchema

	encounter *forest.ProbabilityForest
	curve     *calibration.Curve
	threshold float64
	count     *forest.RegressionForest

	maskOutOfRange bool
}

// Prediction is one row of the output table.
type Prediction struct {
	ID          string
	EncounterP  float64 // calibrated encounter probability
	Count       float64 // expected count given encounter
	Abundance   float64 // EncounterP x Count, zeroed when masked out of range
	InRange     bool    // EncounterP exceeds the range threshold
	RawP        float64 // uncalibrated classifier probability
	ObsDetected bool    // carried over from the input record
	ObsCount    *int    // carried over from the input record
}

// Schema returns the feature schema the bundle was fitted with.
func (b *Bundle) Schema() *observation.FeatureSchema {
	return b.schema
}

// Threshold returns the selected presence/absence cutoff.
func (b *Bundle) Threshold() float64 {
	return b.threshold
}

// MasksOutOfRange reports whether abundance is zeroed outside the range.
func (b *Bundle) MasksOutOfRange() bool {
	return b.maskOutOfRange
}

// EncounterImportance returns normalized feature importances of the
// encounter model, ordered by the schema.
func (b *Bundle) EncounterImportance() []float64 {
	return b.encounter.FeatureImportance()
}

// CountImportance returns normalized feature importances of the count
// model, ordered by the extended count schema.
func (b *Bundle) CountImportance() []float64 {
	return b.count.FeatureImportance()
}

// Predict runs the combined hurdle prediction for one record. The record
// must carry every covariate in the fit-time schema; anything else is a
// schema mismatch, never a best-effort prediction.
func (b *Bundle) Predict(r *observation.Record) (Prediction, error) {
	vec, err := b.schema.Vectorize(r)
	if err != nil {
		return Prediction{}, err
	}

	rawP := b.encounter.Proba(vec)
	calP := clamp01(b.curve.Apply(rawP))
	inRange := calP > b.threshold

	countVec, err := b.countSchema.VectorizeWith(r, map[string]float64{
		EncounterProbFeature: rawP,
	})
	if err != nil {
		return Prediction{}, err
	}
	count := max(0, b.count.Predict(countVec))

	abundance := calP * count
	if b.maskOutOfRange && !inRange {
		abundance = 0
	}

	return Prediction{
		ID:          r.ID,
		EncounterP:  calP,
		Count:       count,
		Abundance:   abundance,
		InRange:     inRange,
		RawP:        rawP,
		ObsDetected: r.Detected,
		ObsCount:    r.Count,
	}, nil
}

// PredictAll applies Predict to every record, preserving order.
func (b *Bundle) PredictAll(records []observation.Record) ([]Prediction, error) {
	out := make([]Prediction, len(records))
	for i := range records {
		p, err := b.Predict(&records[i])
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}
