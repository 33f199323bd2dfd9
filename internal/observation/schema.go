package observation

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/tphakala/ebird-abundance/internal/errors"
)

// FeatureSchema fixes the ordered set of covariate names a model was fitted
// with. Prediction against a different set is a schema mismatch, never a
// silent column misalignment.
type FeatureSchema struct {
	names       []string
	fingerprint string
}

// NewFeatureSchema builds a schema from covariate names, preserving order.
func NewFeatureSchema(names []string) (*FeatureSchema, error) {
	if len(names) == 0 {
		return nil, errors.InvalidInputError("feature schema requires at least one covariate")
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			return nil, errors.InvalidInputError("feature schema contains an empty covariate name")
		}
		if _, dup := seen[name]; dup {
			return nil, errors.InvalidInputError("duplicate covariate %q in feature schema", name)
		}
		seen[name] = struct{}{}
	}

	ordered := make([]string, len(names))
	copy(ordered, names)

	sum := sha256.Sum256([]byte(strings.Join(ordered, "\x00")))
	return &FeatureSchema{
		names:       ordered,
		fingerprint: hex.EncodeToString(sum[:8]),
	}, nil
}

// Names returns a copy of the ordered covariate names.
func (s *FeatureSchema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of covariates in the schema.
func (s *FeatureSchema) Len() int {
	return len(s.names)
}

// Fingerprint returns a short stable identifier for the schema version.
func (s *FeatureSchema) Fingerprint() string {
	return s.fingerprint
}

// Equal reports whether two schemas describe the same ordered covariates.
func (s *FeatureSchema) Equal(other *FeatureSchema) bool {
	if other == nil {
		return false
	}
	return s.fingerprint == other.fingerprint
}

// Extend returns a new schema with an extra covariate appended, used when
// the count model adds the fitted encounter probability as a predictor.
func (s *FeatureSchema) Extend(name string) (*FeatureSchema, error) {
	return NewFeatureSchema(append(s.Names(), name))
}

// Vectorize maps a record's covariates onto the schema order. A missing
// covariate is a schema mismatch.
func (s *FeatureSchema) Vectorize(r *Record) ([]float64, error) {
	return s.VectorizeWith(r, nil)
}

// VectorizeWith is Vectorize with derived values overlaid on the record's
// covariates; extras win on name collision.
func (s *FeatureSchema) VectorizeWith(r *Record, extras map[string]float64) ([]float64, error) {
	vec := make([]float64, len(s.names))
	for i, name := range s.names {
		if extras != nil {
			if v, ok := extras[name]; ok {
				vec[i] = v
				continue
			}
		}
		v, ok := r.Covariates[name]
		if !ok {
			return nil, errors.SchemaMismatchError(
				"record %s missing covariate %q required by schema %s", r.ID, name, s.fingerprint)
		}
		vec[i] = v
	}
	return vec, nil
}
