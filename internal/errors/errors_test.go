package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder(t *testing.T) {
	err := Newf("fewer than %d classes in training data", 2).
		Component("hurdle").
		Category(CategoryInsufficientData).
		Context("n_positive", 0).
		Build()

	require.NotNil(t, err)
	assert.Equal(t, "fewer than 2 classes in training data", err.Error())
	assert.Equal(t, "hurdle", err.GetComponent())
	assert.Equal(t, string(CategoryInsufficientData), err.GetCategory())
	assert.Equal(t, 0, err.GetContext()["n_positive"])
	assert.False(t, err.GetTimestamp().IsZero())
}

func TestCategoryDefaultsToGeneric(t *testing.T) {
	err := Newf("something broke").Build()
	assert.Equal(t, string(CategoryGeneric), err.GetCategory())
}

func TestCategoryPredicates(t *testing.T) {
	cases := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"invalid input", InvalidInputError("record missing position"), IsInvalidInput},
		{"insufficient data", InsufficientDataError("single-class training set"), IsInsufficientData},
		{"schema mismatch", SchemaMismatchError("feature count 4 != 5"), IsSchemaMismatch},
		{"calibration violation", CalibrationViolationError("curve decreases at knot 3"), IsCalibrationViolation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.pred(tc.err))
			assert.False(t, IsCategory(tc.err, CategoryDatabase))
		})
	}
}

func TestUnwrapPreservesOriginal(t *testing.T) {
	base := NewStd("base failure")
	wrapped := New(base).Category(CategoryFileIO).Build()

	assert.True(t, Is(wrapped, base))
	assert.Equal(t, base, Unwrap(wrapped))
}

func TestContextIsCopied(t *testing.T) {
	err := Newf("dropped records").
		Category(CategorySampling).
		Context("dropped", 12).
		Build()

	ctx := err.GetContext()
	ctx["dropped"] = 99
	assert.Equal(t, 12, err.GetContext()["dropped"])
}
