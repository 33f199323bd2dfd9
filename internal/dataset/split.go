package dataset

import (
	"math/rand/v2"

	"github.com/tphakala/ebird-abundance/internal/errors"
	"github.com/tphakala/ebird-abundance/internal/observation"
)

// SplitTrainTest assigns every record a train or test label exactly once,
// uniformly at random under an explicit seed. Records that already carry a
// label are rejected: the split is never reassigned.
func SplitTrainTest(records []observation.Record, testFraction float64, seed uint64) error {
	if testFraction < 0 || testFraction >= 1 {
		return errors.InvalidInputError("test fraction must be in [0, 1), got %g", testFraction)
	}
	for i := range records {
		if records[i].Split != observation.SplitUnassigned {
			return errors.InvalidInputError(
				"record %s already has split %q; splits are assigned once", records[i].ID, records[i].Split)
		}
	}

	rng := rand.New(rand.NewPCG(seed, uint64(len(records))))
	for i := range records {
		if rng.Float64() < testFraction {
			records[i].Split = observation.SplitTest
		} else {
			records[i].Split = observation.SplitTrain
		}
	}
	return nil
}

// BySplit partitions records by their split label, cloning each record.
func BySplit(records []observation.Record) (train, test []observation.Record) {
	for i := range records {
		switch records[i].Split {
		case observation.SplitTest:
			test = append(test, records[i].Clone())
		default:
			train = append(train, records[i].Clone())
		}
	}
	return train, test
}
