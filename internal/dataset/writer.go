package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/tphakala/ebird-abundance/internal/errors"
	"github.com/tphakala/ebird-abundance/internal/hurdle"
	"github.com/tphakala/ebird-abundance/internal/observation"
)

// WritePredictions writes the prediction table to a CSV file with the
// standard output columns.
func WritePredictions(path string, preds []hurdle.Prediction) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"checklist_id", "species_observed", "observation_count",
		"encounter_prob", "predicted_count", "predicted_abundance", "in_range",
	}
	if err := w.Write(header); err != nil {
		return errors.New(err).Category(errors.CategoryFileIO).Build()
	}

	for i := range preds {
		p := &preds[i]
		obsCount := ""
		if p.ObsCount != nil {
			obsCount = strconv.Itoa(*p.ObsCount)
		}
		row := []string{
			p.ID,
			strconv.FormatBool(p.ObsDetected),
			obsCount,
			formatFloat(p.EncounterP),
			formatFloat(p.Count),
			formatFloat(p.Abundance),
			strconv.FormatBool(p.InRange),
		}
		if err := w.Write(row); err != nil {
			return errors.New(err).Category(errors.CategoryFileIO).Build()
		}
	}

	w.Flush()
	return w.Error()
}

// WriteChecklists writes checklist records back out as CSV, covariates in
// schema order. Used by the subsample command.
func WriteChecklists(path string, records []observation.Record, schema *observation.FeatureSchema) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer f.Close()

	var covariates []string
	if schema != nil {
		covariates = schema.Names()
	} else if len(records) > 0 {
		for name := range records[0].Covariates {
			covariates = append(covariates, name)
		}
		sort.Strings(covariates)
	}

	w := csv.NewWriter(f)
	header := []string{colChecklistID, colLatitude, colLongitude, colYear, colDayOfYear, colObserved, colCount, colSplit}
	header = append(header, covariates...)
	if err := w.Write(header); err != nil {
		return errors.New(err).Category(errors.CategoryFileIO).Build()
	}

	for i := range records {
		r := &records[i]
		count := ""
		if r.Detected {
			if r.Count != nil {
				count = strconv.Itoa(*r.Count)
			} else {
				count = presenceOnlyMark
			}
		}
		row := []string{
			r.ID,
			formatFloat(r.Position.Lat()),
			formatFloat(r.Position.Lon()),
			strconv.Itoa(r.Year),
			strconv.Itoa(r.DayOfYear),
			strconv.FormatBool(r.Detected),
			count,
			string(r.Split),
		}
		for _, name := range covariates {
			v, ok := r.Covariates[name]
			if !ok {
				return errors.SchemaMismatchError("record %s missing covariate %q on write", r.ID, name)
			}
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return errors.New(err).Category(errors.CategoryFileIO).Build()
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
