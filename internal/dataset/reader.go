// Package dataset handles checklist intake: CSV reading, zero-filling of
// species observations against complete checklists, and the one-time
// train/test split.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/tphakala/ebird-abundance/internal/errors"
	"github.com/tphakala/ebird-abundance/internal/observation"
)

// Reserved checklist CSV columns. Every remaining column is treated as a
// numeric covariate and becomes part of the feature schema, in file order.
const (
	colChecklistID = "checklist_id"
	colLatitude    = "latitude"
	colLongitude   = "longitude"
	colYear        = "year"
	colDayOfYear   = "day_of_year"
	colObserved    = "species_observed"
	colCount       = "observation_count"
	colSplit       = "split"
)

// presenceOnlyMark is how the source data flags a detection without a
// count.
const presenceOnlyMark = "X"

// ReadChecklists reads zero-filled checklist records from a CSV file and
// derives the covariate schema from its non-reserved columns.
func ReadChecklists(path string) ([]observation.Record, *observation.FeatureSchema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer f.Close()

	records, schema, err := parseChecklists(f)
	if err != nil {
		return nil, nil, err
	}
	return records, schema, nil
}

func parseChecklists(r io.Reader) ([]observation.Record, *observation.FeatureSchema, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, errors.Newf("reading checklist header: %v", err).
			Category(errors.CategoryFileParsing).
			Build()
	}

	index := make(map[string]int, len(header))
	var covariateNames []string
	covariateCols := make([]int, 0, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		index[name] = i
		switch name {
		case colChecklistID, colLatitude, colLongitude, colYear, colDayOfYear, colObserved, colCount, colSplit:
		default:
			covariateNames = append(covariateNames, name)
			covariateCols = append(covariateCols, i)
		}
	}
	for _, required := range []string{colChecklistID, colLatitude, colLongitude, colYear, colDayOfYear, colObserved} {
		if _, ok := index[required]; !ok {
			return nil, nil, errors.Newf("checklist CSV missing required column %q", required).
				Category(errors.CategoryFileParsing).
				Build()
		}
	}

	schema, err := observation.NewFeatureSchema(covariateNames)
	if err != nil {
		return nil, nil, err
	}

	var records []observation.Record
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, errors.Newf("reading checklist row %d: %v", line, err).
				Category(errors.CategoryFileParsing).
				Build()
		}

		rec, err := parseRow(row, index, covariateNames, covariateCols, line)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, rec)
	}

	return records, schema, nil
}

func parseRow(row []string, index map[string]int, covariateNames []string, covariateCols []int, line int) (observation.Record, error) {
	parseFloat := func(col string) (float64, error) {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[index[col]]), 64)
		if err != nil {
			return 0, errors.Newf("row %d: column %q is not numeric: %v", line, col, err).
				Category(errors.CategoryFileParsing).
				Build()
		}
		return v, nil
	}
	parseInt := func(col string) (int, error) {
		v, err := strconv.Atoi(strings.TrimSpace(row[index[col]]))
		if err != nil {
			return 0, errors.Newf("row %d: column %q is not an integer: %v", line, col, err).
				Category(errors.CategoryFileParsing).
				Build()
		}
		return v, nil
	}

	lat, err := parseFloat(colLatitude)
	if err != nil {
		return observation.Record{}, err
	}
	lon, err := parseFloat(colLongitude)
	if err != nil {
		return observation.Record{}, err
	}
	year, err := parseInt(colYear)
	if err != nil {
		return observation.Record{}, err
	}
	day, err := parseInt(colDayOfYear)
	if err != nil {
		return observation.Record{}, err
	}

	rec := observation.Record{
		ID:         strings.TrimSpace(row[index[colChecklistID]]),
		Position:   orb.Point{lon, lat},
		Year:       year,
		DayOfYear:  day,
		Covariates: make(map[string]float64, len(covariateNames)),
	}
	if rec.ID == "" {
		return observation.Record{}, errors.InvalidInputError("row %d: empty checklist_id", line)
	}

	observed := strings.TrimSpace(row[index[colObserved]])
	switch strings.ToLower(observed) {
	case "true", "1", "t":
		rec.Detected = true
	case "false", "0", "f":
		rec.Detected = false
	default:
		return observation.Record{}, errors.Newf("row %d: unrecognized species_observed value %q", line, observed).
			Category(errors.CategoryFileParsing).
			Build()
	}

	if col, ok := index[colCount]; ok && rec.Detected {
		raw := strings.TrimSpace(row[col])
		if raw != "" && raw != presenceOnlyMark {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return observation.Record{}, errors.Newf("row %d: bad observation_count %q", line, raw).
					Category(errors.CategoryFileParsing).
					Build()
			}
			rec.Count = &n
		}
	}

	if col, ok := index[colSplit]; ok {
		switch split := observation.Split(strings.TrimSpace(row[col])); split {
		case observation.SplitTrain, observation.SplitTest, observation.SplitUnassigned:
			rec.Split = split
		default:
			return observation.Record{}, errors.InvalidInputError("row %d: unknown split label %q", line, split)
		}
	}

	for k, col := range covariateCols {
		name := covariateNames[k]
		v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil {
			return observation.Record{}, errors.Newf("row %d: covariate %q is not numeric: %v", line, name, err).
				Category(errors.CategoryFileParsing).
				Build()
		}
		rec.Covariates[name] = v
	}

	return rec, nil
}
