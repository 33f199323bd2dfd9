package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tphakala/ebird-abundance/internal/errors"
	"github.com/tphakala/ebird-abundance/internal/observation"
)

// SpeciesObservation is one report of the target species on a checklist.
type SpeciesObservation struct {
	ChecklistID string
	Count       *int // nil for a presence-only report
}

// ReadObservations reads target-species reports from a CSV with columns
// checklist_id and observation_count ("X" marks presence-only).
func ReadObservations(path string) ([]SpeciesObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Newf("reading observation header: %v", err).
			Category(errors.CategoryFileParsing).
			Build()
	}

	idCol, countCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case colChecklistID:
			idCol = i
		case colCount:
			countCol = i
		}
	}
	if idCol < 0 {
		return nil, errors.Newf("observation CSV missing required column %q", colChecklistID).
			Category(errors.CategoryFileParsing).
			Build()
	}

	var out []SpeciesObservation
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Newf("reading observation row %d: %v", line, err).
				Category(errors.CategoryFileParsing).
				Build()
		}

		obs := SpeciesObservation{ChecklistID: strings.TrimSpace(row[idCol])}
		if obs.ChecklistID == "" {
			return nil, errors.InvalidInputError("observation row %d: empty checklist_id", line)
		}
		if countCol >= 0 {
			raw := strings.TrimSpace(row[countCol])
			if raw != "" && raw != presenceOnlyMark {
				n, err := strconv.Atoi(raw)
				if err != nil || n < 0 {
					return nil, errors.Newf("observation row %d: bad observation_count %q", line, raw).
						Category(errors.CategoryFileParsing).
						Build()
				}
				obs.Count = &n
			}
		}
		out = append(out, obs)
	}

	return out, nil
}

// ZeroFill merges species reports into the complete checklist table. Under
// the complete-checklist assumption every checklist without a report is an
// explicit non-detection. Returns a new slice; inputs are not mutated.
func ZeroFill(checklists []observation.Record, reports []SpeciesObservation) ([]observation.Record, error) {
	byID := make(map[string]*SpeciesObservation, len(reports))
	for i := range reports {
		if _, dup := byID[reports[i].ChecklistID]; dup {
			return nil, errors.InvalidInputError(
				"duplicate species report for checklist %s", reports[i].ChecklistID)
		}
		byID[reports[i].ChecklistID] = &reports[i]
	}

	out := make([]observation.Record, len(checklists))
	matched := 0
	for i := range checklists {
		out[i] = checklists[i].Clone()
		out[i].Detected = false
		out[i].Count = nil
		if obs, ok := byID[out[i].ID]; ok {
			matched++
			out[i].Detected = true
			if obs.Count != nil {
				c := *obs.Count
				out[i].Count = &c
			}
		}
	}

	if matched < len(byID) {
		return nil, errors.InvalidInputError(
			"%d species reports reference checklists absent from the checklist table", len(byID)-matched)
	}
	return out, nil
}
