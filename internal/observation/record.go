// Package observation defines the zero-filled checklist record and the
// versioned feature schema shared between model fit and predict.
package observation

import (
	"math"
	"time"

	"github.com/paulmach/orb"
)

// Split labels a record's membership in the train/test partition.
// Assigned once by the dataset splitter and never reassigned.
type Split string

const (
	SplitUnassigned Split = ""
	SplitTrain      Split = "train"
	SplitTest       Split = "test"
)

// Record is a single zero-filled checklist: one standardized observation
// event with a detection outcome for the target species.
type Record struct {
	ID         string             // checklist identifier
	Position   orb.Point          // lon, lat in WGS84
	Year       int                // calendar year of the checklist
	DayOfYear  int                // 1-366
	Covariates map[string]float64 // effort and environmental predictors
	Detected   bool               // species reported on this checklist
	Count      *int               // reported count; nil when not detected or presence-only
	Split      Split              // train/test membership
}

// HasValidPosition reports whether the record carries usable coordinates.
func (r *Record) HasValidPosition() bool {
	lon, lat := r.Position.Lon(), r.Position.Lat()
	if math.IsNaN(lon) || math.IsNaN(lat) {
		return false
	}
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

// HasValidDate reports whether year and day-of-year describe a real date.
func (r *Record) HasValidDate() bool {
	return r.Year > 0 && r.DayOfYear >= 1 && r.DayOfYear <= 366
}

// Date returns the checklist date in UTC.
func (r *Record) Date() time.Time {
	return time.Date(r.Year, time.January, 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, r.DayOfYear-1)
}

// ISOWeek returns the ISO 8601 year and week number of the checklist date.
// End-of-December days bin with the ISO year they belong to, not the
// calendar year.
func (r *Record) ISOWeek() (isoYear, week int) {
	return r.Date().ISOWeek()
}

// HasCount reports whether the record carries a usable count. Detections
// reported as presence-only ("X" in the source data) have Detected set and
// Count nil.
func (r *Record) HasCount() bool {
	return r.Count != nil
}

// CountValue returns the reported count, or zero when none was reported.
func (r *Record) CountValue() int {
	if r.Count == nil {
		return 0
	}
	return *r.Count
}

// Clone returns a deep copy so downstream stages can annotate records
// without mutating the canonical table.
func (r *Record) Clone() Record {
	out := *r
	if r.Covariates != nil {
		out.Covariates = make(map[string]float64, len(r.Covariates))
		for k, v := range r.Covariates {
			out.Covariates[k] = v
		}
	}
	if r.Count != nil {
		c := *r.Count
		out.Count = &c
	}
	return out
}

// Extent returns the bounding box of all records with valid positions.
func Extent(records []Record) orb.Bound {
	bound := orb.Bound{Min: orb.Point{180, 90}, Max: orb.Point{-180, -90}}
	for i := range records {
		if !records[i].HasValidPosition() {
			continue
		}
		bound = bound.Extend(records[i].Position)
	}
	return bound
}
