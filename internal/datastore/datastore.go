// Package datastore persists prediction tables to SQLite so predict and
// evaluate runs stay inspectable after the process exits.
package datastore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tphakala/ebird-abundance/internal/errors"
	"github.com/tphakala/ebird-abundance/internal/hurdle"
)

// Run records one predict invocation and the bundle parameters behind it.
type Run struct {
	RunID             string `gorm:"primaryKey"`
	Species           string
	Threshold         float64
	SchemaFingerprint string
	MaskedOutOfRange  bool
	CreatedAt         time.Time
}

// PredictionRecord is one persisted row of a prediction table.
type PredictionRecord struct {
	ID                 uint   `gorm:"primaryKey;autoIncrement"`
	RunID              string `gorm:"index"`
	ChecklistID        string `gorm:"index"`
	SpeciesObserved    bool
	ObservationCount   *int
	EncounterProb      float64
	PredictedCount     float64
	PredictedAbundance float64
	InRange            bool
}

// Interface abstracts the prediction store.
type Interface interface {
	Open() error
	Close() error
	SaveRun(run *Run, preds []hurdle.Prediction) error
	GetRun(runID string) (Run, error)
	GetPredictions(runID string) ([]PredictionRecord, error)
}

// DataStore implements Interface on SQLite via gorm.
type DataStore struct {
	path string
	db   *gorm.DB
}

// New returns an unopened store writing to the given SQLite file.
func New(path string) *DataStore {
	return &DataStore{path: path}
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// Open connects to the database and migrates the schema.
func (ds *DataStore) Open() error {
	db, err := gorm.Open(sqlite.Open(ds.path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("path", ds.path).
			Build()
	}
	if err := db.AutoMigrate(&Run{}, &PredictionRecord{}); err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Build()
	}
	ds.db = db
	return nil
}

// Close releases the underlying connection.
func (ds *DataStore) Close() error {
	if ds.db == nil {
		return nil
	}
	sqlDB, err := ds.db.DB()
	if err != nil {
		return errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return sqlDB.Close()
}

// SaveRun writes a run header and its prediction rows in one transaction.
func (ds *DataStore) SaveRun(run *Run, preds []hurdle.Prediction) error {
	if ds.db == nil {
		return errors.Newf("datastore is not open").Category(errors.CategoryDatabase).Build()
	}
	if run.RunID == "" {
		return errors.InvalidInputError("run requires a run id")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	rows := make([]PredictionRecord, len(preds))
	for i := range preds {
		p := &preds[i]
		rows[i] = PredictionRecord{
			RunID:              run.RunID,
			ChecklistID:        p.ID,
			SpeciesObserved:    p.ObsDetected,
			ObservationCount:   p.ObsCount,
			EncounterProb:      p.EncounterP,
			PredictedCount:     p.Count,
			PredictedAbundance: p.Abundance,
			InRange:            p.InRange,
		}
	}

	err := ds.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("run_id", run.RunID).
			Build()
	}
	return nil
}

// GetRun fetches one run header.
func (ds *DataStore) GetRun(runID string) (Run, error) {
	var run Run
	if err := ds.db.First(&run, "run_id = ?", runID).Error; err != nil {
		return Run{}, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("run_id", runID).
			Build()
	}
	return run, nil
}

// GetPredictions fetches all prediction rows of a run in insertion order.
func (ds *DataStore) GetPredictions(runID string) ([]PredictionRecord, error) {
	var rows []PredictionRecord
	if err := ds.db.Where("run_id = ?", runID).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("run_id", runID).
			Build()
	}
	return rows, nil
}
