package hurdle

import (
	"github.com/tphakala/ebird-abundance/internal/metrics"
)

// Report holds held-out performance of a fitted bundle. Correlations for
// count and abundance are restricted to in-range predictions with a
// non-missing observed count; the encounter Spearman is restricted to
// in-range predictions. Degenerate subsets yield NaN fields.
type Report struct {
	N         int
	Threshold float64

	EncounterMSE      float64
	EncounterSpearman float64

	Sensitivity float64
	Specificity float64
	Kappa       float64
	MCC         float64
	F1          float64
	PRAUC       float64

	CountSpearman       float64
	CountLogPearson     float64
	AbundanceSpearman   float64
	AbundanceLogPearson float64
}

// Evaluate computes the standard report from a prediction table carrying
// observed outcomes. Pure function of its input.
func Evaluate(threshold float64, preds []Prediction) Report {
	report := Report{N: len(preds), Threshold: threshold}

	observedFlag := make([]float64, len(preds))
	predictedP := make([]float64, len(preds))
	obsBool := make([]bool, len(preds))
	callBool := make([]bool, len(preds))

	var inRangeObs, inRangeP []float64
	var obsCount, predCount []float64
	var obsAbundance, predAbundance []float64

	for i := range preds {
		p := &preds[i]
		obsBool[i] = p.ObsDetected
		callBool[i] = p.InRange
		predictedP[i] = p.EncounterP
		if p.ObsDetected {
			observedFlag[i] = 1
		}

		if p.InRange {
			inRangeObs = append(inRangeObs, observedFlag[i])
			inRangeP = append(inRangeP, p.EncounterP)

			if p.ObsCount != nil {
				oc := float64(*p.ObsCount)
				obsCount = append(obsCount, oc)
				predCount = append(predCount, p.Count)
				obsAbundance = append(obsAbundance, oc)
				predAbundance = append(predAbundance, p.Abundance)
			}
		}
	}

	report.EncounterMSE = metrics.MSE(observedFlag, predictedP)
	report.EncounterSpearman = metrics.Spearman(inRangeObs, inRangeP)

	confusion := metrics.NewConfusion(obsBool, callBool)
	report.Sensitivity = confusion.Sensitivity()
	report.Specificity = confusion.Specificity()
	report.Kappa = confusion.Kappa()
	report.MCC = confusion.MCC()
	report.F1 = confusion.F1()
	report.PRAUC = metrics.PRAUC(obsBool, predictedP)

	report.CountSpearman = metrics.Spearman(obsCount, predCount)
	report.CountLogPearson = metrics.LogPearson(obsCount, predCount)
	report.AbundanceSpearman = metrics.Spearman(obsAbundance, predAbundance)
	report.AbundanceLogPearson = metrics.LogPearson(obsAbundance, predAbundance)

	return report
}
