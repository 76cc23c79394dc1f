package evaluation

import (
	"github.com/hauntmuskie/naivebayes-dashboard/internal/mlbackend"
)

// Report summarizes prediction quality for one classify run, computed from
// the rows that carried a ground-truth label.
type Report struct {
	Total    int                   `json:"total"`
	Labeled  int                   `json:"labeled"`
	Correct  int                   `json:"correct"`
	Accuracy *float64              `json:"accuracy,omitempty"`
	PerClass map[string]ClassCount `json:"per_class,omitempty"`
}

type ClassCount struct {
	Predicted int `json:"predicted"`
	Actual    int `json:"actual"`
	Correct   int `json:"correct"`
}

// Evaluate scores predictions against the actual labels present in the
// results. Accuracy is nil when no row carries a label, so callers can
// distinguish "unmeasured" from "0% correct".
func Evaluate(results []mlbackend.ClassifyResult) *Report {
	report := &Report{
		Total:    len(results),
		PerClass: make(map[string]ClassCount),
	}

	for _, result := range results {
		predicted := result.PredictedClass()

		count := report.PerClass[predicted]
		count.Predicted++
		report.PerClass[predicted] = count

		actual := result.ActualClass()
		if actual == nil {
			continue
		}

		report.Labeled++
		actualCount := report.PerClass[*actual]
		actualCount.Actual++
		report.PerClass[*actual] = actualCount

		if predicted == *actual {
			report.Correct++
			correctCount := report.PerClass[predicted]
			correctCount.Correct++
			report.PerClass[predicted] = correctCount
		}
	}

	if report.Labeled > 0 {
		accuracy := float64(report.Correct) / float64(report.Labeled)
		report.Accuracy = &accuracy
	}

	if len(report.PerClass) == 0 {
		report.PerClass = nil
	}

	return report
}
