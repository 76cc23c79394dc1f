package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hauntmuskie/naivebayes-dashboard/internal/mlbackend"
)

func TestEvaluateMixedLabels(t *testing.T) {
	report := Evaluate([]mlbackend.ClassifyResult{
		{"predicted_class": "satisfied", "actual_class": "satisfied"},
		{"predicted_class": "satisfied", "actual_class": "neutral or dissatisfied"},
		{"predicted_class": "neutral or dissatisfied", "actual_class": "neutral or dissatisfied"},
		{"predicted_class": "satisfied"},
	})

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 3, report.Labeled)
	assert.Equal(t, 2, report.Correct)
	require.NotNil(t, report.Accuracy)
	assert.InDelta(t, 2.0/3.0, *report.Accuracy, 1e-9)

	satisfied := report.PerClass["satisfied"]
	assert.Equal(t, 3, satisfied.Predicted)
	assert.Equal(t, 1, satisfied.Actual)
	assert.Equal(t, 1, satisfied.Correct)
}

func TestEvaluateUnlabeled(t *testing.T) {
	report := Evaluate([]mlbackend.ClassifyResult{
		{"predicted_class": "satisfied"},
		{"prediction": "neutral or dissatisfied"},
	})

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 0, report.Labeled)
	assert.Nil(t, report.Accuracy)
}

func TestEvaluateEmpty(t *testing.T) {
	report := Evaluate(nil)
	assert.Equal(t, 0, report.Total)
	assert.Nil(t, report.Accuracy)
	assert.Nil(t, report.PerClass)
}
