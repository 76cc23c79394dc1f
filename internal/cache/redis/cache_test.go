package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagsForCoversEveryOperation(t *testing.T) {
	assert.ElementsMatch(t, []string{TagModels, TagDatasetRecords}, TagsFor(OpTrain))
	assert.ElementsMatch(t, []string{TagClassifications, TagDatasetRecords, TagModels}, TagsFor(OpClassify))
	assert.ElementsMatch(t, []string{TagModels, TagClassifications}, TagsFor(OpDeleteModel))
	assert.ElementsMatch(t, []string{TagHistory}, TagsFor(OpCreateHistory))
	assert.ElementsMatch(t, []string{TagHistory}, TagsFor(OpDeleteHistory))
}

func TestTagsForUnknownOperation(t *testing.T) {
	assert.Nil(t, TagsFor("vacuum"))
}

// Deleting a model must never leave stale dataset-record listings cached with
// classification results attached, and classify must refresh the model list
// because training-set counters hang off it.
func TestInvalidationMapConsistency(t *testing.T) {
	for op, tags := range invalidations {
		assert.NotEmpty(t, tags, "operation %q invalidates nothing", op)
	}
	assert.Contains(t, invalidations[OpClassify], TagModels)
	assert.Contains(t, invalidations[OpDeleteModel], TagClassifications)
}
