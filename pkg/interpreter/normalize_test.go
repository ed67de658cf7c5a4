package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineMeters_ZeroForSamePoint(t *testing.T) {
	d := haversineMeters(40.0, -75.0, 40.0, -75.0)
	assert.InDelta(t, 0, d, 0.001)
}

func TestHaversineMeters_KnownDistance(t *testing.T) {
	// Roughly 1 degree of latitude is ~111km.
	d := haversineMeters(40.0, -75.0, 41.0, -75.0)
	assert.InDelta(t, 111000, d, 2000)
}

func TestBucketFor_Thresholds(t *testing.T) {
	assert.Equal(t, "near", string(bucketFor(0)))
	assert.Equal(t, "near", string(bucketFor(nearThresholdM)))
	assert.Equal(t, "medium", string(bucketFor(nearThresholdM+1)))
	assert.Equal(t, "far", string(bucketFor(mediumThresholdM+1)))
}

func TestProximityWeight_DecaysWithDistance(t *testing.T) {
	close := proximityWeight(0)
	far := proximityWeight(10000)
	assert.Equal(t, 1.0, close)
	assert.Less(t, far, close)
	assert.GreaterOrEqual(t, far, 0.0)
}

func TestCoerceTargetGroup_StringPassthrough(t *testing.T) {
	assert.Equal(t, "seniors", coerceTargetGroup("seniors"))
}

func TestCoerceTargetGroup_ListJoined(t *testing.T) {
	assert.Equal(t, "seniors, students", coerceTargetGroup([]any{"seniors", "students"}))
}

func TestCoerceTargetGroup_NilYieldsEmpty(t *testing.T) {
	assert.Equal(t, "", coerceTargetGroup(nil))
}
