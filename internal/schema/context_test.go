package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext(t *testing.T) {
	ctx := Context("Asia/Kolkata")

	assert.Contains(t, ctx, FactTable)
	assert.Contains(t, ctx, LookupTable)
	assert.Contains(t, ctx, TATFormula)
	assert.Contains(t, ctx, "Asia/Kolkata")
	assert.Contains(t, ctx, "'RQ-CO': Completed")
	assert.Contains(t, ctx, "'RQ-CA': Cancelled")
	assert.Contains(t, ctx, "facility_id")
	assert.Contains(t, ctx, "leading zeros")
}

func TestContextDeterministic(t *testing.T) {
	// Status codes come from a map; rendering must still be stable.
	assert.Equal(t, Context("Asia/Kolkata"), Context("Asia/Kolkata"))
}

func TestColumnDescriptions(t *testing.T) {
	descs := ColumnDescriptions()

	require.NotEmpty(t, descs)
	assert.Contains(t, descs, "facility_id")
	assert.Contains(t, descs, "scheduled_time")
	assert.Contains(t, descs, "completed_time")
	assert.Contains(t, descs["facility_id"], "leading zeros")
}

func TestTimeColumnsCoverStatusTimestamps(t *testing.T) {
	require.Contains(t, TimeColumns, "scheduled_time")
	require.Contains(t, TimeColumns, "completed_time")
	require.Contains(t, TimeColumns, "cancelled_time")
	assert.Len(t, TimeColumns, 11)
}

func TestSampleQuestions(t *testing.T) {
	require.NotEmpty(t, SampleQuestions)
	for _, q := range SampleQuestions {
		assert.NotEmpty(t, q)
	}
}
