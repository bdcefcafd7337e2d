package app

import (
	"context"
	"testing"

	"qmrisk/domain/core"
	"qmrisk/domain/risk"
	"qmrisk/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchScenarios() []*risk.Scenario {
	good1 := testkit.ReclaimedWaterScenario()
	good1.Iterations = 200
	good1.Individuals = 5

	bad := &risk.Scenario{
		ID:       "broken",
		Name:     "missing model",
		Pathogen: "unknown-pathogen",
	}
	bad.ApplyDefaults()

	good2 := testkit.ReclaimedWaterScenario()
	good2.ID = "second"
	good2.Iterations = 200
	good2.Individuals = 5
	good2.Seed = 33

	return []*risk.Scenario{good1, bad, good2}
}

func TestBatchService_ContinuesPastFailures(t *testing.T) {
	kit := testkit.NewTestKit()
	run := NewRunService(kit.RNGAdapter(), kit.SummaryRepository(), quietLogger(), 0)
	batch := NewBatchService(run, 2, quietLogger())

	result, err := batch.ExecuteAll(context.Background(), batchScenarios(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Items, 3)

	// Outcomes stay in input order.
	assert.Equal(t, core.ScenarioID("scenario-reclaimed-water"), result.Items[0].ScenarioID)
	assert.NotNil(t, result.Items[0].Summary)
	assert.NoError(t, result.Items[0].Err)

	assert.Equal(t, core.ScenarioID("broken"), result.Items[1].ScenarioID)
	assert.Nil(t, result.Items[1].Summary)
	assert.True(t, core.IsConfigurationError(result.Items[1].Err), "got %v", result.Items[1].Err)

	assert.Equal(t, core.ScenarioID("second"), result.Items[2].ScenarioID)
	assert.NotNil(t, result.Items[2].Summary)
}

func TestBatchService_PersistsSuccessfulRuns(t *testing.T) {
	kit := testkit.NewTestKit()
	run := NewRunService(kit.RNGAdapter(), kit.SummaryRepository(), quietLogger(), 0)
	batch := NewBatchService(run, 4, quietLogger())

	result, err := batch.ExecuteAll(context.Background(), batchScenarios(), true)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 2, kit.SummaryRepository().Len())
}

func TestBatchService_SingleWorkerMatchesParallel(t *testing.T) {
	scenarios := func() []*risk.Scenario {
		a := testkit.ReclaimedWaterScenario()
		a.Iterations = 200
		a.Individuals = 5
		b := testkit.ReclaimedWaterScenario()
		b.ID = "b"
		b.Iterations = 200
		b.Individuals = 5
		b.Seed = 99
		return []*risk.Scenario{a, b}
	}

	kit := testkit.NewTestKit()
	run := NewRunService(kit.RNGAdapter(), nil, quietLogger(), 0)

	serial, err := NewBatchService(run, 1, quietLogger()).ExecuteAll(context.Background(), scenarios(), false)
	require.NoError(t, err)
	parallel, err := NewBatchService(run, 8, quietLogger()).ExecuteAll(context.Background(), scenarios(), false)
	require.NoError(t, err)

	// Worker count is a throughput knob, never a results knob.
	for i := range serial.Items {
		require.NotNil(t, serial.Items[i].Summary)
		require.NotNil(t, parallel.Items[i].Summary)
		assert.Equal(t, serial.Items[i].Summary.Fingerprint, parallel.Items[i].Summary.Fingerprint)
	}
}

func TestBatchService_EmptyInput(t *testing.T) {
	kit := testkit.NewTestKit()
	run := NewRunService(kit.RNGAdapter(), nil, quietLogger(), 0)
	batch := NewBatchService(run, 2, quietLogger())

	_, err := batch.ExecuteAll(context.Background(), nil, false)
	assert.True(t, core.IsConfigurationError(err), "got %v", err)
}
