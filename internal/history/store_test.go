package history_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forgerun/forgerun/internal/history"
	"github.com/forgerun/forgerun/internal/workflow"
)

func openMemoryStore(testInstance *testing.T) *history.Store {
	store, openError := history.OpenStore(":memory:")
	require.NoError(testInstance, openError)
	testInstance.Cleanup(func() {
		require.NoError(testInstance, store.Close())
	})
	return store
}

func sampleReport(succeeded bool) workflow.RunReport {
	startedAt := time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC)
	report := workflow.RunReport{
		StartedAt:   startedAt,
		CompletedAt: startedAt.Add(42 * time.Second),
		Results: []workflow.StepResult{
			{StepName: "init-repo", Status: workflow.StepStatusSucceeded, Attempts: 1, Duration: 12 * time.Second},
		},
	}
	if !succeeded {
		report.Results = append(report.Results, workflow.StepResult{
			StepName:       "commit-push",
			Status:         workflow.StepStatusFailed,
			Attempts:       2,
			Duration:       3 * time.Second,
			FailureMessage: "push rejected",
		})
	}
	return report
}

func TestOpenStoreRequiresPath(testInstance *testing.T) {
	store, openError := history.OpenStore("")
	require.ErrorIs(testInstance, openError, history.ErrDatabasePathRequired)
	require.Nil(testInstance, store)
}

func TestRecordRunRoundTrip(testInstance *testing.T) {
	store := openMemoryStore(testInstance)

	runIdentifier, recordError := store.RecordRun(sampleReport(false))
	require.NoError(testInstance, recordError)
	require.Positive(testInstance, runIdentifier)

	summaries, queryError := store.RecentRuns(10)
	require.NoError(testInstance, queryError)
	require.Len(testInstance, summaries, 1)
	require.Equal(testInstance, runIdentifier, summaries[0].Identifier)
	require.False(testInstance, summaries[0].Succeeded)
	require.Equal(testInstance, 2026, summaries[0].StartedAt.Year())

	stepRecords, stepsError := store.RunSteps(runIdentifier)
	require.NoError(testInstance, stepsError)
	require.Len(testInstance, stepRecords, 2)
	require.Equal(testInstance, "init-repo", stepRecords[0].StepName)
	require.Equal(testInstance, string(workflow.StepStatusSucceeded), stepRecords[0].Status)
	require.Equal(testInstance, "commit-push", stepRecords[1].StepName)
	require.Equal(testInstance, "push rejected", stepRecords[1].FailureMessage)
	require.Equal(testInstance, 3*time.Second, stepRecords[1].Duration)
}

func TestRecentRunsOrdersNewestFirst(testInstance *testing.T) {
	store := openMemoryStore(testInstance)

	firstIdentifier, recordError := store.RecordRun(sampleReport(true))
	require.NoError(testInstance, recordError)
	secondIdentifier, recordError := store.RecordRun(sampleReport(false))
	require.NoError(testInstance, recordError)

	summaries, queryError := store.RecentRuns(10)
	require.NoError(testInstance, queryError)
	require.Len(testInstance, summaries, 2)
	require.Equal(testInstance, secondIdentifier, summaries[0].Identifier)
	require.Equal(testInstance, firstIdentifier, summaries[1].Identifier)
}

func TestRecentRunsAppliesLimit(testInstance *testing.T) {
	store := openMemoryStore(testInstance)

	for runIndex := 0; runIndex < 3; runIndex++ {
		_, recordError := store.RecordRun(sampleReport(true))
		require.NoError(testInstance, recordError)
	}

	summaries, queryError := store.RecentRuns(2)
	require.NoError(testInstance, queryError)
	require.Len(testInstance, summaries, 2)
}
