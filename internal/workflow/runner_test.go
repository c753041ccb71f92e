package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/forgerun/forgerun/internal/workflow"
)

type scriptedStep struct {
	stepName   string
	errs       []error
	executions int
}

func (step *scriptedStep) Name() string {
	return step.stepName
}

func (step *scriptedStep) Execute(context.Context) error {
	currentIndex := step.executions
	step.executions++
	if currentIndex < len(step.errs) {
		return step.errs[currentIndex]
	}
	return nil
}

type classifiedError struct {
	message   string
	retryable bool
	fatal     bool
}

func (failure classifiedError) Error() string   { return failure.message }
func (failure classifiedError) Retryable() bool { return failure.retryable }
func (failure classifiedError) Fatal() bool     { return failure.fatal }

func newTestRunner(testInstance *testing.T, options workflow.RunnerOptions) (*workflow.Runner, *observer.ObservedLogs) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	if options.SleepFunc == nil {
		options.SleepFunc = func(time.Duration) {}
	}
	runner, creationError := workflow.NewRunner(zap.New(observedCore), options)
	require.NoError(testInstance, creationError)
	return runner, observedLogs
}

func TestNewRunnerRequiresLogger(testInstance *testing.T) {
	runner, creationError := workflow.NewRunner(nil, workflow.RunnerOptions{})
	require.ErrorIs(testInstance, creationError, workflow.ErrRunLoggerNotConfigured)
	require.Nil(testInstance, runner)
}

func TestRunExecutesStepsInOrder(testInstance *testing.T) {
	runner, _ := newTestRunner(testInstance, workflow.RunnerOptions{})
	firstStep := &scriptedStep{stepName: "init-repo"}
	secondStep := &scriptedStep{stepName: "commit-push"}

	report := runner.Run(context.Background(), []workflow.Step{firstStep, secondStep})

	require.True(testInstance, report.Succeeded())
	require.Len(testInstance, report.Results, 2)
	require.Equal(testInstance, "init-repo", report.Results[0].StepName)
	require.Equal(testInstance, workflow.StepStatusSucceeded, report.Results[0].Status)
	require.Equal(testInstance, "commit-push", report.Results[1].StepName)
	require.Equal(testInstance, 1, firstStep.executions)
	require.Equal(testInstance, 1, secondStep.executions)
}

func TestRunRetriesRetryableFailures(testInstance *testing.T) {
	runner, observedLogs := newTestRunner(testInstance, workflow.RunnerOptions{
		RetryPolicy: workflow.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
	})
	flakyStep := &scriptedStep{
		stepName: "commit-push",
		errs: []error{
			classifiedError{message: "push rejected", retryable: true},
			classifiedError{message: "push rejected", retryable: true},
		},
	}

	report := runner.Run(context.Background(), []workflow.Step{flakyStep})

	require.True(testInstance, report.Succeeded())
	require.Equal(testInstance, 3, flakyStep.executions)
	require.Equal(testInstance, 3, report.Results[0].Attempts)
	require.NotZero(testInstance, observedLogs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestRunDoesNotRetryNonRetryableFailures(testInstance *testing.T) {
	runner, _ := newTestRunner(testInstance, workflow.RunnerOptions{
		RetryPolicy: workflow.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
	})
	failingStep := &scriptedStep{
		stepName: "create-conflict",
		errs:     []error{classifiedError{message: "branch exists", retryable: false}},
	}

	report := runner.Run(context.Background(), []workflow.Step{failingStep})

	require.False(testInstance, report.Succeeded())
	require.Equal(testInstance, 1, failingStep.executions)
	require.Equal(testInstance, workflow.StepStatusFailed, report.Results[0].Status)
}

func TestRunStopsSequenceOnFailureByDefault(testInstance *testing.T) {
	runner, _ := newTestRunner(testInstance, workflow.RunnerOptions{})
	failingStep := &scriptedStep{stepName: "commit-push", errs: []error{classifiedError{message: "push rejected"}}}
	skippedStep := &scriptedStep{stepName: "create-conflict"}

	report := runner.Run(context.Background(), []workflow.Step{failingStep, skippedStep})

	require.False(testInstance, report.Succeeded())
	require.False(testInstance, report.Aborted)
	require.True(testInstance, report.Halted)
	require.Equal(testInstance, workflow.StepStatusFailed, report.Results[0].Status)
	require.Equal(testInstance, workflow.StepStatusSkipped, report.Results[1].Status)
	require.Zero(testInstance, skippedStep.executions)
}

func TestRunContinuesAfterNonFatalFailureWhenConfigured(testInstance *testing.T) {
	runner, _ := newTestRunner(testInstance, workflow.RunnerOptions{ContinueOnError: true})
	failingStep := &scriptedStep{stepName: "commit-push", errs: []error{classifiedError{message: "push rejected"}}}
	trailingStep := &scriptedStep{stepName: "git-diagnostics"}

	report := runner.Run(context.Background(), []workflow.Step{failingStep, trailingStep})

	require.False(testInstance, report.Succeeded())
	require.False(testInstance, report.Halted)
	require.Equal(testInstance, workflow.StepStatusFailed, report.Results[0].Status)
	require.Equal(testInstance, workflow.StepStatusSucceeded, report.Results[1].Status)
	require.Equal(testInstance, 1, trailingStep.executions)
}

func TestRunAbortsOnFatalFailureDespiteContinueOnError(testInstance *testing.T) {
	runner, _ := newTestRunner(testInstance, workflow.RunnerOptions{ContinueOnError: true})
	fatalStep := &scriptedStep{stepName: "init-repo", errs: []error{classifiedError{message: "bad credentials", fatal: true}}}
	skippedStep := &scriptedStep{stepName: "commit-push"}

	report := runner.Run(context.Background(), []workflow.Step{fatalStep, skippedStep})

	require.False(testInstance, report.Succeeded())
	require.True(testInstance, report.Aborted)
	require.True(testInstance, report.Halted)
	require.Equal(testInstance, workflow.StepStatusSkipped, report.Results[1].Status)
	require.Zero(testInstance, skippedStep.executions)
}

func TestRunReportCollectsFailedSteps(testInstance *testing.T) {
	runner, _ := newTestRunner(testInstance, workflow.RunnerOptions{ContinueOnError: true})
	failingStep := &scriptedStep{stepName: "commit-push", errs: []error{classifiedError{message: "push rejected"}}}

	report := runner.Run(context.Background(), []workflow.Step{failingStep})

	failedSteps := report.FailedSteps()
	require.Len(testInstance, failedSteps, 1)
	require.Equal(testInstance, "commit-push", failedSteps[0].StepName)
	require.Equal(testInstance, "push rejected", failedSteps[0].FailureMessage)
	require.True(testInstance, errors.As(failedSteps[0].Err, &classifiedError{}))
}
