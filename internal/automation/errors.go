package automation

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgerun/forgerun/internal/forgecli"
	"github.com/forgerun/forgerun/internal/gitrepo"
)

const (
	stepErrorMessageTemplateConstant    = "%s failure in step %s: %s"
	localPathErrorTemplateConstant      = "local path %s is unusable: %s"
	remoteConflictErrorTemplateConstant = "repository %s already exists on the forge"
)

// LocalPathError indicates the configured repository directory cannot be used.
type LocalPathError struct {
	Path  string
	Cause error
}

// Error describes the unusable path.
func (pathError LocalPathError) Error() string {
	return fmt.Sprintf(localPathErrorTemplateConstant, pathError.Path, pathError.Cause)
}

// Unwrap exposes the underlying filesystem error.
func (pathError LocalPathError) Unwrap() error {
	return pathError.Cause
}

// RemoteConflictError indicates the target repository already exists and reuse is disabled.
type RemoteConflictError struct {
	Repository string
}

// Error describes the conflicting remote repository.
func (conflictError RemoteConflictError) Error() string {
	return fmt.Sprintf(remoteConflictErrorTemplateConstant, conflictError.Repository)
}

// FailureKind classifies step failures for reporting and retry decisions.
type FailureKind string

// Failure kind enumerations.
const (
	FailureKindConfiguration  FailureKind = FailureKind("configuration")
	FailureKindAuthentication FailureKind = FailureKind("authentication")
	FailureKindLocalPath      FailureKind = FailureKind("local-path")
	FailureKindRemoteConflict FailureKind = FailureKind("remote-conflict")
	FailureKindBranchExists   FailureKind = FailureKind("branch-exists")
	FailureKindPushRejected   FailureKind = FailureKind("push-rejected")
	FailureKindMergeConflict  FailureKind = FailureKind("merge-conflict")
	FailureKindNotFound       FailureKind = FailureKind("not-found")
	FailureKindTimeout        FailureKind = FailureKind("timeout")
	FailureKindOperation      FailureKind = FailureKind("operation")
)

// StepError couples a classified failure with the step that produced it.
type StepError struct {
	Kind     FailureKind
	StepName string
	Cause    error
}

// Error describes the classified failure.
func (stepError StepError) Error() string {
	return fmt.Sprintf(stepErrorMessageTemplateConstant, stepError.Kind, stepError.StepName, stepError.Cause)
}

// Unwrap exposes the underlying cause.
func (stepError StepError) Unwrap() error {
	return stepError.Cause
}

// Retryable reports whether the failure is transient. Only timeout-class
// failures are retried.
func (stepError StepError) Retryable() bool {
	return stepError.Kind == FailureKindTimeout
}

// Fatal reports whether the failure must abort the remaining sequence.
func (stepError StepError) Fatal() bool {
	return stepError.Kind == FailureKindConfiguration || stepError.Kind == FailureKindAuthentication
}

// NewStepError builds a StepError for the named step.
func NewStepError(kind FailureKind, stepName string, cause error) StepError {
	return StepError{Kind: kind, StepName: stepName, Cause: cause}
}

// ClassifyStepFailure wraps an arbitrary error into a StepError, deriving the
// failure kind from the typed errors raised by gitrepo and forgecli.
func ClassifyStepFailure(stepName string, cause error) error {
	if cause == nil {
		return nil
	}

	var existingStepError StepError
	if errors.As(cause, &existingStepError) {
		return cause
	}

	return StepError{Kind: classifyFailureKind(cause), StepName: stepName, Cause: cause}
}

func classifyFailureKind(cause error) FailureKind {
	if errors.Is(cause, context.DeadlineExceeded) {
		return FailureKindTimeout
	}

	var localPathError LocalPathError
	if errors.As(cause, &localPathError) {
		return FailureKindLocalPath
	}

	var remoteConflictError RemoteConflictError
	if errors.As(cause, &remoteConflictError) {
		return FailureKindRemoteConflict
	}

	var branchExistsError gitrepo.BranchExistsError
	if errors.As(cause, &branchExistsError) {
		return FailureKindBranchExists
	}

	var mergeConflictError gitrepo.MergeConflictError
	if errors.As(cause, &mergeConflictError) {
		return FailureKindMergeConflict
	}

	var pushRejectedError gitrepo.PushRejectedError
	if errors.As(cause, &pushRejectedError) {
		return FailureKindPushRejected
	}

	var authenticationError forgecli.AuthenticationError
	if errors.As(cause, &authenticationError) {
		return FailureKindAuthentication
	}

	var notFoundError forgecli.NotFoundError
	if errors.As(cause, &notFoundError) {
		return FailureKindNotFound
	}

	var mergeBlockedError forgecli.MergeBlockedError
	if errors.As(cause, &mergeBlockedError) {
		return FailureKindMergeConflict
	}

	var invalidInputError forgecli.InvalidInputError
	if errors.As(cause, &invalidInputError) {
		return FailureKindConfiguration
	}

	return FailureKindOperation
}
