package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forgerun/forgerun/internal/execshell"
)

const (
	gitExecutorMissingMessageConstant           = "git executor not configured"
	repositoryPathRequiredMessageConstant       = "repository path must be provided"
	branchNameRequiredMessageConstant           = "branch name must be provided"
	commitMessageRequiredMessageConstant        = "commit message must be provided"
	remoteNameRequiredMessageConstant           = "remote name must be provided"
	gitInitSubcommandConstant                   = "init"
	gitInitialBranchFlagConstant                = "--initial-branch"
	gitCloneSubcommandConstant                  = "clone"
	gitAddSubcommandConstant                    = "add"
	gitAllPathSpecConstant                      = "."
	gitCommitSubcommandConstant                 = "commit"
	gitCommitMessageFlagConstant                = "-m"
	gitCheckoutSubcommandConstant               = "checkout"
	gitCheckoutNewBranchFlagConstant            = "-b"
	gitMergeSubcommandConstant                  = "merge"
	gitMergeNoEditFlagConstant                  = "--no-edit"
	gitPushSubcommandConstant                   = "push"
	gitPushSetUpstreamFlagConstant              = "--set-upstream"
	gitPushForceFlagConstant                    = "--force"
	gitStatusSubcommandConstant                 = "status"
	gitStatusPorcelainFlagConstant              = "--porcelain"
	gitRevParseSubcommandConstant               = "rev-parse"
	gitAbbreviatedReferenceFlagConstant         = "--abbrev-ref"
	gitHeadReferenceConstant                    = "HEAD"
	gitLogSubcommandConstant                    = "log"
	gitLogLimitFlagConstant                     = "-1"
	gitShowSubcommandConstant                   = "show"
	gitShowStatFlagConstant                     = "--stat"
	gitBranchSubcommandConstant                 = "branch"
	gitBranchAllFlagConstant                    = "--all"
	gitRemoteSubcommandConstant                 = "remote"
	gitRemoteAddSubcommandConstant              = "add"
	gitRemoteSetURLSubcommandConstant           = "set-url"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
	mergeConflictOutputMarkerConstant           = "CONFLICT"
	branchExistsOutputMarkerConstant            = "already exists"
	pushRejectedOutputMarkerConstant            = "[rejected]"
	pushNonFastForwardMarkerConstant            = "non-fast-forward"
	branchExistsErrorTemplateConstant           = "branch %s already exists"
	mergeConflictErrorTemplateConstant          = "merge of %s produced conflicts"
	pushRejectedErrorTemplateConstant           = "push of %s to %s was rejected"
)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryPathRequired indicates an operation received an empty repository path.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrBranchNameRequired indicates an operation received an empty branch name.
var ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)

// ErrCommitMessageRequired indicates a commit was attempted without a message.
var ErrCommitMessageRequired = errors.New(commitMessageRequiredMessageConstant)

// ErrRemoteNameRequired indicates a remote operation received an empty remote name.
var ErrRemoteNameRequired = errors.New(remoteNameRequiredMessageConstant)

// GitExecutor abstracts git command execution.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// BranchExistsError indicates branch creation collided with an existing branch.
type BranchExistsError struct {
	BranchName string
}

// Error describes the branch collision.
func (branchError BranchExistsError) Error() string {
	return fmt.Sprintf(branchExistsErrorTemplateConstant, branchError.BranchName)
}

// MergeConflictError indicates a merge stopped on conflicting changes.
type MergeConflictError struct {
	BranchName     string
	ConflictOutput string
}

// Error describes the conflicting merge.
func (mergeError MergeConflictError) Error() string {
	return fmt.Sprintf(mergeConflictErrorTemplateConstant, mergeError.BranchName)
}

// PushRejectedError indicates the remote refused a push.
type PushRejectedError struct {
	RemoteName string
	BranchName string
	Output     string
}

// Error describes the rejected push.
func (pushError PushRejectedError) Error() string {
	return fmt.Sprintf(pushRejectedErrorTemplateConstant, pushError.BranchName, pushError.RemoteName)
}

// PushOptions tunes push behavior.
type PushOptions struct {
	SetUpstream bool
	Force       bool
}

// RepositoryManager performs git operations against local repositories.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager backed by the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// InitializeRepository creates a fresh repository at the provided path with the requested initial branch.
func (manager *RepositoryManager) InitializeRepository(executionContext context.Context, repositoryPath string, initialBranch string) error {
	if validationError := requirePath(repositoryPath); validationError != nil {
		return validationError
	}
	arguments := []string{gitInitSubcommandConstant}
	if len(strings.TrimSpace(initialBranch)) > 0 {
		arguments = append(arguments, gitInitialBranchFlagConstant, initialBranch)
	}
	_, executionError := manager.run(executionContext, repositoryPath, arguments)
	return executionError
}

// CloneRepository clones the remote into the destination path.
func (manager *RepositoryManager) CloneRepository(executionContext context.Context, remoteURL string, destinationPath string) error {
	if validationError := requirePath(destinationPath); validationError != nil {
		return validationError
	}
	_, executionError := manager.run(executionContext, "", []string{gitCloneSubcommandConstant, remoteURL, destinationPath})
	return executionError
}

// AddRemote registers a named remote in the repository.
func (manager *RepositoryManager) AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	if validationError := requirePath(repositoryPath); validationError != nil {
		return validationError
	}
	if len(strings.TrimSpace(remoteName)) == 0 {
		return ErrRemoteNameRequired
	}
	_, executionError := manager.run(executionContext, repositoryPath, []string{gitRemoteSubcommandConstant, gitRemoteAddSubcommandConstant, remoteName, remoteURL})
	return executionError
}

// SetRemoteURL rewrites the URL of an existing remote.
func (manager *RepositoryManager) SetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	if validationError := requirePath(repositoryPath); validationError != nil {
		return validationError
	}
	if len(strings.TrimSpace(remoteName)) == 0 {
		return ErrRemoteNameRequired
	}
	_, executionError := manager.run(executionContext, repositoryPath, []string{gitRemoteSubcommandConstant, gitRemoteSetURLSubcommandConstant, remoteName, remoteURL})
	return executionError
}

// StageAll stages every pending change in the repository.
func (manager *RepositoryManager) StageAll(executionContext context.Context, repositoryPath string) error {
	if validationError := requirePath(repositoryPath); validationError != nil {
		return validationError
	}
	_, executionError := manager.run(executionContext, repositoryPath, []string{gitAddSubcommandConstant, gitAllPathSpecConstant})
	return executionError
}

// CreateCommit records a commit with the provided message.
func (manager *RepositoryManager) CreateCommit(executionContext context.Context, repositoryPath string, commitMessage string) error {
	if validationError := requirePath(repositoryPath); validationError != nil {
		return validationError
	}
	if len(strings.TrimSpace(commitMessage)) == 0 {
		return ErrCommitMessageRequired
	}
	_, executionError := manager.run(executionContext, repositoryPath, []string{gitCommitSubcommandConstant, gitCommitMessageFlagConstant, commitMessage})
	return executionError
}

// CheckoutBranch switches the repository to an existing branch.
func (manager *RepositoryManager) CheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	if validationError := requireBranch(repositoryPath, branchName); validationError != nil {
		return validationError
	}
	_, executionError := manager.run(executionContext, repositoryPath, []string{gitCheckoutSubcommandConstant, branchName})
	return executionError
}

// CreateBranch creates and switches to a new branch. A collision with an
// existing branch surfaces as BranchExistsError.
func (manager *RepositoryManager) CreateBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	if validationError := requireBranch(repositoryPath, branchName); validationError != nil {
		return validationError
	}
	_, executionError := manager.run(executionContext, repositoryPath, []string{gitCheckoutSubcommandConstant, gitCheckoutNewBranchFlagConstant, branchName})
	if executionError == nil {
		return nil
	}
	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) && strings.Contains(commandFailure.Result.StandardError, branchExistsOutputMarkerConstant) {
		return BranchExistsError{BranchName: branchName}
	}
	return executionError
}

// MergeBranch merges the named branch into the current branch. Conflicting
// merges surface as MergeConflictError carrying the conflict output.
func (manager *RepositoryManager) MergeBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	if validationError := requireBranch(repositoryPath, branchName); validationError != nil {
		return validationError
	}
	_, executionError := manager.run(executionContext, repositoryPath, []string{gitMergeSubcommandConstant, gitMergeNoEditFlagConstant, branchName})
	if executionError == nil {
		return nil
	}
	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) {
		combinedOutput := commandFailure.Result.StandardOutput + commandFailure.Result.StandardError
		if strings.Contains(combinedOutput, mergeConflictOutputMarkerConstant) {
			return MergeConflictError{BranchName: branchName, ConflictOutput: strings.TrimSpace(combinedOutput)}
		}
	}
	return executionError
}

// Push publishes the branch to the named remote. Remote refusals surface as
// PushRejectedError.
func (manager *RepositoryManager) Push(executionContext context.Context, repositoryPath string, remoteName string, branchName string, options PushOptions) error {
	if validationError := requireBranch(repositoryPath, branchName); validationError != nil {
		return validationError
	}
	if len(strings.TrimSpace(remoteName)) == 0 {
		return ErrRemoteNameRequired
	}
	arguments := []string{gitPushSubcommandConstant}
	if options.SetUpstream {
		arguments = append(arguments, gitPushSetUpstreamFlagConstant)
	}
	if options.Force {
		arguments = append(arguments, gitPushForceFlagConstant)
	}
	arguments = append(arguments, remoteName, branchName)
	_, executionError := manager.run(executionContext, repositoryPath, arguments)
	if executionError == nil {
		return nil
	}
	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) {
		combinedOutput := commandFailure.Result.StandardOutput + commandFailure.Result.StandardError
		if strings.Contains(combinedOutput, pushRejectedOutputMarkerConstant) || strings.Contains(combinedOutput, pushNonFastForwardMarkerConstant) {
			return PushRejectedError{RemoteName: remoteName, BranchName: branchName, Output: strings.TrimSpace(combinedOutput)}
		}
	}
	return executionError
}

// CheckCleanWorktree reports whether the repository has no pending changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	if validationError := requirePath(repositoryPath); validationError != nil {
		return false, validationError
	}
	result, executionError := manager.run(executionContext, repositoryPath, []string{gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant})
	if executionError != nil {
		return false, executionError
	}
	return len(strings.TrimSpace(result.StandardOutput)) == 0, nil
}

// CurrentBranch resolves the branch the repository currently has checked out.
func (manager *RepositoryManager) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	if validationError := requirePath(repositoryPath); validationError != nil {
		return "", validationError
	}
	result, executionError := manager.run(executionContext, repositoryPath, []string{gitRevParseSubcommandConstant, gitAbbreviatedReferenceFlagConstant, gitHeadReferenceConstant})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// WorktreeStatus returns the human-readable status report for the repository.
func (manager *RepositoryManager) WorktreeStatus(executionContext context.Context, repositoryPath string) (string, error) {
	if validationError := requirePath(repositoryPath); validationError != nil {
		return "", validationError
	}
	result, executionError := manager.run(executionContext, repositoryPath, []string{gitStatusSubcommandConstant})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// LatestCommitSummary returns the most recent commit entry from the log.
func (manager *RepositoryManager) LatestCommitSummary(executionContext context.Context, repositoryPath string) (string, error) {
	if validationError := requirePath(repositoryPath); validationError != nil {
		return "", validationError
	}
	result, executionError := manager.run(executionContext, repositoryPath, []string{gitLogSubcommandConstant, gitLogLimitFlagConstant})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// LatestCommitDetails returns the latest commit together with its change statistics.
func (manager *RepositoryManager) LatestCommitDetails(executionContext context.Context, repositoryPath string) (string, error) {
	if validationError := requirePath(repositoryPath); validationError != nil {
		return "", validationError
	}
	result, executionError := manager.run(executionContext, repositoryPath, []string{gitShowSubcommandConstant, gitShowStatFlagConstant, gitHeadReferenceConstant})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// ListBranches returns every local and remote-tracking branch known to the repository.
func (manager *RepositoryManager) ListBranches(executionContext context.Context, repositoryPath string) ([]string, error) {
	if validationError := requirePath(repositoryPath); validationError != nil {
		return nil, validationError
	}
	result, executionError := manager.run(executionContext, repositoryPath, []string{gitBranchSubcommandConstant, gitBranchAllFlagConstant})
	if executionError != nil {
		return nil, executionError
	}
	branchNames := []string{}
	for _, rawLine := range strings.Split(result.StandardOutput, "\n") {
		branchName := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rawLine), "*"))
		if len(branchName) == 0 {
			continue
		}
		branchNames = append(branchNames, branchName)
	}
	return branchNames, nil
}

func (manager *RepositoryManager) run(executionContext context.Context, repositoryPath string, arguments []string) (execshell.ExecutionResult, error) {
	details := execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
		EnvironmentVariables: []string{
			fmt.Sprintf("%s=%s", gitTerminalPromptEnvironmentNameConstant, gitTerminalPromptEnvironmentDisableConstant),
		},
	}
	return manager.executor.ExecuteGit(executionContext, details)
}

func requirePath(repositoryPath string) error {
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return ErrRepositoryPathRequired
	}
	return nil
}

func requireBranch(repositoryPath string, branchName string) error {
	if validationError := requirePath(repositoryPath); validationError != nil {
		return validationError
	}
	if len(strings.TrimSpace(branchName)) == 0 {
		return ErrBranchNameRequired
	}
	return nil
}
