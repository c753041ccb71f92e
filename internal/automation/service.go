package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/forgerun/forgerun/internal/forgecli"
	"github.com/forgerun/forgerun/internal/gitrepo"
	"github.com/forgerun/forgerun/internal/workflow"
)

// Step name constants shared between configuration, the runner, and the report.
const (
	configurationStepNameConstant       = "configuration"
	initRepoStepNameConstant            = "init-repo"
	commitPushStepNameConstant          = "commit-push"
	createConflictStepNameConstant      = "create-conflict"
	resolveConflictStepNameConstant     = "resolve-conflict"
	mergeConflictBranchStepNameConstant = "merge-conflict-branch"
	gitDiagnosticsStepNameConstant      = "git-diagnostics"
	apiDiagnosticsStepNameConstant      = "api-diagnostics"
	commentFirstPRStepNameConstant      = "comment-first-pr"
	featureBranchesStepNameConstant     = "feature-branches"
	cleanupStepNameConstant             = "delete-automation-repos"
)

const (
	repositoryManagerMissingMessageConstant = "repository manager not configured"
	forgeClientMissingMessageConstant       = "forge client not configured"
	runLoggerMissingMessageConstant         = "run logger not configured"
	originRemoteNameConstant                = "origin"
	readmeFileNameConstant                  = "README.md"
	readmeContentTemplateConstant           = "# %s\n"
	initialCommitMessageConstant            = "Initial commit"
	automatedCommitMessageTemplateConstant  = "Automated commit at %s"
	automatedUpdateLineTemplateConstant     = "Automated update at %s\n"
	conflictBaseContentConstant             = "Shared baseline content\n"
	conflictBranchContentTemplateConstant   = "Changes from %s\n"
	conflictCommitMessageTemplateConstant   = "Update %s on %s"
	resolveCommitMessageTemplateConstant    = "Resolve merge conflict in %s"
	conflictPRTitleTemplateConstant         = "Merge %s into %s"
	conflictPRBodyConstant                  = "Automated merge of the deliberate conflict branch."
	featureFileTemplateConstant             = "%s.md"
	featureFileContentTemplateConstant      = "Mock content for %s\n"
	featureCommitMessageTemplateConstant    = "Add mock file for %s"
	featurePRTitleTemplateConstant          = "Feature work on %s"
	featurePRBodyTemplateConstant           = "Automated feature branch %s."
	reviewCommentTemplateConstant           = "Automated review comment posted at %s"
	pullRequestCommentTemplateConstant      = "Automated comment posted at %s"
	fallbackPullRequestNumberConstant       = 1
	repositoryCreatedMessageTemplate        = "Repository %s created"
	repositoryReusedMessageTemplate         = "Repository %s already exists, reusing it"
	repositoryDeletedMessageTemplate        = "Deleted repository %s"
	repositoryKeptMessageTemplate           = "Keeping repository %s (marker %q not present)"
	commitSkippedMessageTemplate            = "Worktree already contains the update, skipping commit on %s"
	conflictMergedCleanlyMessageTemplate    = "Merge of %s finished without conflicts, nothing to resolve"
	branchReusedMessageTemplate             = "Branch %s already exists, checking it out"
	currentBranchMessageTemplate            = "On branch %s"
	remoteMismatchTemplateConstant          = "remote clone URL %s resolves to %s/%s, expected %s"
	timestampLayoutConstant                 = time.RFC3339
)

// ResolvedConflictContent is the deterministic content left in the conflict
// file after resolution.
const ResolvedConflictContent = "Resolved content from automation run\n"

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// ErrForgeClientNotConfigured indicates the forge client dependency was missing.
var ErrForgeClientNotConfigured = errors.New(forgeClientMissingMessageConstant)

// ErrRunLoggerNotConfigured indicates the run logger dependency was missing.
var ErrRunLoggerNotConfigured = errors.New(runLoggerMissingMessageConstant)

// RepositoryManager enumerates the local version-control capabilities the service relies on.
type RepositoryManager interface {
	InitializeRepository(executionContext context.Context, repositoryPath string, initialBranch string) error
	CloneRepository(executionContext context.Context, remoteURL string, destinationPath string) error
	AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
	SetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
	StageAll(executionContext context.Context, repositoryPath string) error
	CreateCommit(executionContext context.Context, repositoryPath string, commitMessage string) error
	CheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error
	CreateBranch(executionContext context.Context, repositoryPath string, branchName string) error
	MergeBranch(executionContext context.Context, repositoryPath string, branchName string) error
	Push(executionContext context.Context, repositoryPath string, remoteName string, branchName string, options gitrepo.PushOptions) error
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	CurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	WorktreeStatus(executionContext context.Context, repositoryPath string) (string, error)
	LatestCommitSummary(executionContext context.Context, repositoryPath string) (string, error)
	LatestCommitDetails(executionContext context.Context, repositoryPath string) (string, error)
	ListBranches(executionContext context.Context, repositoryPath string) ([]string, error)
}

// ForgeClient enumerates the forge API capabilities the service relies on.
type ForgeClient interface {
	CheckAuthentication(executionContext context.Context) (forgecli.AuthenticatedUser, error)
	ViewRepository(executionContext context.Context, repositoryWithOwner string) (forgecli.Repository, error)
	CreateRepository(executionContext context.Context, options forgecli.RepositoryCreateOptions) (forgecli.Repository, error)
	DeleteRepository(executionContext context.Context, repositoryWithOwner string) error
	ListRepositories(executionContext context.Context) ([]forgecli.Repository, error)
	CreatePullRequest(executionContext context.Context, repositoryWithOwner string, options forgecli.PullRequestCreateOptions) (forgecli.PullRequest, error)
	GetPullRequest(executionContext context.Context, repositoryWithOwner string, pullRequestNumber int) (forgecli.PullRequest, error)
	ListPullRequests(executionContext context.Context, repositoryWithOwner string, state forgecli.PullRequestState) ([]forgecli.PullRequest, error)
	MergePullRequest(executionContext context.Context, repositoryWithOwner string, pullRequestNumber int) error
	CommentOnPullRequest(executionContext context.Context, repositoryWithOwner string, pullRequestNumber int, commentBody string) error
}

// Dependencies enumerates the collaborators required by the Service.
type Dependencies struct {
	Configuration     Configuration
	RepositoryManager RepositoryManager
	ForgeClient       ForgeClient
	RunLogger         *zap.Logger
	Clock             func() time.Time
}

// Service performs the automation operations against the forge and the local clone.
type Service struct {
	configuration Configuration
	repository    RepositoryManager
	forge         ForgeClient
	runLogger     *zap.Logger
	clock         func() time.Time
}

// NewService validates the dependencies and constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	if dependencies.ForgeClient == nil {
		return nil, ErrForgeClientNotConfigured
	}
	if dependencies.RunLogger == nil {
		return nil, ErrRunLoggerNotConfigured
	}
	if validationError := dependencies.Configuration.Validate(); validationError != nil {
		return nil, validationError
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		configuration: dependencies.Configuration,
		repository:    dependencies.RepositoryManager,
		forge:         dependencies.ForgeClient,
		runLogger:     dependencies.RunLogger,
		clock:         clock,
	}, nil
}

// Steps returns the full registered sequence in default order.
func (service *Service) Steps() []workflow.Step {
	return []workflow.Step{
		service.step(initRepoStepNameConstant, service.CreateAndInitializeRepository),
		service.step(commitPushStepNameConstant, service.CommitAndPush),
		service.step(createConflictStepNameConstant, service.CreateConflict),
		service.step(resolveConflictStepNameConstant, service.ResolveConflict),
		service.step(mergeConflictBranchStepNameConstant, service.MergeConflictBranch),
		service.step(gitDiagnosticsStepNameConstant, service.RunGitDiagnostics),
		service.step(apiDiagnosticsStepNameConstant, service.RunAPIDiagnostics),
		service.step(commentFirstPRStepNameConstant, service.CommentOnFirstPullRequest),
		service.step(featureBranchesStepNameConstant, service.RunFeatureBranchFlow),
	}
}

// VerifyAuthentication resolves the configured credentials before any
// operation runs. Rejections surface as fatal authentication failures.
func (service *Service) VerifyAuthentication(executionContext context.Context) error {
	authenticatedUser, authenticationError := service.forge.CheckAuthentication(executionContext)
	if authenticationError != nil {
		return ClassifyStepFailure(configurationStepNameConstant, authenticationError)
	}
	service.runLogger.Sugar().Infof("Authenticated as %s", authenticatedUser.Login)
	return nil
}

// CreateAndInitializeRepository ensures the remote repository and the local
// clone both exist, seeds the README, and pushes the initial commit.
func (service *Service) CreateAndInitializeRepository(executionContext context.Context) error {
	repositoryWithOwner := service.configuration.RepositoryWithOwner()

	remoteExists := false
	remoteRepository, viewError := service.forge.ViewRepository(executionContext, repositoryWithOwner)
	switch {
	case viewError == nil:
		if !service.configuration.Automation.ReuseExistingRepository {
			return ClassifyStepFailure(initRepoStepNameConstant, RemoteConflictError{Repository: repositoryWithOwner})
		}
		if validationError := service.validateCloneURL(remoteRepository.CloneURL, repositoryWithOwner); validationError != nil {
			return ClassifyStepFailure(initRepoStepNameConstant, validationError)
		}
		remoteExists = true
		service.runLogger.Sugar().Infof(repositoryReusedMessageTemplate, repositoryWithOwner)
	case isNotFound(viewError):
		_, creationError := service.forge.CreateRepository(executionContext, forgecli.RepositoryCreateOptions{
			Name:        service.configuration.Credentials.RepositoryName,
			Description: fmt.Sprintf("Repository provisioned by %s", service.configuration.Automation.Marker),
			Private:     true,
		})
		if creationError != nil {
			return ClassifyStepFailure(initRepoStepNameConstant, creationError)
		}
		service.runLogger.Sugar().Infof(repositoryCreatedMessageTemplate, repositoryWithOwner)
	default:
		return ClassifyStepFailure(initRepoStepNameConstant, viewError)
	}

	repositoryDirectory := service.configuration.Credentials.RepositoryDirectory
	if pathError := ensureDirectory(repositoryDirectory); pathError != nil {
		return ClassifyStepFailure(initRepoStepNameConstant, pathError)
	}

	if !gitDirectoryExists(repositoryDirectory) {
		if remoteExists {
			cloneURL, cloneURLError := service.authenticatedRemoteURL()
			if cloneURLError != nil {
				return ClassifyStepFailure(initRepoStepNameConstant, cloneURLError)
			}
			if cloneError := service.repository.CloneRepository(executionContext, cloneURL, repositoryDirectory); cloneError != nil {
				return ClassifyStepFailure(initRepoStepNameConstant, cloneError)
			}
		} else if initializationError := service.repository.InitializeRepository(executionContext, repositoryDirectory, service.configuration.Automation.DefaultBranch); initializationError != nil {
			return ClassifyStepFailure(initRepoStepNameConstant, initializationError)
		}
	}

	readmePath := filepath.Join(repositoryDirectory, readmeFileNameConstant)
	if _, statError := os.Stat(readmePath); statError != nil {
		readmeContent := fmt.Sprintf(readmeContentTemplateConstant, service.configuration.Credentials.RepositoryName)
		if writeError := writeRepositoryFile(readmePath, readmeContent); writeError != nil {
			return ClassifyStepFailure(initRepoStepNameConstant, writeError)
		}
	}

	if stageError := service.repository.StageAll(executionContext, repositoryDirectory); stageError != nil {
		return ClassifyStepFailure(initRepoStepNameConstant, stageError)
	}
	worktreeClean, statusError := service.repository.CheckCleanWorktree(executionContext, repositoryDirectory)
	if statusError != nil {
		return ClassifyStepFailure(initRepoStepNameConstant, statusError)
	}
	if !worktreeClean {
		if commitError := service.repository.CreateCommit(executionContext, repositoryDirectory, initialCommitMessageConstant); commitError != nil {
			return ClassifyStepFailure(initRepoStepNameConstant, commitError)
		}
	}

	remoteURL, remoteError := service.authenticatedRemoteURL()
	if remoteError != nil {
		return ClassifyStepFailure(initRepoStepNameConstant, remoteError)
	}
	if addRemoteError := service.repository.AddRemote(executionContext, repositoryDirectory, originRemoteNameConstant, remoteURL); addRemoteError != nil {
		if setRemoteError := service.repository.SetRemoteURL(executionContext, repositoryDirectory, originRemoteNameConstant, remoteURL); setRemoteError != nil {
			return ClassifyStepFailure(initRepoStepNameConstant, setRemoteError)
		}
	}

	pushError := service.repository.Push(executionContext, repositoryDirectory, originRemoteNameConstant, service.configuration.Automation.DefaultBranch, gitrepo.PushOptions{SetUpstream: true})
	if pushError != nil {
		return ClassifyStepFailure(initRepoStepNameConstant, pushError)
	}
	return nil
}

// CommitAndPush appends a deterministic line to the README, commits, and
// pushes. An already-applied update skips without creating an empty commit.
func (service *Service) CommitAndPush(executionContext context.Context) error {
	repositoryDirectory := service.configuration.Credentials.RepositoryDirectory
	defaultBranch := service.configuration.Automation.DefaultBranch

	if checkoutError := service.repository.CheckoutBranch(executionContext, repositoryDirectory, defaultBranch); checkoutError != nil {
		return ClassifyStepFailure(commitPushStepNameConstant, checkoutError)
	}

	timestamp := service.clock().UTC().Format(timestampLayoutConstant)
	updateLine := fmt.Sprintf(automatedUpdateLineTemplateConstant, timestamp)
	readmePath := filepath.Join(repositoryDirectory, readmeFileNameConstant)
	if appendError := appendRepositoryFileLine(readmePath, updateLine); appendError != nil {
		return ClassifyStepFailure(commitPushStepNameConstant, appendError)
	}

	worktreeClean, statusError := service.repository.CheckCleanWorktree(executionContext, repositoryDirectory)
	if statusError != nil {
		return ClassifyStepFailure(commitPushStepNameConstant, statusError)
	}
	if worktreeClean {
		service.runLogger.Sugar().Infof(commitSkippedMessageTemplate, defaultBranch)
		return nil
	}

	if stageError := service.repository.StageAll(executionContext, repositoryDirectory); stageError != nil {
		return ClassifyStepFailure(commitPushStepNameConstant, stageError)
	}
	commitMessage := fmt.Sprintf(automatedCommitMessageTemplateConstant, timestamp)
	if commitError := service.repository.CreateCommit(executionContext, repositoryDirectory, commitMessage); commitError != nil {
		return ClassifyStepFailure(commitPushStepNameConstant, commitError)
	}
	pushError := service.repository.Push(executionContext, repositoryDirectory, originRemoteNameConstant, defaultBranch, gitrepo.PushOptions{SetUpstream: true})
	if pushError != nil {
		return ClassifyStepFailure(commitPushStepNameConstant, pushError)
	}
	return nil
}

// CreateConflict seeds competing commits for the conflict file on the default
// branch and the conflict branch, pushing both sides.
func (service *Service) CreateConflict(executionContext context.Context) error {
	repositoryDirectory := service.configuration.Credentials.RepositoryDirectory
	defaultBranch := service.configuration.Automation.DefaultBranch
	conflictBranch := service.configuration.Automation.ConflictBranch
	conflictFile := service.configuration.Automation.ConflictFile
	conflictFilePath := filepath.Join(repositoryDirectory, conflictFile)

	if commitError := service.commitFileOnBranch(executionContext, defaultBranch, conflictFilePath, conflictBaseContentConstant, fmt.Sprintf(conflictCommitMessageTemplateConstant, conflictFile, defaultBranch), false); commitError != nil {
		return ClassifyStepFailure(createConflictStepNameConstant, commitError)
	}

	if branchError := service.ensureBranch(executionContext, conflictBranch); branchError != nil {
		return ClassifyStepFailure(createConflictStepNameConstant, branchError)
	}
	branchContent := fmt.Sprintf(conflictBranchContentTemplateConstant, conflictBranch)
	if commitError := service.commitFileOnBranch(executionContext, conflictBranch, conflictFilePath, branchContent, fmt.Sprintf(conflictCommitMessageTemplateConstant, conflictFile, conflictBranch), true); commitError != nil {
		return ClassifyStepFailure(createConflictStepNameConstant, commitError)
	}

	defaultContent := fmt.Sprintf(conflictBranchContentTemplateConstant, defaultBranch)
	if commitError := service.commitFileOnBranch(executionContext, defaultBranch, conflictFilePath, defaultContent, fmt.Sprintf(conflictCommitMessageTemplateConstant, conflictFile, defaultBranch), false); commitError != nil {
		return ClassifyStepFailure(createConflictStepNameConstant, commitError)
	}
	return nil
}

// ResolveConflict merges the default branch into the conflict branch and
// replaces the conflicted file with the deterministic resolution content.
func (service *Service) ResolveConflict(executionContext context.Context) error {
	repositoryDirectory := service.configuration.Credentials.RepositoryDirectory
	defaultBranch := service.configuration.Automation.DefaultBranch
	conflictBranch := service.configuration.Automation.ConflictBranch
	conflictFile := service.configuration.Automation.ConflictFile

	if checkoutError := service.repository.CheckoutBranch(executionContext, repositoryDirectory, conflictBranch); checkoutError != nil {
		return ClassifyStepFailure(resolveConflictStepNameConstant, checkoutError)
	}

	mergeError := service.repository.MergeBranch(executionContext, repositoryDirectory, defaultBranch)
	if mergeError == nil {
		service.runLogger.Sugar().Infof(conflictMergedCleanlyMessageTemplate, defaultBranch)
		return nil
	}
	var mergeConflictError gitrepo.MergeConflictError
	if !errors.As(mergeError, &mergeConflictError) {
		return ClassifyStepFailure(resolveConflictStepNameConstant, mergeError)
	}

	conflictFilePath := filepath.Join(repositoryDirectory, conflictFile)
	if writeError := writeRepositoryFile(conflictFilePath, ResolvedConflictContent); writeError != nil {
		return ClassifyStepFailure(resolveConflictStepNameConstant, writeError)
	}
	if stageError := service.repository.StageAll(executionContext, repositoryDirectory); stageError != nil {
		return ClassifyStepFailure(resolveConflictStepNameConstant, stageError)
	}
	commitMessage := fmt.Sprintf(resolveCommitMessageTemplateConstant, conflictFile)
	if commitError := service.repository.CreateCommit(executionContext, repositoryDirectory, commitMessage); commitError != nil {
		return ClassifyStepFailure(resolveConflictStepNameConstant, commitError)
	}
	pushError := service.repository.Push(executionContext, repositoryDirectory, originRemoteNameConstant, conflictBranch, gitrepo.PushOptions{SetUpstream: true})
	if pushError != nil {
		return ClassifyStepFailure(resolveConflictStepNameConstant, pushError)
	}
	return nil
}

// MergeConflictBranch opens a pull request for the conflict branch and merges
// it through the forge API.
func (service *Service) MergeConflictBranch(executionContext context.Context) error {
	repositoryWithOwner := service.configuration.RepositoryWithOwner()
	defaultBranch := service.configuration.Automation.DefaultBranch
	conflictBranch := service.configuration.Automation.ConflictBranch

	pullRequest, creationError := service.forge.CreatePullRequest(executionContext, repositoryWithOwner, forgecli.PullRequestCreateOptions{
		Title:      fmt.Sprintf(conflictPRTitleTemplateConstant, conflictBranch, defaultBranch),
		Body:       conflictPRBodyConstant,
		HeadBranch: conflictBranch,
		BaseBranch: defaultBranch,
	})
	if creationError != nil {
		return ClassifyStepFailure(mergeConflictBranchStepNameConstant, creationError)
	}
	service.runLogger.Sugar().Infof("Opened pull request #%d for %s", pullRequest.Number, conflictBranch)

	if mergeError := service.forge.MergePullRequest(executionContext, repositoryWithOwner, pullRequest.Number); mergeError != nil {
		return ClassifyStepFailure(mergeConflictBranchStepNameConstant, mergeError)
	}
	service.runLogger.Sugar().Infof("Merged pull request #%d", pullRequest.Number)
	return nil
}

// RunGitDiagnostics reports worktree status, the latest commit, and the
// branch list to the info stream.
func (service *Service) RunGitDiagnostics(executionContext context.Context) error {
	repositoryDirectory := service.configuration.Credentials.RepositoryDirectory

	currentBranch, branchError := service.repository.CurrentBranch(executionContext, repositoryDirectory)
	if branchError != nil {
		return ClassifyStepFailure(gitDiagnosticsStepNameConstant, branchError)
	}
	service.runLogger.Sugar().Infof(currentBranchMessageTemplate, currentBranch)

	statusOutput, statusError := service.repository.WorktreeStatus(executionContext, repositoryDirectory)
	if statusError != nil {
		return ClassifyStepFailure(gitDiagnosticsStepNameConstant, statusError)
	}
	service.logRawOutput(statusOutput)

	commitSummary, summaryError := service.repository.LatestCommitSummary(executionContext, repositoryDirectory)
	if summaryError != nil {
		return ClassifyStepFailure(gitDiagnosticsStepNameConstant, summaryError)
	}
	service.logRawOutput(commitSummary)

	commitDetails, detailsError := service.repository.LatestCommitDetails(executionContext, repositoryDirectory)
	if detailsError != nil {
		return ClassifyStepFailure(gitDiagnosticsStepNameConstant, detailsError)
	}
	service.logRawOutput(commitDetails)

	branchNames, listError := service.repository.ListBranches(executionContext, repositoryDirectory)
	if listError != nil {
		return ClassifyStepFailure(gitDiagnosticsStepNameConstant, listError)
	}
	service.logRawOutput(strings.Join(branchNames, "\n"))
	return nil
}

// RunAPIDiagnostics reports repository metadata and the open pull request
// listing to the info stream.
func (service *Service) RunAPIDiagnostics(executionContext context.Context) error {
	repositoryWithOwner := service.configuration.RepositoryWithOwner()

	repository, viewError := service.forge.ViewRepository(executionContext, repositoryWithOwner)
	if viewError != nil {
		return ClassifyStepFailure(apiDiagnosticsStepNameConstant, viewError)
	}
	service.runLogger.Sugar().Infof("Repository %s default branch %s", repository.FullName, repository.DefaultBranch)

	pullRequests, listError := service.forge.ListPullRequests(executionContext, repositoryWithOwner, forgecli.PullRequestStateOpen)
	if listError != nil {
		return ClassifyStepFailure(apiDiagnosticsStepNameConstant, listError)
	}
	service.runLogger.Sugar().Infof("Open pull requests: %d", len(pullRequests))
	for _, pullRequest := range pullRequests {
		service.runLogger.Sugar().Infof("PR #%d %s (%s -> %s)", pullRequest.Number, pullRequest.Title, pullRequest.HeadRefName, pullRequest.BaseRefName)
	}
	return nil
}

// CommentOnFirstPullRequest posts an automated comment on the oldest pull
// request. A missing pull request is a recoverable not-found failure.
func (service *Service) CommentOnFirstPullRequest(executionContext context.Context) error {
	repositoryWithOwner := service.configuration.RepositoryWithOwner()

	pullRequests, listError := service.forge.ListPullRequests(executionContext, repositoryWithOwner, forgecli.PullRequestStateAll)
	if listError != nil {
		return ClassifyStepFailure(commentFirstPRStepNameConstant, listError)
	}

	pullRequestNumber := fallbackPullRequestNumberConstant
	if len(pullRequests) > 0 {
		pullRequestNumber = pullRequests[len(pullRequests)-1].Number
	} else {
		fallbackPullRequest, lookupError := service.forge.GetPullRequest(executionContext, repositoryWithOwner, fallbackPullRequestNumberConstant)
		if lookupError != nil {
			return ClassifyStepFailure(commentFirstPRStepNameConstant, lookupError)
		}
		pullRequestNumber = fallbackPullRequest.Number
	}

	commentBody := fmt.Sprintf(pullRequestCommentTemplateConstant, service.clock().UTC().Format(timestampLayoutConstant))
	if commentError := service.forge.CommentOnPullRequest(executionContext, repositoryWithOwner, pullRequestNumber, commentBody); commentError != nil {
		return ClassifyStepFailure(commentFirstPRStepNameConstant, commentError)
	}
	service.runLogger.Sugar().Infof("Commented on pull request #%d", pullRequestNumber)
	return nil
}

// RunFeatureBranchFlow runs the per-branch flow for every configured feature
// branch: mock file, commit, push, pull request, review comment, and a merge
// for every branch except the last.
func (service *Service) RunFeatureBranchFlow(executionContext context.Context) error {
	repositoryDirectory := service.configuration.Credentials.RepositoryDirectory
	repositoryWithOwner := service.configuration.RepositoryWithOwner()
	defaultBranch := service.configuration.Automation.DefaultBranch
	featureBranches := service.configuration.Automation.FeatureBranches

	for branchIndex, featureBranch := range featureBranches {
		if checkoutError := service.repository.CheckoutBranch(executionContext, repositoryDirectory, defaultBranch); checkoutError != nil {
			return ClassifyStepFailure(featureBranchesStepNameConstant, checkoutError)
		}
		if branchError := service.ensureBranch(executionContext, featureBranch); branchError != nil {
			return ClassifyStepFailure(featureBranchesStepNameConstant, branchError)
		}

		mockFilePath := filepath.Join(repositoryDirectory, fmt.Sprintf(featureFileTemplateConstant, featureBranch))
		if writeError := writeRepositoryFile(mockFilePath, fmt.Sprintf(featureFileContentTemplateConstant, featureBranch)); writeError != nil {
			return ClassifyStepFailure(featureBranchesStepNameConstant, writeError)
		}
		if stageError := service.repository.StageAll(executionContext, repositoryDirectory); stageError != nil {
			return ClassifyStepFailure(featureBranchesStepNameConstant, stageError)
		}
		if commitError := service.repository.CreateCommit(executionContext, repositoryDirectory, fmt.Sprintf(featureCommitMessageTemplateConstant, featureBranch)); commitError != nil {
			return ClassifyStepFailure(featureBranchesStepNameConstant, commitError)
		}
		if pushError := service.repository.Push(executionContext, repositoryDirectory, originRemoteNameConstant, featureBranch, gitrepo.PushOptions{SetUpstream: true}); pushError != nil {
			return ClassifyStepFailure(featureBranchesStepNameConstant, pushError)
		}

		pullRequest, creationError := service.forge.CreatePullRequest(executionContext, repositoryWithOwner, forgecli.PullRequestCreateOptions{
			Title:      fmt.Sprintf(featurePRTitleTemplateConstant, featureBranch),
			Body:       fmt.Sprintf(featurePRBodyTemplateConstant, featureBranch),
			HeadBranch: featureBranch,
			BaseBranch: defaultBranch,
		})
		if creationError != nil {
			return ClassifyStepFailure(featureBranchesStepNameConstant, creationError)
		}

		reviewComment := fmt.Sprintf(reviewCommentTemplateConstant, service.clock().UTC().Format(timestampLayoutConstant))
		if commentError := service.forge.CommentOnPullRequest(executionContext, repositoryWithOwner, pullRequest.Number, reviewComment); commentError != nil {
			return ClassifyStepFailure(featureBranchesStepNameConstant, commentError)
		}

		lastBranch := branchIndex == len(featureBranches)-1
		if lastBranch {
			service.runLogger.Sugar().Infof("Leaving pull request #%d open for %s", pullRequest.Number, featureBranch)
			continue
		}
		if mergeError := service.forge.MergePullRequest(executionContext, repositoryWithOwner, pullRequest.Number); mergeError != nil {
			return ClassifyStepFailure(featureBranchesStepNameConstant, mergeError)
		}
		service.runLogger.Sugar().Infof("Merged pull request #%d for %s", pullRequest.Number, featureBranch)
	}
	return nil
}

// DeleteAutomationRepositories removes every repository owned by the
// configured account whose name contains the marker. Matching is
// case-insensitive. The returned slice lists the deleted identifiers.
func (service *Service) DeleteAutomationRepositories(executionContext context.Context) ([]string, error) {
	repositories, listError := service.forge.ListRepositories(executionContext)
	if listError != nil {
		return nil, ClassifyStepFailure(cleanupStepNameConstant, listError)
	}

	marker := strings.ToLower(service.configuration.Automation.Marker)
	deletedRepositories := []string{}
	for _, repository := range repositories {
		if !strings.Contains(strings.ToLower(repository.Name), marker) {
			service.runLogger.Sugar().Infof(repositoryKeptMessageTemplate, repository.FullName, service.configuration.Automation.Marker)
			continue
		}
		if deletionError := service.forge.DeleteRepository(executionContext, repository.FullName); deletionError != nil {
			return deletedRepositories, ClassifyStepFailure(cleanupStepNameConstant, deletionError)
		}
		service.runLogger.Sugar().Infof(repositoryDeletedMessageTemplate, repository.FullName)
		deletedRepositories = append(deletedRepositories, repository.FullName)
	}
	return deletedRepositories, nil
}

func (service *Service) step(stepName string, operation func(context.Context) error) workflow.Step {
	return serviceStep{stepName: stepName, timeout: service.operationTimeout(), operation: operation}
}

func (service *Service) operationTimeout() time.Duration {
	return time.Duration(service.configuration.Automation.OperationTimeoutSeconds) * time.Second
}

// commitFileOnBranch switches to the branch, writes the file, and commits and
// pushes when the write dirtied the worktree.
func (service *Service) commitFileOnBranch(executionContext context.Context, branchName string, filePath string, content string, commitMessage string, setUpstream bool) error {
	repositoryDirectory := service.configuration.Credentials.RepositoryDirectory

	if checkoutError := service.repository.CheckoutBranch(executionContext, repositoryDirectory, branchName); checkoutError != nil {
		return checkoutError
	}
	if writeError := writeRepositoryFile(filePath, content); writeError != nil {
		return writeError
	}
	worktreeClean, statusError := service.repository.CheckCleanWorktree(executionContext, repositoryDirectory)
	if statusError != nil {
		return statusError
	}
	if worktreeClean {
		return nil
	}
	if stageError := service.repository.StageAll(executionContext, repositoryDirectory); stageError != nil {
		return stageError
	}
	if commitError := service.repository.CreateCommit(executionContext, repositoryDirectory, commitMessage); commitError != nil {
		return commitError
	}
	return service.repository.Push(executionContext, repositoryDirectory, originRemoteNameConstant, branchName, gitrepo.PushOptions{SetUpstream: setUpstream})
}

// ensureBranch creates the branch, honoring the branch-exists policy when the
// branch is already present.
func (service *Service) ensureBranch(executionContext context.Context, branchName string) error {
	repositoryDirectory := service.configuration.Credentials.RepositoryDirectory

	creationError := service.repository.CreateBranch(executionContext, repositoryDirectory, branchName)
	if creationError == nil {
		return nil
	}
	var branchExistsError gitrepo.BranchExistsError
	if !errors.As(creationError, &branchExistsError) {
		return creationError
	}
	if BranchExistsPolicy(service.configuration.Automation.BranchExistsPolicy) == BranchExistsPolicyFail {
		return creationError
	}
	service.runLogger.Sugar().Infof(branchReusedMessageTemplate, branchName)
	return service.repository.CheckoutBranch(executionContext, repositoryDirectory, branchName)
}

// validateCloneURL checks that the forge-reported clone URL names the
// configured repository. An empty URL is accepted, the forge does not always
// report one.
func (service *Service) validateCloneURL(cloneURL string, repositoryWithOwner string) error {
	if len(strings.TrimSpace(cloneURL)) == 0 {
		return nil
	}
	parsedRemote, parseError := gitrepo.ParseRemoteURL(cloneURL)
	if parseError != nil {
		return parseError
	}
	if !strings.EqualFold(parsedRemote.Owner+"/"+parsedRemote.Repository, repositoryWithOwner) {
		return fmt.Errorf(remoteMismatchTemplateConstant, cloneURL, parsedRemote.Owner, parsedRemote.Repository, repositoryWithOwner)
	}
	return nil
}

func (service *Service) authenticatedRemoteURL() (string, error) {
	structuredRemote := gitrepo.RemoteURL{
		Protocol:   gitrepo.RemoteProtocolHTTPS,
		Host:       service.remoteHost(),
		Owner:      service.configuration.Credentials.Username,
		Repository: service.configuration.Credentials.RepositoryName,
	}
	return gitrepo.AuthenticatedHTTPSRemoteURL(structuredRemote, service.configuration.Credentials.Username, service.configuration.Credentials.AccessToken)
}

func (service *Service) remoteHost() string {
	forgeHost := service.configuration.ForgeHost()
	if len(forgeHost) == 0 {
		return "github.com"
	}
	return forgeHost
}

func (service *Service) logRawOutput(output string) {
	for _, outputLine := range strings.Split(output, "\n") {
		trimmedLine := strings.TrimRight(outputLine, "\r")
		if len(strings.TrimSpace(trimmedLine)) == 0 {
			continue
		}
		service.runLogger.Info(trimmedLine)
	}
}

type serviceStep struct {
	stepName  string
	timeout   time.Duration
	operation func(context.Context) error
}

func (step serviceStep) Name() string {
	return step.stepName
}

func (step serviceStep) Execute(executionContext context.Context) error {
	if step.timeout > 0 {
		timeoutContext, cancelTimeout := context.WithTimeout(executionContext, step.timeout)
		defer cancelTimeout()
		executionContext = timeoutContext
	}
	operationError := step.operation(executionContext)
	if operationError != nil && executionContext.Err() != nil {
		return ClassifyStepFailure(step.stepName, context.DeadlineExceeded)
	}
	return operationError
}

func ensureDirectory(directoryPath string) error {
	fileInfo, statError := os.Stat(directoryPath)
	if statError == nil {
		if !fileInfo.IsDir() {
			return LocalPathError{Path: directoryPath, Cause: errors.New("path exists and is not a directory")}
		}
		return nil
	}
	if !os.IsNotExist(statError) {
		return LocalPathError{Path: directoryPath, Cause: statError}
	}
	if creationError := os.MkdirAll(directoryPath, 0o755); creationError != nil {
		return LocalPathError{Path: directoryPath, Cause: creationError}
	}
	return nil
}

func gitDirectoryExists(repositoryDirectory string) bool {
	fileInfo, statError := os.Stat(filepath.Join(repositoryDirectory, ".git"))
	return statError == nil && fileInfo.IsDir()
}

func writeRepositoryFile(filePath string, content string) error {
	if writeError := os.WriteFile(filePath, []byte(content), 0o644); writeError != nil {
		return LocalPathError{Path: filePath, Cause: writeError}
	}
	return nil
}

func appendRepositoryFileLine(filePath string, line string) error {
	fileHandle, openError := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if openError != nil {
		return LocalPathError{Path: filePath, Cause: openError}
	}
	defer fileHandle.Close()
	if _, writeError := fileHandle.WriteString(line); writeError != nil {
		return LocalPathError{Path: filePath, Cause: writeError}
	}
	return nil
}

func isNotFound(candidate error) bool {
	var notFoundError forgecli.NotFoundError
	return errors.As(candidate, &notFoundError)
}
