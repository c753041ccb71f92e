package automation_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/forgerun/forgerun/internal/automation"
	"github.com/forgerun/forgerun/internal/forgecli"
	"github.com/forgerun/forgerun/internal/gitrepo"
)

type stubRepositoryManager struct {
	calls              []string
	createBranchErrors map[string]error
	mergeError         error
	pushError          error
	cleanResults       []bool
	cleanCallIndex     int
	currentBranch      string
}

func (manager *stubRepositoryManager) record(format string, arguments ...any) {
	manager.calls = append(manager.calls, fmt.Sprintf(format, arguments...))
}

func (manager *stubRepositoryManager) InitializeRepository(_ context.Context, _ string, initialBranch string) error {
	manager.record("init:%s", initialBranch)
	return nil
}

func (manager *stubRepositoryManager) CloneRepository(_ context.Context, _ string, destinationPath string) error {
	manager.record("clone:%s", filepath.Base(destinationPath))
	return nil
}

func (manager *stubRepositoryManager) AddRemote(_ context.Context, _ string, remoteName string, _ string) error {
	manager.record("add-remote:%s", remoteName)
	return nil
}

func (manager *stubRepositoryManager) SetRemoteURL(_ context.Context, _ string, remoteName string, _ string) error {
	manager.record("set-remote:%s", remoteName)
	return nil
}

func (manager *stubRepositoryManager) StageAll(_ context.Context, _ string) error {
	manager.record("stage")
	return nil
}

func (manager *stubRepositoryManager) CreateCommit(_ context.Context, _ string, commitMessage string) error {
	manager.record("commit:%s", commitMessage)
	return nil
}

func (manager *stubRepositoryManager) CheckoutBranch(_ context.Context, _ string, branchName string) error {
	manager.record("checkout:%s", branchName)
	manager.currentBranch = branchName
	return nil
}

func (manager *stubRepositoryManager) CreateBranch(_ context.Context, _ string, branchName string) error {
	manager.record("create-branch:%s", branchName)
	if creationError, exists := manager.createBranchErrors[branchName]; exists {
		return creationError
	}
	manager.currentBranch = branchName
	return nil
}

func (manager *stubRepositoryManager) MergeBranch(_ context.Context, _ string, branchName string) error {
	manager.record("merge:%s", branchName)
	return manager.mergeError
}

func (manager *stubRepositoryManager) Push(_ context.Context, _ string, remoteName string, branchName string, _ gitrepo.PushOptions) error {
	manager.record("push:%s:%s", remoteName, branchName)
	return manager.pushError
}

func (manager *stubRepositoryManager) CheckCleanWorktree(_ context.Context, _ string) (bool, error) {
	manager.record("status")
	if manager.cleanCallIndex < len(manager.cleanResults) {
		result := manager.cleanResults[manager.cleanCallIndex]
		manager.cleanCallIndex++
		return result, nil
	}
	return false, nil
}

func (manager *stubRepositoryManager) CurrentBranch(context.Context, string) (string, error) {
	return manager.currentBranch, nil
}

func (manager *stubRepositoryManager) WorktreeStatus(context.Context, string) (string, error) {
	return "On branch main\nnothing to commit, working tree clean", nil
}

func (manager *stubRepositoryManager) LatestCommitSummary(context.Context, string) (string, error) {
	return "commit abc123\nAuthor: automation-bot", nil
}

func (manager *stubRepositoryManager) LatestCommitDetails(context.Context, string) (string, error) {
	return "commit abc123\n 1 file changed", nil
}

func (manager *stubRepositoryManager) ListBranches(context.Context, string) ([]string, error) {
	return []string{"main", "conflict-branch"}, nil
}

type stubForgeClient struct {
	calls               []string
	authError           error
	viewError           error
	cloneURL            string
	createError         error
	repositories        []forgecli.Repository
	pullRequests        []forgecli.PullRequest
	nextPRNumber        int
	commentError        error
	getPullRequestError error
	mergeError          error
	deleteError         error
	deletedRepoNames    []string
}

func (client *stubForgeClient) record(format string, arguments ...any) {
	client.calls = append(client.calls, fmt.Sprintf(format, arguments...))
}

func (client *stubForgeClient) CheckAuthentication(context.Context) (forgecli.AuthenticatedUser, error) {
	client.record("auth")
	if client.authError != nil {
		return forgecli.AuthenticatedUser{}, client.authError
	}
	return forgecli.AuthenticatedUser{Login: "automation-bot"}, nil
}

func (client *stubForgeClient) ViewRepository(_ context.Context, repositoryWithOwner string) (forgecli.Repository, error) {
	client.record("view:%s", repositoryWithOwner)
	if client.viewError != nil {
		return forgecli.Repository{}, client.viewError
	}
	return forgecli.Repository{FullName: repositoryWithOwner, DefaultBranch: "main", CloneURL: client.cloneURL}, nil
}

func (client *stubForgeClient) CreateRepository(_ context.Context, options forgecli.RepositoryCreateOptions) (forgecli.Repository, error) {
	client.record("create-repo:%s", options.Name)
	if client.createError != nil {
		return forgecli.Repository{}, client.createError
	}
	return forgecli.Repository{Name: options.Name, FullName: "automation-bot/" + options.Name}, nil
}

func (client *stubForgeClient) DeleteRepository(_ context.Context, repositoryWithOwner string) error {
	client.record("delete-repo:%s", repositoryWithOwner)
	if client.deleteError != nil {
		return client.deleteError
	}
	client.deletedRepoNames = append(client.deletedRepoNames, repositoryWithOwner)
	return nil
}

func (client *stubForgeClient) ListRepositories(context.Context) ([]forgecli.Repository, error) {
	client.record("list-repos")
	return client.repositories, nil
}

func (client *stubForgeClient) CreatePullRequest(_ context.Context, _ string, options forgecli.PullRequestCreateOptions) (forgecli.PullRequest, error) {
	client.nextPRNumber++
	client.record("create-pr:%s", options.HeadBranch)
	return forgecli.PullRequest{Number: client.nextPRNumber, HeadRefName: options.HeadBranch, BaseRefName: options.BaseBranch}, nil
}

func (client *stubForgeClient) GetPullRequest(_ context.Context, _ string, pullRequestNumber int) (forgecli.PullRequest, error) {
	client.record("get-pr:%d", pullRequestNumber)
	if client.getPullRequestError != nil {
		return forgecli.PullRequest{}, client.getPullRequestError
	}
	return forgecli.PullRequest{Number: pullRequestNumber}, nil
}

func (client *stubForgeClient) ListPullRequests(_ context.Context, _ string, state forgecli.PullRequestState) ([]forgecli.PullRequest, error) {
	client.record("list-prs:%s", state)
	return client.pullRequests, nil
}

func (client *stubForgeClient) MergePullRequest(_ context.Context, _ string, pullRequestNumber int) error {
	client.record("merge-pr:%d", pullRequestNumber)
	return client.mergeError
}

func (client *stubForgeClient) CommentOnPullRequest(_ context.Context, _ string, pullRequestNumber int, _ string) error {
	client.record("comment-pr:%d", pullRequestNumber)
	return client.commentError
}

func testConfiguration(repositoryDirectory string) automation.Configuration {
	configuration := automation.Configuration{}
	configuration.Credentials.AccessToken = "token-value"
	configuration.Credentials.BaseURL = "https://github.com"
	configuration.Credentials.Username = "automation-bot"
	configuration.Credentials.RepositoryName = "repo-automation-demo"
	configuration.Credentials.RepositoryDirectory = repositoryDirectory
	configuration.Sanitize()
	return configuration
}

func newTestService(testInstance *testing.T, configuration automation.Configuration, manager *stubRepositoryManager, client *stubForgeClient) (*automation.Service, *observer.ObservedLogs) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	service, creationError := automation.NewService(automation.Dependencies{
		Configuration:     configuration,
		RepositoryManager: manager,
		ForgeClient:       client,
		RunLogger:         zap.New(observedCore),
		Clock:             func() time.Time { return time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(testInstance, creationError)
	return service, observedLogs
}

func TestNewServiceValidatesDependenciesAndConfiguration(testInstance *testing.T) {
	configuration := testConfiguration(testInstance.TempDir())

	_, creationError := automation.NewService(automation.Dependencies{Configuration: configuration})
	require.ErrorIs(testInstance, creationError, automation.ErrRepositoryManagerNotConfigured)

	invalidConfiguration := configuration
	invalidConfiguration.Credentials.AccessToken = ""
	_, creationError = automation.NewService(automation.Dependencies{
		Configuration:     invalidConfiguration,
		RepositoryManager: &stubRepositoryManager{},
		ForgeClient:       &stubForgeClient{},
		RunLogger:         zap.NewNop(),
	})
	var stepError automation.StepError
	require.ErrorAs(testInstance, creationError, &stepError)
	require.Equal(testInstance, automation.FailureKindConfiguration, stepError.Kind)
	require.True(testInstance, stepError.Fatal())
}

func TestCreateAndInitializeRepositoryCreatesMissingRepository(testInstance *testing.T) {
	repositoryDirectory := filepath.Join(testInstance.TempDir(), "clone")
	manager := &stubRepositoryManager{cleanResults: []bool{false}}
	client := &stubForgeClient{viewError: forgecli.NotFoundError{Operation: "ViewRepository", Resource: "automation-bot/repo-automation-demo"}}
	service, _ := newTestService(testInstance, testConfiguration(repositoryDirectory), manager, client)

	require.NoError(testInstance, service.CreateAndInitializeRepository(context.Background()))

	require.Contains(testInstance, client.calls, "create-repo:repo-automation-demo")
	require.Contains(testInstance, manager.calls, "init:main")
	require.Contains(testInstance, manager.calls, "commit:Initial commit")
	require.Contains(testInstance, manager.calls, "add-remote:origin")
	require.Contains(testInstance, manager.calls, "push:origin:main")

	readmeContent, readError := os.ReadFile(filepath.Join(repositoryDirectory, "README.md"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "# repo-automation-demo\n", string(readmeContent))
}

func TestCreateAndInitializeRepositoryClonesExistingRemote(testInstance *testing.T) {
	repositoryDirectory := filepath.Join(testInstance.TempDir(), "clone")
	manager := &stubRepositoryManager{cleanResults: []bool{true}}
	client := &stubForgeClient{}
	service, _ := newTestService(testInstance, testConfiguration(repositoryDirectory), manager, client)

	require.NoError(testInstance, service.CreateAndInitializeRepository(context.Background()))

	require.Contains(testInstance, manager.calls, "clone:clone")
	require.NotContains(testInstance, manager.calls, "init:main")
	require.NotContains(testInstance, client.calls, "create-repo:repo-automation-demo")
}

func TestCreateAndInitializeRepositoryAcceptsMatchingCloneURL(testInstance *testing.T) {
	repositoryDirectory := filepath.Join(testInstance.TempDir(), "clone")
	manager := &stubRepositoryManager{cleanResults: []bool{true}}
	client := &stubForgeClient{cloneURL: "https://github.com/automation-bot/repo-automation-demo.git"}
	service, _ := newTestService(testInstance, testConfiguration(repositoryDirectory), manager, client)

	require.NoError(testInstance, service.CreateAndInitializeRepository(context.Background()))
	require.Contains(testInstance, manager.calls, "clone:clone")
}

func TestCreateAndInitializeRepositoryRejectsMismatchedCloneURL(testInstance *testing.T) {
	repositoryDirectory := filepath.Join(testInstance.TempDir(), "clone")
	manager := &stubRepositoryManager{}
	client := &stubForgeClient{cloneURL: "https://github.com/someone-else/unrelated-repo.git"}
	service, _ := newTestService(testInstance, testConfiguration(repositoryDirectory), manager, client)

	initializationError := service.CreateAndInitializeRepository(context.Background())

	var stepError automation.StepError
	require.ErrorAs(testInstance, initializationError, &stepError)
	require.Equal(testInstance, automation.FailureKindOperation, stepError.Kind)
	require.Contains(testInstance, initializationError.Error(), "someone-else/unrelated-repo")
	require.NotContains(testInstance, manager.calls, "clone:clone")
}

func TestCreateAndInitializeRepositoryRejectsExistingRepositoryWhenReuseDisabled(testInstance *testing.T) {
	configuration := testConfiguration(testInstance.TempDir())
	configuration.Automation.ReuseExistingRepository = false
	manager := &stubRepositoryManager{}
	client := &stubForgeClient{}
	service, _ := newTestService(testInstance, configuration, manager, client)

	initializationError := service.CreateAndInitializeRepository(context.Background())

	var stepError automation.StepError
	require.ErrorAs(testInstance, initializationError, &stepError)
	require.Equal(testInstance, automation.FailureKindRemoteConflict, stepError.Kind)
	require.Empty(testInstance, manager.calls)
}

func TestCommitAndPushSkipsWhenWorktreeClean(testInstance *testing.T) {
	repositoryDirectory := testInstance.TempDir()
	manager := &stubRepositoryManager{cleanResults: []bool{true}}
	client := &stubForgeClient{}
	service, observedLogs := newTestService(testInstance, testConfiguration(repositoryDirectory), manager, client)

	require.NoError(testInstance, service.CommitAndPush(context.Background()))

	require.Contains(testInstance, manager.calls, "checkout:main")
	require.NotContains(testInstance, manager.calls, "push:origin:main")
	for _, recordedCall := range manager.calls {
		require.NotContains(testInstance, recordedCall, "commit:")
	}
	require.NotZero(testInstance, observedLogs.FilterMessageSnippet("skipping commit").Len())
}

func TestCommitAndPushCommitsDirtyWorktree(testInstance *testing.T) {
	repositoryDirectory := testInstance.TempDir()
	manager := &stubRepositoryManager{cleanResults: []bool{false}}
	client := &stubForgeClient{}
	service, _ := newTestService(testInstance, testConfiguration(repositoryDirectory), manager, client)

	require.NoError(testInstance, service.CommitAndPush(context.Background()))

	require.Contains(testInstance, manager.calls, "commit:Automated commit at 2026-08-25T12:00:00Z")
	require.Contains(testInstance, manager.calls, "push:origin:main")

	readmeContent, readError := os.ReadFile(filepath.Join(repositoryDirectory, "README.md"))
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(readmeContent), "Automated update at 2026-08-25T12:00:00Z")
}

func TestResolveConflictWritesDeterministicContent(testInstance *testing.T) {
	repositoryDirectory := testInstance.TempDir()
	manager := &stubRepositoryManager{mergeError: gitrepo.MergeConflictError{BranchName: "main", ConflictOutput: "CONFLICT"}}
	client := &stubForgeClient{}
	service, _ := newTestService(testInstance, testConfiguration(repositoryDirectory), manager, client)

	require.NoError(testInstance, service.ResolveConflict(context.Background()))

	require.Contains(testInstance, manager.calls, "checkout:conflict-branch")
	require.Contains(testInstance, manager.calls, "merge:main")
	require.Contains(testInstance, manager.calls, "commit:Resolve merge conflict in CONFLICT.md")
	require.Contains(testInstance, manager.calls, "push:origin:conflict-branch")

	resolvedContent, readError := os.ReadFile(filepath.Join(repositoryDirectory, "CONFLICT.md"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, automation.ResolvedConflictContent, string(resolvedContent))
}

func TestResolveConflictSkipsCleanMerge(testInstance *testing.T) {
	repositoryDirectory := testInstance.TempDir()
	manager := &stubRepositoryManager{}
	client := &stubForgeClient{}
	service, observedLogs := newTestService(testInstance, testConfiguration(repositoryDirectory), manager, client)

	require.NoError(testInstance, service.ResolveConflict(context.Background()))

	require.NotContains(testInstance, manager.calls, "push:origin:conflict-branch")
	require.NotZero(testInstance, observedLogs.FilterMessageSnippet("nothing to resolve").Len())
}

func TestCommentOnFirstPullRequestClassifiesMissingPullRequest(testInstance *testing.T) {
	repositoryDirectory := testInstance.TempDir()
	manager := &stubRepositoryManager{}
	client := &stubForgeClient{commentError: forgecli.NotFoundError{Operation: "CommentOnPullRequest", Resource: "pull request"}}
	service, _ := newTestService(testInstance, testConfiguration(repositoryDirectory), manager, client)

	commentError := service.CommentOnFirstPullRequest(context.Background())

	var stepError automation.StepError
	require.ErrorAs(testInstance, commentError, &stepError)
	require.Equal(testInstance, automation.FailureKindNotFound, stepError.Kind)
	require.False(testInstance, stepError.Fatal())
	require.False(testInstance, stepError.Retryable())
}

func TestCommentOnFirstPullRequestClassifiesMissingFallback(testInstance *testing.T) {
	repositoryDirectory := testInstance.TempDir()
	manager := &stubRepositoryManager{}
	client := &stubForgeClient{getPullRequestError: forgecli.NotFoundError{Operation: "GetPullRequest", Resource: "pull request #1"}}
	service, _ := newTestService(testInstance, testConfiguration(repositoryDirectory), manager, client)

	commentError := service.CommentOnFirstPullRequest(context.Background())

	var stepError automation.StepError
	require.ErrorAs(testInstance, commentError, &stepError)
	require.Equal(testInstance, automation.FailureKindNotFound, stepError.Kind)
	require.Contains(testInstance, client.calls, "get-pr:1")
	require.NotContains(testInstance, client.calls, "comment-pr:1")
}

func TestCommentOnFirstPullRequestTargetsOldestPullRequest(testInstance *testing.T) {
	repositoryDirectory := testInstance.TempDir()
	manager := &stubRepositoryManager{}
	client := &stubForgeClient{pullRequests: []forgecli.PullRequest{{Number: 9}, {Number: 3}, {Number: 1}}}
	service, _ := newTestService(testInstance, testConfiguration(repositoryDirectory), manager, client)

	require.NoError(testInstance, service.CommentOnFirstPullRequest(context.Background()))
	require.Contains(testInstance, client.calls, "comment-pr:1")
}

func TestRunFeatureBranchFlowMergesAllButLast(testInstance *testing.T) {
	repositoryDirectory := testInstance.TempDir()
	manager := &stubRepositoryManager{cleanResults: []bool{false, false, false}}
	client := &stubForgeClient{}
	service, _ := newTestService(testInstance, testConfiguration(repositoryDirectory), manager, client)

	require.NoError(testInstance, service.RunFeatureBranchFlow(context.Background()))

	require.Contains(testInstance, client.calls, "create-pr:feature-1")
	require.Contains(testInstance, client.calls, "create-pr:feature-2")
	require.Contains(testInstance, client.calls, "create-pr:feature-3")
	require.Contains(testInstance, client.calls, "merge-pr:1")
	require.Contains(testInstance, client.calls, "merge-pr:2")
	require.NotContains(testInstance, client.calls, "merge-pr:3")
	require.Contains(testInstance, client.calls, "comment-pr:3")
}

func TestRunFeatureBranchFlowHonorsBranchExistsPolicy(testInstance *testing.T) {
	repositoryDirectory := testInstance.TempDir()
	branchExists := gitrepo.BranchExistsError{BranchName: "feature-1"}

	skipConfiguration := testConfiguration(repositoryDirectory)
	manager := &stubRepositoryManager{createBranchErrors: map[string]error{"feature-1": branchExists}}
	client := &stubForgeClient{}
	service, _ := newTestService(testInstance, skipConfiguration, manager, client)
	require.NoError(testInstance, service.RunFeatureBranchFlow(context.Background()))
	require.Contains(testInstance, manager.calls, "checkout:feature-1")

	failConfiguration := testConfiguration(repositoryDirectory)
	failConfiguration.Automation.BranchExistsPolicy = string(automation.BranchExistsPolicyFail)
	manager = &stubRepositoryManager{createBranchErrors: map[string]error{"feature-1": branchExists}}
	service, _ = newTestService(testInstance, failConfiguration, manager, client)

	flowError := service.RunFeatureBranchFlow(context.Background())
	var stepError automation.StepError
	require.ErrorAs(testInstance, flowError, &stepError)
	require.Equal(testInstance, automation.FailureKindBranchExists, stepError.Kind)
}

func TestDeleteAutomationRepositoriesDeletesOnlyMarkedRepositories(testInstance *testing.T) {
	repositoryDirectory := testInstance.TempDir()
	manager := &stubRepositoryManager{}
	client := &stubForgeClient{repositories: []forgecli.Repository{
		{Name: "repo-automation-demo", FullName: "automation-bot/repo-automation-demo"},
		{Name: "production-service", FullName: "automation-bot/production-service"},
		{Name: "AUTOMATION-archive", FullName: "automation-bot/AUTOMATION-archive"},
	}}
	service, _ := newTestService(testInstance, testConfiguration(repositoryDirectory), manager, client)

	deletedRepositories, deletionError := service.DeleteAutomationRepositories(context.Background())

	require.NoError(testInstance, deletionError)
	require.Equal(testInstance, []string{"automation-bot/repo-automation-demo", "automation-bot/AUTOMATION-archive"}, deletedRepositories)
	require.NotContains(testInstance, client.calls, "delete-repo:automation-bot/production-service")
}

func TestRunGitDiagnosticsReportsCurrentBranch(testInstance *testing.T) {
	repositoryDirectory := testInstance.TempDir()
	manager := &stubRepositoryManager{currentBranch: "conflict-branch"}
	client := &stubForgeClient{}
	service, observedLogs := newTestService(testInstance, testConfiguration(repositoryDirectory), manager, client)

	require.NoError(testInstance, service.RunGitDiagnostics(context.Background()))

	require.NotZero(testInstance, observedLogs.FilterMessageSnippet("On branch conflict-branch").Len())
	require.NotZero(testInstance, observedLogs.FilterMessageSnippet("working tree clean").Len())
}

func TestStepsExposeDefaultSequence(testInstance *testing.T) {
	repositoryDirectory := testInstance.TempDir()
	service, _ := newTestService(testInstance, testConfiguration(repositoryDirectory), &stubRepositoryManager{}, &stubForgeClient{})

	steps := service.Steps()
	stepNames := make([]string, 0, len(steps))
	for _, registeredStep := range steps {
		stepNames = append(stepNames, registeredStep.Name())
	}
	require.Equal(testInstance, []string{
		"init-repo",
		"commit-push",
		"create-conflict",
		"resolve-conflict",
		"merge-conflict-branch",
		"git-diagnostics",
		"api-diagnostics",
		"comment-first-pr",
		"feature-branches",
	}, stepNames)
}
