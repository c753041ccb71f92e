package forgecli_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgerun/forgerun/internal/execshell"
	"github.com/forgerun/forgerun/internal/forgecli"
)

const repositoryWithOwnerConstant = "automation-bot/repo-automation-demo"

type stubForgeExecutor struct {
	recordedDetails []execshell.CommandDetails
	results         []execshell.ExecutionResult
	errs            []error
	callIndex       int
}

func (executor *stubForgeExecutor) ExecuteGitHubCLI(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	currentIndex := executor.callIndex
	executor.callIndex++
	var result execshell.ExecutionResult
	if currentIndex < len(executor.results) {
		result = executor.results[currentIndex]
	}
	var executionError error
	if currentIndex < len(executor.errs) {
		executionError = executor.errs[currentIndex]
	}
	return result, executionError
}

func apiFailure(standardError string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGitHub},
		Result:  execshell.ExecutionResult{StandardError: standardError, ExitCode: 1},
	}
}

func newTestClient(testInstance *testing.T, executor *stubForgeExecutor) *forgecli.Client {
	client, creationError := forgecli.NewClient(executor, forgecli.Credentials{AccessToken: "token-value", Host: "github.example.com"})
	require.NoError(testInstance, creationError)
	return client
}

func TestNewClientValidatesDependencies(testInstance *testing.T) {
	client, creationError := forgecli.NewClient(nil, forgecli.Credentials{AccessToken: "token-value"})
	require.ErrorIs(testInstance, creationError, forgecli.ErrExecutorNotConfigured)
	require.Nil(testInstance, client)

	client, creationError = forgecli.NewClient(&stubForgeExecutor{}, forgecli.Credentials{})
	require.ErrorIs(testInstance, creationError, forgecli.ErrAccessTokenRequired)
	require.Nil(testInstance, client)
}

func TestCheckAuthenticationDecodesUser(testInstance *testing.T) {
	executor := &stubForgeExecutor{
		results: []execshell.ExecutionResult{{StandardOutput: `{"login":"automation-bot","name":"Automation Bot"}`}},
	}
	client := newTestClient(testInstance, executor)

	authenticatedUser, authenticationError := client.CheckAuthentication(context.Background())
	require.NoError(testInstance, authenticationError)
	require.Equal(testInstance, "automation-bot", authenticatedUser.Login)

	require.Len(testInstance, executor.recordedDetails, 1)
	require.Equal(testInstance, []string{"api", "user", "-H", "Accept: application/vnd.github+json"}, executor.recordedDetails[0].Arguments)
	require.Contains(testInstance, executor.recordedDetails[0].EnvironmentVariables, "GH_TOKEN=token-value")
	require.Contains(testInstance, executor.recordedDetails[0].EnvironmentVariables, "GH_HOST=github.example.com")
}

func TestCheckAuthenticationClassifiesRejection(testInstance *testing.T) {
	executor := &stubForgeExecutor{errs: []error{apiFailure("gh: Bad credentials (HTTP 401)")}}
	client := newTestClient(testInstance, executor)

	_, authenticationError := client.CheckAuthentication(context.Background())
	var rejection forgecli.AuthenticationError
	require.ErrorAs(testInstance, authenticationError, &rejection)
}

func TestViewRepositoryClassifiesNotFound(testInstance *testing.T) {
	executor := &stubForgeExecutor{errs: []error{apiFailure("gh: Not Found (HTTP 404)")}}
	client := newTestClient(testInstance, executor)

	_, viewError := client.ViewRepository(context.Background(), repositoryWithOwnerConstant)
	var notFoundError forgecli.NotFoundError
	require.ErrorAs(testInstance, viewError, &notFoundError)
	require.Equal(testInstance, repositoryWithOwnerConstant, notFoundError.Resource)
}

func TestCreateRepositorySendsPayload(testInstance *testing.T) {
	executor := &stubForgeExecutor{
		results: []execshell.ExecutionResult{{StandardOutput: `{"name":"repo-automation-demo","full_name":"automation-bot/repo-automation-demo","default_branch":"main","html_url":"https://github.example.com/automation-bot/repo-automation-demo"}`}},
	}
	client := newTestClient(testInstance, executor)

	repository, creationError := client.CreateRepository(context.Background(), forgecli.RepositoryCreateOptions{
		Name:        "repo-automation-demo",
		Description: "automation demo repository",
		Private:     true,
	})
	require.NoError(testInstance, creationError)
	require.Equal(testInstance, "automation-bot/repo-automation-demo", repository.FullName)

	require.Len(testInstance, executor.recordedDetails, 1)
	recordedArguments := executor.recordedDetails[0].Arguments
	require.Equal(testInstance, "api", recordedArguments[0])
	require.Equal(testInstance, "user/repos", recordedArguments[1])
	require.Contains(testInstance, recordedArguments, "POST")
	require.Contains(testInstance, recordedArguments, "--input")

	var decodedPayload map[string]any
	require.NoError(testInstance, json.Unmarshal(executor.recordedDetails[0].StandardInput, &decodedPayload))
	require.Equal(testInstance, "repo-automation-demo", decodedPayload["name"])
	require.Equal(testInstance, true, decodedPayload["private"])
}

func TestCreatePullRequestValidatesInputs(testInstance *testing.T) {
	client := newTestClient(testInstance, &stubForgeExecutor{})

	testCases := []struct {
		name    string
		options forgecli.PullRequestCreateOptions
	}{
		{name: "missing_title", options: forgecli.PullRequestCreateOptions{HeadBranch: "conflict-branch", BaseBranch: "main"}},
		{name: "missing_head", options: forgecli.PullRequestCreateOptions{Title: "Conflict branch", BaseBranch: "main"}},
		{name: "missing_base", options: forgecli.PullRequestCreateOptions{Title: "Conflict branch", HeadBranch: "conflict-branch"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			_, creationError := client.CreatePullRequest(context.Background(), repositoryWithOwnerConstant, testCase.options)
			var invalidInput forgecli.InvalidInputError
			require.ErrorAs(subtest, creationError, &invalidInput)
		})
	}
}

func TestCreatePullRequestDecodesResponse(testInstance *testing.T) {
	executor := &stubForgeExecutor{
		results: []execshell.ExecutionResult{{StandardOutput: `{"number":7,"title":"Conflict branch","state":"open","head":{"ref":"conflict-branch"},"base":{"ref":"main"},"html_url":"https://github.example.com/automation-bot/repo-automation-demo/pull/7"}`}},
	}
	client := newTestClient(testInstance, executor)

	pullRequest, creationError := client.CreatePullRequest(context.Background(), repositoryWithOwnerConstant, forgecli.PullRequestCreateOptions{
		Title:      "Conflict branch",
		HeadBranch: "conflict-branch",
		BaseBranch: "main",
	})
	require.NoError(testInstance, creationError)
	require.Equal(testInstance, 7, pullRequest.Number)
	require.Equal(testInstance, "conflict-branch", pullRequest.HeadRefName)
	require.Equal(testInstance, "main", pullRequest.BaseRefName)
}

func TestMergePullRequestClassifiesBlockedMerge(testInstance *testing.T) {
	testCases := []struct {
		name          string
		standardError string
	}{
		{name: "method_not_allowed", standardError: "gh: Pull Request is not mergeable (HTTP 405)"},
		{name: "conflict", standardError: "gh: Merge conflict (HTTP 409)"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			executor := &stubForgeExecutor{errs: []error{apiFailure(testCase.standardError)}}
			client := newTestClient(subtest, executor)

			mergeError := client.MergePullRequest(context.Background(), repositoryWithOwnerConstant, 7)
			var mergeBlockedError forgecli.MergeBlockedError
			require.ErrorAs(subtest, mergeError, &mergeBlockedError)
			require.Equal(subtest, 7, mergeBlockedError.PullRequestNumber)
		})
	}
}

func TestCommentOnPullRequestClassifiesNotFound(testInstance *testing.T) {
	executor := &stubForgeExecutor{errs: []error{apiFailure("gh: Not Found (HTTP 404)")}}
	client := newTestClient(testInstance, executor)

	commentError := client.CommentOnPullRequest(context.Background(), repositoryWithOwnerConstant, 9999, "Automated comment")
	var notFoundError forgecli.NotFoundError
	require.ErrorAs(testInstance, commentError, &notFoundError)
}

func TestListRepositoriesDecodesEntries(testInstance *testing.T) {
	executor := &stubForgeExecutor{
		results: []execshell.ExecutionResult{{StandardOutput: `[{"name":"repo-automation-demo","full_name":"automation-bot/repo-automation-demo","description":"automation demo"},{"name":"other","full_name":"automation-bot/other"}]`}},
	}
	client := newTestClient(testInstance, executor)

	repositories, listError := client.ListRepositories(context.Background())
	require.NoError(testInstance, listError)
	require.Len(testInstance, repositories, 2)
	require.Equal(testInstance, "repo-automation-demo", repositories[0].Name)
	require.Equal(testInstance, "automation demo", repositories[0].Description)
}

func TestListPullRequestsDefaultsToOpenState(testInstance *testing.T) {
	executor := &stubForgeExecutor{
		results: []execshell.ExecutionResult{{StandardOutput: `[{"number":1,"title":"First","state":"open","head":{"ref":"feature-1"},"base":{"ref":"main"}}]`}},
	}
	client := newTestClient(testInstance, executor)

	pullRequests, listError := client.ListPullRequests(context.Background(), repositoryWithOwnerConstant, "")
	require.NoError(testInstance, listError)
	require.Len(testInstance, pullRequests, 1)
	require.Equal(testInstance, "repos/automation-bot/repo-automation-demo/pulls?state=open", executor.recordedDetails[0].Arguments[1])
}
