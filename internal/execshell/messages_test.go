package execshell_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgerun/forgerun/internal/execshell"
)

func TestCommandMessageFormatterDescribesKnownSubcommands(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}

	testCases := []struct {
		name            string
		command         execshell.ShellCommand
		expectedMessage string
	}{
		{
			name: "git_commit",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"commit", "-m", "first commit"}, WorkingDirectory: "/tmp/repo"},
			},
			expectedMessage: `Creating commit in /tmp/repo with message "first commit"`,
		},
		{
			name: "git_checkout_new_branch",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"checkout", "-b", "conflict-branch"}, WorkingDirectory: "/tmp/repo"},
			},
			expectedMessage: "Creating branch conflict-branch in /tmp/repo",
		},
		{
			name: "git_push_with_upstream",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"push", "--set-upstream", "origin", "main"}, WorkingDirectory: "/tmp/repo"},
			},
			expectedMessage: "Pushing main to origin from /tmp/repo",
		},
		{
			name: "forge_api_call",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGitHub,
				Details: execshell.CommandDetails{Arguments: []string{"api", "repos/octocat/automation-sandbox/pulls", "-X", "POST"}},
			},
			expectedMessage: "Calling forge API POST repos/octocat/automation-sandbox/pulls",
		},
		{
			name: "generic_fallback",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"gc"}},
			},
			expectedMessage: "Running git gc",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedMessage, formatter.BuildStartedMessage(testCase.command))
		})
	}
}

func TestCommandMessageFormatterIncludesExitDetailsOnFailure(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}
	command := execshell.ShellCommand{
		Name:    execshell.CommandGit,
		Details: execshell.CommandDetails{Arguments: []string{"push", "origin", "main"}, WorkingDirectory: "/tmp/repo"},
	}
	result := execshell.ExecutionResult{ExitCode: 1, StandardError: "rejected"}

	message := formatter.BuildFailureMessage(command, result)
	require.Equal(testInstance, "Failed to push main to origin from /tmp/repo (exit code 1: rejected)", message)
}
