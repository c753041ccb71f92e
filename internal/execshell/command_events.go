package execshell

// CommandEventObserver receives lifecycle notifications for the git and gh
// commands the executor runs on behalf of automation steps. The run command
// installs an observer that mirrors these events into the run log streams.
type CommandEventObserver interface {
	// CommandStarted fires before the command process is spawned.
	CommandStarted(command ShellCommand)
	// CommandCompleted fires once the command exits and carries its result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed fires when the command could not run at all.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// discardingCommandEventObserver stands in until SetCommandEventObserver
// registers a real observer.
type discardingCommandEventObserver struct{}

func (discardingCommandEventObserver) CommandStarted(ShellCommand) {}

func (discardingCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (discardingCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
