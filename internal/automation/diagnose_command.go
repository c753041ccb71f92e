package automation

import (
	"errors"

	"github.com/spf13/cobra"
)

const (
	diagnoseCommandUseConstant                 = "diagnose"
	diagnoseCommandShortDescriptionConstant    = "Run the git and forge API diagnostics"
	diagnoseCommandLongDescriptionConstant     = "diagnose inspects the local clone (status, latest commit, branches) and the forge API (repository metadata, open pull requests) without modifying anything."
	diagnoseUnexpectedArgumentsMessageConstant = "diagnose does not accept positional arguments"
)

// DiagnoseCommandBuilder assembles the Cobra command running the diagnostics.
type DiagnoseCommandBuilder struct {
	Dependencies CommandDependencies
}

// Build constructs the diagnose command.
func (builder *DiagnoseCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   diagnoseCommandUseConstant,
		Short: diagnoseCommandShortDescriptionConstant,
		Long:  diagnoseCommandLongDescriptionConstant,
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *DiagnoseCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(diagnoseUnexpectedArgumentsMessageConstant)
	}

	runtime, runtimeError := assembleRuntime(builder.Dependencies)
	if runtimeError != nil {
		return runtimeError
	}
	defer runtime.close()

	if diagnosticsError := runtime.service.RunGitDiagnostics(command.Context()); diagnosticsError != nil {
		runtime.runLogger.Error(diagnosticsError.Error())
		return diagnosticsError
	}
	if diagnosticsError := runtime.service.RunAPIDiagnostics(command.Context()); diagnosticsError != nil {
		runtime.runLogger.Error(diagnosticsError.Error())
		return diagnosticsError
	}
	return nil
}
