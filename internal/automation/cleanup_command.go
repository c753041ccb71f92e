package automation

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	cleanupCommandUseConstant                 = "cleanup"
	cleanupCommandShortDescriptionConstant    = "Delete forge repositories carrying the automation marker"
	cleanupCommandLongDescriptionConstant     = "cleanup lists the repositories owned by the configured account and deletes the ones whose name contains the automation marker."
	cleanupUnexpectedArgumentsMessageConstant = "cleanup does not accept positional arguments"
	flagConfirmNameConstant                   = "confirm"
	flagConfirmDescriptionConstant            = "Delete without the interactive confirmation prompt"
	cleanupPromptTemplateConstant             = "Delete every repository owned by %s whose name contains %q? [y/N]: "
	cleanupDeclinedMessageConstant            = "Cleanup aborted, no repository was deleted"
	cleanupSummaryMessageTemplateConstant     = "Cleanup finished: %d repository(ies) deleted"
)

// CleanupCommandBuilder assembles the Cobra command deleting marker repositories.
type CleanupCommandBuilder struct {
	Dependencies CommandDependencies
}

// Build constructs the cleanup command.
func (builder *CleanupCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   cleanupCommandUseConstant,
		Short: cleanupCommandShortDescriptionConstant,
		Long:  cleanupCommandLongDescriptionConstant,
		RunE:  builder.run,
	}
	command.Flags().Bool(flagConfirmNameConstant, false, flagConfirmDescriptionConstant)
	return command, nil
}

func (builder *CleanupCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(cleanupUnexpectedArgumentsMessageConstant)
	}

	runtime, runtimeError := assembleRuntime(builder.Dependencies)
	if runtimeError != nil {
		return runtimeError
	}
	defer runtime.close()

	confirmed, _ := command.Flags().GetBool(flagConfirmNameConstant)
	if !confirmed {
		prompter := builder.resolvePrompter()
		prompt := fmt.Sprintf(cleanupPromptTemplateConstant, runtime.configuration.Credentials.Username, runtime.configuration.Automation.Marker)
		promptConfirmed, promptError := prompter.Confirm(prompt)
		if promptError != nil {
			return promptError
		}
		if !promptConfirmed {
			runtime.runLogger.Info(cleanupDeclinedMessageConstant)
			return nil
		}
	}

	deletedRepositories, deletionError := runtime.service.DeleteAutomationRepositories(command.Context())
	if deletionError != nil {
		runtime.runLogger.Error(deletionError.Error())
		return deletionError
	}
	runtime.runLogger.Sugar().Infof(cleanupSummaryMessageTemplateConstant, len(deletedRepositories))
	return nil
}

func (builder *CleanupCommandBuilder) resolvePrompter() ConfirmationPrompter {
	if builder.Dependencies.Prompter != nil {
		return builder.Dependencies.Prompter
	}
	return NewIOConfirmationPrompter(os.Stdin, os.Stderr)
}
