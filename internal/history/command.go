package history

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const (
	commandUseConstant                 = "history"
	commandShortDescriptionConstant    = "Show recorded automation runs"
	commandLongDescriptionConstant     = "history lists the most recent automation runs recorded in the SQLite journal together with their step outcomes."
	unexpectedArgumentsMessageConstant = "history does not accept positional arguments"
	historyDisabledMessageConstant     = "history recording is disabled, set automation.history_database_path to enable it"
	flagLimitNameConstant              = "limit"
	flagLimitDescriptionConstant       = "Maximum number of runs to display"
	defaultDisplayLimitConstant        = 10
	runHeaderTemplateConstant          = "Run #%d %s -> %s %s\n"
	stepLineTemplateConstant           = "  %-24s %-10s attempts=%d duration=%s%s\n"
	failureSuffixTemplateConstant      = " failure=%q"
	succeededLabelConstant             = "succeeded"
	failedLabelConstant                = "failed"
	abortedLabelConstant               = "aborted"
	displayTimestampLayoutConstant     = "2006-01-02 15:04:05"
	noRecordedRunsMessageConstant      = "No recorded runs"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// DatabasePathProvider supplies the configured history database path.
type DatabasePathProvider func() string

// CommandBuilder assembles the Cobra command listing recorded runs.
type CommandBuilder struct {
	DatabasePathProvider DatabasePathProvider
	OutputWriter         io.Writer
}

// Build constructs the history command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}
	command.Flags().Int(flagLimitNameConstant, defaultDisplayLimitConstant, flagLimitDescriptionConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	outputWriter := builder.OutputWriter
	if outputWriter == nil {
		outputWriter = os.Stdout
	}

	databasePath := ""
	if builder.DatabasePathProvider != nil {
		databasePath = strings.TrimSpace(builder.DatabasePathProvider())
	}
	if len(databasePath) == 0 {
		fmt.Fprintln(outputWriter, historyDisabledMessageConstant)
		return nil
	}

	store, openError := OpenStore(databasePath)
	if openError != nil {
		return openError
	}
	defer store.Close()

	displayLimit, _ := command.Flags().GetInt(flagLimitNameConstant)
	summaries, queryError := store.RecentRuns(displayLimit)
	if queryError != nil {
		return queryError
	}
	if len(summaries) == 0 {
		fmt.Fprintln(outputWriter, noRecordedRunsMessageConstant)
		return nil
	}

	for _, summary := range summaries {
		outcomeLabel := succeededLabelConstant
		if !summary.Succeeded {
			outcomeLabel = failedLabelConstant
		}
		if summary.Aborted {
			outcomeLabel = abortedLabelConstant
		}
		fmt.Fprintf(outputWriter, runHeaderTemplateConstant,
			summary.Identifier,
			summary.StartedAt.Format(displayTimestampLayoutConstant),
			summary.CompletedAt.Format(displayTimestampLayoutConstant),
			outcomeLabel,
		)

		stepRecords, stepsError := store.RunSteps(summary.Identifier)
		if stepsError != nil {
			return stepsError
		}
		for _, stepRecord := range stepRecords {
			failureSuffix := ""
			if len(stepRecord.FailureMessage) > 0 {
				failureSuffix = fmt.Sprintf(failureSuffixTemplateConstant, stepRecord.FailureMessage)
			}
			fmt.Fprintf(outputWriter, stepLineTemplateConstant,
				stepRecord.StepName,
				stepRecord.Status,
				stepRecord.Attempts,
				stepRecord.Duration,
				failureSuffix,
			)
		}
	}
	return nil
}
