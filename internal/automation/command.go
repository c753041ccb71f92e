package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forgerun/forgerun/internal/execshell"
	"github.com/forgerun/forgerun/internal/forgecli"
	"github.com/forgerun/forgerun/internal/gitrepo"
	"github.com/forgerun/forgerun/internal/history"
	"github.com/forgerun/forgerun/internal/ui"
	"github.com/forgerun/forgerun/internal/utils"
	"github.com/forgerun/forgerun/internal/workflow"
)

const (
	runCommandUseConstant                  = "run"
	runCommandShortDescriptionConstant     = "Execute the automation sequence against the forge"
	runCommandLongDescriptionConstant      = "run executes the configured sequence of repository, branch, pull request, conflict, and diagnostic operations."
	runUnexpectedArgumentsMessageConstant  = "run does not accept positional arguments"
	flagStepsNameConstant                  = "steps"
	flagStepsDescriptionConstant           = "Ordered subset of step names to execute"
	flagSequenceFileNameConstant           = "sequence-file"
	flagSequenceFileDescriptionConstant    = "Path to a YAML sequence definition overriding the configured steps"
	runFailedMessageTemplateConstant       = "automation run failed: %d step(s) failed"
	runSummaryMessageTemplateConstant      = "Run finished: %d step(s) executed, %d failed, %d skipped"
	historyRecordedMessageTemplateConstant = "Run recorded in history as #%d"
)

// LoggerProvider supplies the diagnostic zap logger.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the sanitized run configuration.
type ConfigurationProvider func() Configuration

// CommandDependencies bundles the collaborators shared by the automation
// commands. Nil optional fields are replaced with production implementations.
type CommandDependencies struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	RepositoryManager     RepositoryManager
	ForgeClient           ForgeClient
	Prompter              ConfirmationPrompter
	InfoWriter            io.Writer
	ErrorWriter           io.Writer
}

type commandRuntime struct {
	configuration Configuration
	service       *Service
	runLogger     *zap.Logger
	historyStore  *history.Store
}

func (runtime *commandRuntime) close() {
	if runtime.historyStore != nil {
		runtime.historyStore.Close()
	}
	runtime.runLogger.Sync()
}

func (dependencies CommandDependencies) resolveLogger() *zap.Logger {
	if dependencies.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := dependencies.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (dependencies CommandDependencies) resolveConfiguration() Configuration {
	if dependencies.ConfigurationProvider == nil {
		return Configuration{}
	}
	return dependencies.ConfigurationProvider()
}

// assembleRuntime wires the run loggers, the shell executor, the repository
// manager, the forge client, the service, and the optional history store.
func assembleRuntime(dependencies CommandDependencies) (*commandRuntime, error) {
	configuration := dependencies.resolveConfiguration()
	configuration.Sanitize()
	if validationError := configuration.Validate(); validationError != nil {
		return nil, validationError
	}

	infoFallback := dependencies.InfoWriter
	if infoFallback == nil {
		infoFallback = os.Stdout
	}
	errorFallback := dependencies.ErrorWriter
	if errorFallback == nil {
		errorFallback = os.Stderr
	}

	infoWriter, infoWriterError := utils.ResolveRunLogWriter(configuration.Automation.InfoLogPath, infoFallback)
	if infoWriterError != nil {
		return nil, NewStepError(FailureKindConfiguration, configurationStepNameConstant, infoWriterError)
	}
	errorWriter, errorWriterError := utils.ResolveRunLogWriter(configuration.Automation.ErrorLogPath, errorFallback)
	if errorWriterError != nil {
		return nil, NewStepError(FailureKindConfiguration, configurationStepNameConstant, errorWriterError)
	}

	loggerFactory := utils.NewLoggerFactory()
	runLogger := loggerFactory.CreateRunLogger(infoWriter, errorWriter)

	repositoryManager := dependencies.RepositoryManager
	forgeClient := dependencies.ForgeClient
	if repositoryManager == nil || forgeClient == nil {
		shellExecutor, executorError := execshell.NewShellExecutor(dependencies.resolveLogger(), execshell.NewOSCommandRunner())
		if executorError != nil {
			return nil, executorError
		}
		shellExecutor.SetCommandEventObserver(ui.NewRunLogCommandEventLogger(runLogger))

		if repositoryManager == nil {
			managerInstance, managerError := gitrepo.NewRepositoryManager(shellExecutor)
			if managerError != nil {
				return nil, managerError
			}
			repositoryManager = managerInstance
		}
		if forgeClient == nil {
			clientInstance, clientError := forgecli.NewClient(shellExecutor, forgecli.Credentials{
				AccessToken: configuration.Credentials.AccessToken,
				Host:        configuration.ForgeHost(),
			})
			if clientError != nil {
				return nil, clientError
			}
			forgeClient = clientInstance
		}
	}

	service, serviceError := NewService(Dependencies{
		Configuration:     configuration,
		RepositoryManager: repositoryManager,
		ForgeClient:       forgeClient,
		RunLogger:         runLogger,
	})
	if serviceError != nil {
		return nil, serviceError
	}

	var historyStore *history.Store
	if len(configuration.Automation.HistoryDatabasePath) > 0 {
		storeInstance, storeError := history.OpenStore(configuration.Automation.HistoryDatabasePath)
		if storeError != nil {
			return nil, NewStepError(FailureKindConfiguration, configurationStepNameConstant, storeError)
		}
		historyStore = storeInstance
	}

	return &commandRuntime{
		configuration: configuration,
		service:       service,
		runLogger:     runLogger,
		historyStore:  historyStore,
	}, nil
}

// RunCommandBuilder assembles the Cobra command executing the automation sequence.
type RunCommandBuilder struct {
	Dependencies CommandDependencies
}

// Build constructs the run command.
func (builder *RunCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   runCommandUseConstant,
		Short: runCommandShortDescriptionConstant,
		Long:  runCommandLongDescriptionConstant,
		RunE:  builder.run,
	}
	command.Flags().StringSlice(flagStepsNameConstant, nil, flagStepsDescriptionConstant)
	command.Flags().String(flagSequenceFileNameConstant, "", flagSequenceFileDescriptionConstant)
	return command, nil
}

func (builder *RunCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(runUnexpectedArgumentsMessageConstant)
	}
	requestedSteps, _ := command.Flags().GetStringSlice(flagStepsNameConstant)

	sequenceFilePath, _ := command.Flags().GetString(flagSequenceFileNameConstant)
	if len(strings.TrimSpace(sequenceFilePath)) > 0 {
		definition, definitionError := LoadSequenceDefinition(sequenceFilePath)
		if definitionError != nil {
			return NewStepError(FailureKindConfiguration, configurationStepNameConstant, definitionError)
		}
		if len(requestedSteps) == 0 {
			requestedSteps = definition.Steps
		}

		baseProvider := builder.Dependencies.ConfigurationProvider
		overriddenBuilder := *builder
		overriddenBuilder.Dependencies.ConfigurationProvider = func() Configuration {
			configuration := Configuration{}
			if baseProvider != nil {
				configuration = baseProvider()
			}
			definition.ApplyOverrides(&configuration.Automation)
			return configuration
		}
		return overriddenBuilder.Execute(command.Context(), requestedSteps)
	}

	return builder.Execute(command.Context(), requestedSteps)
}

// Execute runs the sequence, optionally restricted to the requested step
// names. An empty request falls back to the configured step selection.
func (builder *RunCommandBuilder) Execute(executionContext context.Context, requestedSteps []string) error {
	runtime, runtimeError := assembleRuntime(builder.Dependencies)
	if runtimeError != nil {
		return runtimeError
	}
	defer runtime.close()

	if len(requestedSteps) == 0 {
		requestedSteps = runtime.configuration.Automation.Steps
	}
	selectedSteps, selectionError := workflow.SelectSteps(requestedSteps, runtime.service.Steps())
	if selectionError != nil {
		return NewStepError(FailureKindConfiguration, configurationStepNameConstant, selectionError)
	}

	if authenticationError := runtime.service.VerifyAuthentication(executionContext); authenticationError != nil {
		runtime.runLogger.Error(authenticationError.Error())
		return authenticationError
	}

	runner, runnerError := workflow.NewRunner(runtime.runLogger, workflow.RunnerOptions{
		ContinueOnError: runtime.configuration.Automation.ContinueOnError,
		RetryPolicy: workflow.RetryPolicy{
			MaxAttempts: runtime.configuration.Automation.RetryAttempts + 1,
			BaseDelay:   time.Second,
		},
	})
	if runnerError != nil {
		return runnerError
	}

	report := runner.Run(executionContext, selectedSteps)

	if runtime.historyStore != nil {
		runIdentifier, recordError := runtime.historyStore.RecordRun(report)
		if recordError != nil {
			runtime.runLogger.Error(recordError.Error())
		} else {
			runtime.runLogger.Sugar().Infof(historyRecordedMessageTemplateConstant, runIdentifier)
		}
	}

	failedSteps := report.FailedSteps()
	skippedCount := 0
	for _, stepResult := range report.Results {
		if stepResult.Status == workflow.StepStatusSkipped {
			skippedCount++
		}
	}
	runtime.runLogger.Sugar().Infof(runSummaryMessageTemplateConstant, len(report.Results), len(failedSteps), skippedCount)

	if report.Aborted || report.Halted {
		return fmt.Errorf(runFailedMessageTemplateConstant, len(failedSteps))
	}
	return nil
}
