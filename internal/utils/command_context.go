package utils

import "context"

type commandContextKey string

// configurationFilePathContextKey stores the configuration file the current
// invocation was loaded from.
const configurationFilePathContextKey = commandContextKey("configuration-file-path")

// CommandContextAccessor reads and writes the values the CLI carries on
// command execution contexts, such as the configuration file backing a run.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath returns a child context recording the
// configuration file path the automation run was started with.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationFilePathContextKey, configurationFilePath)
}

// ConfigurationFilePath reports the configuration file path recorded on the
// context and whether one was present.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	recordedPath, pathPresent := executionContext.Value(configurationFilePathContextKey).(string)
	if !pathPresent {
		return "", false
	}
	return recordedPath, true
}
