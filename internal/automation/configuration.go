package automation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/forgerun/forgerun/internal/utils"
)

const (
	defaultBaseURLConstant               = "https://github.com"
	defaultBranchNameConstant            = "main"
	defaultConflictBranchNameConstant    = "conflict-branch"
	defaultConflictFileNameConstant      = "CONFLICT.md"
	defaultMarkerConstant                = "automation"
	defaultRetryAttemptsConstant         = 2
	branchExistsPolicySkipConstant       = "skip"
	branchExistsPolicyFailConstant       = "fail"
	httpsSchemePrefixConstant            = "https://"
	httpSchemePrefixConstant             = "http://"
	missingCredentialTemplateConstant    = "credentials.%s must be provided"
	invalidBranchPolicyTemplateConstant  = "automation.branch_exists_policy must be %q or %q, got %q"
	negativeTimeoutMessageConstant       = "automation.operation_timeout_seconds must not be negative"
	negativeRetryAttemptsMessageConstant = "automation.retry_attempts must not be negative"
	accessTokenKeyNameConstant           = "access_token"
	baseURLKeyNameConstant               = "base_url"
	usernameKeyNameConstant              = "username"
	repositoryNameKeyNameConstant        = "repo_name"
	repositoryDirectoryKeyNameConstant   = "repo_dir"
)

var defaultFeatureBranchNames = []string{"feature-1", "feature-2", "feature-3"}

// BranchExistsPolicy selects the reaction to pre-existing branches.
type BranchExistsPolicy string

// Branch exists policy enumerations.
const (
	BranchExistsPolicySkip BranchExistsPolicy = BranchExistsPolicy(branchExistsPolicySkipConstant)
	BranchExistsPolicyFail BranchExistsPolicy = BranchExistsPolicy(branchExistsPolicyFailConstant)
)

// CommonConfiguration captures diagnostic logging settings.
type CommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// CredentialsConfiguration captures the forge account and target repository.
type CredentialsConfiguration struct {
	AccessToken         string `mapstructure:"access_token"`
	BaseURL             string `mapstructure:"base_url"`
	Username            string `mapstructure:"username"`
	RepositoryName      string `mapstructure:"repo_name"`
	RepositoryDirectory string `mapstructure:"repo_dir"`
}

// SequenceConfiguration tunes the automation sequence itself.
type SequenceConfiguration struct {
	DefaultBranch           string   `mapstructure:"default_branch"`
	ConflictBranch          string   `mapstructure:"conflict_branch"`
	ConflictFile            string   `mapstructure:"conflict_file"`
	FeatureBranches         []string `mapstructure:"feature_branches"`
	Marker                  string   `mapstructure:"marker"`
	ReuseExistingRepository bool     `mapstructure:"reuse_existing_repo"`
	BranchExistsPolicy      string   `mapstructure:"branch_exists_policy"`
	ContinueOnError         bool     `mapstructure:"continue_on_error"`
	OperationTimeoutSeconds int      `mapstructure:"operation_timeout_seconds"`
	RetryAttempts           int      `mapstructure:"retry_attempts"`
	InfoLogPath             string   `mapstructure:"info_log_path"`
	ErrorLogPath            string   `mapstructure:"error_log_path"`
	HistoryDatabasePath     string   `mapstructure:"history_database_path"`
	Steps                   []string `mapstructure:"steps"`
}

// Configuration is the root configuration record for a run.
type Configuration struct {
	Common      CommonConfiguration      `mapstructure:"common"`
	Credentials CredentialsConfiguration `mapstructure:"credentials"`
	Automation  SequenceConfiguration    `mapstructure:"automation"`
}

// DefaultConfigurationValues supplies viper defaults for every optional key.
func DefaultConfigurationValues() map[string]any {
	return map[string]any{
		"common.log_level":                     string(utils.LogLevelInfo),
		"common.log_format":                    string(utils.LogFormatStructured),
		"credentials.base_url":                 defaultBaseURLConstant,
		"automation.default_branch":            defaultBranchNameConstant,
		"automation.conflict_branch":           defaultConflictBranchNameConstant,
		"automation.conflict_file":             defaultConflictFileNameConstant,
		"automation.feature_branches":          defaultFeatureBranchNames,
		"automation.marker":                    defaultMarkerConstant,
		"automation.reuse_existing_repo":       true,
		"automation.branch_exists_policy":      branchExistsPolicySkipConstant,
		"automation.continue_on_error":         true,
		"automation.operation_timeout_seconds": 0,
		"automation.retry_attempts":            defaultRetryAttemptsConstant,
	}
}

// Sanitize trims whitespace and fills empty optional fields with defaults.
func (configuration *Configuration) Sanitize() {
	configuration.Common.LogLevel = strings.TrimSpace(configuration.Common.LogLevel)
	if len(configuration.Common.LogLevel) == 0 {
		configuration.Common.LogLevel = string(utils.LogLevelInfo)
	}
	configuration.Common.LogFormat = strings.TrimSpace(configuration.Common.LogFormat)
	if len(configuration.Common.LogFormat) == 0 {
		configuration.Common.LogFormat = string(utils.LogFormatStructured)
	}

	configuration.Credentials.AccessToken = strings.TrimSpace(configuration.Credentials.AccessToken)
	configuration.Credentials.BaseURL = strings.TrimRight(strings.TrimSpace(configuration.Credentials.BaseURL), "/")
	if len(configuration.Credentials.BaseURL) == 0 {
		configuration.Credentials.BaseURL = defaultBaseURLConstant
	}
	configuration.Credentials.Username = strings.TrimSpace(configuration.Credentials.Username)
	configuration.Credentials.RepositoryName = strings.TrimSpace(configuration.Credentials.RepositoryName)
	configuration.Credentials.RepositoryDirectory = strings.TrimSpace(configuration.Credentials.RepositoryDirectory)

	configuration.Automation.DefaultBranch = strings.TrimSpace(configuration.Automation.DefaultBranch)
	if len(configuration.Automation.DefaultBranch) == 0 {
		configuration.Automation.DefaultBranch = defaultBranchNameConstant
	}
	configuration.Automation.ConflictBranch = strings.TrimSpace(configuration.Automation.ConflictBranch)
	if len(configuration.Automation.ConflictBranch) == 0 {
		configuration.Automation.ConflictBranch = defaultConflictBranchNameConstant
	}
	configuration.Automation.ConflictFile = strings.TrimSpace(configuration.Automation.ConflictFile)
	if len(configuration.Automation.ConflictFile) == 0 {
		configuration.Automation.ConflictFile = defaultConflictFileNameConstant
	}
	if len(configuration.Automation.FeatureBranches) == 0 {
		configuration.Automation.FeatureBranches = append([]string{}, defaultFeatureBranchNames...)
	}
	configuration.Automation.Marker = strings.TrimSpace(configuration.Automation.Marker)
	if len(configuration.Automation.Marker) == 0 {
		configuration.Automation.Marker = defaultMarkerConstant
	}
	configuration.Automation.BranchExistsPolicy = strings.TrimSpace(strings.ToLower(configuration.Automation.BranchExistsPolicy))
	if len(configuration.Automation.BranchExistsPolicy) == 0 {
		configuration.Automation.BranchExistsPolicy = branchExistsPolicySkipConstant
	}
}

// Validate reports configuration failures. Every credentials key is required.
func (configuration Configuration) Validate() error {
	requiredCredentials := []struct {
		keyName string
		value   string
	}{
		{keyName: accessTokenKeyNameConstant, value: configuration.Credentials.AccessToken},
		{keyName: baseURLKeyNameConstant, value: configuration.Credentials.BaseURL},
		{keyName: usernameKeyNameConstant, value: configuration.Credentials.Username},
		{keyName: repositoryNameKeyNameConstant, value: configuration.Credentials.RepositoryName},
		{keyName: repositoryDirectoryKeyNameConstant, value: configuration.Credentials.RepositoryDirectory},
	}
	for _, requiredCredential := range requiredCredentials {
		if len(strings.TrimSpace(requiredCredential.value)) == 0 {
			return NewStepError(FailureKindConfiguration, configurationStepNameConstant, fmt.Errorf(missingCredentialTemplateConstant, requiredCredential.keyName))
		}
	}

	switch BranchExistsPolicy(configuration.Automation.BranchExistsPolicy) {
	case BranchExistsPolicySkip, BranchExistsPolicyFail:
	default:
		return NewStepError(FailureKindConfiguration, configurationStepNameConstant, fmt.Errorf(invalidBranchPolicyTemplateConstant, branchExistsPolicySkipConstant, branchExistsPolicyFailConstant, configuration.Automation.BranchExistsPolicy))
	}

	if configuration.Automation.OperationTimeoutSeconds < 0 {
		return NewStepError(FailureKindConfiguration, configurationStepNameConstant, errors.New(negativeTimeoutMessageConstant))
	}
	if configuration.Automation.RetryAttempts < 0 {
		return NewStepError(FailureKindConfiguration, configurationStepNameConstant, errors.New(negativeRetryAttemptsMessageConstant))
	}
	return nil
}

// RepositoryWithOwner renders the owner/name identifier used by forge APIs.
func (configuration Configuration) RepositoryWithOwner() string {
	return configuration.Credentials.Username + "/" + configuration.Credentials.RepositoryName
}

// ForgeHost derives the GH_HOST value from the configured base URL. The
// default public host maps to an empty value so gh keeps its own default.
func (configuration Configuration) ForgeHost() string {
	hostName := configuration.Credentials.BaseURL
	hostName = strings.TrimPrefix(hostName, httpsSchemePrefixConstant)
	hostName = strings.TrimPrefix(hostName, httpSchemePrefixConstant)
	hostName = strings.TrimSuffix(hostName, "/")
	if hostName == "github.com" {
		return ""
	}
	return hostName
}
